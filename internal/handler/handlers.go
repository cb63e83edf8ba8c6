package handler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"filegenie/internal/command"
	"filegenie/internal/logging"
	"filegenie/internal/sandbox"
)

// CreateFolder creates a directory (and parents) under the sandbox.
// No-op if it already exists.
func (s *Set) CreateFolder(_ context.Context, args []string, box sandbox.Sandbox) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: create_folder needs a folder name", ErrMalformedArgument)
	}
	target, err := box.Resolve(args[0])
	if err != nil {
		return err
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("create folder %s: %w", target, err)
	}
	logging.UserLog("create_folder: %s", target)
	return nil
}

// CreateFile creates or writes a file. The second argument may redirect the
// file into a subdirectory; a multi-line argument becomes the content. With
// no content the file is created empty if absent and left untouched if
// present.
func (s *Set) CreateFile(_ context.Context, args []string, box sandbox.Sandbox) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: create_file needs a file name", ErrMalformedArgument)
	}
	name := args[0]
	rawTarget := name
	content := ""
	hasContent := false
	if len(args) >= 2 {
		if strings.Contains(args[1], "\n") {
			content = strings.Join(args[1:], "\n")
			hasContent = true
		} else {
			second := args[1]
			mapped, err := box.Resolve(second)
			if err != nil {
				return err
			}
			info, statErr := os.Stat(mapped)
			switch {
			case strings.HasSuffix(second, "/") || strings.HasSuffix(second, "\\") ||
				(statErr == nil && info.IsDir()):
				rawTarget = second + "/" + name
			case filepath.Ext(second) != "":
				rawTarget = second
			default:
				rawTarget = second + "/" + name
			}
			if len(args) > 2 && strings.Contains(args[2], "\n") {
				content = strings.Join(args[2:], "\n")
				hasContent = true
			}
		}
	}
	target, err := box.Resolve(rawTarget)
	if err != nil {
		return err
	}
	if !hasContent {
		if _, statErr := os.Stat(target); statErr == nil {
			logging.UserLog("create_file: %s already exists, unchanged", target)
			return nil
		}
		if err := atomicWrite(target, ""); err != nil {
			return err
		}
		logging.UserLog("create_file: created empty %s", target)
		return nil
	}
	content = command.NormalizeFenceContent(content)
	if command.HasCommandLines(content) {
		logging.DevLog("create_file: stripping command lines from content for %s", target)
		content = command.StripCommandLines(content)
	}
	if content == "" {
		return fmt.Errorf("%w: content for %s is empty after sanitizing", ErrPolicyRefusal, target)
	}
	if err := s.checkExtension(target); err != nil {
		return err
	}
	if err := s.writeWithBackup(target, content); err != nil {
		return err
	}
	logging.UserLog("create_file: wrote %s (%d bytes)", target, len(content))
	return nil
}

// SetContent overwrites a whole file, or with the "line" form replaces
// exactly one line, padding with blank lines when the file is shorter.
func (s *Set) SetContent(_ context.Context, args []string, box sandbox.Sandbox) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: set needs arguments", ErrMalformedArgument)
	}
	if args[0] == "line" {
		return s.setLine(args[1:], box)
	}
	target, err := box.Resolve(args[0])
	if err != nil {
		return err
	}
	content := multilineJoin(args[1:])
	content = command.NormalizeFenceContent(content)
	if command.HasCommandLines(content) {
		logging.DevLog("set: stripping command lines from content for %s", target)
		content = command.StripCommandLines(content)
	}
	if content == "" {
		if _, statErr := os.Stat(target); statErr == nil {
			logging.UserLog("set: content empty after sanitizing, %s unchanged", target)
			return nil
		}
	}
	if err := s.writeWithBackup(target, content); err != nil {
		return err
	}
	logging.UserLog("set: wrote %s (%d bytes)", target, len(content))
	return nil
}

func (s *Set) setLine(args []string, box sandbox.Sandbox) error {
	if len(args) < 3 {
		return fmt.Errorf(`%w: usage /set line <number> "path" "new line"`, ErrMalformedArgument)
	}
	lineNum, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: invalid line number %q", ErrMalformedArgument, args[0])
	}
	target, err := box.Resolve(args[1])
	if err != nil {
		return err
	}
	newLine := strings.Join(args[2:], " ")
	lines, trailing, err := readLines(target)
	if err != nil {
		return fmt.Errorf("read %s: %w", target, err)
	}
	idx := lineNum - 1
	if idx < 0 {
		idx = 0
	}
	for len(lines) < idx {
		lines = append(lines, "")
	}
	if idx < len(lines) {
		lines[idx] = newLine
	} else {
		lines = append(lines, newLine)
	}
	if err := s.writeWithBackup(target, joinLines(lines, trailing)); err != nil {
		return err
	}
	logging.UserLog("set line: line %d updated in %s", lineNum, target)
	return nil
}

// Append concatenates sanitized content to the end of a file, creating it
// when absent. No-op when the content sanitizes to nothing.
func (s *Set) Append(_ context.Context, args []string, box sandbox.Sandbox) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: append needs a path", ErrMalformedArgument)
	}
	target, err := box.Resolve(args[0])
	if err != nil {
		return err
	}
	content := multilineJoin(args[1:])
	content = command.NormalizeFenceContent(content)
	if command.HasCommandLines(content) {
		logging.DevLog("append: stripping command lines from content for %s", target)
		content = command.StripCommandLines(content)
	}
	if content == "" {
		logging.UserLog("append: nothing to add after sanitizing, %s unchanged", target)
		return nil
	}
	existing, err := os.ReadFile(target)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read %s: %w", target, err)
	}
	if err := s.writeWithBackup(target, string(existing)+content); err != nil {
		return err
	}
	logging.UserLog("append: added %d bytes to %s", len(content), target)
	return nil
}

// Replace substitutes every occurrence of a literal substring in a file.
func (s *Set) Replace(_ context.Context, args []string, box sandbox.Sandbox) error {
	if len(args) < 3 {
		return fmt.Errorf(`%w: usage /replace "path" "old" "new"`, ErrMalformedArgument)
	}
	target, err := box.Resolve(args[0])
	if err != nil {
		return err
	}
	data, err := os.ReadFile(target)
	if os.IsNotExist(err) {
		logging.UserLog("replace: file not found %s", target)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", target, err)
	}
	old := command.NormalizeFenceContent(args[1])
	repl := command.NormalizeFenceContent(strings.Join(args[2:], " "))
	updated := strings.ReplaceAll(string(data), old, repl)
	if command.HasCommandLines(updated) {
		logging.DevLog("replace: stripping command lines from result for %s", target)
		updated = command.StripCommandLines(updated)
	}
	if err := s.writeWithBackup(target, updated); err != nil {
		return err
	}
	logging.UserLog("replace: %s, %d -> %d bytes", target, len(data), len(updated))
	return nil
}

// DeleteFile backs up then removes a regular file. The backup is always
// retained; it is the rollback for the deletion.
func (s *Set) DeleteFile(_ context.Context, args []string, box sandbox.Sandbox) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: delete_file needs a path", ErrMalformedArgument)
	}
	target, err := box.Resolve(args[0])
	if err != nil {
		return err
	}
	info, err := os.Stat(target)
	if err != nil || !info.Mode().IsRegular() {
		logging.UserLog("delete_file: not found or not a regular file: %s", target)
		return nil
	}
	if _, err := timestampedBackup(target); err != nil {
		return err
	}
	if err := os.Remove(target); err != nil {
		return fmt.Errorf("remove %s: %w", target, err)
	}
	logging.UserLog("delete_file: removed %s", target)
	return nil
}

// DeleteFolder moves a directory into the sandbox-local trash rather than
// deleting it outright.
func (s *Set) DeleteFolder(_ context.Context, args []string, box sandbox.Sandbox) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: delete_folder needs a path", ErrMalformedArgument)
	}
	target, err := box.Resolve(args[0])
	if err != nil {
		return err
	}
	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		logging.UserLog("delete_folder: not found or not a directory: %s", target)
		return nil
	}
	trash := filepath.Join(box.Root(), ".trash")
	if err := os.MkdirAll(trash, 0o755); err != nil {
		return fmt.Errorf("create trash dir: %w", err)
	}
	dest := filepath.Join(trash, fmt.Sprintf("%s.deleted.%s", filepath.Base(target), time.Now().Format(backupStamp)))
	if err := os.Rename(target, dest); err != nil {
		return fmt.Errorf("move %s to trash: %w", target, err)
	}
	logging.UserLog("delete_folder: moved to trash: %s", dest)
	return nil
}

// RemoveLine deletes line N (1-indexed) when it is in range.
func (s *Set) RemoveLine(_ context.Context, args []string, box sandbox.Sandbox) error {
	if len(args) < 2 {
		return fmt.Errorf(`%w: usage /remove_line <number> "path"`, ErrMalformedArgument)
	}
	lineNum, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: invalid line number %q", ErrMalformedArgument, args[0])
	}
	target, err := box.Resolve(args[1])
	if err != nil {
		return err
	}
	if _, err := os.Stat(target); err != nil {
		logging.UserLog("remove_line: file not found %s", target)
		return nil
	}
	lines, trailing, err := readLines(target)
	if err != nil {
		return fmt.Errorf("read %s: %w", target, err)
	}
	idx := lineNum - 1
	if idx < 0 || idx >= len(lines) {
		logging.UserLog("remove_line: line %d out of range for %s", lineNum, target)
		return nil
	}
	removed := lines[idx]
	lines = append(lines[:idx], lines[idx+1:]...)
	if err := s.writeWithBackup(target, joinLines(lines, trailing)); err != nil {
		return err
	}
	logging.UserLog("remove_line: removed line %d from %s (%q)", lineNum, target, removed)
	return nil
}

func (s *Set) checkExtension(target string) error {
	ext := filepath.Ext(target)
	if _, ok := s.allowedExt[ext]; !ok {
		return fmt.Errorf("%w: extension %q not allowed for %s", ErrPolicyRefusal, ext, target)
	}
	return nil
}

// multilineJoin reassembles a content argument the way the command language
// expects: multi-line (fenced) arguments joined by newlines win over a run
// of bare tokens joined by spaces.
func multilineJoin(args []string) string {
	var multi []string
	for _, a := range args {
		if strings.Contains(a, "\n") {
			multi = append(multi, a)
		}
	}
	if len(multi) > 0 {
		return strings.Join(multi, "\n")
	}
	return strings.Join(args, " ")
}
