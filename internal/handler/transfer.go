package handler

import (
	"context"
	"fmt"
	"os"

	"filegenie/internal/logging"
	"filegenie/internal/sandbox"
)

// MoveFile backs up the source then relocates it inside the sandbox.
func (s *Set) MoveFile(_ context.Context, args []string, box sandbox.Sandbox) error {
	if len(args) < 2 {
		return fmt.Errorf(`%w: usage /move_file "src" "dst"`, ErrMalformedArgument)
	}
	src, err := box.Resolve(args[0])
	if err != nil {
		return err
	}
	dst, err := box.Resolve(args[1])
	if err != nil {
		return err
	}
	if _, err := os.Stat(src); err != nil {
		logging.UserLog("move_file: source not found %s", src)
		return nil
	}
	if err := ensureParentDir(dst); err != nil {
		return fmt.Errorf("create parent of %s: %w", dst, err)
	}
	backup, err := timestampedBackup(src)
	if err != nil {
		return err
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("move %s to %s: %w", src, dst, err)
	}
	if backup != "" && !s.keepBackups {
		os.Remove(backup)
	}
	logging.UserLog("move_file: %s -> %s", src, dst)
	return nil
}

// CopyFile reads a file into the single-slot clipboard. It touches nothing
// on disk.
func (s *Set) CopyFile(_ context.Context, args []string, box sandbox.Sandbox) error {
	if len(args) == 0 {
		return fmt.Errorf(`%w: usage /copy_file "path"`, ErrMalformedArgument)
	}
	src, err := box.Resolve(args[0])
	if err != nil {
		return err
	}
	info, err := os.Stat(src)
	if err != nil || !info.Mode().IsRegular() {
		logging.UserLog("copy_file: file not found %s", src)
		return nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	s.clip.store(string(data), src)
	logging.UserLog("copy_file: %s copied to clipboard (%d bytes)", src, len(data))
	return nil
}

// PasteFile writes the clipboard content to a new target, subject to the
// extension allow-list. The clipboard is read, not cleared. Paste with an
// empty clipboard is a no-op.
func (s *Set) PasteFile(_ context.Context, args []string, box sandbox.Sandbox) error {
	if len(args) == 0 {
		return fmt.Errorf(`%w: usage /paste_file "destination"`, ErrMalformedArgument)
	}
	content, source, ok := s.clip.get()
	if !ok {
		logging.UserLog("paste_file: clipboard is empty")
		return nil
	}
	dst, err := box.Resolve(args[0])
	if err != nil {
		return err
	}
	if err := s.checkExtension(dst); err != nil {
		return err
	}
	if err := s.writeWithBackup(dst, content); err != nil {
		return err
	}
	logging.UserLog("paste_file: pasted %s into %s", source, dst)
	return nil
}
