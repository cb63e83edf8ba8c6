package handler

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"filegenie/internal/command"
	"filegenie/internal/logging"
	"filegenie/internal/sandbox"
)

var patchOpLine = regexp.MustCompile(`^\s*(\d+)\s*([+-])\s*(.*)$`)

type patchOp struct {
	line int
	op   byte
	text string
}

// Patch applies a line-numbered op list to a file. Each patch line reads
// "<lineno> <+|-> <text>". Removals are applied first in descending line
// order so earlier removals never shift later ones, then insertions in
// ascending order. A removal carrying text only removes when the current
// line's trimmed text matches. Unrecognized op lines are skipped.
func (s *Set) Patch(_ context.Context, args []string, box sandbox.Sandbox) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: usage /patch \"path\" ```ops```", ErrMalformedArgument)
	}
	target, err := box.Resolve(args[0])
	if err != nil {
		return err
	}
	if _, err := os.Stat(target); err != nil {
		logging.UserLog("patch: file not found %s", target)
		return nil
	}
	ops := parsePatchOps(strings.Join(args[1:], "\n"))
	if len(ops) == 0 {
		logging.UserLog("patch: no usable ops for %s", target)
		return nil
	}
	lines, trailing, err := readLines(target)
	if err != nil {
		return fmt.Errorf("read %s: %w", target, err)
	}
	lines = applyPatchOps(lines, ops)
	updated := joinLines(lines, trailing)
	if command.HasCommandLines(updated) {
		logging.DevLog("patch: stripping command lines from result for %s", target)
		updated = command.StripCommandLines(updated)
	}
	if err := s.writeWithBackup(target, updated); err != nil {
		return err
	}
	logging.UserLog("patch: applied %d op(s) to %s", len(ops), target)
	return nil
}

func parsePatchOps(text string) []patchOp {
	var ops []patchOp
	for _, raw := range strings.Split(text, "\n") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		m := patchOpLine.FindStringSubmatch(raw)
		if m == nil {
			logging.UserLog("patch: unrecognized op line skipped: %q", raw)
			continue
		}
		lineNum, err := strconv.Atoi(m[1])
		if err != nil {
			logging.UserLog("patch: unrecognized line number skipped: %q", raw)
			continue
		}
		ops = append(ops, patchOp{line: lineNum, op: m[2][0], text: m[3]})
	}
	return ops
}

func applyPatchOps(lines []string, ops []patchOp) []string {
	var removes, inserts []patchOp
	for _, op := range ops {
		if op.op == '-' {
			removes = append(removes, op)
		} else {
			inserts = append(inserts, op)
		}
	}
	sort.SliceStable(removes, func(i, j int) bool { return removes[i].line > removes[j].line })
	for _, op := range removes {
		idx := op.line - 1
		if idx < 0 || idx >= len(lines) {
			logging.UserLog("patch: remove line %d out of range, skipped", op.line)
			continue
		}
		if op.text != "" && strings.TrimSpace(lines[idx]) != strings.TrimSpace(op.text) {
			logging.UserLog("patch: line %d content differs, removal skipped", op.line)
			continue
		}
		logging.DevLog("patch: removed line %d (%q)", op.line, lines[idx])
		lines = append(lines[:idx], lines[idx+1:]...)
	}
	sort.SliceStable(inserts, func(i, j int) bool { return inserts[i].line < inserts[j].line })
	for _, op := range inserts {
		idx := op.line - 1
		if idx < 0 {
			idx = 0
		}
		for len(lines) < idx {
			lines = append(lines, "")
		}
		if idx >= len(lines) {
			lines = append(lines, op.text)
		} else {
			lines = append(lines[:idx], append([]string{op.text}, lines[idx:]...)...)
		}
		logging.DevLog("patch: inserted at line %d: %q", op.line, op.text)
	}
	return lines
}
