// Package sandbox confines user-supplied paths to a single base directory.
package sandbox

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutOfSandbox is returned when a resolved path would land outside the
// base directory. No mutation may proceed past this error.
var ErrOutOfSandbox = errors.New("path escapes sandbox")

// Sandbox resolves raw path strings against one canonical base directory.
// It holds no other state; Resolve is a pure function of (path, base).
type Sandbox struct {
	root string
}

// New canonicalizes root (which must exist) and returns a Sandbox rooted there.
func New(root string) (Sandbox, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Sandbox{}, fmt.Errorf("resolve sandbox root: %w", err)
	}
	canon, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return Sandbox{}, fmt.Errorf("canonicalize sandbox root %s: %w", abs, err)
	}
	return Sandbox{root: canon}, nil
}

// Root returns the canonical base directory.
func (s Sandbox) Root() string {
	return s.root
}

// Resolve maps raw onto an absolute path inside the base directory. Quotes
// are stripped and separators normalized; an absolute-looking input is
// re-rooted under the base rather than honored. Symlinks are resolved as far
// as the path exists, then the remainder is checked lexically. Any result
// outside the base fails with ErrOutOfSandbox.
func (s Sandbox) Resolve(raw string) (string, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.Trim(cleaned, `"'`)
	cleaned = strings.ReplaceAll(cleaned, "\\", "/")
	if filepath.IsAbs(cleaned) {
		cleaned = strings.TrimLeft(cleaned, "/")
	}
	candidate := filepath.Clean(filepath.Join(s.root, filepath.FromSlash(cleaned)))

	canon, err := canonicalize(candidate)
	if err != nil {
		return "", fmt.Errorf("canonicalize %s: %w", raw, err)
	}
	if canon != s.root && !strings.HasPrefix(canon, s.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrOutOfSandbox, raw)
	}
	return canon, nil
}

// canonicalize resolves symlinks for the longest existing prefix of path and
// rejoins the nonexistent remainder, so not-yet-created targets can still be
// checked against the base directory's real location.
func canonicalize(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	var missing []string
	current := path
	for {
		parent := filepath.Dir(current)
		if parent == current {
			return filepath.Clean(path), nil
		}
		missing = append(missing, filepath.Base(current))
		current = parent
		resolved, err = filepath.EvalSymlinks(current)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}
	for i := len(missing) - 1; i >= 0; i-- {
		resolved = filepath.Join(resolved, missing[i])
	}
	return resolved, nil
}
