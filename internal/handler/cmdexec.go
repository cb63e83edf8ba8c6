package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"filegenie/internal/logging"
	"filegenie/internal/sandbox"
)

// Cmd executes an external command, but only when the full command line
// matches one of the configured allow-list patterns (package-install
// invocations). It runs without a shell, in the sandbox root, with a
// bounded timeout and captured output.
func (s *Set) Cmd(ctx context.Context, args []string, box sandbox.Sandbox) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: cmd needs a command line", ErrMalformedArgument)
	}
	cmdline := strings.TrimSpace(strings.Join(args, " "))
	allowed := false
	for _, re := range s.cmdAllow {
		if re.MatchString(cmdline) {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: command not allow-listed: %q", ErrPolicyRefusal, cmdline)
	}

	argv, err := splitCommand(cmdline)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedArgument, err)
	}
	logging.UserLog("cmd: running %v (timeout %s)", argv, s.cmdTimeout)

	runCtx, cancel := context.WithTimeout(ctx, s.cmdTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Dir = box.Root()
	cmd.Stdin = nil
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	if out := strings.TrimSpace(stdout.String()); out != "" {
		logging.UserLog("cmd stdout:\n%s", out)
	}
	if out := strings.TrimSpace(stderr.String()); out != "" {
		logging.UserLog("cmd stderr:\n%s", out)
	}
	if runErr != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s: %q", ErrTimeout, s.cmdTimeout, cmdline)
		}
		return fmt.Errorf("cmd %q: %w", cmdline, runErr)
	}
	logging.UserLog("cmd: completed in %dms", duration.Milliseconds())
	return nil
}

// splitCommand splits a command line into argv, honoring single and double
// quotes and backslash escapes. No shell is ever involved.
func splitCommand(cmdline string) ([]string, error) {
	var argv []string
	var current strings.Builder
	var inQuote rune
	escaped := false

	for _, ch := range cmdline {
		switch {
		case escaped:
			current.WriteRune(ch)
			escaped = false
		case ch == '\\':
			escaped = true
		case inQuote != 0:
			if ch == inQuote {
				inQuote = 0
			} else {
				current.WriteRune(ch)
			}
		case ch == '"' || ch == '\'':
			inQuote = ch
		case ch == ' ' || ch == '\t':
			if current.Len() > 0 {
				argv = append(argv, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(ch)
		}
	}
	if inQuote != 0 {
		return nil, errors.New("unclosed quote in command")
	}
	if current.Len() > 0 {
		argv = append(argv, current.String())
	}
	if len(argv) == 0 {
		return nil, errors.New("empty command")
	}
	return argv, nil
}
