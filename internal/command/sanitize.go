package command

import (
	"regexp"
	"strings"
)

var commandLine = regexp.MustCompile(`^\s*/[A-Za-z_]\w*`)

// NormalizeFenceContent drops a single leading newline from content captured
// out of a fenced block, compensating for the convention that fence content
// starts on the line after the opener.
func NormalizeFenceContent(content string) string {
	if strings.HasPrefix(content, "\n") {
		return content[1:]
	}
	return content
}

// StripCommandLines removes every line that itself reads as a command
// invocation, so written file content can never be reinterpreted as further
// commands on a later scan. The trailing-newline state of the input is kept.
func StripCommandLines(content string) string {
	if content == "" {
		return ""
	}
	trailing := strings.HasSuffix(content, "\n")
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if commandLine.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	out := strings.Join(kept, "\n")
	if trailing && out != "" {
		out += "\n"
	}
	return out
}

// HasCommandLines reports whether any line of content would parse as a
// command invocation.
func HasCommandLines(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		if commandLine.MatchString(line) {
			return true
		}
	}
	return false
}
