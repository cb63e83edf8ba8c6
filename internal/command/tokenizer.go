// Package command extracts slash-commands embedded in assistant message text
// and sanitizes content arguments before they reach the filesystem.
package command

import (
	"regexp"
	"strings"
)

// Command is a single parsed invocation: a name and its ordered arguments.
// Immutable once produced by Extract.
type Command struct {
	Name string
	Args []string
}

var namePattern = regexp.MustCompile(`^/([A-Za-z_]\w*)`)

// Extract scans text for commands of the form "/name arg...". Commands may
// only begin at the start of a line, so a slash inside prose never triggers
// one. Arguments are fenced blocks, quoted strings, or bare tokens, consumed
// greedily until the next command or end of text. Extract never fails:
// malformed input yields fewer commands, not an error.
func Extract(text string) []Command {
	var commands []Command
	i := 0
	for {
		m := strings.IndexByte(text[i:], '/')
		if m < 0 {
			break
		}
		m += i
		if m > 0 && text[m-1] != '\n' && text[m-1] != '\r' {
			i = m + 1
			continue
		}
		match := namePattern.FindStringSubmatch(text[m:])
		if match == nil {
			i = m + 1
			continue
		}
		args, next := consumeArgs(text, m+len(match[0]))
		commands = append(commands, Command{Name: match[1], Args: args})
		i = next
	}
	return commands
}

// consumeArgs reads arguments starting at pos and returns them along with the
// position scanning should resume from.
func consumeArgs(text string, pos int) ([]string, int) {
	var args []string
	n := len(text)
	for {
		for pos < n && isSpace(text[pos]) {
			pos++
		}
		if pos >= n || text[pos] == '/' {
			return args, pos
		}
		switch {
		case text[pos] == '`' && pos+2 < n && text[pos:pos+3] == "```":
			var val string
			val, pos = consumeFence(text, pos)
			args = append(args, val)
		case text[pos] == '"' || text[pos] == '\'':
			var val string
			val, pos = consumeQuoted(text, pos)
			args = append(args, val)
		default:
			start := pos
			for pos < n && !isSpace(text[pos]) && text[pos] != '/' {
				pos++
			}
			if pos > start {
				args = append(args, text[start:pos])
			}
		}
	}
}

// consumeFence reads a triple-backtick block starting at pos. When a newline
// follows the opening fence its first line is a language tag and is dropped.
// An unterminated fence consumes to end of text.
func consumeFence(text string, pos int) (string, int) {
	n := len(text)
	start := pos + 3
	if nl := strings.IndexByte(text[start:], '\n'); nl >= 0 {
		bodyStart := start + nl + 1
		end := strings.Index(text[bodyStart:], "```")
		if end < 0 {
			return text[bodyStart:], n
		}
		return text[bodyStart : bodyStart+end], bodyStart + end + 3
	}
	end := strings.Index(text[start:], "```")
	if end < 0 {
		return text[start:], n
	}
	return text[start : start+end], start + end + 3
}

// consumeQuoted reads a single- or double-quoted string starting at pos,
// honoring backslash escapes. An unterminated quote consumes to end of text.
func consumeQuoted(text string, pos int) (string, int) {
	n := len(text)
	quote := text[pos]
	var val strings.Builder
	j := pos + 1
	escaped := false
	for ; j < n; j++ {
		c := text[j]
		switch {
		case escaped:
			val.WriteByte(c)
			escaped = false
		case c == '\\':
			escaped = true
		case c == quote:
			return val.String(), j + 1
		default:
			val.WriteByte(c)
		}
	}
	return val.String(), j
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
