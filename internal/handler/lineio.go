package handler

import (
	"errors"
	"os"
	"strings"
)

// readLines loads a file as a line slice plus a flag recording whether the
// file ended with a newline. A missing file reads as zero lines.
func readLines(path string) ([]string, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	trailing := len(data) > 0 && data[len(data)-1] == '\n'
	text := strings.TrimRight(string(data), "\n")
	if text == "" {
		return []string{}, trailing, nil
	}
	return strings.Split(text, "\n"), trailing, nil
}

// joinLines is the single line-reassembly rule for every line-level edit:
// join with newlines and keep the original file's trailing-newline state.
func joinLines(lines []string, trailing bool) string {
	if len(lines) == 0 {
		if trailing {
			return "\n"
		}
		return ""
	}
	out := strings.Join(lines, "\n")
	if trailing {
		out += "\n"
	}
	return out
}
