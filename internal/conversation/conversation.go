// Package conversation decodes exported chat files and extracts the visible
// assistant text from their versioned, multi-step message structure.
package conversation

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// File is one exported conversation. Messages keep their raw shape; text
// extraction walks versions and steps lazily.
type File struct {
	Name     string    `json:"name"`
	Title    string    `json:"title"`
	Messages []Message `json:"messages"`
}

// Message is one chat turn. Older exports carry role/content directly; newer
// ones wrap regenerations in a versions list with a selection index.
type Message struct {
	Role              string          `json:"role"`
	Author            string          `json:"author"`
	Content           json.RawMessage `json:"content"`
	Text              string          `json:"text"`
	Versions          []Version       `json:"versions"`
	CurrentlySelected *int            `json:"currentlySelected"`
}

// Version is one regeneration of a message.
type Version struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
	Text    string          `json:"text"`
	Steps   []Step          `json:"steps"`
}

// Step is one generation step inside a version. Steps styled "thinking"
// carry chain-of-thought and are never executed.
type Step struct {
	Style   Style           `json:"style"`
	Content json.RawMessage `json:"content"`
}

type Style struct {
	Type string `json:"type"`
}

var thinkBlock = regexp.MustCompile(`(?is)<think>.*?</think>`)

// assistantRoles are the roles whose messages may carry commands.
var assistantRoles = map[string]bool{
	"assistant": true,
	"system":    true,
	"bot":       true,
	"model":     true,
}

// AssistantRole reports whether a (lowercased) role is one whose text gets
// scanned for commands.
func AssistantRole(role string) bool {
	return assistantRoles[role]
}

// ReadFile loads and decodes a conversation file.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read conversation %s: %w", path, err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode conversation %s: %w", path, err)
	}
	return &f, nil
}

// DisplayName returns the conversation's user-facing name: name, then title,
// then the fallback (usually the file stem).
func (f *File) DisplayName(fallback string) string {
	if name := strings.TrimSpace(f.Name); name != "" {
		return name
	}
	if title := strings.TrimSpace(f.Title); title != "" {
		return title
	}
	return fallback
}

// ExtractText returns the message's lowercased role and its visible text.
// With versions present, the currently selected version wins (the last one
// when the selection is absent or out of range); thinking steps are skipped
// and <think> blocks are stripped from whatever remains.
func (m *Message) ExtractText() (role, text string) {
	if len(m.Versions) == 0 {
		role = m.Role
		if role == "" {
			role = m.Author
		}
		return strings.ToLower(role), flattenContent(m.Content, m.Text)
	}
	v := m.Versions[len(m.Versions)-1]
	if sel := m.CurrentlySelected; sel != nil && *sel >= 0 && *sel < len(m.Versions) {
		v = m.Versions[*sel]
	}
	return strings.ToLower(v.Role), v.extractText()
}

func (v *Version) extractText() string {
	var parts []string
	for _, step := range v.Steps {
		if strings.ToLower(step.Style.Type) == "thinking" {
			continue
		}
		parts = append(parts, contentParts(step.Content)...)
	}
	if len(parts) > 0 {
		for i, p := range parts {
			parts[i] = strings.TrimSpace(thinkBlock.ReplaceAllString(p, ""))
		}
		return strings.TrimSpace(strings.Join(parts, "\n\n"))
	}
	parts = contentParts(v.Content)
	if len(parts) == 0 && v.Text != "" {
		parts = append(parts, v.Text)
	}
	joined := strings.Join(parts, "\n\n")
	return strings.TrimSpace(thinkBlock.ReplaceAllString(joined, ""))
}

// flattenContent renders a raw content field, which may be a string, an
// object with a text field, or a list of either.
func flattenContent(raw json.RawMessage, fallback string) string {
	if parts := contentParts(raw); len(parts) > 0 {
		return strings.Join(parts, "\n")
	}
	return fallback
}

// contentParts collects the text fragments of a raw content value.
func contentParts(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return nil
		}
		return []string{s}
	}
	var obj struct {
		Text    string `json:"text"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if txt := firstNonEmpty(obj.Text, obj.Content); txt != "" {
			return []string{txt}
		}
		return nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	var parts []string
	for _, item := range list {
		parts = append(parts, contentParts(item)...)
	}
	return parts
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
