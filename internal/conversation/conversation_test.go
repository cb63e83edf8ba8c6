package conversation

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func mustMessage(t *testing.T, raw string) *Message {
	t.Helper()
	var m Message
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	return &m
}

func TestExtractTextPlainMessage(t *testing.T) {
	m := mustMessage(t, `{"role":"Assistant","content":"hello there"}`)
	role, text := m.ExtractText()
	if role != "assistant" || text != "hello there" {
		t.Fatalf("role=%q text=%q", role, text)
	}
}

func TestExtractTextAuthorFallback(t *testing.T) {
	m := mustMessage(t, `{"author":"User","text":"hi"}`)
	role, text := m.ExtractText()
	if role != "user" || text != "hi" {
		t.Fatalf("role=%q text=%q", role, text)
	}
}

func TestExtractTextContentList(t *testing.T) {
	m := mustMessage(t, `{"role":"assistant","content":[{"text":"part one"},{"text":"part two"}]}`)
	_, text := m.ExtractText()
	if text != "part one\npart two" {
		t.Fatalf("text = %q", text)
	}
}

func TestExtractTextSelectedVersion(t *testing.T) {
	m := mustMessage(t, `{
		"currentlySelected": 0,
		"versions": [
			{"role":"assistant","content":"first draft"},
			{"role":"assistant","content":"second draft"}
		]
	}`)
	role, text := m.ExtractText()
	if role != "assistant" || text != "first draft" {
		t.Fatalf("role=%q text=%q", role, text)
	}
}

func TestExtractTextLastVersionWhenSelectionMissing(t *testing.T) {
	m := mustMessage(t, `{
		"versions": [
			{"role":"assistant","content":"first"},
			{"role":"assistant","content":"last"}
		]
	}`)
	if _, text := m.ExtractText(); text != "last" {
		t.Fatalf("text = %q", text)
	}
	// Out-of-range selection also falls back to the last version.
	m = mustMessage(t, `{
		"currentlySelected": 7,
		"versions": [{"role":"assistant","content":"only"}]
	}`)
	if _, text := m.ExtractText(); text != "only" {
		t.Fatalf("text = %q", text)
	}
}

func TestExtractTextSkipsThinkingSteps(t *testing.T) {
	m := mustMessage(t, `{
		"versions": [{
			"role": "assistant",
			"steps": [
				{"style":{"type":"Thinking"},"content":"secret reasoning"},
				{"style":{"type":"text"},"content":"visible answer"},
				{"style":{"type":"text"},"content":[{"text":"and more"}]}
			]
		}]
	}`)
	_, text := m.ExtractText()
	if text != "visible answer\n\nand more" {
		t.Fatalf("text = %q", text)
	}
}

func TestExtractTextStripsThinkBlocks(t *testing.T) {
	m := mustMessage(t, `{"role":"assistant","content":null,"versions":[
		{"role":"assistant","content":"<think>pondering\nhard</think>the answer"}
	]}`)
	_, text := m.ExtractText()
	if text != "the answer" {
		t.Fatalf("text = %q", text)
	}
}

func TestAssistantRole(t *testing.T) {
	for _, role := range []string{"assistant", "system", "bot", "model"} {
		if !AssistantRole(role) {
			t.Errorf("AssistantRole(%q) = false", role)
		}
	}
	for _, role := range []string{"user", "human", ""} {
		if AssistantRole(role) {
			t.Errorf("AssistantRole(%q) = true", role)
		}
	}
}

func TestDisplayName(t *testing.T) {
	f := &File{Name: "  My Chat  "}
	if got := f.DisplayName("stem"); got != "My Chat" {
		t.Fatalf("name = %q", got)
	}
	f = &File{Title: "Titled"}
	if got := f.DisplayName("stem"); got != "Titled" {
		t.Fatalf("name = %q", got)
	}
	f = &File{}
	if got := f.DisplayName("stem"); got != "stem" {
		t.Fatalf("name = %q", got)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.json")
	payload := `{"name":"demo","messages":[{"role":"user","content":"hi"}]}`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	f, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if f.Name != "demo" || len(f.Messages) != 1 {
		t.Fatalf("file = %+v", f)
	}
	if _, err := ReadFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatalf("missing file read succeeded")
	}
}

func TestIsTempName(t *testing.T) {
	if !IsTempName("1717171717171.conversation") {
		t.Fatalf("timestamp name not recognized")
	}
	if IsTempName("My Project") || IsTempName("123.conversation") {
		t.Fatalf("real or short name flagged as temp")
	}
}

func TestWorkdirForRenamesPlaceholder(t *testing.T) {
	root := t.TempDir()
	convPath := filepath.Join("somewhere", "1717171717171.conversation.json")
	temp, err := WorkdirFor(root, convPath, "1717171717171.conversation")
	if err != nil {
		t.Fatalf("workdir (temp): %v", err)
	}
	if filepath.Base(temp) != "1717171717171.conversation" {
		t.Fatalf("temp dir = %s", temp)
	}
	if err := os.WriteFile(filepath.Join(temp, "f.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	final, err := WorkdirFor(root, convPath, "Real Title")
	if err != nil {
		t.Fatalf("workdir (final): %v", err)
	}
	if filepath.Base(final) != "Real Title" {
		t.Fatalf("final dir = %s", final)
	}
	if _, err := os.Stat(filepath.Join(final, "f.txt")); err != nil {
		t.Fatalf("content lost in rename: %v", err)
	}
	if _, err := os.Stat(temp); !os.IsNotExist(err) {
		t.Fatalf("placeholder dir still present")
	}

	// Calling again with the final name reuses the directory.
	again, err := WorkdirFor(root, convPath, "Real Title")
	if err != nil || again != final {
		t.Fatalf("again = %s err=%v", again, err)
	}
}
