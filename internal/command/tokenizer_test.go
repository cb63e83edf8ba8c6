package command

import (
	"reflect"
	"testing"
)

func TestExtractFencedArgument(t *testing.T) {
	cmds := Extract("/create_file a.txt\n```\nhello\n```\n")
	if len(cmds) != 1 {
		t.Fatalf("expected 1 command, got %d", len(cmds))
	}
	if cmds[0].Name != "create_file" {
		t.Fatalf("unexpected name %q", cmds[0].Name)
	}
	want := []string{"a.txt", "hello\n"}
	if !reflect.DeepEqual(cmds[0].Args, want) {
		t.Fatalf("args = %q, want %q", cmds[0].Args, want)
	}
}

func TestExtractLineAnchoring(t *testing.T) {
	cases := []struct {
		name string
		text string
		want int
	}{
		{"mid-line slash ignored", "see the /etc directory", 0},
		{"start of text", "/create_folder docs", 1},
		{"after newline", "some prose\n/create_folder docs", 1},
		{"after carriage return", "prose\r/create_folder docs", 1},
		{"slash without name", "x\n/ notacommand", 0},
		{"slash then digit", "x\n/9lives", 0},
	}
	for _, tc := range cases {
		if got := Extract(tc.text); len(got) != tc.want {
			t.Errorf("%s: got %d commands, want %d", tc.name, len(got), tc.want)
		}
	}
}

func TestExtractAdjacentCommands(t *testing.T) {
	cmds := Extract("/create_folder src\n/create_file main.py src\n")
	if len(cmds) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(cmds))
	}
	if cmds[0].Name != "create_folder" || cmds[1].Name != "create_file" {
		t.Fatalf("unexpected names %q %q", cmds[0].Name, cmds[1].Name)
	}
	if !reflect.DeepEqual(cmds[0].Args, []string{"src"}) {
		t.Fatalf("first args = %q", cmds[0].Args)
	}
	if !reflect.DeepEqual(cmds[1].Args, []string{"main.py", "src"}) {
		t.Fatalf("second args = %q", cmds[1].Args)
	}
}

func TestExtractQuotedArguments(t *testing.T) {
	cmds := Extract(`/replace "a file.txt" 'old text' "new \"quoted\" text"`)
	if len(cmds) != 1 {
		t.Fatalf("expected 1 command, got %d", len(cmds))
	}
	want := []string{"a file.txt", "old text", `new "quoted" text`}
	if !reflect.DeepEqual(cmds[0].Args, want) {
		t.Fatalf("args = %q, want %q", cmds[0].Args, want)
	}
}

func TestExtractUnterminatedQuote(t *testing.T) {
	cmds := Extract(`/set notes.txt "runs to the end`)
	if len(cmds) != 1 {
		t.Fatalf("expected 1 command, got %d", len(cmds))
	}
	want := []string{"notes.txt", "runs to the end"}
	if !reflect.DeepEqual(cmds[0].Args, want) {
		t.Fatalf("args = %q, want %q", cmds[0].Args, want)
	}
}

func TestExtractUnterminatedFence(t *testing.T) {
	cmds := Extract("/append log.txt\n```\nline one\nline two")
	if len(cmds) != 1 {
		t.Fatalf("expected 1 command, got %d", len(cmds))
	}
	want := []string{"log.txt", "line one\nline two"}
	if !reflect.DeepEqual(cmds[0].Args, want) {
		t.Fatalf("args = %q, want %q", cmds[0].Args, want)
	}
}

func TestExtractFenceLanguageTag(t *testing.T) {
	cmds := Extract("/create_file app.py\n```python\nprint('hi')\n```")
	if len(cmds) != 1 {
		t.Fatalf("expected 1 command, got %d", len(cmds))
	}
	want := []string{"app.py", "print('hi')\n"}
	if !reflect.DeepEqual(cmds[0].Args, want) {
		t.Fatalf("args = %q, want %q", cmds[0].Args, want)
	}
}

func TestExtractBareTokenStopsAtSlash(t *testing.T) {
	cmds := Extract("/create_file readme.md docs/")
	if len(cmds) != 1 {
		t.Fatalf("expected 1 command, got %d", len(cmds))
	}
	// The bare token stops at '/', and a mid-line slash never opens a new
	// command, so the trailing separator is simply dropped.
	want := []string{"readme.md", "docs"}
	if !reflect.DeepEqual(cmds[0].Args, want) {
		t.Fatalf("args = %q, want %q", cmds[0].Args, want)
	}
}

func TestExtractEmptyAndProseOnly(t *testing.T) {
	if got := Extract(""); len(got) != 0 {
		t.Fatalf("empty text produced %d commands", len(got))
	}
	if got := Extract("just prose, no commands at all"); len(got) != 0 {
		t.Fatalf("prose produced %d commands", len(got))
	}
}
