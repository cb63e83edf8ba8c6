package command

import "testing"

func TestNormalizeFenceContent(t *testing.T) {
	if got := NormalizeFenceContent("\nhello\n"); got != "hello\n" {
		t.Fatalf("got %q", got)
	}
	if got := NormalizeFenceContent("hello"); got != "hello" {
		t.Fatalf("got %q", got)
	}
	// Only one leading newline is compensation for the fence convention.
	if got := NormalizeFenceContent("\n\nhello"); got != "\nhello" {
		t.Fatalf("got %q", got)
	}
}

func TestStripCommandLines(t *testing.T) {
	in := "keep me\n/rm -rf something\n  /delete_file x.txt\nand me\n"
	want := "keep me\nand me\n"
	if got := StripCommandLines(in); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestStripCommandLinesAllStripped(t *testing.T) {
	if got := StripCommandLines("/cmd pip install x"); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
	if got := StripCommandLines(""); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}

func TestHasCommandLines(t *testing.T) {
	cases := []struct {
		content string
		want    bool
	}{
		{"plain text", false},
		{"a/b is a path", false},
		{"/set f.txt data", true},
		{"text\n  /append f.txt more", true},
		{"", false},
	}
	for _, tc := range cases {
		if got := HasCommandLines(tc.content); got != tc.want {
			t.Errorf("HasCommandLines(%q) = %v, want %v", tc.content, got, tc.want)
		}
	}
}
