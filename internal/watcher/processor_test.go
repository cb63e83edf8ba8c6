package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"filegenie/internal/handler"
	"filegenie/internal/queue"
	"filegenie/internal/state"
)

func newTestProcessor(t *testing.T, executed *atomic.Int64) (*Processor, *queue.Queue, string) {
	t.Helper()
	set, err := handler.NewSet(handler.Options{
		AllowedExtensions: []string{".txt", ".py", ""},
	})
	if err != nil {
		t.Fatalf("new set: %v", err)
	}
	var obs queue.Observer
	if executed != nil {
		obs = func(queue.Task, error, time.Duration) { executed.Add(1) }
	}
	q := queue.New(obs)
	workdirRoot := t.TempDir()
	p := &Processor{
		Store:       state.Load(filepath.Join(t.TempDir(), "state.json")),
		Registry:    handler.NewRegistry(set),
		Queue:       q,
		WorkdirRoot: workdirRoot,
	}
	return p, q, workdirRoot
}

func writeConversation(t *testing.T, dir, name, payload string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write conversation: %v", err)
	}
	return path
}

const convPayload = `{
  "name": "Demo Chat",
  "messages": [
    {"role": "user", "content": "please make a file"},
    {"role": "assistant", "content": "Sure.\n/create_file \"hello.txt\"\n` + "```" + `\nhello world\n` + "```" + `"}
  ]
}`

func TestProcessFileExecutesAssistantCommands(t *testing.T) {
	var executed atomic.Int64
	p, q, workdirRoot := newTestProcessor(t, &executed)
	convDir := t.TempDir()
	path := writeConversation(t, convDir, "chat.json", convPayload)

	q.Start(context.Background())
	p.ProcessFile(context.Background(), path)
	q.Close()

	if executed.Load() != 1 {
		t.Fatalf("executed = %d, want 1", executed.Load())
	}
	created := filepath.Join(workdirRoot, "Demo Chat", "hello.txt")
	data, err := os.ReadFile(created)
	if err != nil {
		t.Fatalf("created file: %v", err)
	}
	if string(data) != "hello world\n" {
		t.Fatalf("content = %q", data)
	}
}

func TestProcessFileIsIdempotent(t *testing.T) {
	var executed atomic.Int64
	p, q, _ := newTestProcessor(t, &executed)
	convDir := t.TempDir()
	path := writeConversation(t, convDir, "chat.json", convPayload)

	q.Start(context.Background())
	p.ProcessFile(context.Background(), path)
	p.ProcessFile(context.Background(), path)
	q.Close()

	if executed.Load() != 1 {
		t.Fatalf("executed = %d, want 1 (second pass must enqueue nothing)", executed.Load())
	}
}

func TestProcessFileReexecutesChangedMessage(t *testing.T) {
	var executed atomic.Int64
	p, q, _ := newTestProcessor(t, &executed)
	convDir := t.TempDir()
	path := writeConversation(t, convDir, "chat.json", convPayload)

	q.Start(context.Background())
	p.ProcessFile(context.Background(), path)
	updated := `{
  "name": "Demo Chat",
  "messages": [
    {"role": "user", "content": "please make a file"},
    {"role": "assistant", "content": "/create_folder \"out\""}
  ]
}`
	writeConversation(t, convDir, "chat.json", updated)
	p.ProcessFile(context.Background(), path)
	q.Close()

	if executed.Load() != 2 {
		t.Fatalf("executed = %d, want 2", executed.Load())
	}
}

func TestProcessFileSkipsUserCommands(t *testing.T) {
	var executed atomic.Int64
	p, q, _ := newTestProcessor(t, &executed)
	convDir := t.TempDir()
	payload := `{"name":"x","messages":[{"role":"user","content":"/create_file \"evil.txt\""}]}`
	path := writeConversation(t, convDir, "chat.json", payload)

	q.Start(context.Background())
	p.ProcessFile(context.Background(), path)
	q.Close()

	if executed.Load() != 0 {
		t.Fatalf("executed = %d, want 0", executed.Load())
	}
}

func TestProcessFileSkipsMalformedJSON(t *testing.T) {
	p, q, _ := newTestProcessor(t, nil)
	convDir := t.TempDir()
	path := writeConversation(t, convDir, "broken.json", "{not json")
	q.Start(context.Background())
	p.ProcessFile(context.Background(), path)
	q.Close()
	if q.Len() != 0 {
		t.Fatalf("tasks enqueued for malformed file")
	}
}

func TestLatestConversation(t *testing.T) {
	dir := t.TempDir()
	older := filepath.Join(dir, "older.json")
	newer := filepath.Join(dir, "newer.json")
	if err := os.WriteFile(older, []byte("{}"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := os.WriteFile(newer, []byte("{}"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if got := latestConversation(dir); got != newer {
		t.Fatalf("latest = %s, want %s", got, newer)
	}
	if got := latestConversation(filepath.Join(dir, "empty")); got != "" {
		t.Fatalf("latest in empty dir = %q", got)
	}
}
