package handler

import "sync"

// clipboard is the process-wide single slot used by copy_file/paste_file.
// Overwritten on each copy, read but not cleared on paste. The queue
// serializes all handler execution, but the mutex keeps the slot safe even
// if a plugin handler touches it off the worker.
type clipboard struct {
	mu      sync.Mutex
	content string
	source  string
	loaded  bool
}

func (c *clipboard) store(content, source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.content = content
	c.source = source
	c.loaded = true
}

func (c *clipboard) get() (string, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.content, c.source, c.loaded && c.content != ""
}
