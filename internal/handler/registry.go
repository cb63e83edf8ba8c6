// Package handler implements the mutation commands extracted from assistant
// messages. Every handler resolves its paths through the sandbox and every
// destructive write goes through the backup/atomic-replace protocol.
package handler

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"time"

	"filegenie/internal/sandbox"
)

// Handler executes one command against the conversation's sandbox.
type Handler func(ctx context.Context, args []string, box sandbox.Sandbox) error

// Options carries the policy knobs for the builtin handler set.
type Options struct {
	KeepBackups       bool
	AllowedExtensions []string
	CmdAllowlist      []string
	CmdTimeout        time.Duration
}

// Set holds the builtin handlers' shared state: write policy, the command
// allow-list, and the copy/paste clipboard.
type Set struct {
	keepBackups bool
	allowedExt  map[string]struct{}
	cmdAllow    []*regexp.Regexp
	cmdTimeout  time.Duration
	clip        clipboard
}

// NewSet compiles the allow-list and returns a handler set.
func NewSet(opts Options) (*Set, error) {
	ext := make(map[string]struct{}, len(opts.AllowedExtensions))
	for _, e := range opts.AllowedExtensions {
		ext[e] = struct{}{}
	}
	allow := make([]*regexp.Regexp, 0, len(opts.CmdAllowlist))
	for _, src := range opts.CmdAllowlist {
		re, err := regexp.Compile(src)
		if err != nil {
			return nil, fmt.Errorf("compile cmd allowlist pattern %q: %w", src, err)
		}
		allow = append(allow, re)
	}
	timeout := opts.CmdTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Set{
		keepBackups: opts.KeepBackups,
		allowedExt:  ext,
		cmdAllow:    allow,
		cmdTimeout:  timeout,
	}, nil
}

// Registry maps command names to handlers. Builtins are installed at
// construction; plugins may add names but can never shadow a builtin.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	builtin  map[string]bool
}

// NewRegistry installs the builtin command set, including the create_file
// aliases the original command language accepts.
func NewRegistry(set *Set) *Registry {
	r := &Registry{
		handlers: make(map[string]Handler),
		builtin:  make(map[string]bool),
	}
	builtins := map[string]Handler{
		"create_folder":  set.CreateFolder,
		"create_file":    set.CreateFile,
		"create_script":  set.CreateFile,
		"screate_script": set.CreateFile,
		"set":            set.SetContent,
		"append":         set.Append,
		"replace":        set.Replace,
		"delete_file":    set.DeleteFile,
		"delete_folder":  set.DeleteFolder,
		"remove_line":    set.RemoveLine,
		"move_file":      set.MoveFile,
		"copy_file":      set.CopyFile,
		"paste_file":     set.PasteFile,
		"patch":          set.Patch,
		"cmd":            set.Cmd,
	}
	for name, h := range builtins {
		r.handlers[name] = h
		r.builtin[name] = true
	}
	return r
}

// Lookup returns the handler registered under name.
func (r *Registry) Lookup(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Register adds a plugin-provided handler. Existing names, builtin or not,
// are never overridden.
func (r *Registry) Register(name string, h Handler) error {
	if name == "" || h == nil {
		return fmt.Errorf("register: name and handler must be set")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.builtin[name] {
		return fmt.Errorf("register %s: cannot override builtin command", name)
	}
	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("register %s: command already registered", name)
	}
	r.handlers[name] = h
	return nil
}

// Names lists all registered command names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
