// Package watcher observes the conversations folder and turns changed
// assistant messages into queued commands.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"filegenie/internal/command"
	"filegenie/internal/conversation"
	"filegenie/internal/handler"
	"filegenie/internal/logging"
	"filegenie/internal/queue"
	"filegenie/internal/sandbox"
	"filegenie/internal/state"
)

// Processor reprocesses one conversation file at a time: it extracts text
// per message, compares fingerprints against the executed-state store, and
// enqueues the commands of messages whose content changed.
type Processor struct {
	Store       *state.Store
	Registry    *handler.Registry
	Queue       *queue.Queue
	WorkdirRoot string
}

// ProcessFile scans a conversation file. Unreadable or malformed files are
// skipped with a warning; running it twice on unchanged content enqueues
// nothing the second time.
func (p *Processor) ProcessFile(ctx context.Context, path string) {
	key, err := filepath.Abs(path)
	if err != nil {
		key = path
	}
	conv, err := conversation.ReadFile(path)
	if err != nil {
		logging.ErrorLog("processor: skipping %s: %v", path, err)
		return
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	convName := conv.DisplayName(stem)
	workdir, err := conversation.WorkdirFor(p.WorkdirRoot, path, convName)
	if err != nil {
		logging.ErrorLog("processor: workdir for %s: %v", convName, err)
		return
	}
	box, err := sandbox.New(workdir)
	if err != nil {
		logging.ErrorLog("processor: sandbox for %s: %v", workdir, err)
		return
	}

	changed := false
	for idx, msg := range conv.Messages {
		role, text := msg.ExtractText()
		fp := state.Fingerprint(text)
		if !conversation.AssistantRole(role) {
			p.Store.Record(key, idx, fp)
			continue
		}
		if prev, ok := p.Store.Lookup(key, idx); ok && prev == fp {
			continue
		}
		if text != "" {
			p.enqueueCommands(key, idx, text, box)
		}
		p.Store.Record(key, idx, fp)
		changed = true
	}
	if changed {
		if info, err := os.Stat(path); err == nil {
			p.Store.SetMtime(key, float64(info.ModTime().UnixNano())/1e9)
		}
		if err := p.Store.Save(); err != nil {
			logging.ErrorLog("processor: save state: %v", err)
		}
	}
}

func (p *Processor) enqueueCommands(key string, idx int, text string, box sandbox.Sandbox) {
	cmds := command.Extract(text)
	if len(cmds) == 0 {
		return
	}
	logging.UserLog("processor: message %d of %s has %d command(s)", idx, filepath.Base(key), len(cmds))
	for _, c := range cmds {
		h, ok := p.Registry.Lookup(c.Name)
		if !ok {
			logging.UserLog("processor: unknown command /%s ignored", c.Name)
			continue
		}
		p.Queue.Enqueue(queue.Task{
			Conversation: key,
			Command:      c.Name,
			Args:         c.Args,
			Handler:      h,
			Sandbox:      box,
		})
	}
}
