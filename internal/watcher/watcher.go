package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"filegenie/internal/logging"
)

// debounceWindow is how long a file must stay quiet before it is processed.
// Chat exporters rewrite the whole file on every token, so raw events arrive
// in bursts.
const debounceWindow = 500 * time.Millisecond

// Watch observes folder for conversation changes until ctx is canceled.
// It processes the most recently modified conversation once at startup,
// then follows filesystem notifications, falling back to polling when
// notifications are unavailable.
func Watch(ctx context.Context, folder string, poll time.Duration, p *Processor) error {
	if latest := latestConversation(folder); latest != "" {
		logging.DevLog("watcher: initial scan of %s", latest)
		p.ProcessFile(ctx, latest)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		logging.ErrorLog("watcher: notifications unavailable (%v), polling every %s", err, poll)
		return pollLoop(ctx, folder, poll, p)
	}
	defer fw.Close()
	if err := fw.Add(folder); err != nil {
		logging.ErrorLog("watcher: cannot watch %s (%v), polling every %s", folder, err, poll)
		return pollLoop(ctx, folder, poll, p)
	}
	logging.UserLog("watcher: watching %s", folder)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(debounceWindow / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if strings.ToLower(filepath.Ext(event.Name)) != ".json" {
				continue
			}
			pending[event.Name] = time.Now()
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logging.ErrorLog("watcher: %v", err)
		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < debounceWindow {
					continue
				}
				delete(pending, path)
				logging.DevLog("watcher: change settled: %s", path)
				p.ProcessFile(ctx, path)
			}
		}
	}
}

// WatchFile polls a single conversation file, for setups where only one
// chat matters.
func WatchFile(ctx context.Context, path string, poll time.Duration, p *Processor) error {
	logging.UserLog("watcher: polling single file %s every %s", path, poll)
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	p.ProcessFile(ctx, path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.ProcessFile(ctx, path)
		}
	}
}

// pollLoop reprocesses the newest .json in the folder on every tick.
func pollLoop(ctx context.Context, folder string, poll time.Duration, p *Processor) error {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if latest := latestConversation(folder); latest != "" {
				p.ProcessFile(ctx, latest)
			}
		}
	}
}

// latestConversation returns the most recently modified .json in folder.
func latestConversation(folder string) string {
	matches, err := filepath.Glob(filepath.Join(folder, "*.json"))
	if err != nil || len(matches) == 0 {
		return ""
	}
	var latest string
	var latestMod time.Time
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestMod) {
			latest = m
			latestMod = info.ModTime()
		}
	}
	return latest
}
