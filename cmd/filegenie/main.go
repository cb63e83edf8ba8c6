package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"filegenie/internal/config"
	"filegenie/internal/handler"
	"filegenie/internal/journal"
	"filegenie/internal/logging"
	"filegenie/internal/queue"
	"filegenie/internal/state"
	"filegenie/internal/watcher"
)

// Version is set via -ldflags during build
var Version = "dev"

func main() {
	var (
		folderFlag  = flag.String("folder", "", "Conversations folder to watch (overrides config)")
		convFlag    = flag.String("conv", "", "Single conversation .json file to poll instead of a folder")
		pollFlag    = flag.Float64("poll", 0, "Polling interval in seconds (overrides config)")
		workdirFlag = flag.String("workdir", "", "Root for per-conversation working directories (overrides config)")
		keepFlag    = flag.Bool("keep-backups", false, "Keep .bak files after successful writes")
		versionFlag = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Printf("filegenie version %s\n", Version)
		return
	}

	if err := config.EnsureDefault(); err != nil {
		log.Fatalf("Failed to write default config: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *folderFlag != "" {
		cfg.ConversationsDir = *folderFlag
	}
	if *workdirFlag != "" {
		cfg.WorkdirRoot = *workdirFlag
	}
	if *pollFlag > 0 {
		cfg.PollSeconds = *pollFlag
	}
	if *keepFlag {
		cfg.KeepBackups = true
	}

	logging.Setup(cfg.LogPath)

	if *convFlag == "" {
		if cfg.ConversationsDir == "" {
			log.Fatalf("No conversations folder configured; pass -folder or set conversations_dir in %s", config.Path())
		}
		if _, err := os.Stat(cfg.ConversationsDir); err != nil {
			log.Fatalf("Conversations folder not usable: %v", err)
		}
	}

	set, err := handler.NewSet(handler.Options{
		KeepBackups:       cfg.KeepBackups,
		AllowedExtensions: cfg.AllowedExtensions,
		CmdAllowlist:      cfg.CmdAllowlist,
		CmdTimeout:        time.Duration(cfg.CmdTimeoutSeconds) * time.Second,
	})
	if err != nil {
		log.Fatalf("Failed to build handler set: %v", err)
	}
	registry := handler.NewRegistry(set)

	var jnl *journal.Journal
	if cfg.JournalPath != "" {
		jnl, err = journal.Open(cfg.JournalPath)
		if err != nil {
			logging.ErrorLog("journal unavailable, continuing without it: %v", err)
			jnl = nil
		}
	}
	var observer queue.Observer
	if jnl != nil {
		observer = func(t queue.Task, execErr error, d time.Duration) {
			jnl.Record(t.Conversation, t.Command, len(t.Args), execErr, d)
		}
	}

	q := queue.New(observer)
	store := state.Load(cfg.StatePath)
	proc := &watcher.Processor{
		Store:       store,
		Registry:    registry,
		Queue:       q,
		WorkdirRoot: cfg.WorkdirRoot,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	q.Start(ctx)

	poll := time.Duration(cfg.PollSeconds * float64(time.Second))
	if poll <= 0 {
		poll = 2 * time.Second
	}

	if *convFlag != "" {
		if _, err := os.Stat(*convFlag); err != nil {
			log.Fatalf("Conversation file not usable: %v", err)
		}
		err = watcher.WatchFile(ctx, *convFlag, poll, proc)
	} else {
		err = watcher.Watch(ctx, cfg.ConversationsDir, poll, proc)
	}
	if err != nil && ctx.Err() == nil {
		logging.ErrorLog("watcher stopped: %v", err)
	}

	logging.UserLog("shutting down, draining queue")
	q.Close()
	if jnl != nil {
		jnl.Close()
	}
	if err := store.Save(); err != nil {
		logging.ErrorLog("final state save: %v", err)
	}
}
