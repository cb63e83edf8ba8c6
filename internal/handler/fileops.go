package handler

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"filegenie/internal/logging"
)

const backupStamp = "20060102150405"

func ensureParentDir(path string) error {
	parent := filepath.Dir(path)
	if parent == "" || parent == "." {
		return nil
	}
	return os.MkdirAll(parent, 0o755)
}

// atomicWrite writes content to a temporary sibling and renames it over the
// target, so a half-written file is never observable at the target path.
func atomicWrite(path, content string) error {
	if err := ensureParentDir(path); err != nil {
		return fmt.Errorf("create parent of %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write temp %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// timestampedBackup copies an existing target aside before a destructive
// write. Returns the backup path, or "" when the target does not exist.
func timestampedBackup(path string) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s for backup: %w", path, err)
	}
	backup := fmt.Sprintf("%s.bak.%s", path, time.Now().Format(backupStamp))
	if err := os.WriteFile(backup, data, 0o644); err != nil {
		return "", fmt.Errorf("write backup %s: %w", backup, err)
	}
	logging.DevLog("backup created: %s", backup)
	return backup, nil
}

func restoreBackup(backup, target string) {
	data, err := os.ReadFile(backup)
	if err != nil {
		logging.ErrorLog("restore failed, backup unreadable %s: %v", backup, err)
		return
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		logging.ErrorLog("restore of %s from %s failed: %v", target, backup, err)
		return
	}
	logging.UserLog("restored %s from backup after failed write", target)
}

// writeWithBackup performs the full destructive-write protocol: back up an
// existing target, write the replacement atomically, restore the backup when
// the write fails, and drop the backup on success unless backups are kept.
func (s *Set) writeWithBackup(target, content string) error {
	backup, err := timestampedBackup(target)
	if err != nil {
		return err
	}
	if err := atomicWrite(target, content); err != nil {
		if backup != "" {
			restoreBackup(backup, target)
		}
		return err
	}
	if backup != "" && !s.keepBackups {
		if err := os.Remove(backup); err != nil {
			logging.DevLog("remove backup %s: %v", backup, err)
		}
	}
	return nil
}
