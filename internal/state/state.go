// Package state persists which message contents have already been executed,
// keyed by conversation file and message index, so reprocessing a file never
// replays a command twice.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"filegenie/internal/logging"
)

// Entry records, for one conversation file, the fingerprint of the last
// executed content per message index and the file's last seen mtime.
type Entry struct {
	Hashes    map[string]string `json:"hashes"`
	LastMtime float64           `json:"last_mtime"`
}

// Store is the on-disk execution memory. A corrupt or missing file loads as
// empty state; losing state only means commands may run once more, never
// that they are lost.
type Store struct {
	mu      sync.Mutex
	path    string
	entries map[string]Entry
}

// Load reads the state file at path. Any read or decode failure yields an
// empty store, logged but never fatal.
func Load(path string) *Store {
	s := &Store{path: path, entries: make(map[string]Entry)}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.ErrorLog("state: read %s: %v, starting empty", path, err)
		}
		return s
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		logging.ErrorLog("state: corrupt %s: %v, starting empty", path, err)
		s.entries = make(map[string]Entry)
	}
	return s
}

// Fingerprint hashes message content for the executed-state lookup.
func Fingerprint(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Lookup returns the stored fingerprint for a message index, if any.
func (s *Store) Lookup(conversation string, index int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[conversation]
	if !ok {
		return "", false
	}
	hash, ok := entry.Hashes[strconv.Itoa(index)]
	return hash, ok
}

// Record stores the fingerprint for a message index.
func (s *Store) Record(conversation string, index int, hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[conversation]
	if !ok {
		entry = Entry{Hashes: make(map[string]string)}
	}
	if entry.Hashes == nil {
		entry.Hashes = make(map[string]string)
	}
	entry.Hashes[strconv.Itoa(index)] = hash
	s.entries[conversation] = entry
}

// SetMtime remembers the conversation file's modification time.
func (s *Store) SetMtime(conversation string, mtime float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.entries[conversation]
	if entry.Hashes == nil {
		entry.Hashes = make(map[string]string)
	}
	entry.LastMtime = mtime
	s.entries[conversation] = entry
}

// LastMtime returns the recorded mtime for a conversation file, zero when
// the file has never been seen.
func (s *Store) LastMtime(conversation string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[conversation].LastMtime
}

// Rename moves the state recorded under one conversation key to another,
// used when a temporary conversation file gets its final name.
func (s *Store) Rename(oldKey, newKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[oldKey]
	if !ok {
		return
	}
	delete(s.entries, oldKey)
	s.entries[newKey] = entry
}

// Save writes the state atomically (temp file plus rename).
func (s *Store) Save() error {
	s.mu.Lock()
	data, err := json.MarshalIndent(s.entries, "", "  ")
	path := s.path
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state temp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
