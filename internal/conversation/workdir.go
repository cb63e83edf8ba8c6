package conversation

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"filegenie/internal/logging"
)

// Freshly created conversations are exported under a millisecond-timestamp
// name until the user (or the model) titles them.
var tempNamePattern = regexp.MustCompile(`^\d{10,}\.conversation$`)

// IsTempName reports whether a conversation name is a placeholder timestamp
// name rather than a real title.
func IsTempName(name string) bool {
	return tempNamePattern.MatchString(strings.TrimSpace(name))
}

// WorkdirFor returns (creating if needed) the per-conversation working
// directory under root. When a conversation graduates from its timestamp
// placeholder to a real title, the existing placeholder directory is renamed
// instead of leaving two directories behind.
func WorkdirFor(root, convPath, convName string) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(convPath), filepath.Ext(convPath))
	tempDir := filepath.Join(root, stem)
	finalDir := filepath.Join(root, convName)

	if info, err := os.Stat(finalDir); err == nil && info.IsDir() {
		return finalDir, nil
	}

	if info, err := os.Stat(tempDir); err == nil && info.IsDir() && !IsTempName(convName) {
		if err := os.Rename(tempDir, finalDir); err != nil {
			logging.ErrorLog("workdir: rename %s to %s failed: %v", tempDir, finalDir, err)
			return tempDir, nil
		}
		logging.UserLog("workdir: renamed %s -> %s", filepath.Base(tempDir), filepath.Base(finalDir))
		return finalDir, nil
	}

	dir := finalDir
	if IsTempName(convName) {
		dir = tempDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
