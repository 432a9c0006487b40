package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Export files are always .xlsx; anything else in the drop folder is ignored.
const exportExtension = ".xlsx"

// Locator scans a watch folder for point-of-sale export files.
type Locator struct {
	logger *zap.Logger
}

// NewLocator wires a new locator instance.
func NewLocator(logger *zap.Logger) *Locator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Locator{logger: logger}
}

// Locate returns the newest-by-modification-time export matching namePattern
// (the authoritative file) along with every candidate found. An empty result
// with a nil error means nothing matched.
func (l *Locator) Locate(dir, namePattern string) (string, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", nil, fmt.Errorf("scan watch folder %s: %w", dir, err)
	}

	var authoritative string
	var newest int64
	var candidates []string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.Contains(name, namePattern) || !strings.HasSuffix(name, exportExtension) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			l.logger.Warn("skip unreadable candidate", zap.String("file", name), zap.Error(err))
			continue
		}

		path := filepath.Join(dir, name)
		candidates = append(candidates, path)
		if mod := info.ModTime().UnixNano(); authoritative == "" || mod > newest {
			authoritative = path
			newest = mod
		}
	}

	return authoritative, candidates, nil
}

// DeleteAll removes every file in the candidate set. Failures are logged and
// skipped; the file will simply be picked up again on the next scan.
func (l *Locator) DeleteAll(paths []string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil {
			l.logger.Warn("could not delete export file", zap.String("file", filepath.Base(path)), zap.Error(err))
			continue
		}
		l.logger.Info("deleted export file", zap.String("file", filepath.Base(path)))
	}
}
