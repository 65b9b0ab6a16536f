package ingest

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"retail-dashboard/internal/models"
)

const cacheVersion = "v2"

var errStaleCache = errors.New("stale cache")

type cacheEntry struct {
	Version       string
	SourceModTime time.Time
	Records       []models.Record
	Rejected      int64
	Undated       int64
}

func (l *Loader) cacheFilename(csvPath string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(csvPath)
	return filepath.Join(l.cacheDir, fmt.Sprintf("%s_%s.gob", name, cacheVersion))
}

func (l *Loader) saveCache(csvPath string, modTime time.Time, res *Result) error {
	if l.cacheDir == "" {
		return nil
	}
	if err := os.MkdirAll(l.cacheDir, 0o755); err != nil {
		return err
	}

	file, err := os.Create(l.cacheFilename(csvPath))
	if err != nil {
		return err
	}
	defer file.Close()

	return gob.NewEncoder(file).Encode(cacheEntry{
		Version:       cacheVersion,
		SourceModTime: modTime,
		Records:       res.Records,
		Rejected:      res.Rejected,
		Undated:       res.Undated,
	})
}

func (l *Loader) loadCache(csvPath string, modTime time.Time) (*Result, error) {
	if l.cacheDir == "" {
		return nil, os.ErrNotExist
	}
	file, err := os.Open(l.cacheFilename(csvPath))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var entry cacheEntry
	if err := gob.NewDecoder(file).Decode(&entry); err != nil {
		return nil, err
	}
	if entry.Version != cacheVersion || !entry.SourceModTime.Equal(modTime) {
		return nil, errStaleCache
	}

	return &Result{
		Records:   entry.Records,
		Rejected:  entry.Rejected,
		Undated:   entry.Undated,
		FromCache: true,
	}, nil
}
