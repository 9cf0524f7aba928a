package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Persistence handles the disk I/O for the MemStore.
// Each collection path is stored as one JSON file named after the escaped path.
type Persistence struct {
	DataDir string
	mu      sync.Mutex // Protects concurrent writes to the filesystem
	written map[string]uint64

	versionMu sync.Mutex
	issued    map[string]uint64
}

// NewPersistence initializes a persistence handler.
func NewPersistence(dir string) (*Persistence, error) {
	// Ensure the data directory exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Persistence{
		DataDir: dir,
		written: make(map[string]uint64),
		issued:  make(map[string]uint64),
	}, nil
}

// nextVersion numbers the next copy of a collection. Callers take it while
// holding the lock that orders their writes to that collection.
func (p *Persistence) nextVersion(collection string) uint64 {
	p.versionMu.Lock()
	defer p.versionMu.Unlock()
	p.issued[collection]++
	return p.issued[collection]
}

// SaveCollection writes a single collection's documents to a JSON file atomically.
func (p *Persistence) SaveCollection(collection string, docs map[string]map[string]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.write(collection, docs)
}

// SaveVersion is SaveCollection for a numbered copy of the collection.
// A copy whose version is not newer than the last one written is dropped,
// so saves finishing out of order never replace newer data on disk.
func (p *Persistence) SaveVersion(collection string, version uint64, docs map[string]map[string]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if version <= p.written[collection] {
		return nil
	}
	if err := p.write(collection, docs); err != nil {
		return err
	}
	p.written[collection] = version
	return nil
}

func (p *Persistence) write(collection string, docs map[string]map[string]any) error {
	filePath := filepath.Join(p.DataDir, url.PathEscape(collection)+".json")
	tempPath := filePath + ".tmp"

	bytes, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(tempPath, bytes, 0644); err != nil {
		return err
	}

	// Rename is atomic: readers see either the old file or the new one.
	return os.Rename(tempPath, filePath)
}

// LoadAll returns all collections found in the data directory.
// Strings holding RFC 3339 timestamps are restored to time.Time so that
// range queries on timestamp fields keep working after a restart.
func (p *Persistence) LoadAll() (map[string]map[string]map[string]any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	allData := make(map[string]map[string]map[string]any)

	files, err := os.ReadDir(p.DataDir)
	if err != nil {
		return nil, err
	}

	for _, file := range files {
		name := file.Name()
		if file.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}

		collection, err := url.PathUnescape(strings.TrimSuffix(name, ".json"))
		if err != nil {
			slog.Warn("skip collection file", slog.String("file", name), slog.String("error", err.Error()))
			continue
		}

		content, err := os.ReadFile(filepath.Join(p.DataDir, name))
		if err != nil {
			slog.Warn("read collection file", slog.String("file", name), slog.String("error", err.Error()))
			continue // Skip corrupted/unreadable files
		}

		var docs map[string]map[string]any
		if err := json.Unmarshal(content, &docs); err != nil {
			slog.Warn("decode collection file", slog.String("file", name), slog.String("error", err.Error()))
			continue
		}
		for _, fields := range docs {
			restoreTimestamps(fields)
		}
		allData[collection] = docs
	}
	return allData, nil
}

// LoadInto seeds a fresh MemStore backed by this persistence.
func (p *Persistence) LoadInto() (*MemStore, error) {
	data, err := p.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", p.DataDir, err)
	}
	return NewMemStore(data, p), nil
}

func restoreTimestamps(fields map[string]any) {
	for k, v := range fields {
		s, ok := v.(string)
		if !ok || len(s) < len("2006-01-02T15:04:05Z") {
			continue
		}
		if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
			fields[k] = ts
		}
	}
}
