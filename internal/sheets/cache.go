package sheets

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// RowCache keeps the last rows successfully read from a live source on disk, one JSON array
// per line, so a later outage can still serve them.
type RowCache struct {
	mu   sync.Mutex
	path string
}

// CachedRows is a cache hit together with the time it was written.
type CachedRows struct {
	Rows    [][]string
	SavedAt time.Time
}

// NewRowCache stores rows for sourceID under cacheDir.
func NewRowCache(cacheDir, sourceID string) *RowCache {
	return &RowCache{path: filepath.Join(cacheDir, fmt.Sprintf("%s.jsonl", sourceID))}
}

// Path is the cache file location.
func (c *RowCache) Path() string {
	return c.path
}

// Load reads the cached rows. A missing file yields nil without error.
func (c *RowCache) Load() (*CachedRows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	file, err := os.Open(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // No cache yet, not an error
		}
		return nil, fmt.Errorf("failed to open row cache: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat row cache: %w", err)
	}

	var rows [][]string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var row []string
		if err := json.Unmarshal(scanner.Bytes(), &row); err != nil {
			log.Warn().Err(err).Str("path", c.path).Msg("Skipping invalid JSON line in row cache")
			continue
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading row cache: %w", err)
	}

	log.Info().Str("path", c.path).Int("rows", len(rows)).Msg("Loaded rows from cache")
	return &CachedRows{Rows: rows, SavedAt: stat.ModTime()}, nil
}

// Save replaces the cached rows atomically.
func (c *RowCache) Save(rows [][]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(rows) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	tmpPath := c.path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)
	for _, r := range rows {
		if err := encoder.Encode(r); err != nil {
			file.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("failed to encode row: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush writer: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("failed to rename cache file: %w", err)
	}
	log.Debug().Str("path", c.path).Int("rows", len(rows)).Msg("Row cache saved")
	return nil
}
