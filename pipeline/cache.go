package pipeline

import (
	"fmt"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// ExportCache keeps encoded per-run CSV exports. Saved runs never change, so
// an entry stays valid until the run is deleted.
type ExportCache struct {
	entries *lru.Cache[uuid.UUID, []byte]
}

// NewExportCache returns a cache bounded to size runs.
func NewExportCache(size int) (*ExportCache, error) {
	entries, err := lru.New[uuid.UUID, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("create export cache: %w", err)
	}
	return &ExportCache{entries: entries}, nil
}

// Get returns the cached export for a run.
func (c *ExportCache) Get(runID uuid.UUID) ([]byte, bool) {
	return c.entries.Get(runID)
}

// Add stores the export for a run.
func (c *ExportCache) Add(runID uuid.UUID, data []byte) {
	c.entries.Add(runID, data)
}

// Remove evicts a run's export.
func (c *ExportCache) Remove(runID uuid.UUID) {
	c.entries.Remove(runID)
}

// Len reports the number of cached exports.
func (c *ExportCache) Len() int {
	return c.entries.Len()
}
