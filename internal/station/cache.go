package station

import (
	"sync"
	"time"

	"condao-wx/internal/storage/sqlite"
	"condao-wx/pkg/logger"
)

// Cache holds the most recently recorded report with an expiry marker.
// A stale entry keeps being served; staleness is reported alongside it.
type Cache struct {
	latest    *sqlite.ReportRecord
	expiresAt time.Time
	expiry    time.Duration
	logger    *logger.Logger
	mu        sync.RWMutex
}

// NewCache creates a latest-report cache with the given expiry duration
func NewCache(expiry time.Duration, logger *logger.Logger) *Cache {
	return &Cache{
		expiry: expiry,
		logger: logger.Named("report-cache"),
	}
}

// Get returns the cached latest report, or nil if none was recorded yet
func (c *Cache) Get() *sqlite.ReportRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest
}

// IsExpired reports whether the cached entry is past its expiry
func (c *Cache) IsExpired() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest == nil || time.Now().After(c.expiresAt)
}

// Set replaces the cached latest report
func (c *Cache) Set(record *sqlite.ReportRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.latest = record
	c.expiresAt = time.Now().Add(c.expiry)

	c.logger.Debug("Latest report cached",
		logger.String("station", record.Station),
		logger.Time("expires_at", c.expiresAt))
}
