package workers

import (
	"context"
	"log"
	"sync"
	"time"

	"conecta/connections"
	"conecta/models"

	"github.com/jinzhu/gorm"
)

// CachedStatus is the last observed live status of a connection. Display
// only: the refresher never writes back to the connection row.
type CachedStatus struct {
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// StatusCache holds the latest probe result per connection id.
type StatusCache struct {
	mu      sync.RWMutex
	entries map[string]CachedStatus
}

func NewStatusCache() *StatusCache {
	return &StatusCache{entries: make(map[string]CachedStatus)}
}

func (c *StatusCache) Set(connectionID string, s CachedStatus) {
	c.mu.Lock()
	c.entries[connectionID] = s
	c.mu.Unlock()
}

func (c *StatusCache) Get(connectionID string) (CachedStatus, bool) {
	c.mu.RLock()
	s, ok := c.entries[connectionID]
	c.mu.RUnlock()
	return s, ok
}

func (c *StatusCache) Delete(connectionID string) {
	c.mu.Lock()
	delete(c.entries, connectionID)
	c.mu.Unlock()
}

// StartStatusRefresher starts a loop probing every active connection and
// feeding the cache, so listings can show health without a probe per request.
func StartStatusRefresher(db *gorm.DB, svc *connections.Service, cache *StatusCache, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for range ticker.C {
			refreshStatuses(db, svc, cache, interval)
		}
	}()
}

func refreshStatuses(db *gorm.DB, svc *connections.Service, cache *StatusCache, interval time.Duration) {
	var conns []models.Connection
	if err := db.
		Where("status IN (?)", []string{
			models.CONNECTION_STATUS_ACTIVE,
			models.CONNECTION_STATUS_CONNECTING,
			models.CONNECTION_STATUS_ERROR,
		}).
		Find(&conns).Error; err != nil {
		log.Printf("status refresher: query error: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), interval)
	defer cancel()

	for _, conn := range conns {
		result, err := svc.CheckLiveStatus(ctx, conn.OrganizationID, conn.ID)
		if err != nil {
			log.Printf("status refresher: probe %s (%s): %v", conn.ID, conn.ProviderKey, err)
			continue
		}
		cache.Set(conn.ID, CachedStatus{
			Status:    result.Status,
			Message:   result.Message,
			CheckedAt: time.Now(),
		})
	}
}
