// Package store keeps recent scan results so repeat lookups of a page can be
// served without rescanning it.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/north-cloud/form-scanner/internal/config"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/domain"
)

// DefaultTTL is how long a scan result stays retrievable.
const DefaultTTL = 7 * 24 * time.Hour

// ErrNotFound is returned when no unexpired scan exists for a page.
var ErrNotFound = errors.New("scan not found")

// Store persists the latest scan per page URL. A new scan replaces the old
// one wholesale.
type Store interface {
	Save(ctx context.Context, scan *domain.PageScan) error
	Get(ctx context.Context, pageURL string) (*domain.PageScan, error)
	Delete(ctx context.Context, pageURL string) error
	Close() error
}

// Open returns the Store selected by cfg.Backend.
func Open(cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "", config.StoreBackendMemory:
		return NewMemory(cfg.TTL), nil
	case config.StoreBackendRedis:
		client, err := NewRedisClient(RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		return NewRedis(client, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
