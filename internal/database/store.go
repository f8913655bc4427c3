// Package database persists the console's audit trail and the listing
// changes detected between refreshes.
package database

import (
	"context"
	"fmt"
	"time"

	"haoshi-console/internal/models"
)

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 1000
)

// AuditQuery narrows RecentAudit.
type AuditQuery struct {
	Limit         int
	Entity        string
	SimulatedOnly bool
}

func (q AuditQuery) limit() int {
	switch {
	case q.Limit <= 0:
		return defaultAuditLimit
	case q.Limit > maxAuditLimit:
		return maxAuditLimit
	}
	return q.Limit
}

// Stats summarises the audit trail for the admin dashboard.
type Stats struct {
	AuditTotal       int64 `json:"audit_total"`
	Simulated        int64 `json:"simulated"`
	Last24h          int64 `json:"last_24h"`
	ChangesLast7Days int64 `json:"changes_last_7_days"`
}

// Store is implemented by both database backends.
type Store interface {
	SaveAudit(ctx context.Context, e *models.AuditEntry) error
	RecentAudit(ctx context.Context, q AuditQuery) ([]models.AuditEntry, error)
	CountAuditBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteAuditBefore(ctx context.Context, cutoff time.Time) (int64, error)
	SaveChanges(ctx context.Context, changes []models.PropertyChange) error
	RecentChanges(ctx context.Context, limit int) ([]models.PropertyChange, error)
	Stats(ctx context.Context, now time.Time) (*Stats, error)
	InitSchema() error
	Close() error
}

// Open connects to the configured driver and prepares its schema. The
// "none" driver returns a nil store.
func Open(driver, dsn string) (Store, error) {
	var (
		st  Store
		err error
	)
	switch driver {
	case "", "none":
		return nil, nil
	case "postgres":
		st, err = NewDB(dsn)
	case "mysql", "sqlite":
		st, err = NewGormDB(driver, dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	if err := st.InitSchema(); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return st, nil
}
