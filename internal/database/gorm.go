package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"haoshi-console/internal/models"
)

// GormDB stores the audit trail and listing changes through GORM. It backs
// the mysql and sqlite drivers.
type GormDB struct {
	db *gorm.DB
}

// NewGormDB opens a connection for driver ("mysql" or "sqlite") and checks it.
func NewGormDB(driver, dsn string) (*GormDB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "mysql":
		dialector = mysql.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported gorm driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	})
	if err != nil {
		return nil, err
	}

	// Test connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	return &GormDB{db: db}, nil
}

// NewGormDBFromDB creates a GormDB wrapper from an existing gorm.DB instance
func NewGormDBFromDB(db *gorm.DB) *GormDB {
	return &GormDB{db: db}
}

// DB returns the underlying gorm.DB instance
func (gdb *GormDB) DB() *gorm.DB {
	return gdb.db
}

func (gdb *GormDB) Close() error {
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitSchema creates tables using GORM AutoMigrate
func (gdb *GormDB) InitSchema() error {
	return gdb.db.AutoMigrate(
		&models.AuditEntry{},
		&models.PropertyChange{},
	)
}

// SaveAudit appends one audit entry.
func (gdb *GormDB) SaveAudit(ctx context.Context, e *models.AuditEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	return gdb.db.WithContext(ctx).Create(e).Error
}

// RecentAudit returns the newest entries, optionally for one entity kind.
func (gdb *GormDB) RecentAudit(ctx context.Context, q AuditQuery) ([]models.AuditEntry, error) {
	var entries []models.AuditEntry
	tx := gdb.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(q.limit())
	if q.Entity != "" {
		tx = tx.Where("entity = ?", q.Entity)
	}
	if q.SimulatedOnly {
		tx = tx.Where("simulated = ?", true)
	}
	err := tx.Find(&entries).Error
	return entries, err
}

// CountAuditBefore counts entries older than cutoff.
func (gdb *GormDB) CountAuditBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := gdb.db.WithContext(ctx).Model(&models.AuditEntry{}).Where("created_at < ?", cutoff).Count(&n).Error
	return n, err
}

// DeleteAuditBefore removes entries older than cutoff.
func (gdb *GormDB) DeleteAuditBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := gdb.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.AuditEntry{})
	return res.RowsAffected, res.Error
}

// SaveChanges stores the changes found by one refresh.
func (gdb *GormDB) SaveChanges(ctx context.Context, changes []models.PropertyChange) error {
	if len(changes) == 0 {
		return nil
	}
	return gdb.db.WithContext(ctx).CreateInBatches(changes, 100).Error
}

// RecentChanges returns the newest listing changes.
func (gdb *GormDB) RecentChanges(ctx context.Context, limit int) ([]models.PropertyChange, error) {
	var changes []models.PropertyChange
	err := gdb.db.WithContext(ctx).Order("detected_at DESC").Order("id DESC").Limit(AuditQuery{Limit: limit}.limit()).Find(&changes).Error
	return changes, err
}

// Stats summarises the audit trail.
func (gdb *GormDB) Stats(ctx context.Context, now time.Time) (*Stats, error) {
	var s Stats
	db := gdb.db.WithContext(ctx)
	if err := db.Model(&models.AuditEntry{}).Count(&s.AuditTotal).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.AuditEntry{}).Where("simulated = ?", true).Count(&s.Simulated).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.AuditEntry{}).Where("created_at >= ?", now.AddDate(0, 0, -1)).Count(&s.Last24h).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.PropertyChange{}).Where("detected_at >= ?", now.AddDate(0, 0, -7)).Count(&s.ChangesLast7Days).Error; err != nil {
		return nil, err
	}
	return &s, nil
}
