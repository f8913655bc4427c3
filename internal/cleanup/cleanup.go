// Package cleanup prunes audit entries that have outlived their retention.
package cleanup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// AuditStore is the part of the database the cleanup touches.
type AuditStore interface {
	CountAuditBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteAuditBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Service handles deletion of expired audit entries
type Service struct {
	store  AuditStore
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new cleanup service
func NewService(store AuditStore, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger, now: time.Now}
}

// CleanupConfig holds configuration for cleanup operations
type CleanupConfig struct {
	RetentionDays    int  // Days to keep audit entries (default: 90)
	MaxDeletionCount int  // Maximum number of entries to delete in one run
	DryRun           bool // Count only, delete nothing
}

// DefaultCleanupConfig returns default configuration
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		RetentionDays:    90,
		MaxDeletionCount: 100000,
	}
}

// CleanupResult holds the result of a cleanup operation
type CleanupResult struct {
	TargetCount  int64         `json:"target_count"`
	DeletedCount int64         `json:"deleted_count"`
	DryRun       bool          `json:"dry_run"`
	Cutoff       time.Time     `json:"cutoff"`
	ExecutedAt   time.Time     `json:"executed_at"`
	Duration     time.Duration `json:"duration_ns"`
}

// Run deletes audit entries older than the retention window. It refuses
// to delete more than MaxDeletionCount entries in one run.
func (s *Service) Run(ctx context.Context, config CleanupConfig) (*CleanupResult, error) {
	if config.RetentionDays <= 0 {
		return nil, fmt.Errorf("retention must be at least one day, got %d", config.RetentionDays)
	}

	start := s.now()
	result := &CleanupResult{
		DryRun:     config.DryRun,
		ExecutedAt: start,
		Cutoff:     start.AddDate(0, 0, -config.RetentionDays),
	}

	target, err := s.store.CountAuditBefore(ctx, result.Cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to count expired audit entries: %w", err)
	}
	result.TargetCount = target

	if target == 0 {
		s.logger.Info("No expired audit entries", zap.Time("cutoff", result.Cutoff))
		return result, nil
	}

	// Safety check: abort if too many entries would be deleted
	if config.MaxDeletionCount > 0 && target > int64(config.MaxDeletionCount) {
		return nil, fmt.Errorf("safety check failed: %d entries exceed max deletion limit of %d",
			target, config.MaxDeletionCount)
	}

	if config.DryRun {
		s.logger.Info("[DRY-RUN] Would delete expired audit entries",
			zap.Int64("count", target),
			zap.Time("cutoff", result.Cutoff))
		result.Duration = s.now().Sub(start)
		return result, nil
	}

	deleted, err := s.store.DeleteAuditBefore(ctx, result.Cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to delete expired audit entries: %w", err)
	}
	result.DeletedCount = deleted
	result.Duration = s.now().Sub(start)

	s.logger.Info("Cleanup completed",
		zap.Int64("deleted", deleted),
		zap.Int64("target", target),
		zap.Int("retention_days", config.RetentionDays),
		zap.Duration("duration", result.Duration))
	return result, nil
}
