package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"haoshi-console/internal/cleanup"
	"haoshi-console/internal/database"
	"haoshi-console/internal/listing"
)

// requireDatabase answers 503 when no audit database is configured
func (h *Handler) requireDatabase(c *gin.Context) bool {
	if h.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Audit database not configured",
		})
		return false
	}
	return true
}

// GetStats returns system statistics
func (h *Handler) GetStats(c *gin.Context) {
	stats := make(map[string]interface{})

	stats["records"] = h.store.Counts()
	stats["tabs"] = listing.CountTabs(h.store.Properties())

	if cb := h.gateway.Breaker(); cb != nil {
		stats["webhook"] = cb.GetStatus()
	}
	if h.scheduler != nil {
		stats["scheduler"] = h.scheduler.Status()
	}

	if h.db != nil {
		auditStats, err := h.db.Stats(c.Request.Context(), time.Now())
		if err != nil {
			h.logger.Warn("Failed to get audit stats", zap.Error(err))
		} else {
			stats["audit"] = auditStats
		}
	}

	c.JSON(http.StatusOK, stats)
}

// GetAudit returns recent audit entries
func (h *Handler) GetAudit(c *gin.Context) {
	if !h.requireDatabase(c) {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	entries, err := h.db.RecentAudit(c.Request.Context(), database.AuditQuery{
		Limit:         limit,
		Entity:        c.Query("entity"),
		SimulatedOnly: c.Query("simulated") == "true",
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}

// GetRecentChanges returns recent listing changes found by refreshes
func (h *Handler) GetRecentChanges(c *gin.Context) {
	if !h.requireDatabase(c) {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	changes, err := h.db.RecentChanges(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"changes": changes,
		"count":   len(changes),
	})
}

// RunCleanup deletes audit entries past their retention
func (h *Handler) RunCleanup(c *gin.Context) {
	if h.cleanup == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Audit database not configured"})
		return
	}

	var req struct {
		RetentionDays    int  `json:"retention_days"`     // Days to keep (default: 90)
		MaxDeletionCount int  `json:"max_deletion_count"` // Safety limit (default: 100000)
		DryRun           bool `json:"dry_run"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	// Set defaults
	config := cleanup.DefaultCleanupConfig()
	if req.RetentionDays > 0 {
		config.RetentionDays = req.RetentionDays
	}
	if req.MaxDeletionCount > 0 {
		config.MaxDeletionCount = req.MaxDeletionCount
	}
	config.DryRun = req.DryRun
	if dry, err := strconv.ParseBool(c.Query("dry_run")); err == nil {
		config.DryRun = dry
	}

	h.logger.Info("Admin: running audit cleanup",
		zap.Int("retention_days", config.RetentionDays),
		zap.Int("max", config.MaxDeletionCount),
		zap.Bool("dry_run", config.DryRun))

	result, err := h.cleanup.Run(c.Request.Context(), config)
	if err != nil {
		h.logger.Warn("Admin: cleanup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetRateLimitStats returns the caller's rate limit window
func (h *Handler) GetRateLimitStats(c *gin.Context) {
	if h.limiter == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"stats":        h.limiter.GetStats(limiterKey(c)),
		"tracked_keys": h.limiter.Keys(),
	})
}

// GetSchedulerStatus returns the refresh and cleanup schedule
func (h *Handler) GetSchedulerStatus(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusOK, gin.H{"running": false})
		return
	}
	c.JSON(http.StatusOK, h.scheduler.Status())
}
