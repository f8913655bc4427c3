package database

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haoshi-console/internal/models"
)

func newTestGormDB(t *testing.T) *GormDB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := NewGormDB("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	require.NoError(t, db.InitSchema())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestGormDB_AuditTrail(t *testing.T) {
	db := newTestGormDB(t)
	ctx := context.Background()
	now := time.Now()

	entries := []models.AuditEntry{
		{Entity: "property", Action: models.ActionCreate, TargetID: "p1", Actor: "王小明", CreatedAt: now.AddDate(0, 0, -120)},
		{Entity: "property", Action: models.ActionUpdate, TargetID: "p1", Actor: "王小明", Simulated: true, CreatedAt: now.AddDate(0, 0, -2)},
		{Entity: "community", Action: models.ActionDelete, TargetID: "c1", Actor: "李經理", CreatedAt: now.Add(-time.Hour)},
	}
	for i := range entries {
		require.NoError(t, db.SaveAudit(ctx, &entries[i]))
		assert.NotZero(t, entries[i].ID)
	}

	recent, err := db.RecentAudit(ctx, AuditQuery{})
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "c1", recent[0].TargetID)

	recent, err = db.RecentAudit(ctx, AuditQuery{Entity: "property", Limit: 1})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, models.ActionUpdate, recent[0].Action)

	recent, err = db.RecentAudit(ctx, AuditQuery{SimulatedOnly: true})
	require.NoError(t, err)
	require.Len(t, recent, 1)

	cutoff := now.AddDate(0, 0, -90)
	n, err := db.CountAuditBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	deleted, err := db.DeleteAuditBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	stats, err := db.Stats(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.AuditTotal)
	assert.Equal(t, int64(1), stats.Simulated)
	assert.Equal(t, int64(1), stats.Last24h)
}

func TestGormDB_Changes(t *testing.T) {
	db := newTestGormDB(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, db.SaveChanges(ctx, nil))
	require.NoError(t, db.SaveChanges(ctx, []models.PropertyChange{
		{PropertyID: "p1", ChangeType: models.ChangeTypePrice, OldValue: "1200", NewValue: "1150", DetectedAt: now.AddDate(0, 0, -10)},
		{PropertyID: "p2", ChangeType: models.ChangeTypeNew, DetectedAt: now},
	}))

	changes, err := db.RecentChanges(ctx, 10)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, "p2", changes[0].PropertyID)

	stats, err := db.Stats(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ChangesLast7Days)
}

func TestOpen(t *testing.T) {
	st, err := Open("none", "")
	require.NoError(t, err)
	assert.Nil(t, st)

	_, err = Open("oracle", "x")
	require.Error(t, err)

	st, err = Open("sqlite", "file:open_test?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NotNil(t, st)
	require.NoError(t, st.Close())
}

func TestAuditQueryLimit(t *testing.T) {
	assert.Equal(t, defaultAuditLimit, AuditQuery{}.limit())
	assert.Equal(t, maxAuditLimit, AuditQuery{Limit: 5000}.limit())
	assert.Equal(t, 7, AuditQuery{Limit: 7}.limit())
}
