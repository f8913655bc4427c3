package database

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haoshi-console/internal/models"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewDBFromConn(conn), mock
}

func TestDB_SaveAudit(t *testing.T) {
	db, mock := newMockDB(t)
	at := time.Date(2026, 1, 7, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO audit_entries")).
		WithArgs("property", models.ActionCreate, "demo-1", "王小明", true, "", at).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	e := &models.AuditEntry{Entity: "property", Action: models.ActionCreate, TargetID: "demo-1", Actor: "王小明", Simulated: true, CreatedAt: at}
	require.NoError(t, db.SaveAudit(context.Background(), e))
	assert.Equal(t, uint(42), e.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_RecentAudit(t *testing.T) {
	db, mock := newMockDB(t)
	at := time.Date(2026, 1, 7, 9, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "entity", "action", "target_id", "actor", "simulated", "detail", "created_at"}).
		AddRow(2, "community", "update", "c1", "李經理", false, "", at).
		AddRow(1, "community", "create", "c1", "李經理", true, "", at.Add(-time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("FROM audit_entries")).
		WithArgs("community", false, 100).
		WillReturnRows(rows)

	entries, err := db.RecentAudit(context.Background(), AuditQuery{Entity: "community"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "update", entries[0].Action)
	assert.True(t, entries[1].Simulated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_Prune(t *testing.T) {
	db, mock := newMockDB(t)
	cutoff := time.Date(2025, 10, 9, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM audit_entries WHERE created_at < $1")).
		WithArgs(cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM audit_entries WHERE created_at < $1")).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 5))

	n, err := db.CountAuditBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	deleted, err := db.DeleteAuditBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(5), deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_Stats(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Date(2026, 1, 7, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WithArgs(now.AddDate(0, 0, -1), now.AddDate(0, 0, -7)).
		WillReturnRows(sqlmock.NewRows([]string{"a", "b", "c", "d"}).AddRow(10, 2, 3, 4))

	s, err := db.Stats(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, Stats{AuditTotal: 10, Simulated: 2, Last24h: 3, ChangesLast7Days: 4}, *s)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_SaveChangesEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	require.NoError(t, db.SaveChanges(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}
