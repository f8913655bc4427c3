package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"haoshi-console/internal/models"
)

// DB stores the audit trail in PostgreSQL through database/sql.
type DB struct {
	conn *sql.DB
}

// NewDB opens a postgres connection from a DSN such as
// "host=localhost port=5432 user=haoshi dbname=haoshi sslmode=disable".
func NewDB(dsn string) (*DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	return &DB{conn: conn}, nil
}

// NewDBFromConn wraps an open connection.
func NewDBFromConn(conn *sql.DB) *DB {
	return &DB{conn: conn}
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// InitSchema creates the audit tables if they don't exist
func (db *DB) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS audit_entries (
		id BIGSERIAL PRIMARY KEY,
		entity VARCHAR(20) NOT NULL,
		action VARCHAR(20) NOT NULL,
		target_id VARCHAR(64),
		actor VARCHAR(100),
		simulated BOOLEAN NOT NULL DEFAULT FALSE,
		detail TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_audit_entries_created_at ON audit_entries(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_audit_entries_entity ON audit_entries(entity);

	CREATE TABLE IF NOT EXISTS property_changes (
		id BIGSERIAL PRIMARY KEY,
		property_id VARCHAR(64) NOT NULL,
		community VARCHAR(100),
		change_type VARCHAR(50) NOT NULL,
		old_value TEXT,
		new_value TEXT,
		detected_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_property_changes_detected_at ON property_changes(detected_at DESC);
	`
	_, err := db.conn.Exec(query)
	return err
}

// SaveAudit appends one audit entry and fills in its id.
func (db *DB) SaveAudit(ctx context.Context, e *models.AuditEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	query := `
	INSERT INTO audit_entries (entity, action, target_id, actor, simulated, detail, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id`
	return db.conn.QueryRowContext(ctx, query,
		e.Entity, e.Action, e.TargetID, e.Actor, e.Simulated, e.Detail, e.CreatedAt,
	).Scan(&e.ID)
}

// RecentAudit returns the newest entries, optionally for one entity kind.
func (db *DB) RecentAudit(ctx context.Context, q AuditQuery) ([]models.AuditEntry, error) {
	query := `
	SELECT id, entity, action, COALESCE(target_id, ''), COALESCE(actor, ''), simulated, COALESCE(detail, ''), created_at
	FROM audit_entries
	WHERE ($1 = '' OR entity = $1) AND (NOT $2 OR simulated)
	ORDER BY created_at DESC, id DESC
	LIMIT $3`

	rows, err := db.conn.QueryContext(ctx, query, q.Entity, q.SimulatedOnly, q.limit())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.Entity, &e.Action, &e.TargetID, &e.Actor, &e.Simulated, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountAuditBefore counts entries older than cutoff.
func (db *DB) CountAuditBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_entries WHERE created_at < $1`, cutoff).Scan(&n)
	return n, err
}

// DeleteAuditBefore removes entries older than cutoff.
func (db *DB) DeleteAuditBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM audit_entries WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SaveChanges bulk-copies the changes of one refresh inside a transaction.
func (db *DB) SaveChanges(ctx context.Context, changes []models.PropertyChange) error {
	if len(changes) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("property_changes",
		"property_id", "community", "change_type", "old_value", "new_value", "detected_at"))
	if err != nil {
		return err
	}
	for _, c := range changes {
		if _, err := stmt.ExecContext(ctx, c.PropertyID, c.Community, c.ChangeType, c.OldValue, c.NewValue, c.DetectedAt); err != nil {
			stmt.Close()
			return err
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return err
	}
	if err := stmt.Close(); err != nil {
		return err
	}
	return tx.Commit()
}

// RecentChanges returns the newest listing changes.
func (db *DB) RecentChanges(ctx context.Context, limit int) ([]models.PropertyChange, error) {
	query := `
	SELECT id, property_id, COALESCE(community, ''), change_type, COALESCE(old_value, ''), COALESCE(new_value, ''), detected_at
	FROM property_changes
	ORDER BY detected_at DESC, id DESC
	LIMIT $1`

	rows, err := db.conn.QueryContext(ctx, query, AuditQuery{Limit: limit}.limit())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var changes []models.PropertyChange
	for rows.Next() {
		var c models.PropertyChange
		if err := rows.Scan(&c.ID, &c.PropertyID, &c.Community, &c.ChangeType, &c.OldValue, &c.NewValue, &c.DetectedAt); err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

// Stats summarises the audit trail.
func (db *DB) Stats(ctx context.Context, now time.Time) (*Stats, error) {
	query := `
	SELECT
		(SELECT COUNT(*) FROM audit_entries),
		(SELECT COUNT(*) FROM audit_entries WHERE simulated),
		(SELECT COUNT(*) FROM audit_entries WHERE created_at >= $1),
		(SELECT COUNT(*) FROM property_changes WHERE detected_at >= $2)`

	var s Stats
	err := db.conn.QueryRowContext(ctx, query, now.AddDate(0, 0, -1), now.AddDate(0, 0, -7)).
		Scan(&s.AuditTotal, &s.Simulated, &s.Last24h, &s.ChangesLast7Days)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
