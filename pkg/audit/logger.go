// Package audit records how every section of every generation run resolved.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/wayfarer-ai/wayfarer/pkg/models"
	_ "modernc.org/sqlite"
)

// Logger writes and queries audit entries in a dedicated SQLite database.
type Logger struct {
	db   *sql.DB
	cfg  models.AuditConfig
	done chan struct{}
	wg   sync.WaitGroup
	now  func() time.Time
}

// New opens the audit SQLite database and creates the schema.
func New(cfg models.AuditConfig) (*Logger, error) {
	db, err := sql.Open("sqlite", cfg.DBPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate audit db: %w", err)
	}

	l := &Logger{
		db:   db,
		cfg:  cfg,
		done: make(chan struct{}),
		now:  time.Now,
	}

	l.wg.Add(1)
	go l.retentionLoop()

	return l, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS section_audit (
		run_id      TEXT NOT NULL,
		trip_id     TEXT,
		destination TEXT NOT NULL,
		section     TEXT NOT NULL,
		status      TEXT NOT NULL,
		error_kind  TEXT,
		reason      TEXT,
		latency_ms  INTEGER NOT NULL,
		created_at  INTEGER NOT NULL,
		PRIMARY KEY (run_id, section)
	)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_audit_section ON section_audit(section, status)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_audit_created ON section_audit(created_at)`)
	return err
}

const insertEntry = `INSERT OR REPLACE INTO section_audit
	(run_id, trip_id, destination, section, status, error_kind, reason, latency_ms, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Log inserts one audit entry. A nil Logger discards it.
func (l *Logger) Log(ctx context.Context, entry models.AuditEntry) error {
	if l == nil || l.db == nil {
		return nil
	}
	_, err := l.db.ExecContext(ctx, insertEntry, l.args(entry)...)
	return err
}

// LogRun inserts every entry of one run in a single transaction.
func (l *Logger) LogRun(ctx context.Context, entries []models.AuditEntry) error {
	if l == nil || l.db == nil || len(entries) == 0 {
		return nil
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin audit tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, insertEntry)
	if err != nil {
		return fmt.Errorf("prepare audit insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, l.args(e)...); err != nil {
			return fmt.Errorf("insert audit entry %s/%s: %w", e.RunID, e.Section, err)
		}
	}
	return tx.Commit()
}

func (l *Logger) args(e models.AuditEntry) []any {
	created := e.CreatedAt
	if created.IsZero() {
		created = l.now()
	}
	return []any{
		e.RunID, e.TripID, e.Destination, string(e.Section), string(e.Status),
		e.ErrorKind, e.Reason, e.LatencyMs, created.UnixMilli(),
	}
}

// Query returns audit entries matching the given options, newest first.
func (l *Logger) Query(ctx context.Context, opts models.AuditQueryOpts) ([]models.AuditEntry, error) {
	q := `SELECT run_id, trip_id, destination, section, status, error_kind, reason, latency_ms, created_at
		FROM section_audit WHERE 1=1`
	var args []any

	if opts.RunID != "" {
		q += " AND run_id = ?"
		args = append(args, opts.RunID)
	}
	if opts.Section != "" {
		q += " AND section = ?"
		args = append(args, string(opts.Section))
	}
	if opts.Status != "" {
		q += " AND status = ?"
		args = append(args, string(opts.Status))
	}
	if !opts.Since.IsZero() {
		q += " AND created_at >= ?"
		args = append(args, opts.Since.UnixMilli())
	}

	q += " ORDER BY created_at DESC, section"

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	q += " LIMIT ?"
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		var tripID, errKind, reason sql.NullString
		var section, status string
		var created int64
		if err := rows.Scan(
			&e.RunID, &tripID, &e.Destination, &section, &status,
			&errKind, &reason, &e.LatencyMs, &created,
		); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		e.TripID = tripID.String
		e.Section = models.Section(section)
		e.Status = models.ResultStatus(status)
		e.ErrorKind = errKind.String
		e.Reason = reason.String
		e.CreatedAt = time.UnixMilli(created).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats returns entry counts grouped by section and status.
func (l *Logger) Stats(ctx context.Context) ([]models.AuditStat, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT section, status, count(*) AS cnt
		 FROM section_audit GROUP BY section, status ORDER BY section, status`)
	if err != nil {
		return nil, fmt.Errorf("audit stats: %w", err)
	}
	defer rows.Close()

	var stats []models.AuditStat
	for rows.Next() {
		var s models.AuditStat
		var section, status string
		if err := rows.Scan(&section, &status, &s.Count); err != nil {
			return nil, fmt.Errorf("scan audit stat: %w", err)
		}
		s.Section = models.Section(section)
		s.Status = models.ResultStatus(status)
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// Cleanup deletes entries older than the configured retention period.
func (l *Logger) Cleanup(ctx context.Context) (int64, error) {
	cutoff := l.now().AddDate(0, 0, -l.cfg.RetentionDays)
	res, err := l.db.ExecContext(ctx,
		`DELETE FROM section_audit WHERE created_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("audit cleanup: %w", err)
	}
	return res.RowsAffected()
}

// Close stops the retention goroutine and closes the database.
func (l *Logger) Close() error {
	close(l.done)
	l.wg.Wait()
	return l.db.Close()
}

func (l *Logger) retentionLoop() {
	defer l.wg.Done()
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			_, _ = l.Cleanup(context.Background())
		}
	}
}
