// Package audit keeps a SQLite log of insight resolutions: which model
// answered, whether the fallback template was served, and how long it took.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pario-ai/pokegate/pkg/config"
	"github.com/pario-ai/pokegate/pkg/models"
)

// Logger writes and queries insight records.
type Logger struct {
	db        *sql.DB
	retention time.Duration
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New opens the audit database, creates the schema and starts the hourly
// retention loop.
func New(cfg config.AuditConfig) (*Logger, error) {
	db, err := sql.Open("sqlite", cfg.DBPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate audit db: %w", err)
	}

	l := &Logger{
		db:        db,
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		done:      make(chan struct{}),
	}

	l.wg.Add(1)
	go l.retentionLoop()

	return l, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS insight_log (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id  TEXT NOT NULL,
		pokemon     TEXT NOT NULL,
		lang        TEXT NOT NULL,
		model       TEXT NOT NULL,
		source      TEXT NOT NULL,
		error       TEXT,
		latency_ms  INTEGER NOT NULL,
		created_at  DATETIME NOT NULL
	)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_insight_created ON insight_log(created_at)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_insight_pokemon ON insight_log(pokemon)`)
	return err
}

// Log inserts a record. A nil Logger discards it.
func (l *Logger) Log(ctx context.Context, rec models.InsightRecord) error {
	if l == nil || l.db == nil {
		return nil
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO insight_log
		(request_id, pokemon, lang, model, source, error, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RequestID, rec.Pokemon, string(rec.Lang), rec.Model, string(rec.Source),
		rec.Error, rec.LatencyMs, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("log insight: %w", err)
	}
	return nil
}

// Query returns records matching opts, newest first.
func (l *Logger) Query(ctx context.Context, opts models.AuditQueryOpts) ([]models.InsightRecord, error) {
	q := `SELECT request_id, pokemon, lang, model, source, error, latency_ms, created_at
		FROM insight_log WHERE 1=1`
	var args []any

	if opts.RequestID != "" {
		q += " AND request_id = ?"
		args = append(args, opts.RequestID)
	}
	if opts.Pokemon != "" {
		q += " AND pokemon = ?"
		args = append(args, opts.Pokemon)
	}
	if opts.Source != "" {
		q += " AND source = ?"
		args = append(args, string(opts.Source))
	}
	if !opts.Since.IsZero() {
		q += " AND created_at >= ?"
		args = append(args, opts.Since.UTC())
	}

	q += " ORDER BY created_at DESC, id DESC"

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

	var records []models.InsightRecord
	for rows.Next() {
		var (
			r      models.InsightRecord
			lang   string
			source string
			errMsg sql.NullString
		)
		if err := rows.Scan(&r.RequestID, &r.Pokemon, &lang, &r.Model, &source,
			&errMsg, &r.LatencyMs, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		r.Lang = models.Language(lang)
		r.Source = models.InsightSource(source)
		r.Error = errMsg.String
		records = append(records, r)
	}
	return records, rows.Err()
}

// Stats returns record counts grouped by source and day.
func (l *Logger) Stats(ctx context.Context) ([]models.AuditStat, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT source, date(created_at) AS day, count(*) AS cnt
		 FROM insight_log GROUP BY source, day ORDER BY day DESC, source`)
	if err != nil {
		return nil, fmt.Errorf("audit stats: %w", err)
	}
	defer rows.Close()

	var stats []models.AuditStat
	for rows.Next() {
		var (
			s      models.AuditStat
			source string
			day    sql.NullString
		)
		if err := rows.Scan(&source, &day, &s.Count); err != nil {
			return nil, fmt.Errorf("scan audit stat: %w", err)
		}
		s.Source = models.InsightSource(source)
		s.Day = day.String
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// Cleanup deletes records older than the retention period.
func (l *Logger) Cleanup(ctx context.Context) (int64, error) {
	if l.retention <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().Add(-l.retention)
	res, err := l.db.ExecContext(ctx, `DELETE FROM insight_log WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("audit cleanup: %w", err)
	}
	return res.RowsAffected()
}

// Close stops the retention goroutine and closes the database.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.done)
		l.wg.Wait()
		err = l.db.Close()
	})
	return err
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
