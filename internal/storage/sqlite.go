// Package storage keeps session ledgers in an in-memory SQLite database.
// Nothing is written to disk: the database lives exactly as long as the
// process.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"ftt/internal/core"
	"ftt/internal/log"
)

// DB is the shared in-memory database. Every row carries the id of the
// session that owns it.
type DB struct {
	db     *sql.DB
	logger *log.Logger
}

// Open creates the in-memory database and applies the schema.
func Open(ctx context.Context, logger *log.Logger) (*DB, error) {
	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A :memory: database belongs to its connection, so keep exactly one
	// and never recycle it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db: db, logger: logger.WithComponent(log.ComponentStorage)}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Ping reports whether the database is usable.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Store returns the ledger.Store view of one session.
func (d *DB) Store(sessionID string) *Store {
	return &Store{db: d.db, session: sessionID}
}

// DropSession deletes every row owned by sessionID.
func (d *DB) DropSession(ctx context.Context, sessionID string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete tasks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM companies WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete companies: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	d.logger.DebugContext(ctx, "Session rows dropped", log.FieldSession, sessionID)
	return nil
}

// Store implements ledger.Store for one session.
type Store struct {
	db      *sql.DB
	session string
}

func (s *Store) SaveCompany(ctx context.Context, c core.Company) error {
	if err := c.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO companies (session_id, id, name) VALUES (?, ?, ?)`,
		s.session, c.ID, c.Name)
	if err != nil {
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

func (s *Store) SaveTask(ctx context.Context, t core.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (session_id, id, code, description, amount_cents, company_id, company_name, task_date, payment_status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.session, t.ID, t.Code, t.Description, t.Amount.Cents, t.CompanyID, t.CompanyName, t.Date.ISO(), string(t.Status))
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (s *Store) Companies(ctx context.Context) ([]core.Company, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name FROM companies WHERE session_id = ? ORDER BY id`, s.session)
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	defer rows.Close()

	var out []core.Company
	for rows.Next() {
		var c core.Company
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) Tasks(ctx context.Context) ([]core.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, code, description, amount_cents, company_id, company_name, task_date, payment_status
		 FROM tasks WHERE session_id = ? ORDER BY id`, s.session)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var out []core.Task
	for rows.Next() {
		var (
			t      core.Task
			date   string
			status string
		)
		if err := rows.Scan(&t.ID, &t.Code, &t.Description, &t.Amount.Cents, &t.CompanyID, &t.CompanyName, &date, &status); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		if t.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("task %d date %q: %w", t.ID, date, err)
		}
		t.Status = core.PaymentStatus(status)
		out = append(out, t)
	}
	return out, rows.Err()
}
