package store

import (
	"context"
	"database/sql"
	"fmt"

	"ncs-birthday-mailer/domain/delivery"

	_ "modernc.org/sqlite"
)

// sqliteSchemaVersion is stored in PRAGMA user_version.
const sqliteSchemaVersion = 1

const createSentTable = `CREATE TABLE IF NOT EXISTS sent_emails (
	sent_date TEXT NOT NULL,
	address   TEXT NOT NULL,
	PRIMARY KEY (sent_date, address)
)`

// SendLogSQLite keeps the send log in a SQLite database.
type SendLogSQLite struct {
	db *sql.DB
}

// OpenSendLogSQLite opens (and if needed creates) the database at path.
func OpenSendLogSQLite(ctx context.Context, path string) (*SendLogSQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	// One writer; the job is sequential.
	db.SetMaxOpenConns(1)

	s := &SendLogSQLite{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SendLogSQLite) migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	switch version {
	case 0:
		if _, err := s.db.ExecContext(ctx, createSentTable); err != nil {
			return fmt.Errorf("failed to create sent_emails: %w", err)
		}
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", sqliteSchemaVersion)); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
		return nil
	case sqliteSchemaVersion:
		return nil
	default:
		return fmt.Errorf("%w: sqlite user_version %d", delivery.ErrUnknownSchema, version)
	}
}

// Load reads every recorded send.
func (s *SendLogSQLite) Load(ctx context.Context) (*delivery.SendLog, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT sent_date, address FROM sent_emails")
	if err != nil {
		return nil, fmt.Errorf("failed to query send log: %w", err)
	}
	defer rows.Close()

	log := delivery.NewSendLog()
	for rows.Next() {
		var date, addr string
		if err := rows.Scan(&date, &addr); err != nil {
			return nil, fmt.Errorf("failed to scan send log: %w", err)
		}
		log.MarkSent(date, addr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read send log: %w", err)
	}
	return log, nil
}

// Save replaces the stored log in one transaction.
func (s *SendLogSQLite) Save(ctx context.Context, log *delivery.SendLog) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM sent_emails"); err != nil {
		return fmt.Errorf("failed to clear send log: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO sent_emails (sent_date, address) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for date, addrs := range log.Entries() {
		for _, addr := range addrs {
			if _, err := stmt.ExecContext(ctx, date, addr); err != nil {
				return fmt.Errorf("failed to insert send record: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit send log: %w", err)
	}
	return nil
}

// Reset deletes every recorded send.
func (s *SendLogSQLite) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sent_emails"); err != nil {
		return fmt.Errorf("failed to reset send log: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SendLogSQLite) Close() error {
	return s.db.Close()
}

var _ delivery.SendLogStore = (*SendLogSQLite)(nil)
