package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS research_runs (
    id           UUID PRIMARY KEY,
    topic        TEXT NOT NULL,
    recipient    TEXT NOT NULL,
    format       TEXT NOT NULL,
    num_results  INT NOT NULL,
    status       TEXT NOT NULL,
    progress     INT NOT NULL DEFAULT 0,
    stage        TEXT NOT NULL DEFAULT '',
    message      TEXT NOT NULL DEFAULT '',
    research     TEXT NOT NULL DEFAULT '',
    summary      TEXT NOT NULL DEFAULT '',
    email_status TEXT NOT NULL DEFAULT '',
    error        TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_research_runs_recipient_created
    ON research_runs (LOWER(recipient), created_at);
`

const countQuery = `SELECT COUNT(*) FROM research_runs WHERE LOWER(recipient) = LOWER($1) AND created_at >= $2`

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	db, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// EnsureSchema creates the runs table if it does not exist
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() {
	s.db.Close()
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *PostgresStore) Create(ctx context.Context, run *Run) error {
	return insertRun(ctx, s.db, run)
}

// CreateWithinLimit serialises creates per recipient with a transaction-scoped
// advisory lock so concurrent requests cannot both pass the count.
func (s *PostgresStore) CreateWithinLimit(ctx context.Context, run *Run, since time.Time, limit int) (int, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext(LOWER($1)))`, run.Recipient); err != nil {
		return 0, fmt.Errorf("failed to lock recipient: %w", err)
	}

	var used int
	if err := tx.QueryRow(ctx, countQuery, run.Recipient, since).Scan(&used); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	if limit > 0 && used >= limit {
		return used, ErrLimitReached
	}

	if err := insertRun(ctx, tx, run); err != nil {
		return used, err
	}
	if err := tx.Commit(ctx); err != nil {
		return used, fmt.Errorf("failed to commit run: %w", err)
	}
	return used, nil
}

func insertRun(ctx context.Context, q rowQuerier, run *Run) error {
	run.ID = uuid.NewString()
	run.Status = StatusPending

	query := `
        INSERT INTO research_runs (id, topic, recipient, format, num_results, status)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at, updated_at;
    `
	err := q.QueryRow(ctx, query, run.ID, run.Topic, run.Recipient, run.Format, run.NumResults, run.Status).
		Scan(&run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		log.Printf("[Store.Create] Insert failed: %v", err)
		return fmt.Errorf("failed to insert run: %w", err)
	}
	log.Printf("[Store.Create] Run created with ID: %s", run.ID)
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Run, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	query := `
        SELECT id::text, topic, recipient, format, num_results, status, progress, stage, message,
               research, summary, email_status, error, created_at, updated_at
        FROM research_runs
        WHERE id = $1
    `
	var r Run
	err := s.db.QueryRow(ctx, query, id).Scan(
		&r.ID, &r.Topic, &r.Recipient, &r.Format, &r.NumResults, &r.Status, &r.Progress, &r.Stage, &r.Message,
		&r.Research, &r.Summary, &r.EmailStatus, &r.Error, &r.CreatedAt, &r.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &r, nil
}

func (s *PostgresStore) exec(ctx context.Context, query string, args ...any) error {
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateProgress(ctx context.Context, id string, percent int, stage, message string) error {
	query := `
        UPDATE research_runs
        SET status = $2, progress = $3, stage = $4, message = $5, updated_at = NOW()
        WHERE id = $1
    `
	return s.exec(ctx, query, id, StatusRunning, percent, stage, message)
}

func (s *PostgresStore) Complete(ctx context.Context, id, research, summary, emailStatus string) error {
	query := `
        UPDATE research_runs
        SET status = $2, progress = 100, stage = 'done', research = $3, summary = $4, email_status = $5, updated_at = NOW()
        WHERE id = $1
    `
	return s.exec(ctx, query, id, StatusCompleted, research, summary, emailStatus)
}

func (s *PostgresStore) Fail(ctx context.Context, id, errMsg string) error {
	query := `
        UPDATE research_runs
        SET status = $2, progress = 0, stage = 'failed', error = $3, updated_at = NOW()
        WHERE id = $1
    `
	return s.exec(ctx, query, id, StatusFailed, errMsg)
}

func (s *PostgresStore) CountSince(ctx context.Context, recipient string, since time.Time) (int, error) {
	var count int
	if err := s.db.QueryRow(ctx, countQuery, recipient, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return count, nil
}
