package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type Store struct {
	db *sql.DB
}

func Open(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("missing database dsn")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Store{db: db}, nil
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

var ErrNotFound = errors.New("submission not found")

type Submission struct {
	ID           string    `json:"id"`
	SubmissionID string    `json:"submission_id"`
	StatusCode   int       `json:"status_code"`
	ResponseBody string    `json:"response_body"`
	CreatedAt    time.Time `json:"created_at"`
}

func (s *Store) RecordSubmission(ctx context.Context, submissionID string, statusCode int, responseBody string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `INSERT INTO submissions (id, submission_id, status_code, response_body) VALUES ($1,$2,$3,$4)`,
		id, submissionID, statusCode, responseBody)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) GetSubmission(ctx context.Context, submissionID string) (Submission, error) {
	var sub Submission
	row := s.db.QueryRowContext(ctx, `SELECT id, submission_id, status_code, response_body, created_at
		FROM submissions WHERE submission_id = $1 ORDER BY created_at DESC LIMIT 1`, submissionID)
	if err := row.Scan(&sub.ID, &sub.SubmissionID, &sub.StatusCode, &sub.ResponseBody, &sub.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sub, ErrNotFound
		}
		return sub, err
	}
	return sub, nil
}

func (s *Store) ListSubmissions(ctx context.Context, limit int) ([]Submission, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, submission_id, status_code, response_body, created_at
		FROM submissions ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		var sub Submission
		if err := rows.Scan(&sub.ID, &sub.SubmissionID, &sub.StatusCode, &sub.ResponseBody, &sub.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *Store) HealthSummary(ctx context.Context) (map[string]string, error) {
	if err := s.Ping(ctx); err != nil {
		return nil, err
	}
	return map[string]string{"database": "ok"}, nil
}
