package server

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MatchResult is the record written for every finished game. Live room
// state is never persisted; this is an append-only results log.
type MatchResult struct {
	RoomCode   string
	Winner     int
	Shots      int
	StartedAt  time.Time
	FinishedAt time.Time
}

// MatchResultStore records finished matches in Postgres. The store is
// optional: the server runs without one when DATABASE_URL is unset.
type MatchResultStore struct {
	pool *pgxpool.Pool
}

const matchResultsSchema = `
	CREATE TABLE IF NOT EXISTS match_results (
		id          BIGSERIAL PRIMARY KEY,
		room_code   TEXT        NOT NULL,
		winner      INT         NOT NULL,
		shots       INT         NOT NULL,
		started_at  TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL
	)
`

func NewMatchResultStore(ctx context.Context, databaseURL string) (*MatchResultStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if _, err := pool.Exec(ctx, matchResultsSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure match_results table: %w", err)
	}

	return &MatchResultStore{pool: pool}, nil
}

func (s *MatchResultStore) RecordMatch(ctx context.Context, result MatchResult) error {
	query := `
		INSERT INTO match_results (room_code, winner, shots, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.pool.Exec(ctx, query,
		result.RoomCode,
		result.Winner,
		result.Shots,
		result.StartedAt,
		result.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record match %s: %w", result.RoomCode, err)
	}

	return nil
}

// RecentMatches returns the most recently finished games, newest first.
func (s *MatchResultStore) RecentMatches(ctx context.Context, limit int) ([]MatchResult, error) {
	query := `
		SELECT room_code, winner, shots, started_at, finished_at
		FROM match_results
		ORDER BY finished_at DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query match results: %w", err)
	}
	defer rows.Close()

	var results []MatchResult
	for rows.Next() {
		var r MatchResult
		if err := rows.Scan(&r.RoomCode, &r.Winner, &r.Shots, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan match result row: %w", err)
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match result rows: %w", err)
	}

	return results, nil
}

func (s *MatchResultStore) Close() {
	s.pool.Close()
}
