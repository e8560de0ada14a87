package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// Analysis is one engine decision requested through the service.
type Analysis struct {
	ID         string    `json:"id"`
	Board      []string  `json:"board"`
	RunLength  int       `json:"runLength"`
	Turn       string    `json:"turn"`
	Depth      int       `json:"depth"`
	Column     int       `json:"column"`
	Score      float64   `json:"score"`
	Nodes      int       `json:"nodes"`
	Cutoffs    int       `json:"cutoffs"`
	DurationMs int64     `json:"durationMs"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Store interface {
	SaveAnalysis(ctx context.Context, a Analysis) error
	RecentAnalyses(ctx context.Context, limit int) ([]Analysis, error)
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, url string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}
	return &PostgresStore{pool: pool}, nil
}

func (p *PostgresStore) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

func (p *PostgresStore) EnsureTables(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS analyses (
	id          TEXT PRIMARY KEY,
	board       TEXT[] NOT NULL,
	run_length  INT NOT NULL,
	turn        TEXT NOT NULL,
	depth       INT NOT NULL,
	chosen      INT NOT NULL,
	score       DOUBLE PRECISION NOT NULL,
	nodes       INT NOT NULL,
	cutoffs     INT NOT NULL,
	duration_ms BIGINT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);
`)
	return errors.Wrap(err, "ensure analyses table")
}

func (p *PostgresStore) SaveAnalysis(ctx context.Context, a Analysis) error {
	_, err := p.pool.Exec(ctx, `
INSERT INTO analyses (id, board, run_length, turn, depth, chosen, score, nodes, cutoffs, duration_ms, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) ON CONFLICT (id) DO NOTHING`,
		a.ID, a.Board, a.RunLength, a.Turn, a.Depth, a.Column, a.Score, a.Nodes, a.Cutoffs, a.DurationMs, a.CreatedAt)
	return errors.Wrapf(err, "save analysis %s", a.ID)
}

func (p *PostgresStore) RecentAnalyses(ctx context.Context, limit int) ([]Analysis, error) {
	rows, err := p.pool.Query(ctx, `
SELECT id, board, run_length, turn, depth, chosen, score, nodes, cutoffs, duration_ms, created_at
FROM analyses
ORDER BY created_at DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query analyses")
	}
	defer rows.Close()

	res := []Analysis{}
	for rows.Next() {
		var a Analysis
		if err := rows.Scan(&a.ID, &a.Board, &a.RunLength, &a.Turn, &a.Depth, &a.Column,
			&a.Score, &a.Nodes, &a.Cutoffs, &a.DurationMs, &a.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan analysis")
		}
		res = append(res, a)
	}
	return res, errors.Wrap(rows.Err(), "iterate analyses")
}
