// Package store archives confirmed checksums and desync reports in PostgreSQL
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/bascanada/alacod-sub000/rollback"
	"github.com/bascanada/alacod-sub000/sim"
	"github.com/bascanada/alacod-sub000/store/migrations"
)

// Store wraps a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL and returns a Store.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// RunMigrations applies the embedded migrations through goose.
func RunMigrations(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("opening sql.DB: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	return nil
}

// StartMatch records a new match and returns a handle scoped to it.
func (s *Store) StartMatch(ctx context.Context, scenario string, seed uint64, players int) (*Match, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO matches (scenario, seed, players) VALUES ($1, $2, $3) RETURNING id`,
		scenario, int64(seed), players,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("inserting match: %w", err)
	}
	slog.Info("match recorded", "match", id, "scenario", scenario)
	return &Match{ID: id, pool: s.pool}, nil
}

// Match archives one match. It implements rollback.DesyncReporter.
type Match struct {
	ID   int64
	pool *pgxpool.Pool
}

var _ rollback.DesyncReporter = (*Match)(nil)

// RecordChecksums stores confirmed checksums; frames already stored are kept.
func (m *Match) RecordChecksums(ctx context.Context, sums []rollback.FrameChecksum) error {
	if len(sums) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, c := range sums {
		batch.Queue(
			`INSERT INTO frame_checksums (match_id, frame, checksum) VALUES ($1, $2, $3)
			 ON CONFLICT (match_id, frame) DO NOTHING`,
			m.ID, int64(c.Frame), c.Sum[:],
		)
	}
	br := m.pool.SendBatch(ctx, batch)
	for range sums {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("inserting checksum for match %d: %w", m.ID, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("closing checksum batch: %w", err)
	}
	return nil
}

// ReportDesync stores a detected divergence.
func (m *Match) ReportDesync(ctx context.Context, e rollback.DesyncError) error {
	_, err := m.pool.Exec(ctx,
		`INSERT INTO desyncs (match_id, frame, peer, local_sum, remote_sum) VALUES ($1, $2, $3, $4, $5)`,
		m.ID, int64(e.Frame), e.Peer, e.Local[:], e.Remote[:],
	)
	if err != nil {
		return fmt.Errorf("inserting desync for match %d: %w", m.ID, err)
	}
	return nil
}

// Checksums loads stored checksums in frame order.
func (m *Match) Checksums(ctx context.Context) ([]rollback.FrameChecksum, error) {
	rows, err := m.pool.Query(ctx,
		`SELECT frame, checksum FROM frame_checksums WHERE match_id = $1 ORDER BY frame`, m.ID)
	if err != nil {
		return nil, fmt.Errorf("querying checksums for match %d: %w", m.ID, err)
	}
	defer rows.Close()

	var out []rollback.FrameChecksum
	for rows.Next() {
		var (
			frame int64
			raw   []byte
		)
		if err := rows.Scan(&frame, &raw); err != nil {
			return nil, fmt.Errorf("scanning checksum row: %w", err)
		}
		c := rollback.FrameChecksum{Frame: uint32(frame)}
		if err := copySum(&c.Sum, raw); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating checksum rows: %w", err)
	}
	return out, nil
}

// Desyncs loads stored desync reports in detection order.
func (m *Match) Desyncs(ctx context.Context) ([]rollback.DesyncError, error) {
	rows, err := m.pool.Query(ctx,
		`SELECT frame, peer, local_sum, remote_sum FROM desyncs WHERE match_id = $1 ORDER BY id`, m.ID)
	if err != nil {
		return nil, fmt.Errorf("querying desyncs for match %d: %w", m.ID, err)
	}
	defer rows.Close()

	var out []rollback.DesyncError
	for rows.Next() {
		var (
			frame         int64
			peer          int
			local, remote []byte
		)
		if err := rows.Scan(&frame, &peer, &local, &remote); err != nil {
			return nil, fmt.Errorf("scanning desync row: %w", err)
		}
		e := rollback.DesyncError{Frame: uint32(frame), Peer: peer}
		if err := copySum(&e.Local, local); err != nil {
			return nil, err
		}
		if err := copySum(&e.Remote, remote); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating desync rows: %w", err)
	}
	return out, nil
}

func copySum(dst *sim.Checksum, raw []byte) error {
	if len(raw) != len(dst) {
		return fmt.Errorf("stored checksum has %d bytes, want %d", len(raw), len(dst))
	}
	copy(dst[:], raw)
	return nil
}
