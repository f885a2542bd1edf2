package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite stores everything in a single database file.
type SQLite struct {
	db       *sql.DB
	compress bool
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens (and creates if needed) the database at path. Chunk
// records are zstd-compressed when compress is set; records written either
// way stay readable.
func OpenSQLite(path string, compress bool) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db, compress: compress}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS worlds (
			name TEXT PRIMARY KEY,
			seed TEXT NOT NULL,
			game_mode TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			generated INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			world TEXT NOT NULL,
			cx INTEGER NOT NULL,
			cz INTEGER NOT NULL,
			data BLOB NOT NULL,
			PRIMARY KEY (world, cx, cz)
		);`,
		`CREATE TABLE IF NOT EXISTS players (
			world TEXT PRIMARY KEY,
			x REAL NOT NULL,
			y REAL NOT NULL,
			z REAL NOT NULL,
			yaw REAL NOT NULL,
			pitch REAL NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS worlds_created ON worlds(created_at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) LoadChunk(ctx context.Context, world string, cx, cz int) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM chunks WHERE world = ? AND cx = ? AND cz = ?`, world, cx, cz).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load chunk %d,%d: %w", cx, cz, err)
	}
	data, err := decodeChunk(blob)
	if err != nil {
		return nil, fmt.Errorf("load chunk %d,%d: %w", cx, cz, err)
	}
	return data, nil
}

func (s *SQLite) SaveChunk(ctx context.Context, world string, cx, cz int, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chunks (world, cx, cz, data) VALUES (?, ?, ?, ?)
		 ON CONFLICT(world, cx, cz) DO UPDATE SET data = excluded.data`,
		world, cx, cz, encodeChunk(data, s.compress))
	if err != nil {
		return fmt.Errorf("save chunk %d,%d: %w", cx, cz, err)
	}
	return nil
}

func (s *SQLite) CreateWorld(ctx context.Context, name, seed, gameMode string) (WorldMeta, error) {
	m, err := newMeta(name, seed, gameMode)
	if err != nil {
		return WorldMeta{}, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return WorldMeta{}, err
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM worlds WHERE name = ?`, name).Scan(&one)
	if err == nil {
		return WorldMeta{}, fmt.Errorf("%s: %w", name, ErrWorldExists)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return WorldMeta{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO worlds (name, seed, game_mode, created_at, generated) VALUES (?, ?, ?, ?, 0)`,
		m.Name, m.Seed, m.GameMode, m.CreatedAt.UnixNano()); err != nil {
		return WorldMeta{}, fmt.Errorf("create world %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return WorldMeta{}, err
	}
	return m, nil
}

func (s *SQLite) World(ctx context.Context, name string) (WorldMeta, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT name, seed, game_mode, created_at, generated FROM worlds WHERE name = ?`, name)
	m, err := scanMeta(row)
	if errors.Is(err, sql.ErrNoRows) {
		return WorldMeta{}, fmt.Errorf("world %s: %w", name, ErrNotFound)
	}
	return m, err
}

func (s *SQLite) ListWorlds(ctx context.Context) ([]WorldMeta, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, seed, game_mode, created_at, generated FROM worlds ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []WorldMeta
	for rows.Next() {
		m, err := scanMeta(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMeta(r scanner) (WorldMeta, error) {
	var (
		m         WorldMeta
		created   int64
		generated int
	)
	if err := r.Scan(&m.Name, &m.Seed, &m.GameMode, &created, &generated); err != nil {
		return WorldMeta{}, err
	}
	m.CreatedAt = time.Unix(0, created).UTC()
	m.Generated = generated != 0
	return m, nil
}

// DeleteWorld removes a world with its chunks and player state.
func (s *SQLite) DeleteWorld(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM worlds WHERE name = ?`, name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("world %s: %w", name, ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE world = ?`, name); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM players WHERE world = ?`, name); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLite) MarkGenerated(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE worlds SET generated = 1 WHERE name = ?`, name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("world %s: %w", name, ErrNotFound)
	}
	return nil
}

func (s *SQLite) SavePlayer(ctx context.Context, world string, p PlayerState) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO players (world, x, y, z, yaw, pitch) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(world) DO UPDATE SET x = excluded.x, y = excluded.y, z = excluded.z,
		 yaw = excluded.yaw, pitch = excluded.pitch`,
		world, p.Position.X(), p.Position.Y(), p.Position.Z(), p.Yaw, p.Pitch)
	return err
}

func (s *SQLite) LoadPlayer(ctx context.Context, world string) (PlayerState, error) {
	var x, y, z, yaw, pitch float64
	err := s.db.QueryRowContext(ctx,
		`SELECT x, y, z, yaw, pitch FROM players WHERE world = ?`, world).Scan(&x, &y, &z, &yaw, &pitch)
	if errors.Is(err, sql.ErrNoRows) {
		return PlayerState{}, fmt.Errorf("player in %s: %w", world, ErrNotFound)
	}
	if err != nil {
		return PlayerState{}, err
	}
	return PlayerState{
		Position: [3]float32{float32(x), float32(y), float32(z)},
		Yaw:      float32(yaw),
		Pitch:    float32(pitch),
	}, nil
}
