// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graphstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/citegraph/pkg/types"
)

// SQLiteStore persists graph snapshots as JSON rows in a SQLite database,
// so CLI invocations share graphs across processes. The single-writer
// discipline is enforced twice: a per-ID in-process mutex plus the row
// replace inside a transaction.
type SQLiteStore struct {
	db *sql.DB

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSQLiteStore opens or creates the database at path and bootstraps the
// schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteStore{db: db, locks: make(map[string]*sync.Mutex)}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS graphs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		node_count INTEGER NOT NULL,
		edge_count INTEGER NOT NULL,
		data TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// idLock returns the in-process mutex for a graph ID.
func (s *SQLiteStore) idLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// Put stores a graph snapshot, replacing any previous row.
func (s *SQLiteStore) Put(ctx context.Context, g *types.ResearchGraph) error {
	if g.ID == "" {
		return fmt.Errorf("graph has no ID")
	}

	l := s.idLock(g.ID)
	l.Lock()
	defer l.Unlock()
	return s.write(ctx, g)
}

func (s *SQLiteStore) write(ctx context.Context, g *types.ResearchGraph) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshaling graph %s: %w", g.ID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO graphs (id, name, created_at, updated_at, node_count, edge_count, data)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, updated_at=excluded.updated_at,
			node_count=excluded.node_count, edge_count=excluded.edge_count,
			data=excluded.data`,
		g.ID, g.Name,
		g.CreatedAt.UTC().Format(time.RFC3339Nano),
		g.UpdatedAt.UTC().Format(time.RFC3339Nano),
		len(g.Nodes), len(g.Edges), string(data),
	)
	if err != nil {
		return fmt.Errorf("storing graph %s: %w", g.ID, err)
	}
	return nil
}

// Get returns the committed snapshot for id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*types.ResearchGraph, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM graphs WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("graph %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading graph %s: %w", id, err)
	}

	var g types.ResearchGraph
	if err := json.Unmarshal([]byte(data), &g); err != nil {
		return nil, fmt.Errorf("parsing stored graph %s: %w", id, err)
	}
	return &g, nil
}

// Update applies fn to the stored graph under the ID's lock and writes the
// result back when fn succeeds.
func (s *SQLiteStore) Update(ctx context.Context, id string, fn func(*types.ResearchGraph) error) (*types.ResearchGraph, error) {
	l := s.idLock(id)
	l.Lock()
	defer l.Unlock()

	g, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(g); err != nil {
		return nil, err
	}
	if err := s.write(ctx, g); err != nil {
		return nil, err
	}
	return g.Clone(), nil
}

// Delete removes a graph row.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	l := s.idLock(id)
	l.Lock()
	defer l.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM graphs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting graph %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("graph %s: %w", id, ErrNotFound)
	}
	return nil
}

// List returns summaries ordered by creation time, then ID.
func (s *SQLiteStore) List(ctx context.Context) ([]types.GraphSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at, node_count, edge_count FROM graphs ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing graphs: %w", err)
	}
	defer rows.Close()

	var summaries []types.GraphSummary
	for rows.Next() {
		var sum types.GraphSummary
		var created string
		if err := rows.Scan(&sum.ID, &sum.Name, &created, &sum.NodeCount, &sum.EdgeCount); err != nil {
			return nil, fmt.Errorf("scanning graph row: %w", err)
		}
		if t, perr := time.Parse(time.RFC3339Nano, created); perr == nil {
			sum.CreatedAt = t
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
