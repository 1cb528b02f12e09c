// Package sqlite provides SQLite persistence for a local argmap collection.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/agentstation/argmap/pkg/artifacts"
	"github.com/agentstation/argmap/pkg/constants"
	"github.com/agentstation/argmap/pkg/store"
)

// Memory is the path that opens a private in-memory database.
const Memory = ":memory:"

// Store handles SQLite persistence of entities.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ store.Store = (*Store)(nil)

// Open creates a new Store with the given database path.
// Creates tables if they don't exist.
// Uses WAL mode for better concurrent read performance (file-based DBs only).
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == Memory {
		// Each in-memory store gets its own named database so stores
		// opened side by side in one process stay independent.
		connStr = fmt.Sprintf("file:argmap-%s?mode=memory&cache=shared", uuid.NewString())
	} else if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// For in-memory databases, limit to 1 connection so the database
	// lives as long as the store
	if dbPath == Memory {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != Memory {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

// createTables creates the required tables and indexes if they don't exist.
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entities (
		kind TEXT NOT NULL,
		id TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (kind, id)
	);

	CREATE INDEX IF NOT EXISTS idx_entities_created ON entities(kind, created_at, id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// List implements store.Reader.
func (s *Store) List(ctx context.Context, kind artifacts.Kind) ([]artifacts.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM entities WHERE kind = ? ORDER BY created_at, id`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", kind, err)
	}
	defer rows.Close()

	var entities []artifacts.Entity
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		e, err := artifacts.New(kind)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payload), e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", kind, err)
	}

	// RFC 3339 text with trimmed fractions does not sort exactly.
	artifacts.Sort(entities)
	return entities, nil
}

// Count returns the number of stored entities of kind.
func (s *Store) Count(ctx context.Context, kind artifacts.Kind) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entities WHERE kind = ?`, string(kind)).Scan(&n)
	return n, err
}

// Begin implements store.Store. The write lock is held until the
// transaction commits or rolls back.
func (s *Store) Begin(ctx context.Context) (store.Tx, error) {
	s.mu.Lock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &sqliteTx{store: s, tx: tx}, nil
}

type sqliteTx struct {
	store *Store
	tx    *sql.Tx
	done  bool
}

func (t *sqliteTx) Put(ctx context.Context, entities ...artifacts.Entity) error {
	if t.done {
		return sql.ErrTxDone
	}
	stmt, err := t.tx.PrepareContext(ctx, `
		INSERT INTO entities (kind, id, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(kind, id) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entities {
		if e.EntityID() == "" {
			return fmt.Errorf("%s id cannot be empty", e.EntityKind())
		}
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", e.EntityKind(), e.EntityID(), err)
		}
		if _, err := stmt.ExecContext(ctx,
			string(e.EntityKind()),
			e.EntityID(),
			string(payload),
			e.Created().UTC().Format(time.RFC3339Nano),
			e.Updated().UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("upsert %s %s: %w", e.EntityKind(), e.EntityID(), err)
		}
	}
	return nil
}

func (t *sqliteTx) Commit() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	defer t.store.mu.Unlock()
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	defer t.store.mu.Unlock()
	return t.tx.Rollback()
}
