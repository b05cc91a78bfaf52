// Package modelstore demonstrates one concrete, optional round-trip of the
// persisted model state listed in §6: JSON-encoded DTModel/BDTModel/VineModel
// blobs in SQLite, keyed by the uuid each model already carries.
//
// The DSN/pragma/schema-init/JSON-blob shape follows
// pkg/metadatastore.SQLiteStore: a WAL-mode modernc.org/sqlite connection
// with a busy timeout, one table per persisted kind, and a `data` column
// holding the marshaled struct.
package modelstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/evtboost/bdt/pkg/boost"
	"github.com/evtboost/bdt/pkg/tree"
	"github.com/evtboost/bdt/pkg/vine"
)

// Store provides SQLite-based persistence for DTModel, BDTModel, and
// VineModel.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) a WAL-mode SQLite database at dbPath and
// initializes its schema.
func Open(dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=10000&_journal_mode=WAL&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("modelstore: open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("modelstore: connect: %w", err)
	}

	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		return nil, fmt.Errorf("modelstore: check journal mode: %w", err)
	}
	if journalMode != "wal" && journalMode != "delete" && journalMode != "memory" {
		return nil, fmt.Errorf("modelstore: unexpected journal mode: got %s", journalMode)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("modelstore: init schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tree_models (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		data TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS boost_models (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		data TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS vine_models (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		data TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveTreeModel persists a DTModel's full node tree and feature schema.
func (s *Store) SaveTreeModel(m *tree.Model) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("modelstore: marshal tree model: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO tree_models (id, created_at, data) VALUES (?, ?, ?)`,
		m.ID, time.Now().UTC(), string(data),
	)
	if err != nil {
		return fmt.Errorf("modelstore: save tree model: %w", err)
	}
	return nil
}

// LoadTreeModel retrieves a DTModel by ID.
func (s *Store) LoadTreeModel(id string) (*tree.Model, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM tree_models WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("modelstore: tree model not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("modelstore: load tree model: %w", err)
	}
	var m tree.Model
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("modelstore: unmarshal tree model: %w", err)
	}
	return &m, nil
}

// SaveBoostModel persists a BDTModel's ordered DTModels and alphas.
func (s *Store) SaveBoostModel(m *boost.Model) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("modelstore: marshal boost model: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO boost_models (id, created_at, data) VALUES (?, ?, ?)`,
		m.ID, time.Now().UTC(), string(data),
	)
	if err != nil {
		return fmt.Errorf("modelstore: save boost model: %w", err)
	}
	return nil
}

// LoadBoostModel retrieves a BDTModel by ID.
func (s *Store) LoadBoostModel(id string) (*boost.Model, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM boost_models WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("modelstore: boost model not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("modelstore: load boost model: %w", err)
	}
	var m boost.Model
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("modelstore: unmarshal boost model: %w", err)
	}
	return &m, nil
}

// SaveVineModel persists a VineModel's sub-models and window bounds.
func (s *Store) SaveVineModel(m *vine.Model) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("modelstore: marshal vine model: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO vine_models (id, created_at, data) VALUES (?, ?, ?)`,
		m.ID, time.Now().UTC(), string(data),
	)
	if err != nil {
		return fmt.Errorf("modelstore: save vine model: %w", err)
	}
	return nil
}

// LoadVineModel retrieves a VineModel by ID.
func (s *Store) LoadVineModel(id string) (*vine.Model, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM vine_models WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("modelstore: vine model not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("modelstore: load vine model: %w", err)
	}
	var m vine.Model
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("modelstore: unmarshal vine model: %w", err)
	}
	return &m, nil
}
