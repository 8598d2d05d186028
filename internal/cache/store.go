package cache

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Namespace identifies one isolated key-value collection, one per content
// kind. The set is closed; namespace names double as table names, so a
// lookup against anything else is rejected before touching SQL.
type Namespace string

const (
	NamespaceExplanations    Namespace = "explanations"
	NamespaceTranslations    Namespace = "translations"
	NamespaceTTSFormatted    Namespace = "tts_formatted"
	NamespaceRAGExplanations Namespace = "rag_explanations"
)

// Namespaces lists every known namespace in migration order.
func Namespaces() []Namespace {
	return []Namespace{
		NamespaceExplanations,
		NamespaceTranslations,
		NamespaceTTSFormatted,
		NamespaceRAGExplanations,
	}
}

func (n Namespace) valid() bool {
	switch n {
	case NamespaceExplanations, NamespaceTranslations, NamespaceTTSFormatted, NamespaceRAGExplanations:
		return true
	}
	return false
}

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Store is the SQLite-backed content store. Schema upgrades are additive:
// each migration only creates its own namespace and never touches entries
// in the others.
type Store struct {
	db *sql.DB
}

func NewStore(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	// Bootstrap schema_migrations table so we can track applied versions.
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if exists > 0 {
			continue
		}
		content, err := migrationFiles.ReadFile(filepath.Join("migrations", entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// migrationVersion extracts the leading integer from a migration filename (e.g. "001_explanations.sql" → 1).
func migrationVersion(name string) int {
	for i, c := range name {
		if c < '0' || c > '9' {
			if i == 0 {
				return 0
			}
			n, _ := strconv.Atoi(name[:i])
			return n
		}
	}
	n, _ := strconv.Atoi(name)
	return n
}

// Get reads one entry and unmarshals its payload into dest. The second
// return is false when no entry exists for the key.
func (s *Store) Get(ctx context.Context, ns Namespace, key string, dest any) (bool, error) {
	if !ns.valid() {
		return false, fmt.Errorf("unknown cache namespace %q", ns)
	}
	row := s.db.QueryRowContext(
		ctx,
		`SELECT payload_json FROM `+string(ns)+` WHERE cache_key = ?`,
		key,
	)
	var payloadJSON string
	if err := row.Scan(&payloadJSON); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal([]byte(payloadJSON), dest); err != nil {
		return false, fmt.Errorf("decode cache payload: %w", err)
	}
	return true, nil
}

// Put writes one entry, overwriting any prior entry for the key
// (last-write-wins, no versioning).
func (s *Store) Put(ctx context.Context, ns Namespace, key string, payload any) error {
	if !ns.valid() {
		return fmt.Errorf("unknown cache namespace %q", ns)
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode cache payload: %w", err)
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO `+string(ns)+` (cache_key, payload_json, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET
			payload_json=excluded.payload_json,
			created_at=excluded.created_at`,
		key,
		string(payloadJSON),
		time.Now().UTC(),
	)
	return err
}

// Count returns the number of entries in one namespace.
func (s *Store) Count(ctx context.Context, ns Namespace) (int64, error) {
	if !ns.valid() {
		return 0, fmt.Errorf("unknown cache namespace %q", ns)
	}
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+string(ns)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", ns, err)
	}
	return count, nil
}
