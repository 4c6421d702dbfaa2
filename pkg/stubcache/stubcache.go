// Package stubcache persists materialized-stub resolution facts between
// JIT runs, so that a symbol materialized in a previous process doesn't
// need to repeat class loading and resolution on the next one.
//
// Two backends are provided: a flat CBOR file (canonical encoding,
// mirroring vm/dist/wire.go's cborEncMode pattern exactly, since this is
// the same "persisted JIT artifact that must decode bit-stably" shape),
// and an optional modernc.org/sqlite-backed table for installations that
// want queryable telemetry (how many times a given stub was hit before
// being patched to a direct call), mirroring cmd/tt/main.go's
// database/sql usage.
package stubcache

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
	_ "modernc.org/sqlite"
)

// ResolvedStub is one persisted materialization outcome, keyed by the
// mangled symbol (pkg/mangle) it resolves.
type ResolvedStub struct {
	Symbol          string `cbor:"symbol"`
	Addr            uint64 `cbor:"addr"`
	HitsBeforePatch int    `cbor:"hits_before_patch"`
}

// Store is the persisted-cache collaborator pkg/materialize consults
// before running a real materialization, and updates after one succeeds.
type Store interface {
	Get(symbol string) (ResolvedStub, bool, error)
	Put(stub ResolvedStub) error
	Close() error
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("stubcache: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// FileStore persists the resolved-stub table as a single canonical-CBOR
// file, loaded entirely into memory and rewritten on every Put.
type FileStore struct {
	path    string
	entries map[string]ResolvedStub
}

// OpenFileStore loads path if it exists, or starts an empty table if it
// doesn't (a missing cache file is not an error, matching a fresh JIT
// run with nothing cached yet).
func OpenFileStore(path string) (*FileStore, error) {
	fs := &FileStore{path: path, entries: make(map[string]ResolvedStub)}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fs, nil
		}
		return nil, fmt.Errorf("stubcache: read %s: %w", path, err)
	}
	var entries []ResolvedStub
	if err := cbor.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("stubcache: decode %s: %w", path, err)
	}
	for _, e := range entries {
		fs.entries[e.Symbol] = e
	}
	return fs, nil
}

func (fs *FileStore) Get(symbol string) (ResolvedStub, bool, error) {
	stub, ok := fs.entries[symbol]
	return stub, ok, nil
}

func (fs *FileStore) Put(stub ResolvedStub) error {
	fs.entries[stub.Symbol] = stub
	return fs.flush()
}

func (fs *FileStore) flush() error {
	entries := make([]ResolvedStub, 0, len(fs.entries))
	for _, e := range fs.entries {
		entries = append(entries, e)
	}
	data, err := cborEncMode.Marshal(entries)
	if err != nil {
		return fmt.Errorf("stubcache: encode: %w", err)
	}
	if err := os.WriteFile(fs.path, data, 0o644); err != nil {
		return fmt.Errorf("stubcache: write %s: %w", fs.path, err)
	}
	return nil
}

func (fs *FileStore) Close() error { return nil }

// SQLiteStore backs the resolved-stub table with a modernc.org/sqlite
// database instead of a flat file, for installations that want to query
// JIT telemetry with SQL (which symbols were ever materialized, how many
// call-site hits a stub absorbed before being patched out).
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if necessary) the resolved_stubs table
// at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("stubcache: open %s: %w", path, err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS resolved_stubs (
	symbol TEXT PRIMARY KEY,
	addr INTEGER NOT NULL,
	hits_before_patch INTEGER NOT NULL
)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("stubcache: create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(symbol string) (ResolvedStub, bool, error) {
	row := s.db.QueryRow(`SELECT symbol, addr, hits_before_patch FROM resolved_stubs WHERE symbol = ?`, symbol)
	var stub ResolvedStub
	if err := row.Scan(&stub.Symbol, &stub.Addr, &stub.HitsBeforePatch); err != nil {
		if err == sql.ErrNoRows {
			return ResolvedStub{}, false, nil
		}
		return ResolvedStub{}, false, fmt.Errorf("stubcache: query %s: %w", symbol, err)
	}
	return stub, true, nil
}

func (s *SQLiteStore) Put(stub ResolvedStub) error {
	const upsert = `
INSERT INTO resolved_stubs (symbol, addr, hits_before_patch) VALUES (?, ?, ?)
ON CONFLICT(symbol) DO UPDATE SET addr = excluded.addr, hits_before_patch = excluded.hits_before_patch`
	if _, err := s.db.Exec(upsert, stub.Symbol, stub.Addr, stub.HitsBeforePatch); err != nil {
		return fmt.Errorf("stubcache: upsert %s: %w", stub.Symbol, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// Open picks a backend: a SQLiteStore if sqlitePath is non-empty,
// otherwise a FileStore at cacheDir/stubs.cbor.
func Open(cacheDir, sqlitePath string) (Store, error) {
	if sqlitePath != "" {
		return OpenSQLiteStore(sqlitePath)
	}
	if cacheDir == "" {
		cacheDir = "."
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("stubcache: create cache dir %s: %w", cacheDir, err)
	}
	return OpenFileStore(cacheDir + "/stubs.cbor")
}
