// Package state is the player fact store: identity, town assignment,
// flags, inventory, dialog cursors and the event ledger, persisted in a
// single SQLite database.
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"emberhollow.gg/internal/catalog"
)

type Store struct {
	db *sql.DB
}

type UserRecord struct {
	UserID    string
	Name      sql.NullString
	CreatedAt sql.NullString
	Points    int64
}

type TownRecord struct {
	TownID  string
	Seed    int64
	Version int64
}

type ItemRecord struct {
	ItemID         string
	Qty            int
	NameKey        string
	DescriptionKey string
	Tags           string
}

// ErrNoUser is returned by lookups for users that were never created.
var ErrNoUser = errors.New("state: no such user")

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Single connection: serializes writers and keeps the WAL file small.
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
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
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
		`CREATE TABLE IF NOT EXISTS user_login (
			user_id TEXT PRIMARY KEY,
			name TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
		);`,
		`CREATE TABLE IF NOT EXISTS players (
			user_id TEXT PRIMARY KEY,
			points INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
		);`,
		`CREATE TABLE IF NOT EXISTS player_towns (
			user_id TEXT PRIMARY KEY,
			town_id TEXT NOT NULL,
			seed INTEGER NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
		);`,
		`CREATE TABLE IF NOT EXISTS player_event_ledger (
			user_id TEXT NOT NULL,
			event_id TEXT NOT NULL,
			result_json TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
			PRIMARY KEY (user_id, event_id)
		);`,
		`CREATE TABLE IF NOT EXISTS player_flags (
			user_id TEXT NOT NULL,
			flag TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
			PRIMARY KEY (user_id, flag)
		);`,
		`CREATE TABLE IF NOT EXISTS item_types (
			item_id TEXT PRIMARY KEY,
			name_key TEXT NOT NULL,
			description_key TEXT NOT NULL,
			tags TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS player_items (
			user_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			qty INTEGER NOT NULL DEFAULT 0,
			acquired_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
			PRIMARY KEY (user_id, item_id)
		);`,
		`CREATE TABLE IF NOT EXISTS npc_dialog_state (
			user_id TEXT NOT NULL,
			npc_id TEXT NOT NULL,
			node_index INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
			PRIMARY KEY (user_id, npc_id)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SeedItemTypes inserts the catalog's item definitions, ignoring rows that
// already exist. Called once at startup after Open.
func (s *Store) SeedItemTypes(ctx context.Context, cat *catalog.Catalog) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO item_types(item_id,name_key,description_key,tags) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, id := range cat.Items.IDs {
		def := cat.Items.Defs[id]
		if _, err := stmt.Exec(def.ID, def.NameKey, def.DescriptionKey, def.Tags); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CreateUser inserts the identity and player rows for a new user.
func (s *Store) CreateUser(ctx context.Context, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT INTO user_login(user_id) VALUES(?)`, userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO players(user_id, points) VALUES(?, 0)`, userID); err != nil {
		return err
	}
	return tx.Commit()
}

// UserExists reports whether the user was ever created.
func (s *Store) UserExists(ctx context.Context, userID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM user_login WHERE user_id=?`, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UserData returns the joined identity/player row, or ErrNoUser.
func (s *Store) UserData(ctx context.Context, userID string) (UserRecord, error) {
	var u UserRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT ul.user_id, ul.name, ul.created_at, p.points
		 FROM user_login ul JOIN players p ON ul.user_id = p.user_id
		 WHERE ul.user_id = ?`, userID).
		Scan(&u.UserID, &u.Name, &u.CreatedAt, &u.Points)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNoUser
	}
	if err != nil {
		return u, err
	}
	return u, nil
}

// AddPoints applies an atomic increment and reports whether a player row
// was updated.
func (s *Store) AddPoints(ctx context.Context, userID string, amount int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE players SET points = points + ?, updated_at = strftime('%Y-%m-%dT%H:%M:%SZ','now') WHERE user_id = ?`,
		amount, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// TownGetOrCreate returns the user's town row, creating it at version 1 on
// first access. townID and seed are only consulted for the create path.
func (s *Store) TownGetOrCreate(ctx context.Context, userID, townID string, seed int64) (TownRecord, error) {
	var t TownRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT town_id, seed, version FROM player_towns WHERE user_id=?`, userID).
		Scan(&t.TownID, &t.Seed, &t.Version)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return t, err
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO player_towns(user_id, town_id, seed, version) VALUES(?,?,?,1)`,
		userID, townID, seed); err != nil {
		return t, err
	}
	return TownRecord{TownID: townID, Seed: seed, Version: 1}, nil
}

// Flags returns the user's flag set.
func (s *Store) Flags(ctx context.Context, userID string) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT flag FROM player_flags WHERE user_id=?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flags := map[string]struct{}{}
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, err
		}
		flags[f] = struct{}{}
	}
	return flags, rows.Err()
}

// Items returns the user's inventory joined with item definitions,
// restricted to quantity > 0, ordered by item id.
func (s *Store) Items(ctx context.Context, userID string) ([]ItemRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pi.item_id, pi.qty, it.name_key, it.description_key, it.tags
		 FROM player_items pi JOIN item_types it ON pi.item_id = it.item_id
		 WHERE pi.user_id = ? AND pi.qty > 0
		 ORDER BY pi.item_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ItemRecord
	for rows.Next() {
		var it ItemRecord
		if err := rows.Scan(&it.ItemID, &it.Qty, &it.NameKey, &it.DescriptionKey, &it.Tags); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ItemQty returns the quantity held of one item (0 when no row exists).
func (s *Store) ItemQty(ctx context.Context, userID, itemID string) (int, error) {
	var qty int
	err := s.db.QueryRowContext(ctx,
		`SELECT qty FROM player_items WHERE user_id=? AND item_id=?`, userID, itemID).Scan(&qty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return qty, nil
}

// DialogIndex returns the dialog cursor for (user, npc), 0 when unset.
func (s *Store) DialogIndex(ctx context.Context, userID, npcID string) (int, error) {
	var idx int
	err := s.db.QueryRowContext(ctx,
		`SELECT node_index FROM npc_dialog_state WHERE user_id=? AND npc_id=?`, userID, npcID).Scan(&idx)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return idx, nil
}

// LedgerResult returns the recorded result JSON for a one-shot event, or
// nil when the event was never applied.
func (s *Store) LedgerResult(ctx context.Context, userID, eventID string) ([]byte, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT result_json FROM player_event_ledger WHERE user_id=? AND event_id=?`,
		userID, eventID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// ConsumedEventIDs returns the ids of all events in the user's ledger.
func (s *Store) ConsumedEventIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT event_id FROM player_event_ledger WHERE user_id=?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := map[string]struct{}{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}
