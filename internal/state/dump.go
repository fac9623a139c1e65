package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// PlayerDump is the full persisted fact set for one user, used by the
// admin export/import tooling. Raw quantities and ledger JSON are carried
// verbatim so a round trip is lossless.
type PlayerDump struct {
	UserID    string  `json:"user_id"`
	Name      *string `json:"name"`
	CreatedAt *string `json:"created_at"`
	Points    int64   `json:"points"`

	Town    *TownDump    `json:"town,omitempty"`
	Flags   []string     `json:"flags"`
	Items   []ItemDump   `json:"items"`
	Dialogs []DialogDump `json:"dialogs"`
	Ledger  []LedgerDump `json:"ledger"`
}

type TownDump struct {
	TownID  string `json:"town_id"`
	Seed    int64  `json:"seed"`
	Version int64  `json:"version"`
}

type ItemDump struct {
	ItemID string `json:"item_id"`
	Qty    int    `json:"qty"`
}

type DialogDump struct {
	NPCID     string `json:"npc_id"`
	NodeIndex int    `json:"node_index"`
}

type LedgerDump struct {
	EventID string          `json:"event_id"`
	Result  json.RawMessage `json:"result"`
}

// ExportPlayer collects every persisted fact for one user.
func (s *Store) ExportPlayer(ctx context.Context, userID string) (*PlayerDump, error) {
	u, err := s.UserData(ctx, userID)
	if err != nil {
		return nil, err
	}

	d := &PlayerDump{
		UserID:  u.UserID,
		Points:  u.Points,
		Flags:   []string{},
		Items:   []ItemDump{},
		Dialogs: []DialogDump{},
		Ledger:  []LedgerDump{},
	}
	if u.Name.Valid {
		name := u.Name.String
		d.Name = &name
	}
	if u.CreatedAt.Valid {
		created := u.CreatedAt.String
		d.CreatedAt = &created
	}

	var t TownDump
	err = s.db.QueryRowContext(ctx,
		`SELECT town_id, seed, version FROM player_towns WHERE user_id=?`, userID).
		Scan(&t.TownID, &t.Seed, &t.Version)
	switch {
	case err == nil:
		d.Town = &t
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, err
	}

	flags, err := s.Flags(ctx, userID)
	if err != nil {
		return nil, err
	}
	for f := range flags {
		d.Flags = append(d.Flags, f)
	}
	sort.Strings(d.Flags)

	rows, err := s.db.QueryContext(ctx,
		`SELECT item_id, qty FROM player_items WHERE user_id=? ORDER BY item_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it ItemDump
		if err := rows.Scan(&it.ItemID, &it.Qty); err != nil {
			return nil, err
		}
		d.Items = append(d.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	drows, err := s.db.QueryContext(ctx,
		`SELECT npc_id, node_index FROM npc_dialog_state WHERE user_id=? ORDER BY npc_id`, userID)
	if err != nil {
		return nil, err
	}
	defer drows.Close()
	for drows.Next() {
		var dd DialogDump
		if err := drows.Scan(&dd.NPCID, &dd.NodeIndex); err != nil {
			return nil, err
		}
		d.Dialogs = append(d.Dialogs, dd)
	}
	if err := drows.Err(); err != nil {
		return nil, err
	}

	lrows, err := s.db.QueryContext(ctx,
		`SELECT event_id, result_json FROM player_event_ledger WHERE user_id=? ORDER BY event_id`, userID)
	if err != nil {
		return nil, err
	}
	defer lrows.Close()
	for lrows.Next() {
		var (
			ld  LedgerDump
			raw string
		)
		if err := lrows.Scan(&ld.EventID, &raw); err != nil {
			return nil, err
		}
		ld.Result = json.RawMessage(raw)
		d.Ledger = append(d.Ledger, ld)
	}
	return d, lrows.Err()
}

// ImportPlayer restores a previously exported dump. The user must not
// already exist; partial state from a failed import never persists.
func (s *Store) ImportPlayer(ctx context.Context, d *PlayerDump) error {
	if d == nil || d.UserID == "" {
		return fmt.Errorf("empty dump")
	}
	exists, err := s.UserExists(ctx, d.UserID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("user %s already exists", d.UserID)
	}

	return s.Apply(ctx, func(tx *Tx) error {
		if _, err := tx.tx.ExecContext(tx.ctx,
			`INSERT INTO user_login(user_id, name) VALUES(?,?)`, d.UserID, d.Name); err != nil {
			return err
		}
		if _, err := tx.tx.ExecContext(tx.ctx,
			`INSERT INTO players(user_id, points) VALUES(?,?)`, d.UserID, d.Points); err != nil {
			return err
		}
		if d.Town != nil {
			if _, err := tx.tx.ExecContext(tx.ctx,
				`INSERT INTO player_towns(user_id, town_id, seed, version) VALUES(?,?,?,?)`,
				d.UserID, d.Town.TownID, d.Town.Seed, d.Town.Version); err != nil {
				return err
			}
		}
		for _, f := range d.Flags {
			if err := tx.AddFlag(d.UserID, f); err != nil {
				return err
			}
		}
		for _, it := range d.Items {
			if _, err := tx.tx.ExecContext(tx.ctx,
				`INSERT INTO player_items(user_id, item_id, qty) VALUES(?,?,?)`,
				d.UserID, it.ItemID, it.Qty); err != nil {
				return err
			}
		}
		for _, dd := range d.Dialogs {
			if err := tx.SetDialogIndex(d.UserID, dd.NPCID, dd.NodeIndex); err != nil {
				return err
			}
		}
		for _, ld := range d.Ledger {
			if err := tx.RecordEvent(d.UserID, ld.EventID, ld.Result); err != nil {
				return err
			}
		}
		return nil
	})
}

// ResetPlayer deletes all gameplay state for a user, keeping the identity
// row. The next snapshot request recreates the town at version 1.
func (s *Store) ResetPlayer(ctx context.Context, userID string) error {
	return s.Apply(ctx, func(tx *Tx) error {
		for _, stmt := range []string{
			`DELETE FROM player_towns WHERE user_id=?`,
			`DELETE FROM player_flags WHERE user_id=?`,
			`DELETE FROM player_items WHERE user_id=?`,
			`DELETE FROM npc_dialog_state WHERE user_id=?`,
			`DELETE FROM player_event_ledger WHERE user_id=?`,
			`UPDATE players SET points = 0 WHERE user_id=?`,
		} {
			if _, err := tx.tx.ExecContext(tx.ctx, stmt, userID); err != nil {
				return err
			}
		}
		return nil
	})
}
