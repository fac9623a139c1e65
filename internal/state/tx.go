package state

import (
	"context"
	"database/sql"
)

// Tx is the mutation-phase handle. Everything a resolver reads or writes
// while applying an event goes through one Tx so the whole
// read-decide-write-ledger-bump sequence commits or rolls back as a unit.
type Tx struct {
	tx  *sql.Tx
	ctx context.Context
}

// Apply runs fn inside a transaction. fn returning an error rolls
// everything back, including any ledger row it wrote.
func (s *Store) Apply(ctx context.Context, fn func(*Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&Tx{tx: tx, ctx: ctx}); err != nil {
		return err
	}
	return tx.Commit()
}

// Flags mirrors Store.Flags within the transaction.
func (t *Tx) Flags(userID string) (map[string]struct{}, error) {
	rows, err := t.tx.QueryContext(t.ctx, `SELECT flag FROM player_flags WHERE user_id=?`, userID)
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

// AddFlag inserts a flag, a no-op when it is already set. Flags are
// append-only; there is no removal operation.
func (t *Tx) AddFlag(userID, flag string) error {
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT OR IGNORE INTO player_flags(user_id, flag) VALUES(?,?)`, userID, flag)
	return err
}

// HasItem reports whether the user holds at least qty of an item.
func (t *Tx) HasItem(userID, itemID string, qty int) (bool, error) {
	var have int
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT qty FROM player_items WHERE user_id=? AND item_id=?`, userID, itemID).Scan(&have)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return have >= qty, nil
}

// GrantItem adds qty to the user's held quantity, creating the row if
// needed.
func (t *Tx) GrantItem(userID, itemID string, qty int) error {
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO player_items(user_id, item_id, qty) VALUES(?,?,?)
		 ON CONFLICT(user_id, item_id) DO UPDATE SET
		   qty = qty + excluded.qty,
		   updated_at = strftime('%Y-%m-%dT%H:%M:%SZ','now')`,
		userID, itemID, qty)
	return err
}

// ConsumeItem subtracts qty, floored at zero: inventory never goes
// negative no matter the sequence of grants and consumes.
func (t *Tx) ConsumeItem(userID, itemID string, qty int) error {
	_, err := t.tx.ExecContext(t.ctx,
		`UPDATE player_items SET
		   qty = MAX(0, qty - ?),
		   updated_at = strftime('%Y-%m-%dT%H:%M:%SZ','now')
		 WHERE user_id=? AND item_id=?`,
		qty, userID, itemID)
	return err
}

// DialogIndex mirrors Store.DialogIndex within the transaction.
func (t *Tx) DialogIndex(userID, npcID string) (int, error) {
	var idx int
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT node_index FROM npc_dialog_state WHERE user_id=? AND npc_id=?`, userID, npcID).Scan(&idx)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return idx, nil
}

// SetDialogIndex stores the dialog cursor for (user, npc).
func (t *Tx) SetDialogIndex(userID, npcID string, idx int) error {
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO npc_dialog_state(user_id, npc_id, node_index) VALUES(?,?,?)
		 ON CONFLICT(user_id, npc_id) DO UPDATE SET
		   node_index = excluded.node_index,
		   updated_at = strftime('%Y-%m-%dT%H:%M:%SZ','now')`,
		userID, npcID, idx)
	return err
}

// RecordEvent writes the ledger row for a one-shot event. The insert is
// deliberately plain: a duplicate key is a double-application bug and must
// surface as an error, not be silently ignored.
func (t *Tx) RecordEvent(userID, eventID string, resultJSON []byte) error {
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO player_event_ledger(user_id, event_id, result_json) VALUES(?,?,?)`,
		userID, eventID, string(resultJSON))
	return err
}

// BumpVersion increments the town version by exactly one.
func (t *Tx) BumpVersion(userID string) error {
	_, err := t.tx.ExecContext(t.ctx,
		`UPDATE player_towns SET
		   version = version + 1,
		   updated_at = strftime('%Y-%m-%dT%H:%M:%SZ','now')
		 WHERE user_id=?`, userID)
	return err
}
