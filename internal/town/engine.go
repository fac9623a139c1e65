package town

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"emberhollow.gg/internal/catalog"
	"emberhollow.gg/internal/protocol"
	"emberhollow.gg/internal/state"
)

// Outcome is the result of one event-trigger request. ErrorCode is empty
// on success; Snapshot is attached wherever the caller can resynchronize
// from it.
type Outcome struct {
	Status     int
	ErrorCode  string
	EventID    string
	Idempotent bool
	Result     *protocol.EventResult
	Snapshot   *protocol.Snapshot
}

// ApplyEvent validates and executes a single event trigger against the
// user's current snapshot. The sequence is fixed: version check, catalog
// lookup, allowed check with idempotent replay, adjacency validation, a
// second idempotency check, then the transactional mutation phase
// (resolver effects, ledger row, version bump). All validation happens
// before any mutation, so a failed request never leaves partial state.
func (s *Service) ApplyEvent(ctx context.Context, userID, eventID string, payload map[string]any, claimedVersion any) (*Outcome, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	if claimedVersion != nil {
		v, ok := parseVersion(claimedVersion)
		if !ok {
			return &Outcome{Status: http.StatusBadRequest, ErrorCode: protocol.ErrBadVersion}, nil
		}
		if v != snap.Version {
			return &Outcome{Status: http.StatusConflict, ErrorCode: protocol.ErrStaleClient, Snapshot: snap}, nil
		}
	}

	ev, ok := s.cat.Event(eventID)
	if !ok {
		return &Outcome{Status: http.StatusNotFound, ErrorCode: protocol.ErrUnknownEvent}, nil
	}

	if !contains(snap.AllowedEventIDs, eventID) {
		// Not currently triggerable: either a consumed one-shot (replay
		// idempotently from the ledger) or an event that was never legal.
		recorded, err := s.recordedResult(ctx, userID, eventID)
		if err != nil {
			return nil, err
		}
		if recorded != nil {
			return &Outcome{Status: http.StatusOK, EventID: eventID, Idempotent: true, Result: recorded, Snapshot: snap}, nil
		}
		return &Outcome{Status: http.StatusBadRequest, ErrorCode: protocol.ErrEventNotAllowed, Snapshot: snap}, nil
	}

	if !validAdjacency(ev, payload, snap.Tiles) {
		return &Outcome{Status: http.StatusBadRequest, ErrorCode: protocol.ErrInvalidPosition, Snapshot: snap}, nil
	}

	// A concurrent request may have consumed the event
	// between the snapshot read and here.
	if !ev.Repeatable {
		recorded, err := s.recordedResult(ctx, userID, eventID)
		if err != nil {
			return nil, err
		}
		if recorded != nil {
			return &Outcome{Status: http.StatusOK, EventID: eventID, Idempotent: true, Result: recorded, Snapshot: snap}, nil
		}
	}

	var result protocol.EventResult
	err = s.store.Apply(ctx, func(tx *state.Tx) error {
		var record bool
		var err error
		result, record, err = s.resolve(tx, userID, ev)
		if err != nil {
			return err
		}
		if !ev.Repeatable && record {
			raw, err := json.Marshal(result)
			if err != nil {
				return err
			}
			// Plain insert: a duplicate ledger key aborts the whole unit.
			if err := tx.RecordEvent(userID, eventID, raw); err != nil {
				return err
			}
		}
		return tx.BumpVersion(userID)
	})
	if err != nil {
		return nil, err
	}

	fresh, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Outcome{Status: http.StatusOK, EventID: eventID, Result: &result, Snapshot: fresh}, nil
}

func (s *Service) recordedResult(ctx context.Context, userID, eventID string) (*protocol.EventResult, error) {
	raw, err := s.store.LedgerResult(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var result protocol.EventResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// validAdjacency checks the interaction geometry: the target must be the
// event's anchor tile, the player must stand exactly one orthogonal step
// away, and the player's tile must be passable. Every violation collapses
// into the same outcome; callers never learn which rule failed.
func validAdjacency(ev catalog.EventDef, payload map[string]any, tiles []string) bool {
	px, ok := coord(payload, "player_position", "x")
	if !ok {
		return false
	}
	py, ok := coord(payload, "player_position", "y")
	if !ok {
		return false
	}
	tx, ok := coord(payload, "target_position", "x")
	if !ok {
		return false
	}
	ty, ok := coord(payload, "target_position", "y")
	if !ok {
		return false
	}

	if tx != ev.X || ty != ev.Y {
		return false
	}
	if abs(px-tx)+abs(py-ty) != 1 {
		return false
	}
	return catalog.Passable(tiles, px, py)
}

func coord(payload map[string]any, field, axis string) (int, bool) {
	if payload == nil {
		return 0, false
	}
	pos, ok := payload[field].(map[string]any)
	if !ok {
		return 0, false
	}
	return parseInt(pos[axis])
}

// parseInt accepts the integer encodings JSON decoding can produce:
// numbers (only when integral), numeric strings, and json.Number.
func parseInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		i := int(n)
		if float64(i) != n {
			return 0, false
		}
		return i, true
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, false
		}
		return i, true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case int:
		return n, true
	case int64:
		return int(n), true
	}
	return 0, false
}

func parseVersion(v any) (int64, bool) {
	i, ok := parseInt(v)
	return int64(i), ok
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
