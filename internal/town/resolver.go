package town

import (
	"fmt"

	"emberhollow.gg/internal/catalog"
	"emberhollow.gg/internal/protocol"
	"emberhollow.gg/internal/state"
)

// npcResolver is one NPC's quest state machine: it inspects the user's
// flags and inventory inside the mutation transaction, applies at most one
// transition, and returns the resulting effect. Every branch is safe to
// re-invoke; completed machines answer with a stable "after" message and
// no further effects.
type npcResolver func(tx *state.Tx, userID string) (protocol.EventResult, error)

func effect(messageKey string, flagsAdded, itemsAdded []string) protocol.EventResult {
	if flagsAdded == nil {
		flagsAdded = []string{}
	}
	if itemsAdded == nil {
		itemsAdded = []string{}
	}
	return protocol.EventResult{MessageKey: messageKey, FlagsAdded: flagsAdded, ItemsAdded: itemsAdded}
}

// resolve dispatches an event to its handler. The returned record flag
// tells the engine whether a one-shot event's result belongs in the
// ledger; a locked chest stays retryable and is never recorded.
func (s *Service) resolve(tx *state.Tx, userID string, ev catalog.EventDef) (protocol.EventResult, bool, error) {
	switch ev.Type {
	case catalog.EventTalkNPC:
		if r, ok := s.special[ev.NPCID]; ok {
			result, err := r(tx, userID)
			return result, true, err
		}
		result, err := s.resolveGenericDialog(tx, userID, ev.NPCID)
		return result, true, err

	case catalog.EventReadSign, catalog.EventEnterBuilding:
		if msg, ok := fixedMessages[ev.ID]; ok {
			return effect(msg, nil, nil), true, nil
		}

	case catalog.EventOpenChest:
		switch ev.ID {
		case "open_chest_herb":
			result, err := s.resolveHerbChest(tx, userID)
			return result, true, err
		case "open_chest_archive":
			return s.resolveArchiveChest(tx, userID)
		}
	}

	return effect("event.unknown", nil, nil), true, nil
}

var fixedMessages = map[string]string{
	"read_sign_gate":  "event.sign_gate",
	"read_sign_plaza": "event.sign_plaza",
	"enter_hall":      "event.enter_hall",
	"enter_guild":     "event.enter_guild",
}

// resolveGenericDialog advances the NPC's dialog cursor: the line at the
// pre-advance index is returned and the cursor wraps modulo the sequence
// length, so unscripted conversations loop forever.
func (s *Service) resolveGenericDialog(tx *state.Tx, userID, npcID string) (protocol.EventResult, error) {
	lines := s.cat.DialogLines(npcID)
	idx, err := tx.DialogIndex(userID, npcID)
	if err != nil {
		return protocol.EventResult{}, err
	}
	node := lines[idx%len(lines)]
	if err := tx.SetDialogIndex(userID, npcID, (idx+1)%len(lines)); err != nil {
		return protocol.EventResult{}, err
	}
	return effect(fmt.Sprintf("dialog.%s.%s", npcID, node), nil, nil), nil
}

// Lyra's herb quest: not-started -> started -> waiting for the herb ->
// complete -> after.
func (s *Service) resolveLyra(tx *state.Tx, userID string) (protocol.EventResult, error) {
	flags, err := tx.Flags(userID)
	if err != nil {
		return protocol.EventResult{}, err
	}

	if _, started := flags["herb_quest_started"]; !started {
		if err := tx.AddFlag(userID, "herb_quest_started"); err != nil {
			return protocol.EventResult{}, err
		}
		return effect("event.lyra.quest_start", []string{"herb_quest_started"}, nil), nil
	}

	_, collected := flags["herb_collected"]
	_, turnedIn := flags["herb_turned_in"]
	if collected && !turnedIn {
		hasHerb, err := tx.HasItem(userID, "herb_bundle", 1)
		if err != nil {
			return protocol.EventResult{}, err
		}
		if hasHerb {
			if err := tx.ConsumeItem(userID, "herb_bundle", 1); err != nil {
				return protocol.EventResult{}, err
			}
			if err := tx.GrantItem(userID, "moon_badge", 1); err != nil {
				return protocol.EventResult{}, err
			}
			if err := tx.AddFlag(userID, "herb_turned_in"); err != nil {
				return protocol.EventResult{}, err
			}
			return effect("event.lyra.quest_complete", []string{"herb_turned_in"}, []string{"moon_badge"}), nil
		}
	}

	if turnedIn {
		return effect("event.lyra.after_quest", nil, nil), nil
	}
	return effect("event.lyra.quest_wait", nil, nil), nil
}

// Borin hands over the iron key once and never again.
func (s *Service) resolveBorin(tx *state.Tx, userID string) (protocol.EventResult, error) {
	flags, err := tx.Flags(userID)
	if err != nil {
		return protocol.EventResult{}, err
	}
	if _, given := flags["iron_key_given"]; !given {
		if err := tx.GrantItem(userID, "iron_key", 1); err != nil {
			return protocol.EventResult{}, err
		}
		if err := tx.AddFlag(userID, "iron_key_given"); err != nil {
			return protocol.EventResult{}, err
		}
		return effect("event.borin.key_given", []string{"iron_key_given"}, []string{"iron_key"}), nil
	}
	return effect("event.borin.after", nil, nil), nil
}

// Sable trades a market pass for proof of the iron key.
func (s *Service) resolveSable(tx *state.Tx, userID string) (protocol.EventResult, error) {
	flags, err := tx.Flags(userID)
	if err != nil {
		return protocol.EventResult{}, err
	}
	if _, given := flags["market_pass_given"]; given {
		return effect("event.sable.after", nil, nil), nil
	}
	hasKey, err := tx.HasItem(userID, "iron_key", 1)
	if err != nil {
		return protocol.EventResult{}, err
	}
	if !hasKey {
		return effect("event.sable.needs_key", nil, nil), nil
	}
	if err := tx.GrantItem(userID, "market_pass", 1); err != nil {
		return protocol.EventResult{}, err
	}
	if err := tx.AddFlag(userID, "market_pass_given"); err != nil {
		return protocol.EventResult{}, err
	}
	return effect("event.sable.pass_given", []string{"market_pass_given"}, []string{"market_pass"}), nil
}

// Quill's guild task: start it, wait for the archive find, then seal it.
func (s *Service) resolveQuill(tx *state.Tx, userID string) (protocol.EventResult, error) {
	flags, err := tx.Flags(userID)
	if err != nil {
		return protocol.EventResult{}, err
	}
	_, done := flags["guild_task_done"]
	_, sealed := flags["guild_seal_given"]
	if done && !sealed {
		if err := tx.GrantItem(userID, "guild_seal", 1); err != nil {
			return protocol.EventResult{}, err
		}
		if err := tx.AddFlag(userID, "guild_seal_given"); err != nil {
			return protocol.EventResult{}, err
		}
		return effect("event.quill.task_complete", []string{"guild_seal_given"}, []string{"guild_seal"}), nil
	}
	if _, started := flags["guild_task_started"]; !started {
		if err := tx.AddFlag(userID, "guild_task_started"); err != nil {
			return protocol.EventResult{}, err
		}
		return effect("event.quill.task_start", []string{"guild_task_started"}, nil), nil
	}
	return effect("event.quill.task_wait", nil, nil), nil
}

// Elowen shares her hint once.
func (s *Service) resolveElowen(tx *state.Tx, userID string) (protocol.EventResult, error) {
	flags, err := tx.Flags(userID)
	if err != nil {
		return protocol.EventResult{}, err
	}
	if _, hinted := flags["cross_town_hint"]; !hinted {
		if err := tx.AddFlag(userID, "cross_town_hint"); err != nil {
			return protocol.EventResult{}, err
		}
		return effect("event.elowen.cross_town", []string{"cross_town_hint"}, nil), nil
	}
	return effect("event.elowen.after", nil, nil), nil
}

func (s *Service) resolveHerbChest(tx *state.Tx, userID string) (protocol.EventResult, error) {
	flags, err := tx.Flags(userID)
	if err != nil {
		return protocol.EventResult{}, err
	}
	if _, collected := flags["herb_collected"]; collected {
		return effect("event.chest_empty", nil, nil), nil
	}
	if err := tx.GrantItem(userID, "herb_bundle", 1); err != nil {
		return protocol.EventResult{}, err
	}
	if err := tx.AddFlag(userID, "herb_collected"); err != nil {
		return protocol.EventResult{}, err
	}
	return effect("event.chest_herb_opened", []string{"herb_collected"}, []string{"herb_bundle"}), nil
}

// resolveArchiveChest gates on the guild task. While locked it returns a
// result that is never written to the ledger, so the chest stays
// retryable until the task is started; the herb chest has no such gate.
func (s *Service) resolveArchiveChest(tx *state.Tx, userID string) (protocol.EventResult, bool, error) {
	flags, err := tx.Flags(userID)
	if err != nil {
		return protocol.EventResult{}, false, err
	}
	if _, started := flags["guild_task_started"]; !started {
		return effect("event.archive_locked", nil, nil), false, nil
	}
	if _, done := flags["guild_task_done"]; done {
		return effect("event.chest_empty", nil, nil), true, nil
	}
	if err := tx.GrantItem(userID, "sun_ribbon", 1); err != nil {
		return protocol.EventResult{}, false, err
	}
	if err := tx.AddFlag(userID, "guild_task_done"); err != nil {
		return protocol.EventResult{}, false, err
	}
	return effect("event.archive_found", []string{"guild_task_done"}, []string{"sun_ribbon"}), true, nil
}
