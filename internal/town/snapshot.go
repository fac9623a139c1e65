package town

import (
	"context"
	"sort"

	"emberhollow.gg/internal/catalog"
	"emberhollow.gg/internal/protocol"
)

// Snapshot derives the complete client-facing world view from the current
// persisted facts. The user's town row is created lazily on first call.
// With no intervening mutation, repeated calls produce identical results.
func (s *Service) Snapshot(ctx context.Context, userID string) (*protocol.Snapshot, error) {
	seed := DeriveSeed(userID)
	town, err := s.store.TownGetOrCreate(ctx, userID, TownIDForSeed(seed), seed)
	if err != nil {
		return nil, err
	}

	tiles := catalog.Tiles(town.Seed)

	consumed, err := s.store.ConsumedEventIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	events := make([]protocol.EventView, 0, len(s.cat.Events))
	allowed := make([]string, 0, len(s.cat.Events))
	for _, id := range s.cat.EventIDs() {
		ev := s.cat.Events[id]
		st := protocol.EventAvailable
		if _, done := consumed[id]; done && !ev.Repeatable {
			st = protocol.EventConsumed
		}
		events = append(events, protocol.EventView{
			EventID: id,
			Type:    ev.Type,
			State:   st,
			Pos:     protocol.Position{X: ev.X, Y: ev.Y},
		})
		if st == protocol.EventAvailable {
			allowed = append(allowed, id)
		}
	}
	sort.Strings(allowed)

	flagSet, err := s.store.Flags(ctx, userID)
	if err != nil {
		return nil, err
	}
	flags := make([]string, 0, len(flagSet))
	for f := range flagSet {
		flags = append(flags, f)
	}
	sort.Strings(flags)

	itemRecords, err := s.store.Items(ctx, userID)
	if err != nil {
		return nil, err
	}
	items := make([]protocol.ItemView, 0, len(itemRecords))
	for _, it := range itemRecords {
		items = append(items, protocol.ItemView{
			ItemID:         it.ItemID,
			Qty:            it.Qty,
			NameKey:        it.NameKey,
			DescriptionKey: it.DescriptionKey,
			Tags:           it.Tags,
		})
	}

	npcs := make([]protocol.NPCView, 0, len(s.cat.NPCs))
	for _, n := range s.cat.NPCs {
		npcs = append(npcs, protocol.NPCView{
			NPCID:    n.ID,
			NameKey:  n.NameKey,
			Pos:      protocol.Position{X: n.X, Y: n.Y},
			EventIDs: []string{catalog.TalkEventID(n.ID)},
		})
	}

	return &protocol.Snapshot{
		TownID:          town.TownID,
		Seed:            town.Seed,
		Width:           catalog.TownWidth,
		Height:          catalog.TownHeight,
		Tiles:           tiles,
		NPCs:            npcs,
		Events:          events,
		AllowedEventIDs: allowed,
		Version:         town.Version,
		PlayerState: protocol.PlayerState{
			Flags: flags,
			Items: items,
		},
	}, nil
}
