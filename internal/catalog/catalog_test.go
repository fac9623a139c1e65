package catalog

import (
	"path/filepath"
	"testing"
)

func loadTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Load(filepath.Join("..", "..", "configs"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return c
}

func TestLoad_EventCatalog(t *testing.T) {
	c := loadTestCatalog(t)

	if len(c.NPCs) != 30 {
		t.Fatalf("npcs = %d, want 30", len(c.NPCs))
	}
	// One talk event per NPC plus six interactables.
	if len(c.Events) != 36 {
		t.Fatalf("events = %d, want 36", len(c.Events))
	}

	ev, ok := c.Event("talk_npc_lyra")
	if !ok {
		t.Fatal("talk_npc_lyra missing")
	}
	if ev.Type != EventTalkNPC || ev.NPCID != "npc_lyra" || ev.X != 6 || ev.Y != 3 {
		t.Fatalf("talk_npc_lyra = %+v", ev)
	}
	if !ev.Repeatable {
		t.Fatal("talk events must be repeatable")
	}

	chest, ok := c.Event("open_chest_herb")
	if !ok {
		t.Fatal("open_chest_herb missing")
	}
	if chest.Repeatable {
		t.Fatal("open_chest_herb must be one-shot")
	}
	if chest.X != 27 || chest.Y != 3 {
		t.Fatalf("open_chest_herb anchor = (%d,%d)", chest.X, chest.Y)
	}

	if _, ok := c.Event("no_such_event"); ok {
		t.Fatal("unexpected event found")
	}
}

func TestLoad_Items(t *testing.T) {
	c := loadTestCatalog(t)

	if len(c.Items.Defs) != 6 {
		t.Fatalf("items = %d, want 6", len(c.Items.Defs))
	}
	herb, ok := c.Items.Defs["herb_bundle"]
	if !ok {
		t.Fatal("herb_bundle missing")
	}
	if herb.NameKey != "item.herb_bundle.name" || herb.Tags != "quest,herb" {
		t.Fatalf("herb_bundle = %+v", herb)
	}

	// IDs are sorted for deterministic seeding.
	for i := 1; i < len(c.Items.IDs); i++ {
		if c.Items.IDs[i-1] >= c.Items.IDs[i] {
			t.Fatalf("item ids not sorted: %v", c.Items.IDs)
		}
	}
}

func TestDialogLines(t *testing.T) {
	c := loadTestCatalog(t)

	lyra := c.DialogLines("npc_lyra")
	if len(lyra) != 4 || lyra[1] != "quest_start" {
		t.Fatalf("npc_lyra path = %v", lyra)
	}

	// Unscripted NPCs fall back to the generic sequence.
	generic := c.DialogLines("npc_tarin")
	if len(generic) != 3 || generic[0] != "hello" {
		t.Fatalf("generic fallback = %v", generic)
	}
}

func TestLoad_Digests(t *testing.T) {
	c := loadTestCatalog(t)
	for name, d := range map[string]string{
		"npcs":          c.Digests.NPCs,
		"items":         c.Digests.Items,
		"interactables": c.Digests.Interactables,
		"dialogs":       c.Digests.Dialogs,
	} {
		if len(d) != 64 {
			t.Errorf("%s digest = %q, want sha256 hex", name, d)
		}
	}
}

func TestEventIDs_Sorted(t *testing.T) {
	c := loadTestCatalog(t)
	ids := c.EventIDs()
	if len(ids) != len(c.Events) {
		t.Fatalf("ids = %d, events = %d", len(ids), len(c.Events))
	}
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Fatalf("event ids not sorted at %d: %v", i, ids[i-1:i+1])
		}
	}
}
