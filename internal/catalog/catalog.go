// Package catalog holds the static world definitions: NPC roster, item
// types, interactable events and dialog scripts. Everything here is loaded
// once at startup and is safe for concurrent read-only access.
package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Event types.
const (
	EventTalkNPC       = "talk_npc"
	EventReadSign      = "read_sign"
	EventOpenChest     = "open_chest"
	EventEnterBuilding = "enter_building"
)

type Catalog struct {
	NPCs  []NPCDef
	Items ItemCatalog

	// Events is the full event catalog: one generated talk event per NPC
	// plus the fixed interactables.
	Events map[string]EventDef

	Dialogs DialogCatalog

	Digests Digests
}

type NPCDef struct {
	ID      string `json:"npc_id"`
	NameKey string `json:"name_key"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
}

type EventDef struct {
	ID         string `json:"event_id"`
	Type       string `json:"type"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Repeatable bool   `json:"repeatable"`
	NPCID      string `json:"npc_id,omitempty"`
}

type ItemCatalog struct {
	Defs map[string]ItemDef
	// IDs is the sorted id list, used for deterministic seeding and digests.
	IDs []string
}

type ItemDef struct {
	ID             string `json:"item_id"`
	NameKey        string `json:"name_key"`
	DescriptionKey string `json:"description_key"`
	Tags           string `json:"tags"`
}

type DialogCatalog struct {
	Paths   map[string][]string `json:"paths"`
	Generic []string            `json:"generic"`
}

type Digests struct {
	NPCs          string
	Items         string
	Interactables string
	Dialogs       string
}

// TalkEventID returns the id of the talk event generated for an NPC.
func TalkEventID(npcID string) string {
	return "talk_" + npcID
}

// Load reads the catalog files from configDir. The returned catalog is
// immutable by convention; nothing mutates it after load.
func Load(configDir string) (*Catalog, error) {
	var c Catalog

	if err := loadNPCs(filepath.Join(configDir, "npcs.json"), &c); err != nil {
		return nil, err
	}
	if err := loadItems(filepath.Join(configDir, "items.json"), &c); err != nil {
		return nil, err
	}
	if err := loadInteractables(filepath.Join(configDir, "interactables.json"), &c); err != nil {
		return nil, err
	}
	if err := loadDialogs(filepath.Join(configDir, "dialogs.json"), &c); err != nil {
		return nil, err
	}

	return &c, nil
}

// DialogLines returns the scripted dialog path for an NPC, or the generic
// sequence when the NPC has no script.
func (c *Catalog) DialogLines(npcID string) []string {
	if path, ok := c.Dialogs.Paths[npcID]; ok && len(path) > 0 {
		return path
	}
	return c.Dialogs.Generic
}

// Event looks up an event definition by id.
func (c *Catalog) Event(eventID string) (EventDef, bool) {
	ev, ok := c.Events[eventID]
	return ev, ok
}

// EventIDs returns all event ids, sorted.
func (c *Catalog) EventIDs() []string {
	ids := make([]string, 0, len(c.Events))
	for id := range c.Events {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadNPCs(path string, c *Catalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	c.Digests.NPCs = sha256Hex(raw)

	var defs []NPCDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("npcs.json: %w", err)
	}
	seen := map[string]struct{}{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("npcs.json: empty npc_id")
		}
		if _, dup := seen[d.ID]; dup {
			return fmt.Errorf("npcs.json: duplicate npc_id %q", d.ID)
		}
		seen[d.ID] = struct{}{}
	}
	c.NPCs = defs

	// Every NPC generates exactly one talk event at its own tile.
	if c.Events == nil {
		c.Events = map[string]EventDef{}
	}
	for _, n := range defs {
		id := TalkEventID(n.ID)
		c.Events[id] = EventDef{
			ID:         id,
			Type:       EventTalkNPC,
			X:          n.X,
			Y:          n.Y,
			Repeatable: true,
			NPCID:      n.ID,
		}
	}
	return nil
}

func loadItems(path string, c *Catalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	c.Digests.Items = sha256Hex(raw)

	var defs []ItemDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	c.Items.Defs = map[string]ItemDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("items.json: empty item_id")
		}
		c.Items.Defs[d.ID] = d
	}

	ids := make([]string, 0, len(c.Items.Defs))
	for id := range c.Items.Defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	c.Items.IDs = ids
	return nil
}

func loadInteractables(path string, c *Catalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	c.Digests.Interactables = sha256Hex(raw)

	var defs []EventDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("interactables.json: %w", err)
	}
	if c.Events == nil {
		c.Events = map[string]EventDef{}
	}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("interactables.json: empty event_id")
		}
		switch d.Type {
		case EventReadSign, EventOpenChest, EventEnterBuilding:
		default:
			return fmt.Errorf("interactables.json: %s: unknown type %q", d.ID, d.Type)
		}
		if _, dup := c.Events[d.ID]; dup {
			return fmt.Errorf("interactables.json: duplicate event_id %q", d.ID)
		}
		c.Events[d.ID] = d
	}
	return nil
}

func loadDialogs(path string, c *Catalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	c.Digests.Dialogs = sha256Hex(raw)

	if err := json.Unmarshal(raw, &c.Dialogs); err != nil {
		return fmt.Errorf("dialogs.json: %w", err)
	}
	if len(c.Dialogs.Generic) == 0 {
		return fmt.Errorf("dialogs.json: empty generic sequence")
	}
	for npcID, path := range c.Dialogs.Paths {
		if len(path) == 0 {
			return fmt.Errorf("dialogs.json: empty path for %s", npcID)
		}
	}
	return nil
}
