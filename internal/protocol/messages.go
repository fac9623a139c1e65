package protocol

// Position is a grid coordinate.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Snapshot is the complete client-visible world view derived from the
// persisted facts at one instant. Two snapshots built with no intervening
// mutation are identical.
type Snapshot struct {
	TownID          string      `json:"town_id"`
	Seed            int64       `json:"seed"`
	Width           int         `json:"width"`
	Height          int         `json:"height"`
	Tiles           []string    `json:"tiles"`
	NPCs            []NPCView   `json:"npcs"`
	Events          []EventView `json:"events"`
	AllowedEventIDs []string    `json:"allowed_event_ids"`
	Version         int64       `json:"version"`
	PlayerState     PlayerState `json:"player_state"`
}

type NPCView struct {
	NPCID    string   `json:"npc_id"`
	NameKey  string   `json:"name_key"`
	Pos      Position `json:"pos"`
	EventIDs []string `json:"event_ids"`
}

// Event states in a snapshot.
const (
	EventAvailable = "available"
	EventConsumed  = "consumed"
)

type EventView struct {
	EventID string   `json:"event_id"`
	Type    string   `json:"type"`
	State   string   `json:"state"`
	Pos     Position `json:"pos"`
}

type PlayerState struct {
	Flags []string   `json:"flags"`
	Items []ItemView `json:"items"`
}

type ItemView struct {
	ItemID         string `json:"item_id"`
	Qty            int    `json:"qty"`
	NameKey        string `json:"name_key"`
	DescriptionKey string `json:"description_key"`
	Tags           string `json:"tags"`
}

// EventResult describes the effect of one applied event. The slices are
// always present in the wire form, empty rather than null.
type EventResult struct {
	MessageKey string   `json:"message_key"`
	FlagsAdded []string `json:"flags_added"`
	ItemsAdded []string `json:"items_added"`
}

// TriggerResponse is the success (or idempotent-replay) body for an
// event-trigger request.
type TriggerResponse struct {
	EventID     string      `json:"event_id"`
	Idempotent  bool        `json:"idempotent"`
	EventResult EventResult `json:"event_result"`
	Snapshot    *Snapshot   `json:"snapshot"`
}

// ErrorResponse is the failure body. Snapshot is attached when the caller
// can resynchronize from it (stale version, disallowed event, bad position).
type ErrorResponse struct {
	ErrorCode string    `json:"error_code"`
	Snapshot  *Snapshot `json:"snapshot,omitempty"`
}

// UserView is the identity payload for /v1/user/me.
type UserView struct {
	UserID    string  `json:"user_id"`
	Name      *string `json:"name"`
	CreatedAt *string `json:"created_at"`
	Points    int64   `json:"points"`
}
