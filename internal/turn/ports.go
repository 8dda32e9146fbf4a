package turn

import (
	"context"

	"github.com/erricrr/hf-togetherai-rpg/pkg/state"
)

// Narrator writes the next piece of the story for a player action.
type Narrator interface {
	Narrate(ctx context.Context, input string, history state.History, gs *state.GameState) (string, error)
}

// SafetyGate decides whether a narrative may be shown to the player.
type SafetyGate interface {
	Check(ctx context.Context, text string) (Verdict, error)
}

// InventoryExtractor derives item changes from a narrative.
// It is given the full inventory each call and keeps no memory between turns.
type InventoryExtractor interface {
	Extract(ctx context.Context, inv state.Inventory, narrative string) ([]state.ItemUpdate, error)
}

// Verdict is the result of a safety check.
type Verdict struct {
	Safe       bool     `json:"safe"`
	Categories []string `json:"categories,omitempty"`
}
