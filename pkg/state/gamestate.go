package state

import (
	"encoding/json"
	"maps"
	"sort"
)

// Inventory maps an item name to the quantity held.
// Names are case-sensitive. A present key always has a quantity above zero.
type Inventory map[string]int

// GameState is the state of a single adventure.
// The descriptive fields and Start are fixed when the game is created;
// only Inventory changes during play.
type GameState struct {
	World     string    `json:"world"`
	Kingdom   string    `json:"kingdom"`
	Town      string    `json:"town"`
	Character string    `json:"character"`
	Start     string    `json:"start"`
	Inventory Inventory `json:"inventory"`
}

// Clone returns a copy of the inventory. A nil inventory clones to an empty one.
func (inv Inventory) Clone() Inventory {
	out := make(Inventory, len(inv))
	maps.Copy(out, inv)
	return out
}

// Names returns the held item names in sorted order.
func (inv Inventory) Names() []string {
	names := make([]string, 0, len(inv))
	for name := range inv {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// JSON serializes the inventory for prompts. Keys are emitted in sorted order
// by encoding/json, so the output is stable across calls.
func (inv Inventory) JSON() string {
	if inv == nil {
		return "{}"
	}
	data, err := json.Marshal(inv)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// DeepCopy creates a deep copy of the GameState
func (gs *GameState) DeepCopy() *GameState {
	if gs == nil {
		return nil
	}
	cp := *gs
	cp.Inventory = gs.Inventory.Clone()
	return &cp
}
