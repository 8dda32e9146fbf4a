// Package world loads the static world definitions a game is created from.
package world

import (
	"errors"
	"fmt"
	"maps"

	"github.com/erricrr/hf-togetherai-rpg/pkg/state"
)

var (
	ErrUnknownKingdom   = errors.New("unknown kingdom")
	ErrUnknownTown      = errors.New("unknown town")
	ErrUnknownCharacter = errors.New("unknown character")
)

// NPC is a character living in a town. Players take on one of them.
type NPC struct {
	Description string `json:"description" yaml:"description"`
}

// Town is a settlement within a kingdom.
type Town struct {
	Description string         `json:"description" yaml:"description"`
	NPCs        map[string]NPC `json:"npcs" yaml:"npcs"`
}

// Kingdom is a realm within the world.
type Kingdom struct {
	Description string          `json:"description" yaml:"description"`
	Towns       map[string]Town `json:"towns" yaml:"towns"`
}

// Definition is a complete world file.
type Definition struct {
	Name              string             `json:"name" yaml:"name"`
	Description       string             `json:"description" yaml:"description"`
	Start             string             `json:"start" yaml:"start"`
	Kingdoms          map[string]Kingdom `json:"kingdoms" yaml:"kingdoms"`
	StartingInventory map[string]int     `json:"starting_inventory,omitempty" yaml:"starting_inventory,omitempty"`
}

// Selection names where in the world a game takes place and who the player is.
type Selection struct {
	Kingdom   string `json:"kingdom,omitempty"`
	Town      string `json:"town,omitempty"`
	Character string `json:"character,omitempty"`
}

// DefaultInventory is what a new character carries when neither the caller nor the world says otherwise.
func DefaultInventory() state.Inventory {
	return state.Inventory{
		"cloth pants":           1,
		"cloth shirt":           1,
		"goggles":               1,
		"leather bound journal": 1,
		"gold":                  5,
	}
}

// NewGameState resolves sel against the world and builds the initial state.
// A nil inventory falls back to the world's starting inventory, then DefaultInventory.
// Non-positive quantities are dropped so the new state holds only items actually carried.
func (d *Definition) NewGameState(sel Selection, inventory map[string]int) (*state.GameState, error) {
	kingdom, ok := d.Kingdoms[sel.Kingdom]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKingdom, sel.Kingdom)
	}
	town, ok := kingdom.Towns[sel.Town]
	if !ok {
		return nil, fmt.Errorf("%w: %q in %s", ErrUnknownTown, sel.Town, sel.Kingdom)
	}
	character, ok := town.NPCs[sel.Character]
	if !ok {
		return nil, fmt.Errorf("%w: %q in %s", ErrUnknownCharacter, sel.Character, sel.Town)
	}

	var inv state.Inventory
	switch {
	case inventory != nil:
		inv = state.Inventory(maps.Clone(inventory))
	case d.StartingInventory != nil:
		inv = state.Inventory(maps.Clone(d.StartingInventory))
	default:
		inv = DefaultInventory()
	}
	maps.DeleteFunc(inv, func(_ string, qty int) bool { return qty <= 0 })

	return &state.GameState{
		World:     d.Description,
		Kingdom:   kingdom.Description,
		Town:      town.Description,
		Character: character.Description,
		Start:     d.Start,
		Inventory: inv,
	}, nil
}
