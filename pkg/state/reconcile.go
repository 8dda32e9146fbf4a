package state

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrInvalidItemUpdate is returned when an update is missing its item name.
	ErrInvalidItemUpdate = errors.New("invalid item update")
	// ErrNilInventory is returned when gains are applied to a nil inventory.
	ErrNilInventory = errors.New("inventory is nil")
)

const summaryPrefix = "\nInventory: "

// ApplyItemUpdates applies updates to inv in order and returns the change summary,
// one "\nInventory: <name> <signed amount>" line per applied update.
//
// Gains create or increase an item. Losses only apply to items currently held;
// a loss for an item that is not held is ignored. Any item whose quantity drops
// to zero or below is removed. Zero amounts do nothing.
//
// The batch is validated before anything is applied, so on error inv is untouched.
// A batch that would push any quantity past math.MaxInt is rejected.
func ApplyItemUpdates(inv Inventory, updates []ItemUpdate) (string, error) {
	if err := validateItemUpdates(inv, updates); err != nil {
		return "", err
	}

	var summary strings.Builder
	for _, u := range updates {
		switch {
		case u.ChangeAmount > 0:
			inv[u.Name] += u.ChangeAmount
			fmt.Fprintf(&summary, "%s%s +%d", summaryPrefix, u.Name, u.ChangeAmount)
		case u.ChangeAmount < 0:
			if _, held := inv[u.Name]; !held {
				continue
			}
			inv[u.Name] += u.ChangeAmount
			fmt.Fprintf(&summary, "%s%s %d", summaryPrefix, u.Name, u.ChangeAmount)
		default:
			continue
		}

		if qty, held := inv[u.Name]; held && qty <= 0 {
			delete(inv, u.Name)
		}
	}
	return summary.String(), nil
}

func validateItemUpdates(inv Inventory, updates []ItemUpdate) error {
	gains := false
	for i, u := range updates {
		if strings.TrimSpace(u.Name) == "" {
			return fmt.Errorf("%w: update %d has no item name", ErrInvalidItemUpdate, i)
		}
		if u.ChangeAmount > 0 {
			gains = true
		}
	}
	if gains && inv == nil {
		return ErrNilInventory
	}

	// Walk the batch over the touched quantities only.
	running := make(map[string]int, len(updates))
	for _, u := range updates {
		if qty, held := inv[u.Name]; held {
			running[u.Name] = qty
		}
	}
	for i, u := range updates {
		qty, held := running[u.Name]
		switch {
		case u.ChangeAmount > 0:
			if qty > math.MaxInt-u.ChangeAmount {
				return fmt.Errorf("%w: update %d overflows quantity of %q", ErrInvalidItemUpdate, i, u.Name)
			}
			running[u.Name] = qty + u.ChangeAmount
		case u.ChangeAmount < 0 && held:
			if qty+u.ChangeAmount <= 0 {
				delete(running, u.Name)
			} else {
				running[u.Name] = qty + u.ChangeAmount
			}
		}
	}
	return nil
}
