package state

import (
	"log/slog"
)

// DeltaWorker applies a turn's item updates to a game state and logs what changed.
type DeltaWorker struct {
	gs      *GameState
	updates []ItemUpdate
	logger  *slog.Logger
}

// NewDeltaWorker creates a new delta worker for applying inventory changes
func NewDeltaWorker(gs *GameState, updates []ItemUpdate, logger *slog.Logger) *DeltaWorker {
	return &DeltaWorker{
		gs:      gs,
		updates: updates,
		logger:  logger,
	}
}

// Apply reconciles the updates against the inventory and returns the change summary.
// On error the inventory is left as it was.
func (dw *DeltaWorker) Apply() (string, error) {
	if len(dw.updates) == 0 {
		return "", nil
	}
	if dw.gs.Inventory == nil {
		dw.gs.Inventory = make(Inventory)
	}

	before := dw.gs.Inventory.Clone()
	summary, err := ApplyItemUpdates(dw.gs.Inventory, dw.updates)
	if err != nil {
		return "", err
	}

	if dw.logger != nil {
		dw.logChanges(before)
	}
	return summary, nil
}

// logChanges replays the batch over running so each update is classified
// against the quantities left by the updates before it.
func (dw *DeltaWorker) logChanges(running Inventory) {
	for _, u := range dw.updates {
		qty, held := running[u.Name]
		switch {
		case u.ChangeAmount == 0:
			continue
		case u.ChangeAmount < 0 && !held:
			dw.logger.Debug("Ignored loss of item not held", "item", u.Name, "change", u.ChangeAmount)
			continue
		}

		qty += u.ChangeAmount
		if qty <= 0 {
			delete(running, u.Name)
			dw.logger.Info("Item removed from inventory", "item", u.Name)
			continue
		}
		running[u.Name] = qty
		dw.logger.Debug("Item quantity changed", "item", u.Name, "quantity", qty)
	}
}
