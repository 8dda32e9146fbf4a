package world

import (
	"errors"
	"fmt"
	"sort"
)

// Validate reports every problem found in the definition.
func (d *Definition) Validate() error {
	var errs []error
	if d.Description == "" {
		errs = append(errs, errors.New("world description is empty"))
	}
	if d.Start == "" {
		errs = append(errs, errors.New("start text is empty"))
	}
	if len(d.Kingdoms) == 0 {
		errs = append(errs, errors.New("world has no kingdoms"))
	}
	for name, qty := range d.StartingInventory {
		if name == "" {
			errs = append(errs, errors.New("starting inventory has an unnamed item"))
		}
		if qty <= 0 {
			errs = append(errs, fmt.Errorf("starting inventory item %q has quantity %d", name, qty))
		}
	}

	for _, kName := range sortedKeys(d.Kingdoms) {
		kingdom := d.Kingdoms[kName]
		if kingdom.Description == "" {
			errs = append(errs, fmt.Errorf("kingdom %q has no description", kName))
		}
		if len(kingdom.Towns) == 0 {
			errs = append(errs, fmt.Errorf("kingdom %q has no towns", kName))
		}
		for _, tName := range sortedKeys(kingdom.Towns) {
			town := kingdom.Towns[tName]
			if town.Description == "" {
				errs = append(errs, fmt.Errorf("town %q in %q has no description", tName, kName))
			}
			for _, nName := range sortedKeys(town.NPCs) {
				if town.NPCs[nName].Description == "" {
					errs = append(errs, fmt.Errorf("character %q in %q has no description", nName, tName))
				}
			}
		}
	}

	return errors.Join(errs...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
