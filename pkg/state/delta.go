package state

// ItemUpdate is a signed quantity change to one named item.
// Updates are produced per turn from the narrative and are never stored.
type ItemUpdate struct {
	Name         string `json:"name"`
	ChangeAmount int    `json:"change_amount"`
}

// ItemUpdates is the structured payload returned by the inventory extractor.
type ItemUpdates struct {
	ItemUpdates []ItemUpdate `json:"itemUpdates"`
}

// IsEmpty checks if there is nothing to apply
func (u *ItemUpdates) IsEmpty() bool {
	return u == nil || len(u.ItemUpdates) == 0
}
