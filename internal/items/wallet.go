package items

import (
	"errors"
	"fmt"
)

// ErrCannotAfford is returned when a wallet lacks the gold or items to pay.
var ErrCannotAfford = errors.New("cannot afford")

// Wallet is the caller-side purse: the gold and consumables a player owns.
// The lab only reads snapshots of it and reports what to debit.
type Wallet struct {
	Gold      int       `json:"gold"`
	Inventory Inventory `json:"inventory"`
}

// Pay removes gold and one unit of each listed item, or nothing at all.
func (w *Wallet) Pay(gold int, consumed []ItemID) error {
	if gold < 0 {
		return fmt.Errorf("pay %d gold: negative amount", gold)
	}
	if gold > w.Gold {
		return fmt.Errorf("need %d gold, have %d: %w", gold, w.Gold, ErrCannotAfford)
	}
	need := Inventory{}
	for _, id := range consumed {
		if !id.Valid() {
			return fmt.Errorf("pay item %d: %w", uint8(id), ErrUnknownItem)
		}
		need[id]++
	}
	for id, qty := range need {
		if qty > w.Inventory[id] {
			return fmt.Errorf("need %d %s, have %d: %w", qty, ItemID(id), w.Inventory[id], ErrCannotAfford)
		}
	}
	w.Gold -= gold
	for id, qty := range need {
		w.Inventory[id] -= qty
	}
	return nil
}

// Grant adds gold and items, ignoring negative quantities.
func (w *Wallet) Grant(gold int, inv Inventory) {
	w.Gold += max(0, gold)
	for id, qty := range inv {
		w.Inventory[id] += max(0, qty)
	}
}
