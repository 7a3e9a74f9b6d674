// Package items provides the consumable catalog and the inventory snapshots
// callers hand to the lab when paying for synthesis and enhancement.
package items

import (
	"encoding/json"
	"fmt"
)

// ItemID identifies a consumable item type.
type ItemID uint8

const (
	ItemEnhancementStone ItemID = iota // Ladder rung 1
	ItemPowerCrystal                   // Ladder rung 2
	ItemMysticOrb                      // Ladder rung 3
	ItemAncientRune                    // Ladder rung 4
	ItemLegendaryEssence               // Ladder rung 5
	ItemDragonScale                    // Recipe catalyst
	ItemSlimeJelly                     // Recipe catalyst
	ItemSpiritBell                     // Recipe catalyst
	ItemWorldLeaf                      // Recipe catalyst
)

// NumItems is the total number of item types.
const NumItems = 9

var itemNames = [NumItems]string{
	"Enhancement Stone",
	"Power Crystal",
	"Mystic Orb",
	"Ancient Rune",
	"Legendary Essence",
	"Dragon Scale",
	"Slime Jelly",
	"Spirit Bell",
	"World Leaf",
}

// Valid reports whether id names a catalog item.
func (id ItemID) Valid() bool {
	return int(id) < NumItems
}

func (id ItemID) String() string {
	if !id.Valid() {
		return fmt.Sprintf("item(%d)", uint8(id))
	}
	return itemNames[id]
}

// MarshalText encodes the item by display name.
func (id ItemID) MarshalText() ([]byte, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("marshal item %d: %w", uint8(id), ErrUnknownItem)
	}
	return []byte(itemNames[id]), nil
}

// UnmarshalText decodes a display name through Resolve.
func (id *ItemID) UnmarshalText(text []byte) error {
	resolved, err := Resolve(string(text))
	if err != nil {
		return err
	}
	*id = resolved
	return nil
}

// All returns every catalog item in id order.
func All() []ItemID {
	out := make([]ItemID, NumItems)
	for i := range out {
		out[i] = ItemID(i)
	}
	return out
}

// Inventory is a fixed-size array holding quantities of each item type.
// It is a value: the lab reads snapshots and never mutates the caller's copy.
type Inventory [NumItems]int

// Has reports whether at least one unit of id is held.
func (inv Inventory) Has(id ItemID) bool {
	return id.Valid() && inv[id] > 0
}

// Missing returns the items in required that are not held, in the order given.
func (inv Inventory) Missing(required []ItemID) []ItemID {
	var missing []ItemID
	for _, id := range required {
		if !inv.Has(id) {
			missing = append(missing, id)
		}
	}
	return missing
}

// IsEmpty returns true if all quantities are zero.
func (inv Inventory) IsEmpty() bool {
	for _, qty := range inv {
		if qty != 0 {
			return false
		}
	}
	return true
}

// MarshalJSON encodes non-zero quantities keyed by item name.
func (inv Inventory) MarshalJSON() ([]byte, error) {
	m := make(map[string]int)
	for i, qty := range inv {
		if qty != 0 {
			m[itemNames[i]] = qty
		}
	}
	return json.Marshal(m)
}

// UnmarshalJSON accepts a name → quantity object. Names go through Resolve,
// so "enhancement stone" and "Enhancment Stone" both land on the same slot.
func (inv *Inventory) UnmarshalJSON(data []byte) error {
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	var out Inventory
	for name, qty := range m {
		id, err := Resolve(name)
		if err != nil {
			return err
		}
		if qty < 0 {
			return fmt.Errorf("item %q: negative quantity %d", name, qty)
		}
		out[id] += qty
	}
	*inv = out
	return nil
}
