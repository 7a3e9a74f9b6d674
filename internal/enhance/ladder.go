// Package enhance implements the Plus ladder: six rungs of stat multipliers,
// each reached by spending a cumulative list of consumables.
package enhance

import (
	"fmt"
	"strings"

	"github.com/talgya/synthesis-lab/internal/creature"
	"github.com/talgya/synthesis-lab/internal/items"
)

// MaxRung is the top of the ladder.
const MaxRung = 5

// multipliers[r] scales derived stats at rung r.
var multipliers = [MaxRung + 1]float64{1.0, 1.1, 1.25, 1.4, 1.6, 1.8}

// ladderItems[i] is the item introduced at rung i+1.
var ladderItems = [MaxRung]items.ItemID{
	items.ItemEnhancementStone,
	items.ItemPowerCrystal,
	items.ItemMysticOrb,
	items.ItemAncientRune,
	items.ItemLegendaryEssence,
}

// Multiplier returns the stat multiplier for a rung, clamped to the ladder.
func Multiplier(rung int) float64 {
	return multipliers[max(0, min(rung, MaxRung))]
}

// Requirements returns the items needed to reach rung, in ladder order.
// Each rung's list contains the previous rung's list.
func Requirements(rung int) []items.ItemID {
	rung = max(0, min(rung, MaxRung))
	return append([]items.ItemID(nil), ladderItems[:rung]...)
}

// DerivedStats returns the creature's stats after family, personality and
// trait adjustments, scaled by its rung multiplier.
func DerivedStats(c creature.Creature) creature.StatBlock {
	return c.AdjustedStats().Scale(Multiplier(c.Rung))
}

// Reason names why an enhancement was refused.
type Reason string

const (
	ReasonAlreadyMaxRung Reason = "AlreadyMaxRung"
	ReasonMissingItems   Reason = "MissingItems"
)

// Rejection is a refused enhancement.
type Rejection struct {
	Reason  Reason
	Missing []items.ItemID // Set for MissingItems
}

func (e *Rejection) Error() string {
	if e.Reason != ReasonMissingItems {
		return string(e.Reason)
	}
	names := make([]string, len(e.Missing))
	for i, id := range e.Missing {
		names[i] = id.String()
	}
	return fmt.Sprintf("%s([%s])", e.Reason, strings.Join(names, ", "))
}

// Is matches any *Rejection with the same reason.
func (e *Rejection) Is(target error) bool {
	t, ok := target.(*Rejection)
	return ok && t.Reason == e.Reason
}

var (
	ErrAlreadyMaxRung = &Rejection{Reason: ReasonAlreadyMaxRung}
	ErrMissingItems   = &Rejection{Reason: ReasonMissingItems}
)

// Result is a successful enhancement.
type Result struct {
	Creature creature.Creature `json:"creature"`
	Consumed []items.ItemID    `json:"consumed"` // One unit each, for the caller to debit
}

// Enhance moves c one rung up if inv holds every required item. The input
// creature and inventory are not modified.
func Enhance(c creature.Creature, inv items.Inventory) (Result, error) {
	if c.Rung >= MaxRung {
		return Result{}, &Rejection{Reason: ReasonAlreadyMaxRung}
	}
	next := max(0, c.Rung) + 1
	required := Requirements(next)
	if missing := inv.Missing(required); len(missing) > 0 {
		return Result{}, &Rejection{Reason: ReasonMissingItems, Missing: missing}
	}

	out := c.Clone()
	out.Rung = next
	return Result{Creature: out, Consumed: required}, nil
}
