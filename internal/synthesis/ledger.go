package synthesis

import "fmt"

// Resources is a bundle of the four ledger counters.
type Resources struct {
	Energy              int `json:"energy"`
	CatalystStones      int `json:"catalyst_stones"`
	Stabilizers         int `json:"stabilizers"`
	EnhancementCrystals int `json:"enhancement_crystals"`
}

// DefaultResources is the ledger balance after initialization.
var DefaultResources = Resources{
	Energy:              100,
	CatalystStones:      5,
	Stabilizers:         3,
	EnhancementCrystals: 2,
}

// DefaultEnergyCap bounds the energy counter.
const DefaultEnergyCap = 100

// Ledger is the depletable pool of non-gold resources. It is mutated only by
// Reset and Debit. It has no lock of its own: the owning Lab serializes access.
type Ledger struct {
	initial   Resources
	balance   Resources
	energyCap int
}

// NewLedger creates a ledger initialized to initial, with energy clamped to
// energyCap and negative counters raised to zero.
func NewLedger(initial Resources, energyCap int) *Ledger {
	energyCap = max(0, energyCap)
	initial.Energy = clamp(initial.Energy, 0, energyCap)
	initial.CatalystStones = max(0, initial.CatalystStones)
	initial.Stabilizers = max(0, initial.Stabilizers)
	initial.EnhancementCrystals = max(0, initial.EnhancementCrystals)
	return &Ledger{initial: initial, balance: initial, energyCap: energyCap}
}

// Balance returns the current counters.
func (l *Ledger) Balance() Resources { return l.balance }

// EnergyCap returns the energy ceiling.
func (l *Ledger) EnergyCap() int { return l.energyCap }

// Reset restores the initial balance.
func (l *Ledger) Reset() { l.balance = l.initial }

// Shortfall returns, per counter, how much cost exceeds the balance.
func (l *Ledger) Shortfall(cost Resources) Resources {
	return Resources{
		Energy:              max(0, cost.Energy-l.balance.Energy),
		CatalystStones:      max(0, cost.CatalystStones-l.balance.CatalystStones),
		Stabilizers:         max(0, cost.Stabilizers-l.balance.Stabilizers),
		EnhancementCrystals: max(0, cost.EnhancementCrystals-l.balance.EnhancementCrystals),
	}
}

// Debit subtracts cost from every counter, or from none: all counters are
// checked before any is written.
func (l *Ledger) Debit(cost Resources) error {
	if cost.Energy < 0 || cost.CatalystStones < 0 || cost.Stabilizers < 0 || cost.EnhancementCrystals < 0 {
		return fmt.Errorf("debit %+v: negative amount", cost)
	}
	if short := l.Shortfall(cost); short != (Resources{}) {
		return &Shortfall{Resources: short}
	}
	l.balance = Resources{
		Energy:              l.balance.Energy - cost.Energy,
		CatalystStones:      l.balance.CatalystStones - cost.CatalystStones,
		Stabilizers:         l.balance.Stabilizers - cost.Stabilizers,
		EnhancementCrystals: l.balance.EnhancementCrystals - cost.EnhancementCrystals,
	}
	return nil
}
