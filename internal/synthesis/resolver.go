// Package synthesis combines two creatures into a new one: compatibility
// resolution, success odds, costs, stat fusion, the resource ledger and the
// five-phase process state machine, all owned by a Lab.
package synthesis

import (
	"golang.org/x/exp/constraints"

	"github.com/talgya/synthesis-lab/internal/creature"
	"github.com/talgya/synthesis-lab/internal/items"
	"github.com/talgya/synthesis-lab/internal/recipe"
)

// MinSynthesisLevel is the level floor for any synthesis input,
// independent of the recipe's own minimum.
const MinSynthesisLevel = 10

// Success rate shaping.
const (
	MinRate         = 0.10
	MaxRate         = 0.95
	levelBonusStep  = 0.01
	levelBonusCap   = 0.20
	sameFamilyBonus = 0.10
)

// Resolver matches creature pairs against a recipe table.
type Resolver struct {
	table *recipe.Table
}

// NewResolver creates a resolver over an immutable table.
func NewResolver(table *recipe.Table) *Resolver {
	return &Resolver{table: table}
}

// Resolve checks, in order: same species, the level floor, recipe existence
// and synthesis depth. The first failure is returned as an *Incompatibility.
// Resolve is symmetric in its arguments.
//
// When a family pair has several recipes, the one with the highest minimum
// level both inputs meet is chosen; failing that, the lowest. Callers must
// still check the chosen recipe's MinLevel.
//
// The depth check reads the cached Creature.Depth and does not walk Parents.
// Inputs must come from a roster whose depths were reconciled against the
// lineage, as persistence.LoadRoster does, or from Lab offspring.
func (r *Resolver) Resolve(a, b creature.Creature) (recipe.Recipe, error) {
	if a.SpeciesID == b.SpeciesID {
		return recipe.Recipe{}, &Incompatibility{Reason: ReasonSameSpecies}
	}
	if a.Level < MinSynthesisLevel || b.Level < MinSynthesisLevel {
		return recipe.Recipe{}, &Incompatibility{Reason: ReasonLevelTooLow, RequiredLevel: MinSynthesisLevel}
	}
	candidates := r.table.Lookup(a.Family, b.Family)
	if len(candidates) == 0 {
		return recipe.Recipe{}, &Incompatibility{Reason: ReasonIncompatibleFamily}
	}
	if a.Depth >= creature.MaxDepth || b.Depth >= creature.MaxDepth {
		return recipe.Recipe{}, &Incompatibility{Reason: ReasonChainTooDeep}
	}

	floor := min(a.Level, b.Level)
	for _, rec := range candidates {
		if rec.MinLevel <= floor {
			return rec, nil
		}
	}
	return candidates[len(candidates)-1], nil
}

// checkRecipeLevel re-validates the recipe's own minimum against both inputs.
func checkRecipeLevel(rec recipe.Recipe, a, b creature.Creature) error {
	if a.Level < rec.MinLevel || b.Level < rec.MinLevel {
		return &Incompatibility{Reason: ReasonLevelTooLow, RequiredLevel: rec.MinLevel}
	}
	return nil
}

// SuccessRate is deterministic in its inputs; randomness lives in the roll.
func SuccessRate(rec recipe.Recipe, a, b creature.Creature) float64 {
	levelBonus := min(float64(a.Level+b.Level)*levelBonusStep, levelBonusCap)
	familyBonus := 0.0
	if a.Family == b.Family {
		familyBonus = sameFamilyBonus
	}
	return clamp(rec.BaseRate+levelBonus+familyBonus, MinRate, MaxRate)
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	return max(lo, min(v, hi))
}

// Cost is what a synthesis start consumes. Gold and Item are reported for
// the caller to debit; the rest comes out of the ledger.
type Cost struct {
	Gold           int           `json:"gold"`
	Energy         int           `json:"energy"`
	CatalystStones int           `json:"catalyst_stones"`
	Stabilizers    int           `json:"stabilizers"`
	Item           *items.ItemID `json:"item,omitempty"`
}

// stabilizerLevel is the input level above which a stabilizer is required.
const stabilizerLevel = 20

// CostFor computes the cost of combining a and b under rec.
func CostFor(rec recipe.Recipe, a, b creature.Creature) Cost {
	sum := a.Level + b.Level
	c := Cost{
		Gold:           sum * 10,
		Energy:         sum,
		CatalystStones: 1,
		Item:           rec.RequiredItem,
	}
	if a.Level > stabilizerLevel || b.Level > stabilizerLevel {
		c.Stabilizers = 1
	}
	return c
}

// Resources returns the ledger-debited part of the cost.
func (c Cost) Resources() Resources {
	return Resources{
		Energy:         c.Energy,
		CatalystStones: c.CatalystStones,
		Stabilizers:    c.Stabilizers,
	}
}
