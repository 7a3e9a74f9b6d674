// Package recipe holds the static combination rules: which unordered family
// pairs can be synthesized, into what, and at what base odds.
package recipe

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/talgya/synthesis-lab/internal/creature"
	"github.com/talgya/synthesis-lab/internal/items"
)

// ErrInvalidTable is returned when a table fails validation.
var ErrInvalidTable = errors.New("invalid recipe table")

// Pair is an unordered pair of family tags, stored in sorted order.
type Pair struct {
	A, B creature.Family
}

// PairOf builds the canonical pair, so PairOf(x, y) == PairOf(y, x).
func PairOf(a, b creature.Family) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// Recipe is one combination rule.
type Recipe struct {
	Families      [2]creature.Family `json:"families"`
	ResultSpecies string             `json:"result_species"`
	MinLevel      int                `json:"min_level"` // Applies to both inputs
	BaseRate      float64            `json:"base_rate"` // (0, 1]
	RequiredItem  *items.ItemID      `json:"required_item,omitempty"`
}

// Pair returns the canonical family pair of the recipe.
func (r Recipe) Pair() Pair {
	return PairOf(r.Families[0], r.Families[1])
}

// Table is an immutable recipe index. It is never mutated after
// construction, so concurrent lookups need no locking.
type Table struct {
	recipes map[Pair][]Recipe
	species map[string]creature.Template
}

// NewTable validates and indexes species templates and recipes.
func NewTable(species []creature.Template, recipes []Recipe) (*Table, error) {
	t := &Table{
		recipes: make(map[Pair][]Recipe),
		species: make(map[string]creature.Template, len(species)),
	}
	for _, sp := range species {
		if sp.SpeciesID == "" {
			return nil, fmt.Errorf("species %q: empty id: %w", sp.Name, ErrInvalidTable)
		}
		if _, dup := t.species[sp.SpeciesID]; dup {
			return nil, fmt.Errorf("species %s: duplicate: %w", sp.SpeciesID, ErrInvalidTable)
		}
		sp.Skills = slices.Clone(sp.Skills)
		t.species[sp.SpeciesID] = sp
	}
	for _, r := range recipes {
		if err := t.validate(r); err != nil {
			return nil, err
		}
		p := r.Pair()
		t.recipes[p] = append(t.recipes[p], r)
	}
	for p := range t.recipes {
		slices.SortStableFunc(t.recipes[p], func(x, y Recipe) int {
			if c := cmp.Compare(y.MinLevel, x.MinLevel); c != 0 {
				return c
			}
			return cmp.Compare(x.ResultSpecies, y.ResultSpecies)
		})
	}
	return t, nil
}

func (t *Table) validate(r Recipe) error {
	switch {
	case r.Families[0] == "" || r.Families[1] == "":
		return fmt.Errorf("recipe %s: empty family: %w", r.ResultSpecies, ErrInvalidTable)
	case r.BaseRate <= 0 || r.BaseRate > 1:
		return fmt.Errorf("recipe %s: base rate %.2f outside (0,1]: %w", r.ResultSpecies, r.BaseRate, ErrInvalidTable)
	case r.MinLevel < 1:
		return fmt.Errorf("recipe %s: min level %d: %w", r.ResultSpecies, r.MinLevel, ErrInvalidTable)
	case r.RequiredItem != nil && !r.RequiredItem.Valid():
		return fmt.Errorf("recipe %s: unknown required item: %w", r.ResultSpecies, ErrInvalidTable)
	}
	if _, ok := t.species[r.ResultSpecies]; !ok {
		return fmt.Errorf("recipe %s: unknown result species: %w", r.ResultSpecies, ErrInvalidTable)
	}
	return nil
}

// Lookup returns the recipes for an unordered family pair, highest minimum
// level first. The result is a copy.
func (t *Table) Lookup(a, b creature.Family) []Recipe {
	return slices.Clone(t.recipes[PairOf(a, b)])
}

// Species returns the template for a species id.
func (t *Table) Species(id string) (creature.Template, bool) {
	sp, ok := t.species[id]
	if ok {
		sp.Skills = slices.Clone(sp.Skills)
	}
	return sp, ok
}

// AllSpecies returns every species template ordered by id.
func (t *Table) AllSpecies() []creature.Template {
	out := make([]creature.Template, 0, len(t.species))
	for _, sp := range t.species {
		sp.Skills = slices.Clone(sp.Skills)
		out = append(out, sp)
	}
	slices.SortFunc(out, func(x, y creature.Template) int {
		return cmp.Compare(x.SpeciesID, y.SpeciesID)
	})
	return out
}

// WildSpecies returns the templates no recipe produces, ordered by id.
func (t *Table) WildSpecies() []creature.Template {
	results := make(map[string]bool)
	for _, rs := range t.recipes {
		for _, r := range rs {
			results[r.ResultSpecies] = true
		}
	}
	return slices.DeleteFunc(t.AllSpecies(), func(sp creature.Template) bool {
		return results[sp.SpeciesID]
	})
}

// Len returns the number of recipes.
func (t *Table) Len() int {
	n := 0
	for _, rs := range t.recipes {
		n += len(rs)
	}
	return n
}

type tableFile struct {
	Species []creature.Template `json:"species"`
	Recipes []Recipe            `json:"recipes"`
}

// Load reads a table from JSON of the form {"species": [...], "recipes": [...]}.
func Load(r io.Reader) (*Table, error) {
	var f tableFile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode recipe table: %w", err)
	}
	return NewTable(f.Species, f.Recipes)
}
