// Package creature provides the creature data model shared by every lab
// component: identity, classification, progression, stats, skills, traits,
// enhancement rung and synthesis lineage.
package creature

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Type is an elemental type tag (Fire, Water, ...).
type Type string

// Family is the coarse classification used for recipe matching.
type Family string

const (
	FamilyBeast    Family = "Beast"
	FamilyBird     Family = "Bird"
	FamilyBug      Family = "Bug"
	FamilyDragon   Family = "Dragon"
	FamilyMaterial Family = "Material"
	FamilyPlant    Family = "Plant"
	FamilySlime    Family = "Slime"
	FamilyUndead   Family = "Undead"
)

// Stat indexes one axis of a StatBlock.
type Stat uint8

const (
	StatAttack Stat = iota
	StatDefense
	StatSpeed
	StatSpAttack
	StatSpDefense
	StatMaxHP
	StatMaxMP
)

// NumStats is the number of stat axes.
const NumStats = 7

var statNames = [NumStats]string{"attack", "defense", "speed", "sp_attack", "sp_defense", "max_hp", "max_mp"}

func (s Stat) String() string {
	if int(s) >= NumStats {
		return fmt.Sprintf("stat(%d)", uint8(s))
	}
	return statNames[s]
}

// StatBlock holds one integer per stat axis.
type StatBlock [NumStats]int

// MarshalJSON encodes the block as an object keyed by axis name.
func (b StatBlock) MarshalJSON() ([]byte, error) {
	m := make(map[string]int, NumStats)
	for i, v := range b {
		m[statNames[i]] = v
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes an object keyed by axis name. Unknown keys are rejected.
func (b *StatBlock) UnmarshalJSON(data []byte) error {
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	var out StatBlock
	for key, v := range m {
		idx := slices.Index(statNames[:], key)
		if idx < 0 {
			return fmt.Errorf("unknown stat %q", key)
		}
		out[idx] = v
	}
	*b = out
	return nil
}

// Creature is a single monster record. Treat it as a value: lab operations
// return new records rather than mutating their inputs.
type Creature struct {
	ID        string `json:"id"`
	SpeciesID string `json:"species_id"`
	Name      string `json:"name"`

	// Classification
	PrimaryType   Type   `json:"primary_type"`
	SecondaryType Type   `json:"secondary_type,omitempty"`
	Family        Family `json:"family"`

	// Progression
	Level      int `json:"level"` // >= 1
	Experience int `json:"experience"`

	BaseStats   StatBlock   `json:"base_stats"`
	Personality Personality `json:"personality"`
	Skills      []string    `json:"skills"`
	Traits      []string    `json:"traits,omitempty"`

	// Rung is the enhancement ladder position (0–5). It never decreases.
	Rung int `json:"rung"`

	// Parents holds the two synthesis inputs, or nothing for wild creatures.
	Parents []string `json:"parents,omitempty"`
	// Depth is the synthesis depth, fixed at creation since lineage is immutable.
	Depth int `json:"depth"`
}

// Soft caps on list sizes for organically leveled creatures.
const (
	MaxSkills = 6
	MaxTraits = 3
)

// Clone returns a deep copy so callers can snapshot a record.
func (c Creature) Clone() Creature {
	c.Skills = slices.Clone(c.Skills)
	c.Traits = slices.Clone(c.Traits)
	c.Parents = slices.Clone(c.Parents)
	return c
}

// Wild reports whether the creature was not produced by synthesis.
func (c Creature) Wild() bool {
	return len(c.Parents) == 0
}

// HasTrait reports whether the creature carries the trait tag.
func (c Creature) HasTrait(trait string) bool {
	return slices.Contains(c.Traits, trait)
}
