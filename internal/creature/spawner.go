// Wild creature spawning: builds level-appropriate records from a species
// template, with per-species stat curves drawn from simplex noise.
package creature

import (
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/google/uuid"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Template describes a species: what a wild specimen looks like at level 1
// and how it grows.
type Template struct {
	SpeciesID     string    `json:"species_id"`
	Name          string    `json:"name"`
	Family        Family    `json:"family"`
	PrimaryType   Type      `json:"primary_type"`
	SecondaryType Type      `json:"secondary_type,omitempty"`
	BaseStats     StatBlock `json:"base_stats"`
	Growth        StatBlock `json:"growth"` // Per-level increase
	Skills        []string  `json:"skills,omitempty"`
}

// Spawner creates wild creatures.
type Spawner struct {
	rng   *rand.Rand
	noise opensimplex.Noise
}

// NewSpawner creates a spawner with the given seed.
func NewSpawner(seed int64) *Spawner {
	return &Spawner{
		rng:   rand.New(rand.NewSource(seed + 300)),
		noise: opensimplex.NewNormalized(seed),
	}
}

// Spawn creates a wild creature of the template's species at the given level.
func (s *Spawner) Spawn(t Template, level int) Creature {
	level = max(1, level)

	// Species offset keeps two species at the same level from sharing a curve.
	h := fnv.New32a()
	h.Write([]byte(t.SpeciesID))
	offset := float64(h.Sum32()%1024) * 0.37

	var stats StatBlock
	for i := range NumStats {
		raw := float64(t.BaseStats[i] + t.Growth[i]*(level-1))
		// Noise in [0,1] maps to a ±10% swing that drifts smoothly with level.
		n := s.noise.Eval2(float64(level)*0.15, offset+float64(i)*1.7)
		stats[i] = max(1, int(math.Round(raw*(0.9+0.2*n))))
	}

	// Wild creatures know more of their species list as they level.
	known := min(len(t.Skills), 2+level/10, MaxSkills)
	skills := append([]string(nil), t.Skills[:known]...)

	var traits []string
	if s.rng.Float64() < 0.35 {
		traits = append(traits, s.randomTrait())
	}

	return Creature{
		ID:            uuid.NewString(),
		SpeciesID:     t.SpeciesID,
		Name:          t.Name,
		PrimaryType:   t.PrimaryType,
		SecondaryType: t.SecondaryType,
		Family:        t.Family,
		Level:         level,
		BaseStats:     stats,
		Personality:   Personality(s.rng.Intn(NumPersonalities)),
		Skills:        skills,
		Traits:        traits,
	}
}

func (s *Spawner) randomTrait() string {
	names := TraitNames()
	return names[s.rng.Intn(len(names))]
}

// TraitNames returns the known trait tags in a stable order.
func TraitNames() []string {
	return []string{"Brawny", "Focused", "Sage", "Sturdy", "Swift", "Tough", "Warded"}
}
