package creature

import (
	"fmt"
	"math"
)

// Personality nudges one stat up and another down by 10%.
type Personality uint8

const (
	PersonalityHardy Personality = iota // Neutral
	PersonalityBrave
	PersonalityCalm
	PersonalityTimid
	PersonalityBold
	PersonalityCareful
	PersonalityModest
)

// NumPersonalities is the number of personality values.
const NumPersonalities = 7

const personalityShift = 0.10

var personalityNames = [NumPersonalities]string{"Hardy", "Brave", "Calm", "Timid", "Bold", "Careful", "Modest"}

// personalityMods maps a personality to its boosted and hindered axis.
// Hardy boosts and hinders the same axis, which cancels out.
var personalityMods = [NumPersonalities][2]Stat{
	PersonalityHardy:   {StatAttack, StatAttack},
	PersonalityBrave:   {StatAttack, StatSpeed},
	PersonalityCalm:    {StatSpDefense, StatAttack},
	PersonalityTimid:   {StatSpeed, StatAttack},
	PersonalityBold:    {StatDefense, StatAttack},
	PersonalityCareful: {StatSpDefense, StatSpAttack},
	PersonalityModest:  {StatSpAttack, StatAttack},
}

func (p Personality) String() string {
	if int(p) >= NumPersonalities {
		return "Unknown"
	}
	return personalityNames[p]
}

// Modifiers returns the boosted and hindered axes.
func (p Personality) Modifiers() (up, down Stat) {
	if int(p) >= NumPersonalities {
		return StatAttack, StatAttack
	}
	m := personalityMods[p]
	return m[0], m[1]
}

// familyBonus is a per-axis percentage bonus applied to base stats.
var familyBonus = map[Family]StatBlock{
	FamilyBeast:    {StatAttack: 5, StatSpeed: 5},
	FamilyBird:     {StatSpeed: 10},
	FamilyBug:      {StatDefense: 5, StatSpeed: 5},
	FamilyDragon:   {StatAttack: 10, StatMaxHP: 5},
	FamilyMaterial: {StatDefense: 10, StatSpDefense: 5},
	FamilyPlant:    {StatSpDefense: 5, StatMaxMP: 5},
	FamilySlime:    {StatMaxHP: 10},
	FamilyUndead:   {StatSpAttack: 10},
}

// TraitBonus is the flat stat bonus granted by each known trait tag.
var TraitBonus = map[string]StatBlock{
	"Sturdy":  {StatDefense: 10},
	"Swift":   {StatSpeed: 10},
	"Brawny":  {StatAttack: 10},
	"Sage":    {StatSpAttack: 10},
	"Warded":  {StatSpDefense: 10},
	"Tough":   {StatMaxHP: 20},
	"Focused": {StatMaxMP: 10},
}

// AdjustedStats applies family, personality and trait adjustments to the
// base stats. Enhancement multipliers are applied on top of this block.
func (c Creature) AdjustedStats() StatBlock {
	up, down := c.Personality.Modifiers()
	fam := familyBonus[c.Family]

	var out StatBlock
	for i := range NumStats {
		v := float64(c.BaseStats[i]) * (1 + float64(fam[i])/100)
		if up != down {
			switch Stat(i) {
			case up:
				v *= 1 + personalityShift
			case down:
				v *= 1 - personalityShift
			}
		}
		for _, t := range c.Traits {
			v += float64(TraitBonus[t][i])
		}
		out[i] = max(1, int(math.Round(v)))
	}
	return out
}

// Scale multiplies every axis by m, rounding and flooring at 1.
func (b StatBlock) Scale(m float64) StatBlock {
	var out StatBlock
	for i, v := range b {
		out[i] = max(1, int(math.Round(float64(v)*m)))
	}
	return out
}

// MarshalText encodes the personality by name.
func (p Personality) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a personality name.
func (p *Personality) UnmarshalText(text []byte) error {
	for i, name := range personalityNames {
		if name == string(text) {
			*p = Personality(i)
			return nil
		}
	}
	return fmt.Errorf("unknown personality %q", text)
}
