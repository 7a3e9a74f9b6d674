package synthesis

import (
	"math"
	"slices"

	"github.com/talgya/synthesis-lab/internal/creature"
	"github.com/talgya/synthesis-lab/internal/entropy"
)

// Fusion tuning.
const (
	statJitter       = 0.20 // Per-axis swing around the parent average
	skillInheritRate = 0.5
	traitInheritRate = 0.3
	// MaxFusedSkills caps fresh synthesis results, below the organic cap.
	MaxFusedSkills = 4
	MaxFusedTraits = 2
)

// FuseStats averages two derived stat blocks axis by axis, each with its own
// jitter draw in [-20%, +20%), rounded and floored at 1.
func FuseStats(src entropy.Source, a, b creature.StatBlock) creature.StatBlock {
	var out creature.StatBlock
	for i := range creature.NumStats {
		avg := float64(a[i]+b[i]) / 2
		j := (src.Float64()*2 - 1) * statJitter
		out[i] = max(1, int(math.Round(avg*(1+j))))
	}
	return out
}

// InheritSkills draws each skill of the union independently with p=0.5.
// An empty draw forces one uniformly chosen skill from the union. Above
// MaxFusedSkills the survivors are picked at random, so neither parent's
// skills take precedence.
func InheritSkills(src entropy.Source, a, b []string) []string {
	pool := union(a, b)
	if len(pool) == 0 {
		return nil
	}
	var out []string
	for _, s := range pool {
		if src.Float64() < skillInheritRate {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		out = append(out, pool[src.Intn(len(pool))])
	}
	return pick(src, out, MaxFusedSkills)
}

// InheritTraits draws every parent trait independently with p=0.3, so a trait
// both parents carry gets two chances. The result holds no duplicates and is
// capped at MaxFusedTraits by random pick. An empty result is legitimate.
func InheritTraits(src entropy.Source, a, b []string) []string {
	var out []string
	for _, list := range [2][]string{a, b} {
		for _, t := range list {
			if src.Float64() < traitInheritRate && !slices.Contains(out, t) {
				out = append(out, t)
			}
		}
	}
	return pick(src, out, MaxFusedTraits)
}

// pick keeps n entries of s chosen by a partial Fisher-Yates shuffle. It
// draws nothing when s already fits.
func pick(src entropy.Source, s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	for i := range n {
		j := i + src.Intn(len(s)-i)
		s[i], s[j] = s[j], s[i]
	}
	return s[:n]
}

// OffspringLevel is the floor of the parents' mean level.
func OffspringLevel(levelA, levelB int) int {
	return (levelA + levelB) / 2
}

// union returns a's entries followed by b's unseen ones, dropping duplicates.
func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [2][]string{a, b} {
		for _, s := range list {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}
