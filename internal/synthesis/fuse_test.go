package synthesis

import (
	"math"
	"slices"
	"testing"

	"github.com/talgya/synthesis-lab/internal/creature"
	"github.com/talgya/synthesis-lab/internal/entropy"
)

func TestFuseStatsBounds(t *testing.T) {
	src := entropy.NewSeeded(11)
	a := creature.StatBlock{120, 3, 57, 1, 88, 400, 9}
	b := creature.StatBlock{80, 1, 60, 1, 12, 250, 30}
	for range 2000 {
		got := FuseStats(src, a, b)
		for i := range creature.NumStats {
			avg := float64(a[i]+b[i]) / 2
			lo := max(1, math.Round(avg*(1-statJitter)))
			hi := max(1, math.Round(avg*(1+statJitter)))
			if v := float64(got[i]); v < lo || v > hi {
				t.Fatalf("axis %s = %v outside [%v, %v]", creature.Stat(i), v, lo, hi)
			}
		}
	}
}

func TestFuseStatsIndependentAxes(t *testing.T) {
	// Seven draws: lowest, midpoint, and near-top jitter in turn.
	src := entropy.NewScript(0, 0.5, 0.75, 0, 0.5, 0.75, 0.25)
	a := creature.StatBlock{100, 100, 100, 100, 100, 100, 100}
	got := FuseStats(src, a, a)
	want := creature.StatBlock{80, 100, 110, 80, 100, 110, 90}
	if got != want {
		t.Fatalf("FuseStats = %v, want %v", got, want)
	}
	if src.Draws() != creature.NumStats {
		t.Errorf("expected one draw per axis, got %d", src.Draws())
	}
}

func TestFuseStatsFloor(t *testing.T) {
	got := FuseStats(entropy.NewScript(0), creature.StatBlock{1, 1, 1, 1, 1, 1, 1}, creature.StatBlock{})
	for i, v := range got {
		if v < 1 {
			t.Fatalf("axis %s = %d, want >= 1", creature.Stat(i), v)
		}
	}
}

func TestInheritSkills(t *testing.T) {
	a := []string{"Bite", "Howl", "Crunch"}
	b := []string{"Howl", "Ember", "Claw", "Roar"}

	cases := []struct {
		name string
		src  entropy.Source
		want []string
	}{
		// Union is Bite, Howl, Crunch, Ember, Claw, Roar.
		{"all drawn, capped", entropy.NewScript(0.1), []string{"Bite", "Howl", "Crunch", "Ember"}},
		{"alternate draws", entropy.NewScript(0.1, 0.9), []string{"Bite", "Crunch", "Claw"}},
		// Six misses, then 0.6 picks index 3 of the union.
		{"none drawn forces one", entropy.NewScript(0.9, 0.9, 0.9, 0.9, 0.9, 0.9, 0.6), []string{"Ember"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := InheritSkills(tc.src, a, b)
			if !slices.Equal(got, tc.want) {
				t.Errorf("InheritSkills = %v, want %v", got, tc.want)
			}
		})
	}

	if got := InheritSkills(entropy.NewScript(0.1), nil, nil); got != nil {
		t.Errorf("no parent skills should inherit nothing, got %v", got)
	}
}

func TestInheritSkillsNeverEmpty(t *testing.T) {
	src := entropy.NewSeeded(3)
	for range 1000 {
		got := InheritSkills(src, []string{"Bite"}, []string{"Ember"})
		if len(got) == 0 || len(got) > MaxFusedSkills {
			t.Fatalf("unexpected skill set %v", got)
		}
	}
}

func TestInheritTraits(t *testing.T) {
	a := []string{"Sturdy", "Swift"}
	b := []string{"Swift", "Sage"}
	if got := InheritTraits(entropy.NewScript(0.5), a, b); len(got) != 0 {
		t.Errorf("misses should leave traits empty, got %v", got)
	}
	if got := InheritTraits(entropy.NewScript(0.1), a, b); !slices.Equal(got, []string{"Sturdy", "Swift"}) {
		t.Errorf("hits should cap at two, got %v", got)
	}
	// One draw per parent trait: Sturdy, Swift, Swift, Sage.
	if got := InheritTraits(entropy.NewScript(0.5, 0.29), a, b); !slices.Equal(got, []string{"Swift", "Sage"}) {
		t.Errorf("got %v, want [Swift Sage]", got)
	}
}

func TestInheritTraitsSharedTrait(t *testing.T) {
	src := entropy.NewScript(0.5, 0.1)
	got := InheritTraits(src, []string{"Swift"}, []string{"Swift"})
	if !slices.Equal(got, []string{"Swift"}) {
		t.Errorf("second parent's copy should get its own draw, got %v", got)
	}
	if src.Draws() != 2 {
		t.Errorf("draws = %d, want 2", src.Draws())
	}
	if got := InheritTraits(entropy.NewScript(0.1), []string{"Swift"}, []string{"Swift"}); !slices.Equal(got, []string{"Swift"}) {
		t.Errorf("shared trait should appear once, got %v", got)
	}
}

func TestInheritSkillsCapPicksAtRandom(t *testing.T) {
	a := []string{"A1", "A2", "A3"}
	b := []string{"B1", "B2", "B3"}
	// Six hits, then four shuffle draws that each take the last candidate.
	src := entropy.NewScript(0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.9, 0.9, 0.9, 0.9)
	got := InheritSkills(src, a, b)
	if want := []string{"B3", "A1", "A2", "A3"}; !slices.Equal(got, want) {
		t.Errorf("InheritSkills = %v, want %v", got, want)
	}

	// Over many seeded draws both parents keep about half the slots.
	seeded := entropy.NewSeeded(7)
	a = []string{"A1", "A2", "A3", "A4"}
	b = []string{"B1", "B2", "B3", "B4"}
	var fromA, total int
	for range 4000 {
		for _, s := range InheritSkills(seeded, a, b) {
			total++
			if s[0] == 'A' {
				fromA++
			}
		}
	}
	if share := float64(fromA) / float64(total); share < 0.45 || share > 0.55 {
		t.Errorf("parent A share = %.3f, want about 0.5", share)
	}
}

func TestOffspringLevel(t *testing.T) {
	if got := OffspringLevel(15, 26); got != 20 {
		t.Errorf("OffspringLevel(15, 26) = %d, want 20", got)
	}
	if got := OffspringLevel(10, 10); got != 10 {
		t.Errorf("OffspringLevel(10, 10) = %d, want 10", got)
	}
}
