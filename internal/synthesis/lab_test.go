package synthesis

import (
	"errors"
	"math"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/talgya/synthesis-lab/internal/creature"
	"github.com/talgya/synthesis-lab/internal/enhance"
	"github.com/talgya/synthesis-lab/internal/entropy"
	"github.com/talgya/synthesis-lab/internal/items"
	"github.com/talgya/synthesis-lab/internal/recipe"
)

var epoch = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newTestLab(src entropy.Source, opts ...Option) *Lab {
	base := []Option{Unlocked(), WithSource(src), WithClock(func() time.Time { return epoch })}
	return NewLab(recipe.Default(), append(base, opts...)...)
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func wolfAndWyrm() (creature.Creature, creature.Creature) {
	a := mon("fangwolf", creature.FamilyBeast, 20)
	a.Traits = []string{"Swift"}
	a.Personality = creature.PersonalityBrave
	b := mon("emberwyrm", creature.FamilyDragon, 21)
	b.Rung = 2
	b.Personality = creature.PersonalityCalm
	return a, b
}

type recordingObserver struct {
	started, cancelled int
	rejected           []string
	finals             []Final
}

func (o *recordingObserver) Started(Process)   { o.started++ }
func (o *recordingObserver) Cancelled(Process) { o.cancelled++ }
func (o *recordingObserver) Finalized(f Final) { o.finals = append(o.finals, f) }
func (o *recordingObserver) Rejected(op string, err error) {
	o.rejected = append(o.rejected, op)
}

func TestStartRequiresUnlock(t *testing.T) {
	lab := NewLab(recipe.Default())
	a, b := wolfAndWyrm()
	if _, err := lab.Start(a, b, 10000, items.Inventory{}); !errors.Is(err, ErrLabLocked) {
		t.Fatalf("expected ErrLabLocked, got %v", err)
	}
	lab.Unlock()
	if _, err := lab.Start(a, b, 10000, items.Inventory{}); err != nil {
		t.Fatalf("start after unlock: %v", err)
	}
}

func TestStartDebitsLedger(t *testing.T) {
	obs := &recordingObserver{}
	lab := newTestLab(entropy.NewScript(0.5), WithObserver(obs))
	a, b := wolfAndWyrm()

	p, err := lab.Start(a, b, 1000, items.Inventory{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	want := Cost{Gold: 410, Energy: 41, CatalystStones: 1, Stabilizers: 1}
	if p.Cost != want {
		t.Errorf("cost = %+v, want %+v", p.Cost, want)
	}
	if p.Phase != PhasePreparation || p.Progress != 0 {
		t.Errorf("new process in %s at %.2f", p.Phase, p.Progress)
	}
	if p.StartedAt != epoch || p.Duration != 60*time.Second+41*2*time.Second {
		t.Errorf("timestamps: started %v duration %v", p.StartedAt, p.Duration)
	}
	if !near(p.SuccessRate, 0.75) {
		t.Errorf("rate = %v, want 0.75", p.SuccessRate)
	}
	got := lab.Ledger()
	if got.Energy != 59 || got.CatalystStones != 4 || got.Stabilizers != 2 || got.EnhancementCrystals != 2 {
		t.Errorf("ledger after debit = %+v", got)
	}
	if obs.started != 1 {
		t.Errorf("observer saw %d starts", obs.started)
	}
}

func TestStartTwiceIsRejected(t *testing.T) {
	lab := newTestLab(entropy.NewScript(0.5))
	a, b := wolfAndWyrm()
	if _, err := lab.Start(a, b, 1000, items.Inventory{}); err != nil {
		t.Fatal(err)
	}
	before := lab.Ledger()

	// A different, valid pair still hits the single global slot.
	c := mon("slimeling", creature.FamilySlime, 12)
	d := mon("jellyking", creature.FamilySlime, 12)
	if _, err := lab.Start(c, d, 1000, items.Inventory{}); !errors.Is(err, ErrAlreadyInProgress) {
		t.Fatalf("expected ErrAlreadyInProgress, got %v", err)
	}
	if lab.Ledger() != before {
		t.Error("rejected start changed the ledger")
	}
}

func TestStartIncompatibleWrapsReason(t *testing.T) {
	lab := newTestLab(entropy.NewScript(0.5))
	cases := []struct {
		name   string
		a, b   creature.Creature
		reason error
		level  int
	}{
		{"same species", mon("golem", creature.FamilyMaterial, 30), mon("golem", creature.FamilyMaterial, 30), ErrSameSpecies, 0},
		{"level floor", mon("fangwolf", creature.FamilyBeast, 8), mon("emberwyrm", creature.FamilyDragon, 30), ErrLevelTooLow, 10},
		{"recipe minimum", mon("skyhawk", creature.FamilyBird, 11), mon("fangwolf", creature.FamilyBeast, 11), ErrLevelTooLow, 12},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := lab.Start(tc.a, tc.b, 100000, items.Inventory{})
			if !errors.Is(err, ErrIncompatibleInputs) || !errors.Is(err, tc.reason) {
				t.Fatalf("got %v", err)
			}
			var inc *Incompatibility
			if !errors.As(err, &inc) || inc.RequiredLevel != tc.level {
				t.Errorf("required level = %v, want %d", inc, tc.level)
			}
			if _, active := lab.Active(); active {
				t.Error("rejected start left a process behind")
			}
		})
	}
}

func TestStartInsufficientResources(t *testing.T) {
	a, b := wolfAndWyrm()
	wyrmA := mon("emberwyrm", creature.FamilyDragon, 30)
	wyrmB := mon("twinwyrm", creature.FamilyDragon, 30)

	cases := []struct {
		name   string
		ledger Resources
		gold   int
		inv    items.Inventory
		a, b   creature.Creature
		check  func(t *testing.T, s *Shortfall)
	}{
		{"gold", DefaultResources, 409, items.Inventory{}, a, b, func(t *testing.T, s *Shortfall) {
			if s.Gold != 1 {
				t.Errorf("gold short = %d, want 1", s.Gold)
			}
		}},
		{"stabilizers", Resources{Energy: 100, CatalystStones: 5}, 1000, items.Inventory{}, a, b, func(t *testing.T, s *Shortfall) {
			if s.Resources.Stabilizers != 1 || s.Gold != 0 {
				t.Errorf("shortfall = %+v", s)
			}
		}},
		{"recipe item", DefaultResources, 1000, items.Inventory{}, wyrmA, wyrmB, func(t *testing.T, s *Shortfall) {
			if s.Item == nil || *s.Item != items.ItemWorldLeaf {
				t.Errorf("shortfall item = %v, want World Leaf", s.Item)
			}
		}},
		{"everything", Resources{}, 0, items.Inventory{}, a, b, func(t *testing.T, s *Shortfall) {
			want := Resources{Energy: 41, CatalystStones: 1, Stabilizers: 1}
			if s.Gold != 410 || s.Resources != want {
				t.Errorf("shortfall = %+v", s)
			}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lab := newTestLab(entropy.NewScript(0.5), WithLedger(NewLedger(tc.ledger, DefaultEnergyCap)))
			before := lab.Ledger()
			_, err := lab.Start(tc.a, tc.b, tc.gold, tc.inv)
			if !errors.Is(err, ErrInsufficientResources) {
				t.Fatalf("expected ErrInsufficientResources, got %v", err)
			}
			var short *Shortfall
			if !errors.As(err, &short) {
				t.Fatalf("expected *Shortfall cause, got %v", err)
			}
			tc.check(t, short)
			if lab.Ledger() != before {
				t.Errorf("ledger changed from %+v to %+v", before, lab.Ledger())
			}
		})
	}
}

func TestRecipeItemIsReportedNotTaken(t *testing.T) {
	lab := newTestLab(entropy.NewScript(0.5))
	var inv items.Inventory
	inv[items.ItemWorldLeaf] = 1
	p, err := lab.Start(mon("emberwyrm", creature.FamilyDragon, 30), mon("twinwyrm", creature.FamilyDragon, 30), 1000, inv)
	if err != nil {
		t.Fatal(err)
	}
	if p.Cost.Item == nil || *p.Cost.Item != items.ItemWorldLeaf {
		t.Errorf("cost item = %v", p.Cost.Item)
	}
	if inv[items.ItemWorldLeaf] != 1 {
		t.Error("caller inventory was modified")
	}
}

// Cancelling does not refund, so the last catalyst stone stays spent and the
// next start fails for resources rather than queueing.
func TestLastCatalystStone(t *testing.T) {
	lab := newTestLab(entropy.NewScript(0.5), WithLedger(NewLedger(Resources{Energy: 100, CatalystStones: 1, Stabilizers: 3}, 100)))
	a, b := wolfAndWyrm()
	p, err := lab.Start(a, b, 1000, items.Inventory{})
	if err != nil {
		t.Fatal(err)
	}
	if ok, err := lab.Cancel(p.ID); !ok || err != nil {
		t.Fatalf("Cancel = %v, %v", ok, err)
	}
	if got := lab.Ledger().CatalystStones; got != 0 {
		t.Fatalf("catalyst stones after cancel = %d, want 0 (no refund)", got)
	}
	_, err = lab.Start(a, b, 1000, items.Inventory{})
	if !errors.Is(err, ErrInsufficientResources) {
		t.Fatalf("expected ErrInsufficientResources, got %v", err)
	}
}

func TestConcurrentStartsAdmitOne(t *testing.T) {
	lab := newTestLab(entropy.NewScript(0.5))
	a, b := wolfAndWyrm()

	const n = 32
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := lab.Start(a, b, 1000, items.Inventory{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	admitted := 0
	for err := range errs {
		switch {
		case err == nil:
			admitted++
		case !errors.Is(err, ErrAlreadyInProgress):
			t.Errorf("unexpected error %v", err)
		}
	}
	if admitted != 1 {
		t.Fatalf("%d starts admitted, want 1", admitted)
	}
	if got := lab.Ledger().CatalystStones; got != DefaultResources.CatalystStones-1 {
		t.Errorf("catalyst stones = %d, want exactly one debit", got)
	}
}

func TestAdvanceToFailure(t *testing.T) {
	obs := &recordingObserver{}
	lab := newTestLab(entropy.NewScript(0.99), WithObserver(obs))
	a, b := wolfAndWyrm()
	p, err := lab.Start(a, b, 1000, items.Inventory{})
	if err != nil {
		t.Fatal(err)
	}
	spent := lab.Ledger()

	phases := []Phase{PhaseEnergyAlignment, PhaseFusion, PhaseStabilization, PhaseCompletion}
	for _, want := range phases {
		out, err := lab.Advance(p.ID)
		if err != nil {
			t.Fatalf("advance to %s: %v", want, err)
		}
		if out.Final != nil || out.Process.Phase != want || out.Process.Progress != want.Progress() {
			t.Fatalf("advance: got %+v, want %s", out.Process, want)
		}
	}

	out, err := lab.Advance(p.ID)
	if err != nil {
		t.Fatalf("finalizing advance: %v", err)
	}
	if out.Final == nil || out.Final.Success || out.Final.Offspring != nil {
		t.Fatalf("expected a failed final, got %+v", out.Final)
	}
	if out.Final.Roll != 0.99 || !near(out.Final.Rate, 0.75) {
		t.Errorf("roll %.2f rate %.2f", out.Final.Roll, out.Final.Rate)
	}
	if lab.Ledger() != spent {
		t.Error("failure refunded resources")
	}

	if _, err := lab.Advance(p.ID); !errors.Is(err, ErrNoProcessInProgress) {
		t.Fatalf("advance after finish: expected ErrNoProcessInProgress, got %v", err)
	}
	if len(obs.finals) != 1 || !slices.Equal(obs.rejected, []string{"advance"}) {
		t.Errorf("observer saw finals=%d rejected=%v", len(obs.finals), obs.rejected)
	}
	if _, err := lab.Start(a, b, 1000, items.Inventory{}); err != nil {
		t.Errorf("slot not released after failure: %v", err)
	}
}

func TestAdvanceToSuccess(t *testing.T) {
	// 0.25 passes the 0.75 roll, gives -10% jitter on every axis, includes
	// every skill and trait, and picks parent A's personality.
	lab := newTestLab(entropy.NewScript(0.25))
	a, b := wolfAndWyrm()
	a.Depth = 1
	b.Depth = 2
	b.Traits = []string{"Sturdy", "Sage"}
	p, err := lab.Start(a, b, 1000, items.Inventory{})
	if err != nil {
		t.Fatal(err)
	}

	var out Outcome
	for range 5 {
		if out, err = lab.Advance(p.ID); err != nil {
			t.Fatal(err)
		}
	}
	if out.Final == nil || !out.Final.Success {
		t.Fatalf("expected success, got %+v", out.Final)
	}
	child := out.Final.Offspring
	if child.SpeciesID != "wyvernfang" || child.Family != creature.FamilyDragon || child.Name != "Wyvernfang" {
		t.Errorf("offspring species %s/%s/%s", child.SpeciesID, child.Family, child.Name)
	}
	if child.Rung != 1 || child.Level != 20 || child.Depth != 3 {
		t.Errorf("rung %d level %d depth %d", child.Rung, child.Level, child.Depth)
	}
	if !slices.Equal(child.Parents, []string{a.ID, b.ID}) {
		t.Errorf("parents = %v", child.Parents)
	}
	if child.Personality != a.Personality {
		t.Errorf("personality = %s, want %s", child.Personality, a.Personality)
	}
	if !slices.Equal(child.Skills, []string{"fangwolf Strike", "Guard", "emberwyrm Strike"}) {
		t.Errorf("skills = %v", child.Skills)
	}
	if !slices.Equal(child.Traits, []string{"Swift", "Sturdy"}) {
		t.Errorf("traits = %v", child.Traits)
	}

	da, db := enhance.DerivedStats(a), enhance.DerivedStats(b)
	scale := 1 + (0.25*2-1)*statJitter
	for i := range creature.NumStats {
		avg := float64(da[i]+db[i]) / 2
		want := max(1, int(math.Round(avg*scale)))
		if child.BaseStats[i] != want {
			t.Errorf("axis %s = %d, want %d", creature.Stat(i), child.BaseStats[i], want)
		}
	}

	// Depth 3 offspring can no longer be a synthesis input.
	partner := mon("skyhawk", creature.FamilyBird, 40)
	if _, err := NewResolver(recipe.Default()).Resolve(*child, partner); !errors.Is(err, ErrChainTooDeep) {
		t.Errorf("expected ErrChainTooDeep for the offspring, got %v", err)
	}
}

func TestStartSnapshotsInputs(t *testing.T) {
	lab := newTestLab(entropy.NewScript(0.5))
	a, b := wolfAndWyrm()
	p, err := lab.Start(a, b, 1000, items.Inventory{})
	if err != nil {
		t.Fatal(err)
	}
	a.Skills[0] = "Tampered"
	a.Level = 99
	active, ok := lab.Active()
	if !ok {
		t.Fatal("no active process")
	}
	if active.InputA.Skills[0] == "Tampered" || active.InputA.Level != 20 || active.ID != p.ID {
		t.Fatalf("process input follows the caller's record: %+v", active.InputA)
	}
}

func TestCancel(t *testing.T) {
	lab := newTestLab(entropy.NewScript(0.5))
	if ok, err := lab.Cancel("nope"); ok || !errors.Is(err, ErrNoProcessInProgress) {
		t.Fatalf("cancel with nothing running = %v, %v", ok, err)
	}

	a, b := wolfAndWyrm()
	p, err := lab.Start(a, b, 1000, items.Inventory{})
	if err != nil {
		t.Fatal(err)
	}
	if ok, err := lab.Cancel("stale"); ok || !errors.Is(err, ErrNoProcessInProgress) {
		t.Fatalf("cancel with wrong handle = %v, %v", ok, err)
	}
	if _, err := lab.Advance(p.ID); err != nil {
		t.Fatal(err)
	}
	if ok, err := lab.Cancel(p.ID); ok || !errors.Is(err, ErrCannotCancelPastPreparation) {
		t.Fatalf("cancel past preparation = %v, %v", ok, err)
	}
	if _, active := lab.Active(); !active {
		t.Fatal("refused cancel cleared the process")
	}
}

func TestPreview(t *testing.T) {
	lab := newTestLab(entropy.NewScript(0.5))
	a, b := wolfAndWyrm()
	before := lab.Ledger()

	got := lab.Preview(a, b)
	if !got.Compatible || !near(got.SuccessRate, 0.75) || got.Cost.Gold != 410 {
		t.Errorf("preview = %+v", got)
	}
	if !slices.Equal(got.ResultSpecies, []string{"wyvernfang"}) {
		t.Errorf("result species = %v", got.ResultSpecies)
	}
	if lab.Ledger() != before {
		t.Error("preview changed the ledger")
	}
	if _, active := lab.Active(); active {
		t.Error("preview opened a process")
	}

	dragons := lab.Preview(mon("emberwyrm", creature.FamilyDragon, 12), mon("twinwyrm", creature.FamilyDragon, 12))
	if !dragons.Compatible || !slices.Equal(dragons.ResultSpecies, []string{"elderwyrm", "twinwyrm"}) {
		t.Errorf("dragon preview = %+v", dragons)
	}

	bad := lab.Preview(mon("golem", creature.FamilyMaterial, 3), mon("golem", creature.FamilyMaterial, 30))
	if bad.Compatible || bad.Reason != "SameSpecies" || len(bad.ResultSpecies) != 0 {
		t.Errorf("same species preview = %+v", bad)
	}
}

func TestResetLedger(t *testing.T) {
	lab := newTestLab(entropy.NewScript(0.5))
	a, b := wolfAndWyrm()
	if _, err := lab.Start(a, b, 1000, items.Inventory{}); err != nil {
		t.Fatal(err)
	}
	lab.ResetLedger()
	if lab.Ledger() != DefaultResources {
		t.Errorf("ledger = %+v after reset", lab.Ledger())
	}
}
