package synthesis

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/synthesis-lab/internal/creature"
	"github.com/talgya/synthesis-lab/internal/enhance"
	"github.com/talgya/synthesis-lab/internal/entropy"
	"github.com/talgya/synthesis-lab/internal/items"
	"github.com/talgya/synthesis-lab/internal/recipe"
)

// Observer is notified of lab activity. Calls happen with the lab lock held
// and must not call back into the lab.
type Observer interface {
	Started(p Process)
	Rejected(op string, err error)
	Cancelled(p Process)
	Finalized(f Final)
}

type noopObserver struct{}

func (noopObserver) Started(Process)        {}
func (noopObserver) Rejected(string, error) {}
func (noopObserver) Cancelled(Process)      {}
func (noopObserver) Finalized(Final)        {}

// Lab owns one synthesis slot and the resource ledger. A single mutex guards
// the ledger, the active slot and the random source, so at most one process
// exists per Lab.
type Lab struct {
	table    *recipe.Table
	resolver *Resolver
	now      func() time.Time
	observer Observer

	mu       sync.Mutex
	unlocked bool
	ledger   *Ledger
	active   *Process
	rng      entropy.Source
}

// Option configures a Lab.
type Option func(*Lab)

// WithSource sets the random source for rolls and fusion draws.
func WithSource(src entropy.Source) Option {
	return func(l *Lab) { l.rng = src }
}

// WithClock sets the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Lab) { l.now = now }
}

// WithLedger replaces the default ledger.
func WithLedger(ledger *Ledger) Option {
	return func(l *Lab) { l.ledger = ledger }
}

// WithObserver registers an activity observer.
func WithObserver(o Observer) Option {
	return func(l *Lab) { l.observer = o }
}

// Unlocked starts the lab with its external gate already satisfied.
func Unlocked() Option {
	return func(l *Lab) { l.unlocked = true }
}

// NewLab creates a locked lab over the given recipe table.
func NewLab(table *recipe.Table, opts ...Option) *Lab {
	l := &Lab{
		table:    table,
		resolver: NewResolver(table),
		now:      time.Now,
		observer: noopObserver{},
		ledger:   NewLedger(DefaultResources, DefaultEnergyCap),
		rng:      entropy.Crypto{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Unlock satisfies the external gate (story progress, building, ...).
func (l *Lab) Unlock() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unlocked = true
}

// Ledger returns the current ledger balance.
func (l *Lab) Ledger() Resources {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ledger.Balance()
}

// EnergyCap returns the ledger's energy ceiling.
func (l *Lab) EnergyCap() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ledger.EnergyCap()
}

// ResetLedger re-initializes the ledger to its starting balance.
func (l *Lab) ResetLedger() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ledger.Reset()
	slog.Info("lab ledger reset", "balance", l.ledger.Balance())
}

// Active returns a snapshot of the in-flight process, if any.
func (l *Lab) Active() (Process, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active == nil {
		return Process{}, false
	}
	return l.active.snapshot(), true
}

// Preview describes what combining two creatures would yield.
type Preview struct {
	Compatible    bool     `json:"compatible"`
	ResultSpecies []string `json:"result_species,omitempty"`
	SuccessRate   float64  `json:"success_rate"`
	Cost          Cost     `json:"cost"`
	Reason        string   `json:"reason,omitempty"`
}

// Preview is side-effect free and touches only the immutable recipe table,
// so it never contends with an active process.
func (l *Lab) Preview(a, b creature.Creature) Preview {
	rec, err := l.resolver.Resolve(a, b)
	if err == nil {
		err = checkRecipeLevel(rec, a, b)
	}
	if err != nil {
		var inc *Incompatibility
		p := Preview{Reason: err.Error()}
		if errors.As(err, &inc) && inc.Reason != ReasonSameSpecies && inc.Reason != ReasonIncompatibleFamily {
			p.ResultSpecies = resultSpecies(l.table.Lookup(a.Family, b.Family))
		}
		return p
	}
	return Preview{
		Compatible:    true,
		ResultSpecies: resultSpecies(l.table.Lookup(a.Family, b.Family)),
		SuccessRate:   SuccessRate(rec, a, b),
		Cost:          CostFor(rec, a, b),
	}
}

func resultSpecies(recipes []recipe.Recipe) []string {
	out := make([]string, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, r.ResultSpecies)
	}
	return out
}

// Start validates the pair and resources and, only if everything is
// sufficient, debits the ledger and opens a process in PREPARATION. Gold and
// the recipe item are checked against the caller's snapshot and reported in
// the returned Cost; the caller debits them.
func (l *Lab) Start(a, b creature.Creature, gold int, inv items.Inventory) (Process, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, err := l.start(a, b, gold, inv)
	if err != nil {
		l.observer.Rejected("start", err)
		return Process{}, err
	}
	l.observer.Started(p)
	slog.Info("synthesis started",
		"process", p.ID,
		"a", a.Name,
		"b", b.Name,
		"result", p.Recipe.ResultSpecies,
		"rate", p.SuccessRate,
	)
	return p, nil
}

func (l *Lab) start(a, b creature.Creature, gold int, inv items.Inventory) (Process, error) {
	if !l.unlocked {
		return Process{}, ErrLabLocked
	}
	if l.active != nil {
		return Process{}, ErrAlreadyInProgress
	}
	rec, err := l.resolver.Resolve(a, b)
	if err == nil {
		err = checkRecipeLevel(rec, a, b)
	}
	if err != nil {
		return Process{}, &Error{Code: CodeIncompatibleInputs, Cause: err}
	}

	cost := CostFor(rec, a, b)
	short := &Shortfall{
		Gold:      max(0, cost.Gold-gold),
		Resources: l.ledger.Shortfall(cost.Resources()),
	}
	if cost.Item != nil && !inv.Has(*cost.Item) {
		short.Item = cost.Item
	}
	if !short.Empty() {
		return Process{}, &Error{Code: CodeInsufficientResources, Cause: short}
	}
	if err := l.ledger.Debit(cost.Resources()); err != nil {
		return Process{}, &Error{Code: CodeInsufficientResources, Cause: err}
	}

	l.active = &Process{
		ID:          Handle(uuid.NewString()),
		InputA:      a.Clone(),
		InputB:      b.Clone(),
		Recipe:      rec,
		StartedAt:   l.now(),
		Duration:    DurationFor(a, b),
		SuccessRate: SuccessRate(rec, a, b),
		Cost:        cost,
		Phase:       PhasePreparation,
		Progress:    PhasePreparation.Progress(),
	}
	return l.active.snapshot(), nil
}

// Outcome is the result of an Advance call: the process state after a
// phase change, or the final result when the process finished.
type Outcome struct {
	Process Process `json:"process"`
	Final   *Final  `json:"final,omitempty"`
}

// Final is a finished synthesis. Resources stay spent either way.
type Final struct {
	Process   Handle             `json:"process"`
	Success   bool               `json:"success"`
	Rate      float64            `json:"rate"`
	Roll      float64            `json:"roll"`
	Offspring *creature.Creature `json:"offspring,omitempty"`
}

// Advance moves the process to its next phase. Advancing from COMPLETION
// finalizes the process and clears the slot.
func (l *Lab) Advance(h Handle) (Outcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.active == nil || l.active.ID != h {
		l.observer.Rejected("advance", ErrNoProcessInProgress)
		return Outcome{}, ErrNoProcessInProgress
	}
	if l.active.step() {
		slog.Debug("synthesis advanced", "process", h, "phase", l.active.Phase)
		return Outcome{Process: l.active.snapshot()}, nil
	}

	p := l.active.snapshot()
	final := l.finalize(p)
	l.active = nil
	l.observer.Finalized(final)
	slog.Info("synthesis finished", "process", h, "success", final.Success, "roll", final.Roll, "rate", final.Rate)
	return Outcome{Process: p, Final: &final}, nil
}

// finalize rolls once against the stored rate and, on success, builds the
// offspring. Draw order: roll, seven stat jitters, skills, traits, personality.
func (l *Lab) finalize(p Process) Final {
	roll := l.rng.Float64()
	final := Final{Process: p.ID, Rate: p.SuccessRate, Roll: roll}
	if roll >= p.SuccessRate {
		return final
	}

	a, b := p.InputA, p.InputB
	sp, _ := l.table.Species(p.Recipe.ResultSpecies)
	child := creature.Creature{
		ID:            uuid.NewString(),
		SpeciesID:     sp.SpeciesID,
		Name:          sp.Name,
		PrimaryType:   sp.PrimaryType,
		SecondaryType: sp.SecondaryType,
		Family:        sp.Family,
		Level:         OffspringLevel(a.Level, b.Level),
		BaseStats:     FuseStats(l.rng, enhance.DerivedStats(a), enhance.DerivedStats(b)),
		Skills:        InheritSkills(l.rng, a.Skills, b.Skills),
		Traits:        InheritTraits(l.rng, a.Traits, b.Traits),
		Rung:          1,
		Parents:       []string{a.ID, b.ID},
		Depth:         max(a.Depth, b.Depth) + 1,
	}
	child.Personality = a.Personality
	if l.rng.Intn(2) == 1 {
		child.Personality = b.Personality
	}

	final.Success = true
	final.Offspring = &child
	return final
}

// Cancel abandons the process. It is legal only in PREPARATION, and the
// resources debited at start are not refunded.
func (l *Lab) Cancel(h Handle) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.active == nil || l.active.ID != h {
		l.observer.Rejected("cancel", ErrNoProcessInProgress)
		return false, ErrNoProcessInProgress
	}
	if l.active.Phase != PhasePreparation {
		l.observer.Rejected("cancel", ErrCannotCancelPastPreparation)
		return false, ErrCannotCancelPastPreparation
	}
	p := l.active.snapshot()
	l.active = nil
	l.observer.Cancelled(p)
	slog.Info("synthesis cancelled", "process", h)
	return true, nil
}
