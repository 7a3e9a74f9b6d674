package synthesis

import (
	"fmt"
	"time"

	"github.com/talgya/synthesis-lab/internal/creature"
	"github.com/talgya/synthesis-lab/internal/recipe"
)

// Phase is a step of the synthesis process.
type Phase uint8

const (
	PhasePreparation Phase = iota
	PhaseEnergyAlignment
	PhaseFusion
	PhaseStabilization
	PhaseCompletion
)

// NumPhases is the number of phases.
const NumPhases = 5

var phaseNames = [NumPhases]string{"PREPARATION", "ENERGY_ALIGNMENT", "FUSION", "STABILIZATION", "COMPLETION"}

var phaseProgress = [NumPhases]float64{0, 0.25, 0.5, 0.75, 1}

// transitions is the whole state machine. COMPLETION has no entry: advancing
// from it hands off to the finalizer instead.
var transitions = map[Phase]Phase{
	PhasePreparation:     PhaseEnergyAlignment,
	PhaseEnergyAlignment: PhaseFusion,
	PhaseFusion:          PhaseStabilization,
	PhaseStabilization:   PhaseCompletion,
}

// Next returns the following phase, or false for the terminal phase.
func (p Phase) Next() (Phase, bool) {
	next, ok := transitions[p]
	return next, ok
}

// Progress returns the fixed progress fraction of the phase.
func (p Phase) Progress() float64 {
	if int(p) >= NumPhases {
		return 0
	}
	return phaseProgress[p]
}

func (p Phase) String() string {
	if int(p) >= NumPhases {
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
	return phaseNames[p]
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name.
func (p *Phase) UnmarshalText(text []byte) error {
	for i, name := range phaseNames {
		if name == string(text) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// Handle identifies a process for advance and cancel calls.
type Handle string

// Process is one synthesis attempt. Inputs are snapshots taken at start.
type Process struct {
	ID          Handle            `json:"id"`
	InputA      creature.Creature `json:"input_a"`
	InputB      creature.Creature `json:"input_b"`
	Recipe      recipe.Recipe     `json:"recipe"`
	StartedAt   time.Time         `json:"started_at"`
	Duration    time.Duration     `json:"duration"`
	SuccessRate float64           `json:"success_rate"`
	Cost        Cost              `json:"cost"`
	Phase       Phase             `json:"phase"`
	Progress    float64           `json:"progress"`
}

// Base process length plus a per-level increment.
const (
	baseDuration     = 60 * time.Second
	durationPerLevel = 2 * time.Second
)

// DurationFor returns the bookkeeping duration of a process. Advancement is
// still driven by the caller.
func DurationFor(a, b creature.Creature) time.Duration {
	return baseDuration + time.Duration(a.Level+b.Level)*durationPerLevel
}

// step moves the process one phase along the transition table. It reports
// false when the process is already terminal.
func (p *Process) step() bool {
	next, ok := p.Phase.Next()
	if !ok {
		return false
	}
	p.Phase = next
	p.Progress = next.Progress()
	return true
}

func (p Process) snapshot() Process {
	p.InputA = p.InputA.Clone()
	p.InputB = p.InputB.Clone()
	return p
}
