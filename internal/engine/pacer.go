// Package engine drives synthesis processes forward in wall-clock time.
// The lab itself never gates on the clock; the pacer is one possible caller.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/talgya/synthesis-lab/internal/synthesis"
)

// PhaseSteps is the number of timed transitions before finalization.
const PhaseSteps = synthesis.NumPhases - 1

// Advancer is the slice of the lab the pacer needs.
type Advancer interface {
	Advance(h synthesis.Handle) (synthesis.Outcome, error)
}

// Pacer spreads a process's duration evenly over its phase transitions.
type Pacer struct {
	Lab   Advancer
	Speed float64 // Multiplier: 1.0 = real-time

	// Callbacks, optional.
	OnPhase func(p synthesis.Process)
	OnFinal func(p synthesis.Process, f synthesis.Final)
}

// NewPacer creates a real-time pacer.
func NewPacer(lab Advancer) *Pacer {
	return &Pacer{Lab: lab, Speed: 1.0}
}

// Interval returns the wait between two transitions of p.
func (pc *Pacer) Interval(p synthesis.Process) time.Duration {
	speed := pc.Speed
	if speed <= 0 {
		speed = 1
	}
	return time.Duration(float64(p.Duration) / PhaseSteps / speed)
}

// Run advances p until it finalizes. It blocks, and returns ctx.Err() if the
// context ends first; the process is then left where it was.
func (pc *Pacer) Run(ctx context.Context, p synthesis.Process) (synthesis.Final, error) {
	interval := pc.Interval(p)
	slog.Info("pacing synthesis", "process", p.ID, "interval", interval)

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		if p.Phase != synthesis.PhaseCompletion {
			select {
			case <-ctx.Done():
				return synthesis.Final{}, ctx.Err()
			case <-timer.C:
				timer.Reset(interval)
			}
		}

		out, err := pc.Lab.Advance(p.ID)
		if err != nil {
			return synthesis.Final{}, err
		}
		if out.Final != nil {
			if pc.OnFinal != nil {
				pc.OnFinal(out.Process, *out.Final)
			}
			return *out.Final, nil
		}
		p = out.Process
		if pc.OnPhase != nil {
			pc.OnPhase(p)
		}
	}
}
