package synthesis

import (
	"fmt"
	"strings"

	"github.com/talgya/synthesis-lab/internal/items"
)

// Code is a machine-readable lab error code.
type Code string

const (
	CodeLabLocked                   Code = "LAB_LOCKED"
	CodeAlreadyInProgress           Code = "ALREADY_IN_PROGRESS"
	CodeIncompatibleInputs          Code = "INCOMPATIBLE_INPUTS"
	CodeInsufficientResources       Code = "INSUFFICIENT_RESOURCES"
	CodeNoProcessInProgress         Code = "NO_PROCESS_IN_PROGRESS"
	CodeCannotCancelPastPreparation Code = "CANNOT_CANCEL_PAST_PREPARATION"
)

// Error is a rejected lab operation. Cause, when set, carries the detail
// (an *Incompatibility or a *Shortfall).
type Error struct {
	Code  Code
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Cause)
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error with the same code, so errors.Is(err, ErrLabLocked) works
// regardless of cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrLabLocked                   = &Error{Code: CodeLabLocked}
	ErrAlreadyInProgress           = &Error{Code: CodeAlreadyInProgress}
	ErrIncompatibleInputs          = &Error{Code: CodeIncompatibleInputs}
	ErrInsufficientResources       = &Error{Code: CodeInsufficientResources}
	ErrNoProcessInProgress         = &Error{Code: CodeNoProcessInProgress}
	ErrCannotCancelPastPreparation = &Error{Code: CodeCannotCancelPastPreparation}
)

// Reason names why two creatures cannot be combined.
type Reason string

const (
	ReasonSameSpecies        Reason = "SameSpecies"
	ReasonLevelTooLow        Reason = "LevelTooLow"
	ReasonIncompatibleFamily Reason = "IncompatibleFamily"
	ReasonChainTooDeep       Reason = "ChainTooDeep"
)

// Incompatibility is a Compatibility Resolver rejection.
type Incompatibility struct {
	Reason        Reason
	RequiredLevel int // Set for LevelTooLow
}

func (e *Incompatibility) Error() string {
	if e.Reason == ReasonLevelTooLow {
		return fmt.Sprintf("%s(%d)", e.Reason, e.RequiredLevel)
	}
	return string(e.Reason)
}

// Is matches any *Incompatibility with the same reason.
func (e *Incompatibility) Is(target error) bool {
	t, ok := target.(*Incompatibility)
	return ok && t.Reason == e.Reason
}

var (
	ErrSameSpecies        = &Incompatibility{Reason: ReasonSameSpecies}
	ErrLevelTooLow        = &Incompatibility{Reason: ReasonLevelTooLow}
	ErrIncompatibleFamily = &Incompatibility{Reason: ReasonIncompatibleFamily}
	ErrChainTooDeep       = &Incompatibility{Reason: ReasonChainTooDeep}
)

// Shortfall lists how much of each resource a start request is missing.
type Shortfall struct {
	Gold      int
	Resources Resources
	Item      *items.ItemID // Required recipe consumable not held
}

// Empty reports whether nothing is missing.
func (s *Shortfall) Empty() bool {
	return s.Gold == 0 && s.Resources == (Resources{}) && s.Item == nil
}

func (s *Shortfall) Error() string {
	var parts []string
	add := func(name string, n int) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%s short by %d", name, n))
		}
	}
	add("gold", s.Gold)
	add("energy", s.Resources.Energy)
	add("catalyst stones", s.Resources.CatalystStones)
	add("stabilizers", s.Resources.Stabilizers)
	add("enhancement crystals", s.Resources.EnhancementCrystals)
	if s.Item != nil {
		parts = append(parts, "missing "+s.Item.String())
	}
	return "insufficient resources: " + strings.Join(parts, ", ")
}
