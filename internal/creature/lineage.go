package creature

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// MaxDepth is the synthesis depth at which a creature can no longer be
// used as a synthesis input.
const MaxDepth = 3

var (
	// ErrNotFound is returned when a creature id is not in the roster.
	ErrNotFound = errors.New("creature not found")
	// ErrBrokenLineage is returned when an ancestor is missing or the chain loops.
	ErrBrokenLineage = errors.New("broken lineage")
)

// Roster is a concurrency-safe set of creature records keyed by id.
type Roster struct {
	mu   sync.RWMutex
	byID map[string]Creature
}

// NewRoster creates a roster holding the given creatures.
func NewRoster(cs ...Creature) *Roster {
	r := &Roster{byID: make(map[string]Creature, len(cs))}
	for _, c := range cs {
		r.byID[c.ID] = c.Clone()
	}
	return r
}

// Put inserts or replaces a creature.
func (r *Roster) Put(c Creature) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[c.ID] = c.Clone()
}

// Swap replaces the creature with c only while the stored record is still at
// rung. It reports whether the replacement happened.
func (r *Roster) Swap(id string, rung int, c Creature) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[id]
	if !ok || cur.Rung != rung || c.Rung < cur.Rung {
		return false
	}
	r.byID[id] = c.Clone()
	return true
}

// Get returns a copy of the creature with the given id.
func (r *Roster) Get(id string) (Creature, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return Creature{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return c.Clone(), nil
}

// Len returns the number of creatures held.
func (r *Roster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// All returns copies of every creature, ordered by name then id.
func (r *Roster) All() []Creature {
	r.mu.RLock()
	out := make([]Creature, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, c.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ChainDepth walks the lineage of id and returns the longest synthesis
// ancestry chain. Wild creatures have depth 0.
func (r *Roster) ChainDepth(id string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.chainDepth(id, make(map[string]int), make(map[string]bool))
}

func (r *Roster) chainDepth(id string, memo map[string]int, visiting map[string]bool) (int, error) {
	if d, ok := memo[id]; ok {
		return d, nil
	}
	c, ok := r.byID[id]
	if !ok {
		return 0, fmt.Errorf("ancestor %s: %w", id, ErrBrokenLineage)
	}
	if c.Wild() {
		memo[id] = 0
		return 0, nil
	}
	if visiting[id] {
		return 0, fmt.Errorf("cycle at %s: %w", id, ErrBrokenLineage)
	}
	visiting[id] = true
	defer delete(visiting, id)

	deepest := 0
	for _, parent := range c.Parents {
		d, err := r.chainDepth(parent, memo, visiting)
		if err != nil {
			return 0, err
		}
		deepest = max(deepest, d)
	}
	memo[id] = deepest + 1
	return deepest + 1, nil
}
