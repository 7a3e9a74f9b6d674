package items

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

var (
	// ErrUnknownItem is returned when a name matches no catalog item.
	ErrUnknownItem = errors.New("unknown item")
	// ErrAmbiguousItem is returned when a misspelled name is equally close to two items.
	ErrAmbiguousItem = errors.New("ambiguous item name")
)

var normalizedNames = func() [NumItems]string {
	var out [NumItems]string
	for i, name := range itemNames {
		out[i] = normalize(name)
	}
	return out
}()

// Resolve maps a display name to an item. Matching ignores case, spacing,
// hyphens and underscores, and tolerates small typos.
func Resolve(name string) (ItemID, error) {
	in := normalize(name)
	if in == "" {
		return 0, fmt.Errorf("resolve %q: %w", name, ErrUnknownItem)
	}
	for i, candidate := range normalizedNames {
		if candidate == in {
			return ItemID(i), nil
		}
	}

	// Fuzzy: short inputs are too easy to collide.
	if len(in) < 4 {
		return 0, fmt.Errorf("resolve %q: %w", name, ErrUnknownItem)
	}
	best, bestDist, tied := -1, 0, false
	for i, candidate := range normalizedNames {
		dist := levenshtein.ComputeDistance(in, candidate)
		if dist > distanceLimit(len(candidate)) {
			continue
		}
		switch {
		case best < 0 || dist < bestDist:
			best, bestDist, tied = i, dist, false
		case dist == bestDist:
			tied = true
		}
	}
	if best < 0 {
		return 0, fmt.Errorf("resolve %q: %w", name, ErrUnknownItem)
	}
	if tied {
		return 0, fmt.Errorf("resolve %q: %w", name, ErrAmbiguousItem)
	}
	return ItemID(best), nil
}

func normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return strings.Join(strings.Fields(name), " ")
}

func distanceLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}
