package matching

import (
	"sort"
	"strings"

	"github.com/patrickwarner/sponsorstream-match/internal/catalog"
)

const (
	boostFloor   = 0.1
	boostCeiling = 2.0
	boostDefault = 1.0
)

// ClampBoostFactor bounds a caller-supplied boost factor to the well-behaved
// range; malformed or out-of-range input is clamped, never rejected.
func ClampBoostFactor(factor float64) float64 {
	if factor < boostFloor {
		return boostFloor
	}
	if factor > boostCeiling {
		return boostCeiling
	}
	return factor
}

// ClampedBoostKeys reports, in sorted order, every boost key whose factor
// fell outside [boostFloor, boostCeiling] and was clamped rather than
// applied as given.
func ClampedBoostKeys(boosts map[string]float64) []string {
	var keys []string
	for kw, factor := range boosts {
		if factor < boostFloor || factor > boostCeiling {
			keys = append(keys, kw)
		}
	}
	sort.Strings(keys)
	return keys
}

// ComputeBoost finds the maximum applicable boost factor for a payload: a
// keyword applies if it appears as a substring of the title or body, or as
// an exact (lower-cased) member of the topics list. Multiple matching
// keywords never compound — the boost is the max of applicable factors, not
// their product.
func ComputeBoost(boosts map[string]float64, p catalog.Payload) float64 {
	if len(boosts) == 0 {
		return boostDefault
	}

	titleLower := strings.ToLower(p.Title)
	bodyLower := strings.ToLower(p.Body)
	topicsLower := make(map[string]bool, len(p.Topics))
	for _, t := range p.Topics {
		topicsLower[strings.ToLower(t)] = true
	}

	best := boostDefault
	matched := false
	for kw, factor := range boosts {
		kwLower := strings.ToLower(kw)
		if kwLower == "" {
			continue
		}
		applies := strings.Contains(titleLower, kwLower) ||
			strings.Contains(bodyLower, kwLower) ||
			topicsLower[kwLower]
		if !applies {
			continue
		}
		clamped := ClampBoostFactor(factor)
		if !matched || clamped > best {
			best = clamped
			matched = true
		}
	}
	return best
}
