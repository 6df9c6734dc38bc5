// Package policy enforces the non-bypassable eligibility rules a retrieved
// creative must pass before it can be admitted to a response: enabled,
// age/sensitive flags, blocked-keyword intersection with the request
// context, and the schedule window. Decide is the single source of truth;
// Allowed and Apply are thin views over it so the rule order can never drift
// between the two surfaces.
package policy

import (
	"strings"
	"time"

	"github.com/patrickwarner/sponsorstream-match/internal/catalog"
)

// Reason tags, in the fixed evaluation order. The first violated rule wins.
const (
	ReasonDisabled         = "disabled"
	ReasonAgeRestricted    = "age_restricted"
	ReasonSensitive        = "sensitive"
	ReasonBlockedKeywords  = "blocked_keywords"
	ReasonScheduleInactive = "schedule_inactive"
	ReasonAllowed          = "allowed"
)

// Constraints carries just the policy-relevant fields of a match request's
// constraints (the age/sensitive opt-ins); the rest of the constraints
// shape targeting, not policy.
type Constraints struct {
	AgeRestrictedOK bool
	SensitiveOK     bool
}

// Engine evaluates eligibility. It is stateless; now is sampled fresh for
// each Decide call via the injectable clock so tests can fix the wall
// clock without a global.
type Engine struct {
	nowFn func() time.Time
}

func NewEngine() *Engine {
	return &Engine{nowFn: time.Now}
}

// WithClock overrides the engine's time source, for tests.
func (e *Engine) WithClock(fn func() time.Time) *Engine {
	e.nowFn = fn
	return e
}

// Decide evaluates the fixed rule order against a hit's payload and
// returns the reason tag. It never panics on a malformed payload: a
// missing field is treated as its default (enabled=true, flags=false,
// lists empty, endpoints unset) because the index is the authority and
// this engine must be robust to whatever it returns.
func (e *Engine) Decide(p catalog.Payload, c Constraints, contextText string) string {
	if !p.IsEnabled() {
		return ReasonDisabled
	}
	if p.AgeRestricted && !c.AgeRestrictedOK {
		return ReasonAgeRestricted
	}
	if p.Sensitive && !c.SensitiveOK {
		return ReasonSensitive
	}
	if blockedKeywordsIntersect(p.BlockedKeywords, contextText) {
		return ReasonBlockedKeywords
	}
	if !scheduleActive(p.StartAt, p.EndAt, e.nowFn()) {
		return ReasonScheduleInactive
	}
	return ReasonAllowed
}

// Allowed reports whether a hit's payload passes every rule.
func (e *Engine) Allowed(p catalog.Payload, c Constraints, contextText string) bool {
	return e.Decide(p, c, contextText) == ReasonAllowed
}

// Apply partitions hits into eligible and rejected, preserving order within
// each partition.
func (e *Engine) Apply(hits []catalog.Hit, c Constraints, contextText string) (eligible, rejected []catalog.Hit) {
	for _, h := range hits {
		if e.Allowed(h.Payload, c, contextText) {
			eligible = append(eligible, h)
		} else {
			rejected = append(rejected, h)
		}
	}
	return eligible, rejected
}

// blockedKeywordsIntersect tokenizes the original context text by
// whitespace and lower-cases it; a creative is denied if any of its
// lower-cased blocked keywords is an exact token match or occurs as a
// substring of any token. Substring match catches inflections; exact
// match is cheap and covers the common case.
func blockedKeywordsIntersect(blocked []string, contextText string) bool {
	if len(blocked) == 0 {
		return false
	}
	tokens := tokenize(contextText)
	if len(tokens) == 0 {
		return false
	}
	for _, kw := range blocked {
		kwLower := strings.ToLower(kw)
		if kwLower == "" {
			continue
		}
		if tokens[kwLower] {
			return true
		}
		for t := range tokens {
			if strings.Contains(t, kwLower) {
				return true
			}
		}
	}
	return false
}

func tokenize(text string) map[string]bool {
	fields := strings.Fields(text)
	out := make(map[string]bool, len(fields))
	for _, f := range fields {
		out[strings.ToLower(f)] = true
	}
	return out
}

// scheduleActive reports whether now falls within [start, end], treating a
// nil endpoint as unbounded in that direction. Callers are expected to have
// already normalized start/end to UTC; now is the service's current UTC
// wall clock sampled once per evaluation.
func scheduleActive(start, end *time.Time, now time.Time) bool {
	now = now.UTC()
	if start != nil && now.Before(start.UTC()) {
		return false
	}
	if end != nil && now.After(end.UTC()) {
		return false
	}
	return true
}
