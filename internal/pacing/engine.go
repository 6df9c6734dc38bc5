// Package pacing throttles a campaign's delivery against its budget
// schedule. Given a creative's budget parameters and an analytics reader's
// windowed stats, it returns an admit/deny decision plus a multiplicative
// score weight. Its only side effect is the optional Redis hourly-admitted
// counter, incremented on each admission.
package pacing

import (
	"context"
	"time"

	"github.com/patrickwarner/sponsorstream-match/internal/apperr"
	"github.com/patrickwarner/sponsorstream-match/internal/catalog"
	"github.com/patrickwarner/sponsorstream-match/internal/db"
)

const (
	ReasonNoAnalytics           = "no_analytics"
	ReasonTotalBudgetExhausted  = "total_budget_exhausted"
	ReasonDailyBudgetExhausted  = "daily_budget_exhausted"
	ReasonPaced                 = "paced"
	ReasonWithinBudget          = "within_budget"
)

// Stats is the windowed aggregate shape the pacing engine reads.
type Stats struct {
	Impressions     int64
	Spend           float64
	AvgScore        float64
	AvgPacingWeight float64
}

// StatsReader is the subset of the analytics store the pacing engine
// depends on. Kept as a narrow interface so the engine can be tested
// without a ClickHouse connection.
type StatsReader interface {
	Stats(ctx context.Context, campaignID string, since, until *time.Time) (Stats, error)
	RecentStats(ctx context.Context, campaignID string, window time.Duration) (Stats, error)
}

// Decision is the admit/deny verdict plus the weight to apply to a
// candidate's score.
type Decision struct {
	Allow  bool
	Weight float64
	Reason string
}

// Engine evaluates pacing decisions. A nil analytics reader, or a
// creative payload without a campaign_id, always admits at full weight —
// the spec treats "no analytics" as the safe default, not a failure.
type Engine struct {
	analytics StatsReader
	redis     *db.RedisStore
	nowFn     func() time.Time
	weightMin float64
	weightMax float64
}

// NewEngine constructs a pacing engine. redis may be nil; when present it
// is consulted after the ClickHouse-backed budget checks as a same-hour
// fast path, since ClickHouse's async_insert means a just-admitted
// impression is not yet visible in the aggregate those checks read.
func NewEngine(analytics StatsReader, redis *db.RedisStore) *Engine {
	return &Engine{analytics: analytics, redis: redis, nowFn: time.Now, weightMin: 0.1, weightMax: 1.0}
}

// WithClock overrides the engine's time source, for tests.
func (e *Engine) WithClock(fn func() time.Time) *Engine {
	e.nowFn = fn
	return e
}

// WithWeightBounds overrides the configured pacing weight floor and
// ceiling. Values outside (0, 1] are ignored, leaving the default.
func (e *Engine) WithWeightBounds(floor, ceil float64) *Engine {
	if floor > 0 && floor <= 1.0 {
		e.weightMin = floor
	}
	if ceil > 0 && ceil <= 1.0 {
		e.weightMax = ceil
	}
	return e
}

// Evaluate decides whether a creative may be admitted and at what weight.
// An error here is a dependency failure (the analytics transport), never a
// business-logic outcome — business outcomes are all expressed through
// Decision.
func (e *Engine) Evaluate(ctx context.Context, campaignID string, p catalog.Payload) (Decision, error) {
	if campaignID == "" || e.analytics == nil {
		return Decision{Allow: true, Weight: 1.0, Reason: ReasonNoAnalytics}, nil
	}

	now := e.nowFn().UTC()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	todayStats, err := e.analytics.Stats(ctx, campaignID, &todayStart, nil)
	if err != nil {
		return Decision{}, apperr.Wrap(apperr.UnavailableDependency, "read today's campaign stats", err)
	}
	totalStats, err := e.analytics.Stats(ctx, campaignID, nil, nil)
	if err != nil {
		return Decision{}, apperr.Wrap(apperr.UnavailableDependency, "read all-time campaign stats", err)
	}

	if p.TotalBudget != nil && totalStats.Spend >= *p.TotalBudget {
		return Decision{Allow: false, Weight: 0.0, Reason: ReasonTotalBudgetExhausted}, nil
	}
	if p.DailyBudget != nil && todayStats.Spend >= *p.DailyBudget {
		return Decision{Allow: false, Weight: 0.0, Reason: ReasonDailyBudgetExhausted}, nil
	}

	weight := 1.0
	if p.DailyBudget != nil && *p.DailyBudget > 0 {
		elapsedFraction := now.Sub(todayStart).Seconds() / 86400.0
		expected := *p.DailyBudget * elapsedFraction
		if expected > 0 && todayStats.Spend > expected {
			over := todayStats.Spend / expected
			if p.PacingMode == catalog.PacingAccelerated {
				weight = 1.0
			} else {
				weight = maxf(e.weightMin, 1.0/over)
			}
		}
	}

	if p.PacingMode == catalog.PacingAdaptive && p.TargetEngagementRate != nil {
		recent, err := e.analytics.RecentStats(ctx, campaignID, time.Hour)
		if err != nil {
			return Decision{}, apperr.Wrap(apperr.UnavailableDependency, "read recent campaign stats", err)
		}
		if recent.AvgScore < *p.TargetEngagementRate {
			weight = maxf(e.weightMin, weight*0.8)
		}
	}

	// Fast path: Redis's hourly-admitted counter is incremented synchronously
	// below, so it reflects admissions within this same hour that ClickHouse's
	// async_insert pipeline may not have flushed yet. A burst that would
	// otherwise slip past the daily-budget check above is caught here.
	if e.redis != nil && p.DailyBudget != nil && *p.DailyBudget > 0 && p.CPM > 0 {
		hourlyBudget := *p.DailyBudget / 24.0
		impliedSpend := float64(e.redis.HourlyAdmitted(campaignID)) * p.CPM / 1000.0
		if impliedSpend > hourlyBudget {
			weight = minf(weight, maxf(e.weightMin, hourlyBudget/impliedSpend))
		}
	}

	if e.redis != nil {
		_ = e.redis.IncrementHourlyAdmitted(campaignID)
	}

	weight = minf(e.weightMax, weight)

	reason := ReasonWithinBudget
	if weight < 1.0 {
		reason = ReasonPaced
	}
	return Decision{Allow: true, Weight: weight, Reason: reason}, nil
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
