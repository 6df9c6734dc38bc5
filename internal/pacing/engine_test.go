package pacing

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrickwarner/sponsorstream-match/internal/catalog"
	"github.com/patrickwarner/sponsorstream-match/internal/db"
)

func setupTestRedis(t *testing.T) *db.RedisStore {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return &db.RedisStore{
		Client: redis.NewClient(&redis.Options{Addr: s.Addr()}),
		Ctx:    context.Background(),
	}
}

type fakeStats struct {
	today, total, recent Stats
	err                   error
}

func (f *fakeStats) Stats(_ context.Context, _ string, since, _ *time.Time) (Stats, error) {
	if f.err != nil {
		return Stats{}, f.err
	}
	if since != nil {
		return f.today, nil
	}
	return f.total, nil
}

func (f *fakeStats) RecentStats(_ context.Context, _ string, _ time.Duration) (Stats, error) {
	if f.err != nil {
		return Stats{}, f.err
	}
	return f.recent, nil
}

func ptrF(v float64) *float64 { return &v }

func TestEvaluate_NoCampaignID(t *testing.T) {
	e := NewEngine(&fakeStats{}, nil)
	d, err := e.Evaluate(context.Background(), "", catalog.Payload{})
	require.NoError(t, err)
	assert.Equal(t, Decision{Allow: true, Weight: 1.0, Reason: ReasonNoAnalytics}, d)
}

func TestEvaluate_NilAnalytics(t *testing.T) {
	e := NewEngine(nil, nil)
	d, err := e.Evaluate(context.Background(), "camp-1", catalog.Payload{})
	require.NoError(t, err)
	assert.Equal(t, ReasonNoAnalytics, d.Reason)
}

// S5: daily budget already exhausted denies regardless of total budget.
func TestEvaluate_DailyBudgetExhausted(t *testing.T) {
	fixed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	stats := &fakeStats{today: Stats{Spend: 50}, total: Stats{Spend: 50}}
	e := NewEngine(stats, nil).WithClock(func() time.Time { return fixed })

	d, err := e.Evaluate(context.Background(), "camp-1", catalog.Payload{DailyBudget: ptrF(50)})
	require.NoError(t, err)
	assert.Equal(t, Decision{Allow: false, Weight: 0.0, Reason: ReasonDailyBudgetExhausted}, d)
}

func TestEvaluate_TotalBudgetExhausted(t *testing.T) {
	stats := &fakeStats{today: Stats{Spend: 0}, total: Stats{Spend: 1000}}
	e := NewEngine(stats, nil)

	d, err := e.Evaluate(context.Background(), "camp-1", catalog.Payload{TotalBudget: ptrF(1000)})
	require.NoError(t, err)
	assert.Equal(t, ReasonTotalBudgetExhausted, d.Reason)
	assert.False(t, d.Allow)
}

func TestEvaluate_WithinBudgetFullWeight(t *testing.T) {
	fixed := time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC)
	stats := &fakeStats{today: Stats{Spend: 0}, total: Stats{Spend: 0}}
	e := NewEngine(stats, nil).WithClock(func() time.Time { return fixed })

	d, err := e.Evaluate(context.Background(), "camp-1", catalog.Payload{DailyBudget: ptrF(100)})
	require.NoError(t, err)
	assert.Equal(t, Decision{Allow: true, Weight: 1.0, Reason: ReasonWithinBudget}, d)
}

// A quarter of the way through the day, spend is double the expected pace:
// weight is throttled to 1/over_ratio (over_ratio=2 -> weight=0.5) for even
// pacing.
func TestEvaluate_OverPaceThrottlesWeight(t *testing.T) {
	dayStart := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fixed := dayStart.Add(6 * time.Hour)
	stats := &fakeStats{today: Stats{Spend: 100}, total: Stats{Spend: 100}}
	e := NewEngine(stats, nil).WithClock(func() time.Time { return fixed })

	d, err := e.Evaluate(context.Background(), "camp-1", catalog.Payload{
		DailyBudget: ptrF(200),
		PacingMode:  catalog.PacingEven,
	})
	require.NoError(t, err)
	assert.True(t, d.Allow)
	assert.InDelta(t, 0.5, d.Weight, 0.01)
	assert.Equal(t, ReasonPaced, d.Reason)
}

// Accelerated pacing ignores over-pace and keeps weight at 1.0.
func TestEvaluate_AcceleratedIgnoresOverPace(t *testing.T) {
	dayStart := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fixed := dayStart.Add(6 * time.Hour)
	stats := &fakeStats{today: Stats{Spend: 100}, total: Stats{Spend: 100}}
	e := NewEngine(stats, nil).WithClock(func() time.Time { return fixed })

	d, err := e.Evaluate(context.Background(), "camp-1", catalog.Payload{
		DailyBudget: ptrF(200),
		PacingMode:  catalog.PacingAccelerated,
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, d.Weight)
	assert.Equal(t, ReasonWithinBudget, d.Reason)
}

// Weight floors at 0.1 no matter how extreme the over-pace ratio.
func TestEvaluate_WeightFloor(t *testing.T) {
	dayStart := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fixed := dayStart.Add(1 * time.Minute)
	stats := &fakeStats{today: Stats{Spend: 100}, total: Stats{Spend: 100}}
	e := NewEngine(stats, nil).WithClock(func() time.Time { return fixed })

	d, err := e.Evaluate(context.Background(), "camp-1", catalog.Payload{
		DailyBudget: ptrF(200),
		PacingMode:  catalog.PacingEven,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.1, d.Weight)
}

// Adaptive mode multiplies the already-computed weight by 0.8 when recent
// engagement is below target.
func TestEvaluate_AdaptiveBelowTargetMultiplies(t *testing.T) {
	dayStart := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fixed := dayStart.Add(6 * time.Hour)
	stats := &fakeStats{
		today:  Stats{Spend: 100},
		total:  Stats{Spend: 100},
		recent: Stats{AvgScore: 0.01},
	}
	e := NewEngine(stats, nil).WithClock(func() time.Time { return fixed })

	d, err := e.Evaluate(context.Background(), "camp-1", catalog.Payload{
		DailyBudget:          ptrF(200),
		PacingMode:           catalog.PacingAdaptive,
		TargetEngagementRate: ptrF(0.05),
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.4, d.Weight, 0.01)
	assert.Equal(t, ReasonPaced, d.Reason)
}

func TestEvaluate_AdaptiveAtOrAboveTargetDoesNotMultiply(t *testing.T) {
	dayStart := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fixed := dayStart.Add(1 * time.Minute)
	stats := &fakeStats{
		today:  Stats{Spend: 0},
		total:  Stats{Spend: 0},
		recent: Stats{AvgScore: 0.1},
	}
	e := NewEngine(stats, nil).WithClock(func() time.Time { return fixed })

	d, err := e.Evaluate(context.Background(), "camp-1", catalog.Payload{
		DailyBudget:          ptrF(200),
		PacingMode:           catalog.PacingAdaptive,
		TargetEngagementRate: ptrF(0.05),
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, d.Weight)
}

// A burst already recorded in Redis this hour, but not yet visible in
// ClickHouse's (async-inserted) today stats, still throttles weight.
func TestEvaluate_RedisFastPathCatchesUnflushedBurst(t *testing.T) {
	dayStart := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fixed := dayStart.Add(1 * time.Hour)
	stats := &fakeStats{today: Stats{Spend: 0}, total: Stats{Spend: 0}}
	redisStore := setupTestRedis(t)
	e := NewEngine(stats, redisStore).WithClock(func() time.Time { return fixed })

	// 50 impressions already admitted this hour at $10 CPM implies $0.50
	// spent against an hourly share of $200/24 ≈ $8.33 — not yet over.
	// Push it to 2000 impressions to force a clear burst.
	for i := 0; i < 2000; i++ {
		require.NoError(t, redisStore.IncrementHourlyAdmitted("camp-1"))
	}

	d, err := e.Evaluate(context.Background(), "camp-1", catalog.Payload{
		DailyBudget: ptrF(200),
		CPM:         10,
	})
	require.NoError(t, err)
	assert.True(t, d.Allow)
	assert.Less(t, d.Weight, 1.0)
	assert.Equal(t, ReasonPaced, d.Reason)
}

func TestEvaluate_AnalyticsErrorPropagates(t *testing.T) {
	stats := &fakeStats{err: assert.AnError}
	e := NewEngine(stats, nil)

	_, err := e.Evaluate(context.Background(), "camp-1", catalog.Payload{DailyBudget: ptrF(100)})
	assert.Error(t, err)
}
