package matching

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrickwarner/sponsorstream-match/internal/analytics"
	"github.com/patrickwarner/sponsorstream-match/internal/catalog"
	"github.com/patrickwarner/sponsorstream-match/internal/pacing"
	"github.com/patrickwarner/sponsorstream-match/internal/policy"
	"github.com/patrickwarner/sponsorstream-match/internal/targeting"
	"github.com/patrickwarner/sponsorstream-match/internal/vectorindex"
)

// fakeIndex returns a fixed set of hits regardless of the query, so tests
// can pin exact raw scores instead of depending on cosine similarity.
type fakeIndex struct {
	hits []catalog.Hit
}

func (f *fakeIndex) EnsureCollection(context.Context, int, string, string) (vectorindex.CollectionInfo, error) {
	return vectorindex.CollectionInfo{}, nil
}
func (f *fakeIndex) CollectionInfo(context.Context) (vectorindex.CollectionInfo, error) {
	return vectorindex.CollectionInfo{}, nil
}
func (f *fakeIndex) DeleteCollection(context.Context) error { return nil }
func (f *fakeIndex) Upsert(context.Context, []vectorindex.UpsertItem) error { return nil }
func (f *fakeIndex) Delete(context.Context, string) error { return nil }
func (f *fakeIndex) Get(context.Context, string) (catalog.Payload, bool, error) {
	return catalog.Payload{}, false, nil
}
func (f *fakeIndex) Query(context.Context, []float32, targeting.VectorFilter, int) ([]catalog.Hit, error) {
	return f.hits, nil
}
func (f *fakeIndex) BulkDisable(context.Context, map[string]any) (int, error) { return 0, nil }

type fakeEmbed struct{}

func (fakeEmbed) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func newTestService(hits []catalog.Hit) *Service {
	return NewService(Config{
		Embed:     fakeEmbed{},
		Index:     &fakeIndex{hits: hits},
		Pacing:    pacing.NewEngine(nil, nil),
		Policy:    policy.NewEngine(),
		Analytics: analytics.NewMock(),
	})
}

func ptrF(v float64) *float64 { return &v }

// S1: three hits, none flagged, no budgets -> three candidates in order,
// scores equal raw, constraint_impact empty.
func TestMatch_HappyPath(t *testing.T) {
	svc := newTestService([]catalog.Hit{
		{CreativeID: "a", CampaignID: "camp-a", Score: 0.95, Payload: catalog.Payload{CreativeID: "a", CampaignID: "camp-a"}},
		{CreativeID: "b", CampaignID: "camp-b", Score: 0.80, Payload: catalog.Payload{CreativeID: "b", CampaignID: "camp-b"}},
		{CreativeID: "c", CampaignID: "camp-c", Score: 0.60, Payload: catalog.Payload{CreativeID: "c", CampaignID: "camp-c"}},
	})

	resp, _, err := svc.Match(context.Background(), Request{ContextText: "finance news roundup", TopK: 10})
	require.NoError(t, err)
	require.Len(t, resp.Candidates, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{resp.Candidates[0].CreativeID, resp.Candidates[1].CreativeID, resp.Candidates[2].CreativeID})
	assert.InDelta(t, 0.95, resp.Candidates[0].Score, 0.0001)
	assert.InDelta(t, 0.80, resp.Candidates[1].Score, 0.0001)
	assert.InDelta(t, 0.60, resp.Candidates[2].Score, 0.0001)
	assert.Empty(t, resp.ConstraintImpact)
}

// Unadvertised placement values are accepted, not rejected, but surface a
// warning so callers can catch a typo'd placement string.
func TestMatch_UnknownPlacementWarns(t *testing.T) {
	svc := newTestService([]catalog.Hit{
		{CreativeID: "a", CampaignID: "camp-a", Score: 0.9, Payload: catalog.Payload{CreativeID: "a", CampaignID: "camp-a"}},
	})

	resp, _, err := svc.Match(context.Background(), Request{
		ContextText: "finance news roundup",
		TopK:        10,
		Placement:   Placement{Placement: "footer-carousel"},
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Warnings, "placement not in advertised set")
}

// The difficulty estimate rides along on every response, scored purely
// from the submitted request.
func TestMatch_DifficultyIsPopulated(t *testing.T) {
	svc := newTestService([]catalog.Hit{
		{CreativeID: "a", CampaignID: "camp-a", Score: 0.9, Payload: catalog.Payload{CreativeID: "a", CampaignID: "camp-a"}},
	})

	resp, _, err := svc.Match(context.Background(), Request{ContextText: "finance news roundup", TopK: 10})
	require.NoError(t, err)
	require.NotNil(t, resp.Difficulty)
	assert.Equal(t, EstimateDifficulty(Request{ContextText: "finance news roundup", TopK: 10}).Label, resp.Difficulty.Label)
}

// A boost factor outside [0.1, 2.0] is clamped, not rejected, but the
// clamp is surfaced as a response warning naming the offending key.
func TestMatch_OutOfRangeBoostWarns(t *testing.T) {
	svc := newTestService([]catalog.Hit{
		{CreativeID: "py", CampaignID: "camp", Score: 0.5, Payload: catalog.Payload{CreativeID: "py", CampaignID: "camp", Topics: []string{"python"}}},
	})

	resp, _, err := svc.Match(context.Background(), Request{
		ContextText: "learning to code",
		TopK:        10,
		Boost:       map[string]float64{"python": 5.0},
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Warnings, `boost factor for "python" clamped to [0.1, 2.0]`)
}

// S2: age-restricted hit denied under default constraints.
func TestMatch_AgeGate(t *testing.T) {
	svc := newTestService([]catalog.Hit{
		{CreativeID: "A", CampaignID: "camp", Score: 0.9, Payload: catalog.Payload{CreativeID: "A", CampaignID: "camp"}},
		{CreativeID: "B", CampaignID: "camp", Score: 0.8, Payload: catalog.Payload{CreativeID: "B", CampaignID: "camp", AgeRestricted: true}},
	})

	resp, trace, err := svc.Match(context.Background(), Request{ContextText: "general audience content", TopK: 10})
	require.NoError(t, err)
	require.Len(t, resp.Candidates, 1)
	assert.Equal(t, "A", resp.Candidates[0].CreativeID)
	assert.Equal(t, map[string]int{"age_restricted": 1}, resp.ConstraintImpact)

	found := false
	for _, d := range trace.Decisions {
		if d.CreativeID == "B" {
			assert.Equal(t, "denied: age_restricted", d.Reason)
			found = true
		}
	}
	assert.True(t, found)
}

// S6: boost application raises the matching creative's score.
func TestMatch_BoostApplication(t *testing.T) {
	svc := newTestService([]catalog.Hit{
		{CreativeID: "py", CampaignID: "camp", Score: 0.5, Payload: catalog.Payload{CreativeID: "py", CampaignID: "camp", Topics: []string{"python"}}},
	})

	resp, _, err := svc.Match(context.Background(), Request{
		ContextText: "a long enough context about programming languages",
		TopK:        10,
		Boost:       map[string]float64{"python": 1.5},
	})
	require.NoError(t, err)
	require.Len(t, resp.Candidates, 1)
	assert.Equal(t, 1.5, resp.Candidates[0].BoostApplied)
	assert.InDelta(t, 0.75, resp.Candidates[0].Score, 0.0001)
}

// S7: score clamp — raw 0.9, pacing 1.0, boost 2.0 must clamp to 1.0, not 1.8.
func TestMatch_ScoreClamp(t *testing.T) {
	svc := newTestService([]catalog.Hit{
		{CreativeID: "x", CampaignID: "camp", Score: 0.9, Payload: catalog.Payload{CreativeID: "x", CampaignID: "camp", Title: "buy now"}},
	})

	resp, _, err := svc.Match(context.Background(), Request{
		ContextText: "a sufficiently long piece of context text for matching",
		TopK:        10,
		Boost:       map[string]float64{"buy": 2.0},
	})
	require.NoError(t, err)
	require.Len(t, resp.Candidates, 1)
	assert.Equal(t, 1.0, resp.Candidates[0].Score)
}

// S8: explain resolves a just-returned match_id and reports not-found for
// a random identifier, without throwing.
func TestMatch_ExplainFoundAndNotFound(t *testing.T) {
	svc := newTestService([]catalog.Hit{
		{CreativeID: "a", CampaignID: "camp", Score: 0.7, Payload: catalog.Payload{CreativeID: "a", CampaignID: "camp"}},
	})

	resp, _, err := svc.Match(context.Background(), Request{ContextText: "enough context text here", TopK: 10})
	require.NoError(t, err)
	require.Len(t, resp.Candidates, 1)

	trace, ok := svc.Explain(resp.Candidates[0].MatchID)
	require.True(t, ok)
	assert.Equal(t, resp.RequestID, trace.RequestID)

	_, ok = svc.Explain(uuid.NewString())
	assert.False(t, ok)
}

// Invariant 2: match_id == uuid5(request_id, creative_id).
func TestMatch_DeterministicMatchID(t *testing.T) {
	svc := newTestService([]catalog.Hit{
		{CreativeID: "a", CampaignID: "camp", Score: 0.7, Payload: catalog.Payload{CreativeID: "a", CampaignID: "camp"}},
	})

	resp, _, err := svc.Match(context.Background(), Request{ContextText: "enough context text here", TopK: 10})
	require.NoError(t, err)
	require.Len(t, resp.Candidates, 1)

	requestUUID := uuid.MustParse(resp.RequestID)
	expected := uuid.NewSHA1(requestUUID, []byte("a")).String()
	assert.Equal(t, expected, resp.Candidates[0].MatchID)
}

// Invariant 5: a policy-denied creative records no pacing reason and no
// analytics event.
func TestMatch_NoPacingOnRejectedItems(t *testing.T) {
	svc := newTestService([]catalog.Hit{
		{CreativeID: "blocked", CampaignID: "camp", Score: 0.7, Payload: catalog.Payload{CreativeID: "blocked", CampaignID: "camp", Enabled: ptrBoolMatch(false)}},
	})

	resp, trace, err := svc.Match(context.Background(), Request{ContextText: "enough context text here", TopK: 10})
	require.NoError(t, err)
	assert.Empty(t, resp.Candidates)
	require.Len(t, trace.Decisions, 1)
	assert.Equal(t, "denied: disabled", trace.Decisions[0].Reason)
	assert.Zero(t, trace.Decisions[0].PacingWeight)
}

func ptrBoolMatch(b bool) *bool { return &b }

var fixedMatchTime = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedMatchTime }

// S5-equivalent: daily budget exhausted denies with the pacing bucket
// incremented in constraint_impact.
func TestMatch_DailyBudgetExhaustedIncrementsPacingBucket(t *testing.T) {
	mock := analytics.NewMock()
	ctx := context.Background()
	require.NoError(t, mock.RecordMatch(ctx, fixedMatchTime, "r0", "inline", "camp", "other", 0.5, 1.0, 1.0, nil))

	svc := NewService(Config{
		Embed:     fakeEmbed{},
		Index:     &fakeIndex{hits: []catalog.Hit{{CreativeID: "c1", CampaignID: "camp", Score: 0.7, Payload: catalog.Payload{CreativeID: "c1", CampaignID: "camp", DailyBudget: ptrF(0.5)}}}},
		Pacing:    pacing.NewEngine(mock, nil).WithClock(fixedNow),
		Policy:    policy.NewEngine(),
		Analytics: mock,
	}).WithClock(fixedNow)

	resp, _, err := svc.Match(ctx, Request{ContextText: "enough context text here", TopK: 10})
	require.NoError(t, err)
	assert.Empty(t, resp.Candidates)
	assert.Equal(t, 1, resp.ConstraintImpact["pacing"])
}
