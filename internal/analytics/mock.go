package analytics

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/patrickwarner/sponsorstream-match/internal/pacing"
)

// event is one recorded match, held in memory.
type event struct {
	ts           time.Time
	requestID    string
	placement    string
	campaignID   string
	creativeID   string
	score        float64
	pacingWeight float64
	cost         float64
	metadata     map[string]string
}

// Mock is an in-memory analytics store with the same read/write surface as
// Analytics, for tests that should not require a ClickHouse connection.
type Mock struct {
	mu     sync.Mutex
	events []event
}

// NewMock constructs an empty in-memory analytics store.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) RecordMatch(_ context.Context, ts time.Time, requestID, placement, campaignID, creativeID string, score, pacingWeight, cost float64, metadata map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event{
		ts: ts, requestID: requestID, placement: placement, campaignID: campaignID,
		creativeID: creativeID, score: score, pacingWeight: pacingWeight, cost: cost, metadata: metadata,
	})
	return nil
}

func (m *Mock) Stats(_ context.Context, campaignID string, since, until *time.Time) (pacing.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var s pacing.Stats
	var scoreSum, weightSum float64
	for _, e := range m.events {
		if e.campaignID != campaignID {
			continue
		}
		if since != nil && e.ts.Before(*since) {
			continue
		}
		if until != nil && !e.ts.Before(*until) {
			continue
		}
		s.Impressions++
		s.Spend += e.cost
		scoreSum += e.score
		weightSum += e.pacingWeight
	}
	if s.Impressions > 0 {
		s.AvgScore = scoreSum / float64(s.Impressions)
		s.AvgPacingWeight = weightSum / float64(s.Impressions)
	}
	return s, nil
}

func (m *Mock) RecentStats(ctx context.Context, campaignID string, window time.Duration) (pacing.Stats, error) {
	since := time.Now().UTC().Add(-window)
	return m.Stats(ctx, campaignID, &since, nil)
}

func (m *Mock) Summary(_ context.Context, since *time.Time) ([]CampaignAggregate, error) {
	m.mu.Lock()
	byCampaign := make(map[string]*CampaignAggregate)
	scoreSum := make(map[string]float64)
	weightSum := make(map[string]float64)
	var order []string
	for _, e := range m.events {
		if since != nil && e.ts.Before(*since) {
			continue
		}
		agg, ok := byCampaign[e.campaignID]
		if !ok {
			agg = &CampaignAggregate{CampaignID: e.campaignID}
			byCampaign[e.campaignID] = agg
			order = append(order, e.campaignID)
		}
		agg.Stats.Impressions++
		agg.Stats.Spend += e.cost
		scoreSum[e.campaignID] += e.score
		weightSum[e.campaignID] += e.pacingWeight
	}
	m.mu.Unlock()

	out := make([]CampaignAggregate, 0, len(order))
	for _, id := range order {
		agg := *byCampaign[id]
		if agg.Stats.Impressions > 0 {
			agg.Stats.AvgScore = scoreSum[id] / float64(agg.Stats.Impressions)
			agg.Stats.AvgPacingWeight = weightSum[id] / float64(agg.Stats.Impressions)
		}
		out = append(out, agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stats.Spend > out[j].Stats.Spend })
	return out, nil
}

func (m *Mock) CampaignReport(ctx context.Context, campaignID string, since, until *time.Time) (CampaignReport, error) {
	stats, _ := m.Stats(ctx, campaignID, since, until)

	m.mu.Lock()
	counts := make(map[string]int64)
	for _, e := range m.events {
		if e.campaignID != campaignID {
			continue
		}
		if since != nil && e.ts.Before(*since) {
			continue
		}
		if until != nil && !e.ts.Before(*until) {
			continue
		}
		counts[e.creativeID]++
	}
	m.mu.Unlock()

	top := make([]CreativeImpressions, 0, len(counts))
	for id, n := range counts {
		top = append(top, CreativeImpressions{CreativeID: id, Impressions: n})
	}
	sort.Slice(top, func(i, j int) bool { return top[i].Impressions > top[j].Impressions })
	if len(top) > 5 {
		top = top[:5]
	}

	return CampaignReport{CampaignID: campaignID, Stats: stats, TopCreatives: top}, nil
}
