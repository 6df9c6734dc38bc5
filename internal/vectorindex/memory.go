package vectorindex

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/patrickwarner/sponsorstream-match/internal/apperr"
	"github.com/patrickwarner/sponsorstream-match/internal/catalog"
	"github.com/patrickwarner/sponsorstream-match/internal/targeting"
)

// pointNamespace roots the uuid5 point-id derivation; stable across
// process restarts so the same creative_id always maps to the same point.
var pointNamespace = uuid.MustParse("6f6e0d2e-3f63-4f4b-9d1a-6c0c9a2e2b10")

func pointID(creativeID string) uuid.UUID {
	return uuid.NewSHA1(pointNamespace, []byte(creativeID))
}

type point struct {
	id      uuid.UUID
	vector  []float32
	payload catalog.Payload
}

// Memory is an in-memory Index adapter, safe for concurrent use. It keeps
// one implicit collection; EnsureCollection/DeleteCollection toggle its
// metadata rather than managing multiple named collections, matching the
// single-catalog shape the service actually needs.
type Memory struct {
	mu sync.RWMutex

	exists        bool
	name          string
	dimension     int
	modelID       string
	schemaVersion string

	points map[string]*point // keyed by creative_id
}

// NewMemory constructs an empty in-memory index.
func NewMemory(name string) *Memory {
	return &Memory{name: name, points: make(map[string]*point)}
}

func (m *Memory) EnsureCollection(_ context.Context, dimension int, modelID, schemaVersion string) (CollectionInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	created := !m.exists
	if created {
		m.exists = true
		m.dimension = dimension
		m.modelID = modelID
		m.schemaVersion = schemaVersion
	}
	return m.infoLocked(created), nil
}

func (m *Memory) CollectionInfo(_ context.Context) (CollectionInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.exists {
		return CollectionInfo{}, apperr.New(apperr.NotFound, "collection does not exist")
	}
	return m.infoLocked(false), nil
}

func (m *Memory) infoLocked(created bool) CollectionInfo {
	status := "green"
	if !m.exists {
		status = "absent"
	}
	return CollectionInfo{
		Name:                m.name,
		Created:             created,
		Dimension:           m.dimension,
		ModelID:             m.modelID,
		SchemaVersion:       m.schemaVersion,
		PointsCount:         len(m.points),
		IndexedVectorsCount: len(m.points),
		Status:              status,
	}
}

func (m *Memory) DeleteCollection(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exists = false
	m.points = make(map[string]*point)
	return nil
}

func (m *Memory) Upsert(_ context.Context, items []UpsertItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range items {
		if item.CreativeID == "" {
			return apperr.New(apperr.InvalidInput, "upsert item missing creative_id")
		}
		m.points[item.CreativeID] = &point{
			id:      pointID(item.CreativeID),
			vector:  item.Vector,
			payload: item.Payload,
		}
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, creativeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.points, creativeID)
	return nil
}

func (m *Memory) Get(_ context.Context, creativeID string) (catalog.Payload, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.points[creativeID]
	if !ok {
		return catalog.Payload{}, false, nil
	}
	return p.payload, true, nil
}

func (m *Memory) Query(_ context.Context, vector []float32, filter targeting.VectorFilter, topK int) ([]catalog.Hit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		hit   catalog.Hit
		score float64
	}
	var candidates []scored
	for _, p := range m.points {
		if !p.payload.IsEnabled() {
			continue
		}
		if !matchesFilter(filter, p.payload) {
			continue
		}
		score := cosineSimilarity(vector, p.vector)
		candidates = append(candidates, scored{
			hit: catalog.Hit{
				CreativeID:   p.payload.CreativeID,
				CampaignID:   p.payload.CampaignID,
				AdvertiserID: p.payload.AdvertiserID,
				Score:        score,
				Payload:      p.payload,
			},
			score: score,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if topK > 0 && topK < len(candidates) {
		candidates = candidates[:topK]
	}
	hits := make([]catalog.Hit, 0, len(candidates))
	for _, c := range candidates {
		hits = append(hits, c.hit)
	}
	return hits, nil
}

// bulkDisablePageSize bounds how many matched points are updated per
// internal page. The ids of every matching point are collected and sorted
// before the first page is updated.
const bulkDisablePageSize = 100

func (m *Memory) BulkDisable(_ context.Context, match map[string]any) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []string
	for id, p := range m.points {
		if payloadMatchesFlat(p.payload, match) {
			matched = append(matched, id)
		}
	}
	sort.Strings(matched)

	count := 0
	for start := 0; start < len(matched); start += bulkDisablePageSize {
		end := start + bulkDisablePageSize
		if end > len(matched) {
			end = len(matched)
		}
		for _, id := range matched[start:end] {
			disabled := false
			m.points[id].payload.Enabled = &disabled
			count++
		}
	}
	return count, nil
}

func payloadMatchesFlat(p catalog.Payload, match map[string]any) bool {
	for key, want := range match {
		payloadVals := fieldValues(key, p)
		wantVals := targeting.Values(want)
		if len(wantVals) == 0 {
			if scalar, ok := want.(string); ok {
				wantVals = []string{scalar}
			}
		}
		if !intersects(payloadVals, wantVals) {
			return false
		}
	}
	return true
}

// matchesFilter evaluates a VectorFilter's must/must_not predicates
// against a payload. all_of requires the payload's list to be a superset
// of the predicate's values — the genuine semantics the source's adapter
// failed to implement.
func matchesFilter(f targeting.VectorFilter, p catalog.Payload) bool {
	for _, pred := range f.Must {
		if !evaluatePredicate(pred, p) {
			return false
		}
	}
	for _, pred := range f.MustNot {
		if evaluatePredicate(pred, p) {
			return false
		}
	}
	return true
}

func evaluatePredicate(f targeting.FieldFilter, p catalog.Payload) bool {
	payloadVals := fieldValues(f.Key, p)
	predVals := targeting.Values(f.Value)

	switch f.Op {
	case targeting.Equals:
		return len(predVals) > 0 && contains(payloadVals, predVals[0])
	case targeting.NotEquals:
		return !(len(predVals) > 0 && contains(payloadVals, predVals[0]))
	case targeting.AnyOf:
		return intersects(payloadVals, predVals)
	case targeting.NotIn:
		return !intersects(payloadVals, predVals)
	case targeting.AllOf:
		return isSuperset(payloadVals, predVals)
	default:
		return false
	}
}

func fieldValues(key string, p catalog.Payload) []string {
	switch key {
	case "topics":
		return p.Topics
	case "locale":
		return []string{p.Locale}
	case "verticals":
		return p.Verticals
	case "audience_segments":
		return p.AudienceSegments
	case "keywords":
		return p.ContextKeywords
	case "advertiser_id":
		return []string{p.AdvertiserID}
	case "campaign_id":
		return []string{p.CampaignID}
	case "creative_id":
		return []string{p.CreativeID}
	default:
		return nil
	}
}

func contains(haystack []string, needle string) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}

func intersects(a, b []string) bool {
	for _, x := range a {
		if contains(b, x) {
			return true
		}
	}
	return false
}

func isSuperset(set, subset []string) bool {
	for _, s := range subset {
		if !contains(set, s) {
			return false
		}
	}
	return true
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
