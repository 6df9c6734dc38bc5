package matching

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/patrickwarner/sponsorstream-match/internal/apperr"
	"github.com/patrickwarner/sponsorstream-match/internal/audit"
	"github.com/patrickwarner/sponsorstream-match/internal/cache"
	"github.com/patrickwarner/sponsorstream-match/internal/observability"
	"github.com/patrickwarner/sponsorstream-match/internal/pacing"
	"github.com/patrickwarner/sponsorstream-match/internal/policy"
	"github.com/patrickwarner/sponsorstream-match/internal/targeting"
	"github.com/patrickwarner/sponsorstream-match/internal/vectorindex"
)

// EmbeddingProvider turns normalized context text into a vector. It is
// assumed deterministic for a fixed text and model id; no batch interface
// is required.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// AnalyticsRecorder is the write-side port the service depends on for
// admitted-candidate bookkeeping.
type AnalyticsRecorder interface {
	RecordMatch(ctx context.Context, ts time.Time, requestID, placement, campaignID, creativeID string, score, pacingWeight, cost float64, metadata map[string]string) error
}

var tracer = otel.Tracer("sponsorstream-match/matching")

const (
	defaultMaxTopK           = 50
	minContextTextLength     = 20
	embeddingCacheCapacity   = 500
	resultCacheCapacity      = 100
	defaultCPM               = 10.0
)

type cachedResult struct {
	response Response
	trace    *audit.Trace
}

// Service orchestrates the full retrieve-filter-pace-rank pipeline. It is
// the only component that calls every other port; outside it, only the
// administrative ingestion tool combines two of them (embedding and index),
// and nothing else reaches policy, pacing, or the audit store.
type Service struct {
	embed     EmbeddingProvider
	index     vectorindex.Index
	targeting *targeting.Engine
	policy    *policy.Engine
	pacing    *pacing.Engine
	analytics AnalyticsRecorder
	auditStore *audit.Store

	embeddingCache *cache.FIFO[[]float32]
	resultCache    *cache.FIFO[cachedResult]

	maxTopK int
	logger  *zap.Logger
	nowFn   func() time.Time
}

// Config bundles Service's dependencies and tunables.
type Config struct {
	Embed              EmbeddingProvider
	Index              vectorindex.Index
	Targeting          *targeting.Engine
	Policy             *policy.Engine
	Pacing             *pacing.Engine
	Analytics          AnalyticsRecorder
	AuditStore         *audit.Store
	MaxTopK            int
	EmbeddingCacheSize int
	ResultCacheSize    int
	Logger             *zap.Logger
}

// NewService wires a Config into a ready-to-use Service, filling in
// defaults for anything left zero.
func NewService(cfg Config) *Service {
	if cfg.Targeting == nil {
		cfg.Targeting = targeting.NewEngine()
	}
	if cfg.Policy == nil {
		cfg.Policy = policy.NewEngine()
	}
	if cfg.MaxTopK <= 0 {
		cfg.MaxTopK = defaultMaxTopK
	}
	if cfg.EmbeddingCacheSize <= 0 {
		cfg.EmbeddingCacheSize = embeddingCacheCapacity
	}
	if cfg.ResultCacheSize <= 0 {
		cfg.ResultCacheSize = resultCacheCapacity
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.AuditStore == nil {
		cfg.AuditStore = audit.NewStore(10_000)
	}

	return &Service{
		embed:          cfg.Embed,
		index:          cfg.Index,
		targeting:      cfg.Targeting,
		policy:         cfg.Policy,
		pacing:         cfg.Pacing,
		analytics:      cfg.Analytics,
		auditStore:     cfg.AuditStore,
		embeddingCache: cache.New[[]float32](cfg.EmbeddingCacheSize),
		resultCache:    cache.New[cachedResult](cfg.ResultCacheSize),
		maxTopK:        cfg.MaxTopK,
		logger:         cfg.Logger,
		nowFn:          time.Now,
	}
}

// WithClock overrides the service's time source, for tests.
func (s *Service) WithClock(fn func() time.Time) *Service {
	s.nowFn = fn
	return s
}

func normalizeContext(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Match runs the full pipeline for one request and returns both the
// response and the trace that was (or would have been) persisted for it.
func (s *Service) Match(ctx context.Context, req Request) (Response, *audit.Trace, error) {
	ctx, span := tracer.Start(ctx, "matching.Match",
		oteltrace.WithAttributes(
			attribute.String("placement", req.Placement.Placement),
			attribute.Int("top_k", req.TopK),
		))
	defer span.End()

	requestID := uuid.New()
	requestIDStr := requestID.String()

	s.logger.Info("match_start",
		zap.String("request_id", requestIDStr),
		zap.String("placement", req.Placement.Placement),
		zap.Int("top_k", req.TopK))

	normalized := normalizeContext(req.ContextText)
	if normalized == "" {
		return Response{}, nil, apperr.New(apperr.InvalidInput, "context_text is empty after normalization")
	}
	if req.TopK < 1 || req.TopK > 100 {
		return Response{}, nil, apperr.New(apperr.InvalidInput, "top_k must be in [1, 100]")
	}

	topK := req.TopK
	if topK > s.maxTopK {
		topK = s.maxTopK
	}

	resultKey := s.resultCacheKey(normalized, req)
	if cached, ok := s.resultCache.Get(resultKey); ok {
		s.logger.Info("match_done",
			zap.String("request_id", cached.response.RequestID),
			zap.String("placement", cached.response.Placement),
			zap.Int("candidates_count", len(cached.response.Candidates)),
			zap.Bool("cache_hit", true))
		return cached.response, cached.trace.WithSource("cache"), nil
	}

	vector, err := s.embedWithCache(ctx, normalized)
	if err != nil {
		return Response{}, nil, apperr.Wrap(apperr.UnavailableDependency, "embed context text", err)
	}

	filter := s.targeting.BuildFilter(targeting.Constraints{
		Topics:            req.Constraints.Topics,
		Locale:            req.Constraints.Locale,
		Verticals:         req.Constraints.Verticals,
		AudienceSegments:  req.Constraints.AudienceSegments,
		Keywords:          req.Constraints.Keywords,
		ExcludeAdvertiser: req.Constraints.ExcludeAdvertiser,
		ExcludeCampaign:   req.Constraints.ExcludeCampaign,
		ExcludeCreative:   req.Constraints.ExcludeCreative,
	}, targeting.Placement{Placement: req.Placement.Placement, Surface: req.Placement.Surface})

	hits, err := s.index.Query(ctx, vector, filter, topK)
	if err != nil {
		return Response{}, nil, classifyDependencyError(err)
	}

	policyConstraints := policy.Constraints{
		AgeRestrictedOK: req.Constraints.AgeRestrictedOK,
		SensitiveOK:     req.Constraints.SensitiveOK,
	}

	reasons := make([]string, len(hits))
	for i, h := range hits {
		reasons[i] = s.policy.Decide(h.Payload, policyConstraints, req.ContextText)
	}

	constraintImpact := make(map[string]int)
	trace := audit.NewTrace(requestIDStr, req.Placement.Placement, req.ContextText, req.Constraints.AsMap(), req.Boost)

	for i, h := range hits {
		if reasons[i] == policy.ReasonAllowed {
			continue
		}
		trace.AddDecision(audit.Decision{
			CreativeID:   h.CreativeID,
			CampaignID:   h.CampaignID,
			AdvertiserID: h.AdvertiserID,
			Score:        h.Score,
			Reason:       "denied: " + reasons[i],
		})
		constraintImpact[reasons[i]]++
		observability.PolicyDenials.WithLabelValues(reasons[i]).Inc()
	}

	var candidates []Candidate
	for i, h := range hits {
		if reasons[i] != policy.ReasonAllowed {
			continue
		}

		decision, err := s.pacing.Evaluate(ctx, h.CampaignID, h.Payload)
		if err != nil {
			return Response{}, nil, classifyDependencyError(err)
		}
		if !decision.Allow {
			trace.AddDecision(audit.Decision{
				CreativeID:   h.CreativeID,
				CampaignID:   h.CampaignID,
				AdvertiserID: h.AdvertiserID,
				Score:        h.Score,
				Reason:       "pacing:" + decision.Reason,
			})
			constraintImpact["pacing"]++
			observability.PacingDenials.WithLabelValues(decision.Reason).Inc()
			continue
		}

		boost := ComputeBoost(req.Boost, h.Payload)
		score := clamp01(h.Score * decision.Weight * boost)
		matchID := uuid.NewSHA1(requestID, []byte(h.CreativeID)).String()

		candidate := Candidate{
			CreativeID:   h.CreativeID,
			CampaignID:   h.CampaignID,
			AdvertiserID: h.AdvertiserID,
			CampaignName: h.Payload.CampaignName,
			Title:        h.Payload.Title,
			Body:         h.Payload.Body,
			CTAText:      h.Payload.CTAText,
			LandingURL:   h.Payload.LandingURL,
			Score:        score,
			MatchID:      matchID,
			PacingWeight: decision.Weight,
			PacingReason: decision.Reason,
			BoostApplied: boost,
		}
		candidates = append(candidates, candidate)

		trace.AddDecision(audit.Decision{
			CreativeID:   h.CreativeID,
			CampaignID:   h.CampaignID,
			AdvertiserID: h.AdvertiserID,
			Score:        h.Score,
			Reason:       policy.ReasonAllowed,
			MatchID:      matchID,
			PacingWeight: decision.Weight,
			BoostApplied: boost,
		})

		if s.analytics != nil {
			cpm := h.Payload.CPM
			if cpm == 0 {
				cpm = defaultCPM
			}
			cost := cpm / 1000.0
			err := s.analytics.RecordMatch(ctx, s.nowFn().UTC(), requestIDStr, req.Placement.Placement,
				h.CampaignID, h.CreativeID, score, decision.Weight, cost,
				map[string]string{"pacing_reason": decision.Reason})
			if err != nil {
				observability.AnalyticsWriteErrors.Inc()
				return Response{}, nil, apperr.Wrap(apperr.UnavailableDependency, "record match analytics", err)
			}
		}
	}

	var warnings []string
	if len(normalized) < minContextTextLength {
		warnings = append(warnings, "context_text too short")
	}
	if req.Placement.Placement != "" && !knownPlacements[req.Placement.Placement] {
		warnings = append(warnings, "placement not in advertised set")
	}
	if req.TopK > s.maxTopK {
		warnings = append(warnings, "top_k reduced to server maximum")
	}
	eligibleCount := 0
	for _, r := range reasons {
		if r == policy.ReasonAllowed {
			eligibleCount++
		}
	}
	if eligibleCount > 0 && len(candidates) == 0 {
		warnings = append(warnings, "all paced")
	}
	for _, kw := range ClampedBoostKeys(req.Boost) {
		warnings = append(warnings, "boost factor for \""+kw+"\" clamped to [0.1, 2.0]")
	}

	difficulty := EstimateDifficulty(req)

	response := Response{
		Candidates:       candidates,
		RequestID:        requestIDStr,
		Placement:        req.Placement.Placement,
		Warnings:         warnings,
		ConstraintImpact: constraintImpact,
		Difficulty:       &difficulty,
	}

	for _, c := range candidates {
		copyOfTrace := *trace
		s.auditStore.Put(c.MatchID, &copyOfTrace)
	}
	s.resultCache.Put(resultKey, cachedResult{response: response, trace: trace})

	observability.MatchRequests.WithLabelValues(outcomeLabel(len(candidates))).Inc()
	observability.MatchCandidateCount.WithLabelValues(req.Placement.Placement).Observe(float64(len(candidates)))
	observability.AuditStoreSize.Set(float64(s.auditStore.Len()))

	s.logger.Info("match_done",
		zap.String("request_id", requestIDStr),
		zap.String("placement", req.Placement.Placement),
		zap.Int("candidates_count", len(candidates)))

	return response, trace, nil
}

// Explain resolves a previously issued match identifier back to its trace.
func (s *Service) Explain(matchID string) (*audit.Trace, bool) {
	return s.auditStore.Get(matchID)
}

func (s *Service) embedWithCache(ctx context.Context, normalized string) ([]float32, error) {
	digest := sha256Hex(normalized)
	if v, ok := s.embeddingCache.Get(digest); ok {
		observability.CacheHits.WithLabelValues("embedding").Inc()
		return v, nil
	}
	observability.CacheMisses.WithLabelValues("embedding").Inc()
	vector, err := s.embed.Embed(ctx, normalized)
	if err != nil {
		return nil, err
	}
	s.embeddingCache.Put(digest, vector)
	return vector, nil
}

func (s *Service) resultCacheKey(normalized string, req Request) string {
	type keyed struct {
		Text        string             `json:"text"`
		TopK        int                `json:"top_k"`
		Placement   string             `json:"placement"`
		Surface     string             `json:"surface"`
		Constraints Constraints        `json:"constraints"`
		Boost       map[string]float64 `json:"boost"`
	}
	b, err := json.Marshal(keyed{
		Text: normalized, TopK: req.TopK, Placement: req.Placement.Placement,
		Surface: req.Placement.Surface, Constraints: req.Constraints, Boost: req.Boost,
	})
	if err != nil {
		return sha256Hex(normalized)
	}
	return sha256Hex(string(b))
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func outcomeLabel(candidateCount int) string {
	if candidateCount == 0 {
		return "empty"
	}
	return "ok"
}

// classifyDependencyError maps a lower-level error to the core's taxonomy.
// A context deadline exceeded mid-pipeline becomes Timeout; everything else
// from an external port becomes UnavailableDependency unless already tagged.
func classifyDependencyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.Timeout, "request deadline exceeded", err)
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperr.Wrap(apperr.UnavailableDependency, "query vector index", err)
}
