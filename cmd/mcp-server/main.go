// Command mcp-server is the composition root: it wires the matching core
// to concrete adapters (ClickHouse analytics, Redis pacing counters, an
// in-memory vector index) and exposes the result as MCP tools over
// stdio, following the reference's mcp.AddTool / typed struct /
// server.Run(stdio) shape exactly.
package main

import (
	"context"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/patrickwarner/sponsorstream-match/internal/analytics"
	"github.com/patrickwarner/sponsorstream-match/internal/api"
	"github.com/patrickwarner/sponsorstream-match/internal/apperr"
	"github.com/patrickwarner/sponsorstream-match/internal/audit"
	"github.com/patrickwarner/sponsorstream-match/internal/catalog"
	"github.com/patrickwarner/sponsorstream-match/internal/config"
	"github.com/patrickwarner/sponsorstream-match/internal/db"
	"github.com/patrickwarner/sponsorstream-match/internal/embed"
	"github.com/patrickwarner/sponsorstream-match/internal/matching"
	"github.com/patrickwarner/sponsorstream-match/internal/mcpgate"
	"github.com/patrickwarner/sponsorstream-match/internal/observability"
	"github.com/patrickwarner/sponsorstream-match/internal/pacing"
	"github.com/patrickwarner/sponsorstream-match/internal/policy"
	"github.com/patrickwarner/sponsorstream-match/internal/vectorindex"
)

// embeddingDimension and embeddingModelID pin the in-process reference
// embedding provider; a real deployment would source these from the
// configured embedding endpoint instead.
const (
	embeddingDimension = 256
	embeddingModelID   = "hashing-v1"
	schemaVersion      = "v1"
)

// analyticsStore is the superset of pacing.StatsReader the reporting
// tools additionally need (Summary, CampaignReport). Both
// *analytics.Analytics and *analytics.Mock satisfy it.
type analyticsStore interface {
	RecordMatch(ctx context.Context, ts time.Time, requestID, placement, campaignID, creativeID string, score, pacingWeight, cost float64, metadata map[string]string) error
	Stats(ctx context.Context, campaignID string, since, until *time.Time) (pacing.Stats, error)
	RecentStats(ctx context.Context, campaignID string, window time.Duration) (pacing.Stats, error)
	Summary(ctx context.Context, since *time.Time) ([]analytics.CampaignAggregate, error)
	CampaignReport(ctx context.Context, campaignID string, since, until *time.Time) (analytics.CampaignReport, error)
}

func main() {
	cfg := config.Load()

	logger, err := observability.InitLoggerWithService(cfg.ServiceName)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting sponsorstream-match")

	if cfg.TempoEndpoint != "" {
		shutdown, err := observability.InitTracing(context.Background(), logger, cfg.ServiceName, cfg.TempoEndpoint, cfg.TraceSampleRate)
		if err != nil {
			logger.Warn("tracing unavailable, proceeding without spans", zap.Error(err))
		} else {
			defer shutdown()
		}
	}

	redisStore, err := db.InitRedis(cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, pacing will skip the hourly-admitted fast path", zap.Error(err))
		redisStore = nil
	}

	var store analyticsStore
	if ch, err := analytics.InitClickHouse(cfg.ClickHouseDSN); err != nil {
		logger.Warn("clickhouse unavailable, falling back to in-memory analytics", zap.Error(err))
		store = analytics.NewMock()
	} else {
		defer ch.Close()
		store = ch
	}

	embedder := embed.NewHashing(embeddingDimension, embeddingModelID)
	index := vectorindex.NewMemory("sponsorstream-catalog")

	ctx := context.Background()
	if _, err := index.EnsureCollection(ctx, embeddingDimension, embeddingModelID, schemaVersion); err != nil {
		logger.Fatal("ensure_collection at startup", zap.Error(err))
	}

	policyEngine := policy.NewEngine()
	pacingEngine := pacing.NewEngine(store, redisStore).WithWeightBounds(cfg.PacingWeightFloor, cfg.PacingWeightCeil)
	auditStore := audit.NewStore(cfg.AuditStoreCapacity)

	svc := matching.NewService(matching.Config{
		Embed:              embedder,
		Index:              index,
		Policy:             policyEngine,
		Pacing:             pacingEngine,
		Analytics:          store,
		AuditStore:         auditStore,
		MaxTopK:            cfg.MaxTopK,
		EmbeddingCacheSize: cfg.EmbeddingCacheCapacity,
		ResultCacheSize:    cfg.ResultCacheCapacity,
		Logger:             logger,
	})

	srv := &adcpServer{
		svc:            svc,
		index:          index,
		store:          store,
		embedder:       embedder,
		logger:         logger,
		requestTimeout: cfg.RequestTimeout,
	}

	httpServer := api.NewServer(logger, index, svc)
	go func() {
		addr := ":" + cfg.HTTPPort
		logger.Info("http control surface listening", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, httpServer.Routes()); err != nil {
			logger.Error("http server stopped", zap.Error(err))
		}
	}()

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "sponsorstream-match",
		Version: "1.0.0",
	}, nil)

	registerReadTools(server, srv)
	registerAdminTools(server, srv)

	logger.Info("mcp server running via stdio")
	if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// adcpServer holds the wired dependencies every tool handler closes over.
type adcpServer struct {
	svc            *matching.Service
	index          vectorindex.Index
	store          analyticsStore
	embedder       *embed.Hashing
	logger         *zap.Logger
	requestTimeout time.Duration
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{
			Text: string(apperr.KindOf(err)) + ": " + err.Error(),
		}},
	}
}

// ---- match ----

type placementInput struct {
	Placement string `json:"placement,omitempty"`
	Surface   string `json:"surface,omitempty"`
}

type constraintsInput struct {
	Topics            []string `json:"topics,omitempty"`
	Verticals         []string `json:"verticals,omitempty"`
	AudienceSegments  []string `json:"audience_segments,omitempty"`
	Keywords          []string `json:"keywords,omitempty"`
	Locale            string   `json:"locale,omitempty"`
	ExcludeAdvertiser []string `json:"exclude_advertiser_ids,omitempty"`
	ExcludeCampaign   []string `json:"exclude_campaign_ids,omitempty"`
	ExcludeCreative   []string `json:"exclude_creative_ids,omitempty"`
	AgeRestrictedOK   bool     `json:"age_restricted_ok,omitempty"`
	SensitiveOK       bool     `json:"sensitive_ok,omitempty"`
}

type matchInput struct {
	ContextText string             `json:"context_text"`
	TopK        int                `json:"top_k,omitempty"`
	Placement   placementInput     `json:"placement,omitempty"`
	Constraints constraintsInput   `json:"constraints,omitempty"`
	Boost       map[string]float64 `json:"boost,omitempty"`
}

// matchOutput's serialized fields are exactly the match envelope allowlist;
// there is no separate stripping step because matching.Response serializes
// nothing beyond it.
type matchOutput = matching.Response

func registerReadTools(server *mcp.Server, s *adcpServer) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "match",
		Description: "Retrieve, filter, pace, and rank sponsor creatives against a piece of context text",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"context_text": map[string]interface{}{
					"type":        "string",
					"description": "The surrounding content to match sponsorships against",
				},
				"top_k": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of candidates to return (default 10, server-capped)",
				},
				"placement": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"placement": map[string]interface{}{"type": "string"},
						"surface":   map[string]interface{}{"type": "string"},
					},
				},
				"constraints": map[string]interface{}{
					"type":        "object",
					"description": "Targeting and policy-opt-in fields",
				},
				"boost": map[string]interface{}{
					"type":        "object",
					"description": "keyword -> factor in [0.1, 2.0], clamped if out of range",
				},
			},
			"required": []string{"context_text"},
		},
	}, s.match)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "explain",
		Description: "Resolve a previously returned match_id back to its full decision trace",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"match_id": map[string]interface{}{"type": "string"},
			},
			"required": []string{"match_id"},
		},
	}, s.explain)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "collection_info",
		Description: "Report the vector index collection's dimension, model id, schema version, and point counts",
		InputSchema: map[string]interface{}{"type": "object", "properties": map[string]interface{}{}},
	}, s.collectionInfo)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_creative",
		Description: "Fetch a single creative's catalog payload by id",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"creative_id": map[string]interface{}{"type": "string"},
			},
			"required": []string{"creative_id"},
		},
	}, s.getCreative)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "campaign_summary",
		Description: "Per-campaign spend/impression aggregates, ordered by spend descending",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"since": map[string]interface{}{"type": "string", "format": "date-time"},
			},
		},
	}, s.campaignSummary)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "campaign_report",
		Description: "A single campaign's stats plus its top five creatives by impressions",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"campaign_id": map[string]interface{}{"type": "string"},
				"since":       map[string]interface{}{"type": "string", "format": "date-time"},
				"until":       map[string]interface{}{"type": "string", "format": "date-time"},
			},
			"required": []string{"campaign_id"},
		},
	}, s.campaignReport)
}

func (s *adcpServer) match(ctx context.Context, _ *mcp.CallToolRequest, in matchInput) (*mcp.CallToolResult, matchOutput, error) {
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	if in.TopK == 0 {
		in.TopK = 10
	}
	req := matching.Request{
		ContextText: in.ContextText,
		TopK:        in.TopK,
		Placement:   matching.Placement{Placement: in.Placement.Placement, Surface: in.Placement.Surface},
		Constraints: matching.Constraints{
			Topics:            in.Constraints.Topics,
			Verticals:         in.Constraints.Verticals,
			AudienceSegments:  in.Constraints.AudienceSegments,
			Keywords:          in.Constraints.Keywords,
			Locale:            in.Constraints.Locale,
			ExcludeAdvertiser: in.Constraints.ExcludeAdvertiser,
			ExcludeCampaign:   in.Constraints.ExcludeCampaign,
			ExcludeCreative:   in.Constraints.ExcludeCreative,
			AgeRestrictedOK:   in.Constraints.AgeRestrictedOK,
			SensitiveOK:       in.Constraints.SensitiveOK,
		},
		Boost: in.Boost,
	}

	resp, _, err := s.svc.Match(ctx, req)
	if err != nil {
		return toolError(err), matchOutput{}, nil
	}
	return nil, resp, nil
}

type explainInput struct {
	MatchID string `json:"match_id"`
}

// explainOutput is the full decision trace; explain has no envelope
// allowlist named in the external interface contract, so the complete
// audit.Trace shape is surfaced.
type explainOutput struct {
	RequestID     string             `json:"request_id"`
	Placement     string             `json:"placement"`
	ContextPrefix string             `json:"context_prefix"`
	Constraints   map[string]any     `json:"constraints,omitempty"`
	BoostKeywords map[string]float64 `json:"boost_keywords,omitempty"`
	Decisions     []audit.Decision   `json:"decisions"`
	Source        string             `json:"source,omitempty"`
}

func (s *adcpServer) explain(_ context.Context, _ *mcp.CallToolRequest, in explainInput) (*mcp.CallToolResult, explainOutput, error) {
	trace, ok := s.svc.Explain(in.MatchID)
	if !ok {
		return toolError(apperr.New(apperr.NotFound, "unknown match_id")), explainOutput{}, nil
	}
	return nil, explainOutput{
		RequestID:     trace.RequestID,
		Placement:     trace.Placement,
		ContextPrefix: trace.ContextPrefix,
		Constraints:   trace.Constraints,
		BoostKeywords: trace.BoostKeywords,
		Decisions:     trace.Decisions,
		Source:        trace.Source,
	}, nil
}

type collectionInfoOutput struct {
	Name                string `json:"name"`
	Dimension           int    `json:"dimension"`
	ModelID             string `json:"embedding_model_id"`
	SchemaVersion       string `json:"schema_version"`
	PointsCount         int    `json:"points_count"`
	IndexedVectorsCount int    `json:"indexed_vectors_count"`
	Status              string `json:"status"`
}

func (s *adcpServer) collectionInfo(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, collectionInfoOutput, error) {
	if err := mcpgate.RequireAdminScope(); err != nil {
		return toolError(err), collectionInfoOutput{}, nil
	}
	info, err := s.index.CollectionInfo(ctx)
	if err != nil {
		return toolError(err), collectionInfoOutput{}, nil
	}
	return nil, collectionInfoOutput{
		Name:                info.Name,
		Dimension:           info.Dimension,
		ModelID:             info.ModelID,
		SchemaVersion:       info.SchemaVersion,
		PointsCount:         info.PointsCount,
		IndexedVectorsCount: info.IndexedVectorsCount,
		Status:              info.Status,
	}, nil
}

type getCreativeInput struct {
	CreativeID string `json:"creative_id"`
}

type getCreativeOutput struct {
	Found   bool            `json:"found"`
	Payload *payloadOutput `json:"payload,omitempty"`
}

type payloadOutput struct {
	CreativeID   string   `json:"creative_id"`
	CampaignID   string   `json:"campaign_id"`
	AdvertiserID string   `json:"advertiser_id"`
	Title        string   `json:"title"`
	Body         string   `json:"body"`
	CTAText      string   `json:"cta_text"`
	LandingURL   string   `json:"landing_url"`
	CampaignName string   `json:"campaign_name"`
	Topics       []string `json:"topics,omitempty"`
	Verticals    []string `json:"verticals,omitempty"`
	Enabled      bool     `json:"enabled"`
}

func (s *adcpServer) getCreative(ctx context.Context, _ *mcp.CallToolRequest, in getCreativeInput) (*mcp.CallToolResult, getCreativeOutput, error) {
	payload, found, err := s.index.Get(ctx, in.CreativeID)
	if err != nil {
		return toolError(err), getCreativeOutput{}, nil
	}
	if !found {
		return nil, getCreativeOutput{Found: false}, nil
	}
	return nil, getCreativeOutput{Found: true, Payload: &payloadOutput{
		CreativeID:   payload.CreativeID,
		CampaignID:   payload.CampaignID,
		AdvertiserID: payload.AdvertiserID,
		Title:        payload.Title,
		Body:         payload.Body,
		CTAText:      payload.CTAText,
		LandingURL:   payload.LandingURL,
		CampaignName: payload.CampaignName,
		Topics:       payload.Topics,
		Verticals:    payload.Verticals,
		Enabled:      payload.IsEnabled(),
	}}, nil
}

type campaignSummaryInput struct {
	Since string `json:"since,omitempty"`
}

type campaignSummaryOutput struct {
	Campaigns []analytics.CampaignAggregate `json:"campaigns"`
}

func (s *adcpServer) campaignSummary(ctx context.Context, _ *mcp.CallToolRequest, in campaignSummaryInput) (*mcp.CallToolResult, campaignSummaryOutput, error) {
	since, err := parseOptionalTime(in.Since)
	if err != nil {
		return toolError(apperr.New(apperr.InvalidInput, err.Error())), campaignSummaryOutput{}, nil
	}
	rows, err := s.store.Summary(ctx, since)
	if err != nil {
		return toolError(apperr.Wrap(apperr.UnavailableDependency, "summary", err)), campaignSummaryOutput{}, nil
	}
	return nil, campaignSummaryOutput{Campaigns: rows}, nil
}

type campaignReportInput struct {
	CampaignID string `json:"campaign_id"`
	Since      string `json:"since,omitempty"`
	Until      string `json:"until,omitempty"`
}

func (s *adcpServer) campaignReport(ctx context.Context, _ *mcp.CallToolRequest, in campaignReportInput) (*mcp.CallToolResult, analytics.CampaignReport, error) {
	since, err := parseOptionalTime(in.Since)
	if err != nil {
		return toolError(apperr.New(apperr.InvalidInput, err.Error())), analytics.CampaignReport{}, nil
	}
	until, err := parseOptionalTime(in.Until)
	if err != nil {
		return toolError(apperr.New(apperr.InvalidInput, err.Error())), analytics.CampaignReport{}, nil
	}
	report, err := s.store.CampaignReport(ctx, in.CampaignID, since, until)
	if err != nil {
		return toolError(apperr.Wrap(apperr.UnavailableDependency, "campaign_report", err)), analytics.CampaignReport{}, nil
	}
	return nil, report, nil
}

func parseOptionalTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ---- administrative tools ----

type ensureCollectionInput struct {
	Dimension     int    `json:"dimension"`
	ModelID       string `json:"embedding_model_id"`
	SchemaVersion string `json:"schema_version"`
}

func registerAdminTools(server *mcp.Server, s *adcpServer) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "ensure_collection",
		Description: "Idempotently create (or report) the catalog's vector collection",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"dimension":          map[string]interface{}{"type": "integer"},
				"embedding_model_id": map[string]interface{}{"type": "string"},
				"schema_version":     map[string]interface{}{"type": "string"},
			},
			"required": []string{"dimension"},
		},
	}, s.ensureCollection)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "upsert_batch",
		Description: "Embed and upsert a batch of creatives into the catalog",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"creatives": map[string]interface{}{
					"type":        "array",
					"description": "list of creative records to embed from their title and body and upsert",
				},
			},
			"required": []string{"creatives"},
		},
	}, s.upsertBatch)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_creative",
		Description: "Remove a creative from the catalog",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"creative_id": map[string]interface{}{"type": "string"},
			},
			"required": []string{"creative_id"},
		},
	}, s.deleteCreative)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "bulk_disable",
		Description: "Disable every creative matching a flat attribute filter",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"match": map[string]interface{}{
					"type":        "object",
					"description": "attribute -> scalar or list value; every key must match",
				},
			},
			"required": []string{"match"},
		},
	}, s.bulkDisable)
}

func (s *adcpServer) ensureCollection(ctx context.Context, _ *mcp.CallToolRequest, in ensureCollectionInput) (*mcp.CallToolResult, collectionInfoOutput, error) {
	if err := mcpgate.RequireAdminScope(); err != nil {
		return toolError(err), collectionInfoOutput{}, nil
	}
	modelID := in.ModelID
	if modelID == "" {
		modelID = embeddingModelID
	}
	schema := in.SchemaVersion
	if schema == "" {
		schema = schemaVersion
	}
	info, err := s.index.EnsureCollection(ctx, in.Dimension, modelID, schema)
	if err != nil {
		return toolError(err), collectionInfoOutput{}, nil
	}
	return nil, collectionInfoOutput{
		Name: info.Name, Dimension: info.Dimension, ModelID: info.ModelID,
		SchemaVersion: info.SchemaVersion, PointsCount: info.PointsCount,
		IndexedVectorsCount: info.IndexedVectorsCount, Status: info.Status,
	}, nil
}

type creativeInput struct {
	CreativeID       string   `json:"creative_id"`
	CampaignID       string   `json:"campaign_id"`
	AdvertiserID     string   `json:"advertiser_id"`
	Title            string   `json:"title"`
	Body             string   `json:"body"`
	CTAText          string   `json:"cta_text"`
	LandingURL       string   `json:"landing_url"`
	CampaignName     string   `json:"campaign_name"`
	Topics           []string `json:"topics,omitempty"`
	Locale           string   `json:"locale,omitempty"`
	Verticals        []string `json:"verticals,omitempty"`
	AudienceSegments []string `json:"audience_segments,omitempty"`
	ContextKeywords  []string `json:"context_keywords,omitempty"`
	BlockedKeywords  []string `json:"blocked_keywords,omitempty"`
	Sensitive        bool     `json:"sensitive,omitempty"`
	AgeRestricted    bool     `json:"age_restricted,omitempty"`
	BrandSafetyTier  string   `json:"brand_safety_tier,omitempty"`
	TotalBudget      *float64 `json:"total_budget,omitempty"`
	DailyBudget      *float64 `json:"daily_budget,omitempty"`
	Currency         string   `json:"currency,omitempty"`
	PacingMode       string   `json:"pacing_mode,omitempty"`
	CPM              float64  `json:"cpm,omitempty"`
}

type upsertBatchInput struct {
	Creatives []creativeInput `json:"creatives"`
}

type upsertBatchOutput struct {
	Upserted int `json:"upserted"`
}

func (s *adcpServer) upsertBatch(ctx context.Context, _ *mcp.CallToolRequest, in upsertBatchInput) (*mcp.CallToolResult, upsertBatchOutput, error) {
	if err := mcpgate.RequireAdminScope(); err != nil {
		return toolError(err), upsertBatchOutput{}, nil
	}

	items := make([]vectorindex.UpsertItem, 0, len(in.Creatives))
	for _, c := range in.Creatives {
		if c.CreativeID == "" {
			return toolError(apperr.New(apperr.InvalidInput, "creative missing creative_id")), upsertBatchOutput{}, nil
		}
		text := c.Title + " " + c.Body
		vector, err := s.embedder.Embed(ctx, text)
		if err != nil {
			return toolError(apperr.Wrap(apperr.UnavailableDependency, "embed creative", err)), upsertBatchOutput{}, nil
		}
		enabled := true
		items = append(items, vectorindex.UpsertItem{
			CreativeID: c.CreativeID,
			Vector:     vector,
			Payload: catalog.Payload{
				CreativeID:       c.CreativeID,
				CampaignID:       c.CampaignID,
				AdvertiserID:     c.AdvertiserID,
				Title:            c.Title,
				Body:             c.Body,
				CTAText:          c.CTAText,
				LandingURL:       c.LandingURL,
				CampaignName:     c.CampaignName,
				Topics:           c.Topics,
				Locale:           c.Locale,
				Verticals:        c.Verticals,
				AudienceSegments: c.AudienceSegments,
				ContextKeywords:  c.ContextKeywords,
				BlockedKeywords:  c.BlockedKeywords,
				Sensitive:        c.Sensitive,
				AgeRestricted:    c.AgeRestricted,
				BrandSafetyTier:  c.BrandSafetyTier,
				TotalBudget:      c.TotalBudget,
				DailyBudget:      c.DailyBudget,
				Currency:         c.Currency,
				PacingMode:       c.PacingMode,
				CPM:              c.CPM,
				Enabled:          &enabled,
			},
		})
	}

	if err := s.index.Upsert(ctx, items); err != nil {
		return toolError(err), upsertBatchOutput{}, nil
	}
	return nil, upsertBatchOutput{Upserted: len(items)}, nil
}

type deleteCreativeInput struct {
	CreativeID string `json:"creative_id"`
}

type deleteCreativeOutput struct {
	Deleted bool `json:"deleted"`
}

func (s *adcpServer) deleteCreative(ctx context.Context, _ *mcp.CallToolRequest, in deleteCreativeInput) (*mcp.CallToolResult, deleteCreativeOutput, error) {
	if err := mcpgate.RequireAdminScope(); err != nil {
		return toolError(err), deleteCreativeOutput{}, nil
	}
	if err := s.index.Delete(ctx, in.CreativeID); err != nil {
		return toolError(err), deleteCreativeOutput{}, nil
	}
	return nil, deleteCreativeOutput{Deleted: true}, nil
}

type bulkDisableInput struct {
	Match map[string]any `json:"match"`
}

type bulkDisableOutput struct {
	Disabled int `json:"disabled"`
}

func (s *adcpServer) bulkDisable(ctx context.Context, _ *mcp.CallToolRequest, in bulkDisableInput) (*mcp.CallToolResult, bulkDisableOutput, error) {
	if err := mcpgate.RequireAdminScope(); err != nil {
		return toolError(err), bulkDisableOutput{}, nil
	}
	count, err := s.index.BulkDisable(ctx, in.Match)
	if err != nil {
		return toolError(err), bulkDisableOutput{}, nil
	}
	return nil, bulkDisableOutput{Disabled: count}, nil
}
