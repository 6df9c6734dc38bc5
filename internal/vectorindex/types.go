// Package vectorindex defines the capability interface the match service
// depends on for catalog storage and retrieval, plus an in-memory adapter.
// A production deployment would swap the adapter for a real vector
// database; the service only ever sees this interface.
package vectorindex

import (
	"context"

	"github.com/patrickwarner/sponsorstream-match/internal/catalog"
	"github.com/patrickwarner/sponsorstream-match/internal/targeting"
)

// CollectionInfo describes the single catalog collection this adapter
// manages.
type CollectionInfo struct {
	Name                string
	Created             bool
	Dimension           int
	ModelID             string
	SchemaVersion       string
	PointsCount         int
	IndexedVectorsCount int
	Status              string
}

// UpsertItem is one catalog record to write: the identifier the caller
// wants addressed by, the embedding, and the full attribute payload.
type UpsertItem struct {
	CreativeID string
	Vector     []float32
	Payload    catalog.Payload
}

// Index is the capability surface the match service and the
// administrative tools depend on. CreativeID, not the internal point id,
// is the caller-facing identity; the adapter derives a stable point id
// from it (uuid5 of a namespace and the creative_id).
type Index interface {
	EnsureCollection(ctx context.Context, dimension int, modelID, schemaVersion string) (CollectionInfo, error)
	CollectionInfo(ctx context.Context) (CollectionInfo, error)
	DeleteCollection(ctx context.Context) error

	Upsert(ctx context.Context, items []UpsertItem) error
	Delete(ctx context.Context, creativeID string) error
	Get(ctx context.Context, creativeID string) (catalog.Payload, bool, error)

	// Query enforces enabled != false on every call regardless of the
	// caller-supplied filter; this is a property of the adapter, not of
	// the caller's request.
	Query(ctx context.Context, vector []float32, filter targeting.VectorFilter, topK int) ([]catalog.Hit, error)

	// BulkDisable matches creatives by a flat scalar/list attribute map
	// and sets enabled = false on every match, returning the count
	// affected. Implementations should page internally rather than hold
	// the whole matching set in memory at once.
	BulkDisable(ctx context.Context, match map[string]any) (int, error)
}
