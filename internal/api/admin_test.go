package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/patrickwarner/sponsorstream-match/internal/catalog"
	"github.com/patrickwarner/sponsorstream-match/internal/targeting"
	"github.com/patrickwarner/sponsorstream-match/internal/vectorindex"
)

type fakeIndex struct {
	ensureCalled bool
	disableCount int
	disableErr   error
}

func (f *fakeIndex) EnsureCollection(context.Context, int, string, string) (vectorindex.CollectionInfo, error) {
	f.ensureCalled = true
	return vectorindex.CollectionInfo{Name: "cat", Dimension: 64}, nil
}
func (f *fakeIndex) CollectionInfo(context.Context) (vectorindex.CollectionInfo, error) {
	return vectorindex.CollectionInfo{}, nil
}
func (f *fakeIndex) DeleteCollection(context.Context) error                              { return nil }
func (f *fakeIndex) Upsert(context.Context, []vectorindex.UpsertItem) error              { return nil }
func (f *fakeIndex) Delete(context.Context, string) error                                { return nil }
func (f *fakeIndex) Get(context.Context, string) (catalog.Payload, bool, error)          { return catalog.Payload{}, false, nil }
func (f *fakeIndex) Query(context.Context, []float32, targeting.VectorFilter, int) ([]catalog.Hit, error) {
	return nil, nil
}
func (f *fakeIndex) BulkDisable(context.Context, map[string]any) (int, error) {
	return f.disableCount, f.disableErr
}

func TestEnsureCollectionHandler_Forbidden(t *testing.T) {
	t.Setenv("REQUIRE_ADMIN_KEY", "true")
	t.Setenv("MCP_ADMIN_KEY", "")

	idx := &fakeIndex{}
	srv := NewServer(zap.NewNop(), idx, nil)

	req := httptest.NewRequest(http.MethodPost, "/admin/ensure-collection", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, idx.ensureCalled)
}

func TestEnsureCollectionHandler_SucceedsWhenGateOpen(t *testing.T) {
	t.Setenv("REQUIRE_ADMIN_KEY", "")

	idx := &fakeIndex{}
	srv := NewServer(zap.NewNop(), idx, nil)

	body := bytes.NewBufferString(`{"dimension": 64, "embedding_model_id": "m", "schema_version": "v1"}`)
	req := httptest.NewRequest(http.MethodPost, "/admin/ensure-collection", body)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, idx.ensureCalled)
}

func TestBulkDisableHandler_MalformedBody(t *testing.T) {
	t.Setenv("REQUIRE_ADMIN_KEY", "")

	idx := &fakeIndex{}
	srv := NewServer(zap.NewNop(), idx, nil)

	req := httptest.NewRequest(http.MethodPost, "/admin/bulk-disable", bytes.NewBufferString(`not json`))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBulkDisableHandler_ReturnsCount(t *testing.T) {
	t.Setenv("REQUIRE_ADMIN_KEY", "")

	idx := &fakeIndex{disableCount: 3}
	srv := NewServer(zap.NewNop(), idx, nil)

	req := httptest.NewRequest(http.MethodPost, "/admin/bulk-disable", bytes.NewBufferString(`{"match":{"advertiser_id":"adv1"}}`))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"disabled":3}`, rec.Body.String())
}
