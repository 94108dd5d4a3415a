package httpadapter_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/survey-demand-etl/internal/adapter/httpadapter"
	"github.com/couchcryptid/survey-demand-etl/internal/domain"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockBatches struct {
	batch *domain.Batch
}

func (m *mockBatches) Latest() *domain.Batch { return m.batch }

func testBatch() *domain.Batch {
	return &domain.Batch{
		RunID:       "run-1",
		ProcessedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		Records: map[string]domain.DemandRecord{
			"1001": {ID: "1001", Category: domain.CategoryHousehold, Subtype: domain.SubtypeLowIncome, NumUsers: 40},
			"1002": {ID: "1002", Category: domain.CategoryHousehold, Subtype: domain.SubtypeLowIncome, NumUsers: 40},
			"2001": {ID: "2001", Category: domain.CategoryBusiness, Subtype: domain.SubtypeBarRestaurant, NumUsers: 4},
		},
		Warnings: []domain.Warning{{RecordID: "1006", Category: domain.CategoryHousehold, Message: "excluded"}},
		Skipped:  []string{"1005"},
	}
}

func newTestServer(readyErr error, batch *domain.Batch) *httpadapter.Server {
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, &mockBatches{batch: batch}, slog.Default())
}

func serve(t *testing.T, srv *httpadapter.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := serve(t, newTestServer(nil, nil), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := serve(t, newTestServer(nil, nil), "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := serve(t, newTestServer(fmt.Errorf("not ready yet"), nil), "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := serve(t, newTestServer(nil, nil), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestLatestBatch_NotFoundBeforeFirstRun(t *testing.T) {
	srv := newTestServer(nil, nil)
	for _, path := range []string{"/batches/latest", "/batches/latest/records/1001", "/batches/latest/warnings"} {
		assert.Equal(t, http.StatusNotFound, serve(t, srv, path).Code, path)
	}
}

func TestLatestBatch_Summary(t *testing.T) {
	rec := serve(t, newTestServer(nil, testBatch()), "/batches/latest")
	require.Equal(t, http.StatusOK, rec.Code)

	var body httpadapter.BatchSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "run-1", body.RunID)
	assert.Equal(t, 3, body.Records)
	assert.Equal(t, map[domain.Category]int{domain.CategoryHousehold: 2, domain.CategoryBusiness: 1}, body.ByCategory)
	assert.Equal(t, map[domain.Category]int{domain.CategoryHousehold: 80, domain.CategoryBusiness: 4}, body.Numerosity)
	assert.Equal(t, []string{"1001", "1002", "2001"}, body.IDs)
	assert.Equal(t, []string{"1005"}, body.Skipped)
	assert.Equal(t, []string{}, body.Excluded)
	assert.Equal(t, 1, body.Warnings)
}

func TestLatestBatch_Record(t *testing.T) {
	srv := newTestServer(nil, testBatch())

	rec := serve(t, srv, "/batches/latest/records/2001")
	require.Equal(t, http.StatusOK, rec.Code)
	var record domain.DemandRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, domain.SubtypeBarRestaurant, record.Subtype)

	assert.Equal(t, http.StatusNotFound, serve(t, srv, "/batches/latest/records/9999").Code)
}

func TestLatestBatch_Warnings(t *testing.T) {
	rec := serve(t, newTestServer(nil, testBatch()), "/batches/latest/warnings")
	require.Equal(t, http.StatusOK, rec.Code)

	var warnings []domain.Warning
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &warnings))
	require.Len(t, warnings, 1)
	assert.Equal(t, "1006", warnings[0].RecordID)
}
