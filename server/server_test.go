package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarungka/sonata/internal/models"
	metrics "github.com/tarungka/sonata/internal/pipeline"
)

type fakeProvider struct {
	runs  []models.RunInfo
	stats []metrics.RunStats
}

func (f fakeProvider) Stats() []metrics.RunStats          { return f.stats }
func (f fakeProvider) Runs() []models.RunInfo             { return f.runs }
func (f fakeProvider) PoolStats() metrics.WorkerPoolStats { return metrics.WorkerPoolStats{ProcessedTasks: 1} }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	p := fakeProvider{
		runs:  []models.RunInfo{{ID: "0190", Pipeline: "new-cons", Query: "tcp_new_cons", Status: models.StatusRunning}},
		stats: []metrics.RunStats{{Name: "new-cons", TuplesIn: 120, Results: 3}},
	}
	srv := httptest.NewServer(NewRouter(p))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	code, _ := get(t, srv.URL+"/health")
	assert.Equal(t, http.StatusOK, code)
}

func TestStats(t *testing.T) {
	srv := newTestServer(t)
	code, body := get(t, srv.URL+"/stats")
	require.Equal(t, http.StatusOK, code)

	var resp struct {
		Success bool       `json:"success"`
		Data    StatsModel `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Data.Pipelines, 1)
	assert.Equal(t, uint64(120), resp.Data.Pipelines[0].TuplesIn)
	assert.Equal(t, uint64(1), resp.Data.Pool.ProcessedTasks)
}

func TestPipelines(t *testing.T) {
	srv := newTestServer(t)

	code, body := get(t, srv.URL+"/pipelines/new-cons")
	require.Equal(t, http.StatusOK, code)
	var resp struct {
		Data PipelineStatus `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, "tcp_new_cons", resp.Data.Run.Query)
	assert.Equal(t, uint64(3), resp.Data.Stats.Results)

	code, body = get(t, srv.URL+"/pipelines/missing")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, body, "pipeline not found")

	code, body = get(t, srv.URL+"/pipelines/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"pipeline":"new-cons"`)
}

func TestMetrics(t *testing.T) {
	srv := newTestServer(t)
	code, body := get(t, srv.URL+"/metrics")
	require.Equal(t, http.StatusOK, code)
	assert.True(t, strings.Contains(body, `sonata_pipeline_tuples_in_total{pipeline="new-cons"} 120`), body)
}

func TestSendError(t *testing.T) {
	rec := httptest.NewRecorder()
	sendError(rec, httptest.NewRequest(http.MethodGet, "/pipelines/x", nil), http.StatusNotFound, "pipeline not found: x")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":false,"error":"pipeline not found: x"}`, rec.Body.String())
}
