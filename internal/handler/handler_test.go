package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lanwatch/internal/domain"
	"lanwatch/internal/repository/sqlite"
	"lanwatch/internal/service"
)

type countingTrigger struct{ n atomic.Int32 }

func (c *countingTrigger) Trigger() { c.n.Add(1) }

type apiEnv struct {
	server    http.Handler
	registry  *service.DeviceRegistry
	snapshots *service.SnapshotService
	trigger   *countingTrigger
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	logger := zerolog.Nop()
	registry := service.NewDeviceRegistry(repo, logger)
	ctx, cancel := context.WithCancel(context.Background())
	go registry.Run(ctx)
	t.Cleanup(cancel)

	env := &apiEnv{
		registry:  registry,
		snapshots: service.NewSnapshotService(repo, nil, logger),
		trigger:   &countingTrigger{},
	}

	mux := http.NewServeMux()
	Routes{
		Devices:   NewDeviceHandler(registry, service.NewLabelService(repo, nil), env.trigger, logger),
		Snapshots: NewSnapshotHandler(env.snapshots, logger),
		Health:    NewHealthHandler(nil, logger),
	}.Register(mux)
	env.server = Chain(mux, Recover(logger), CORS, Logger(logger))
	return env
}

func (e *apiEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func (e *apiEnv) seed(t *testing.T, macs ...string) {
	t.Helper()
	records := make([]domain.Record, 0, len(macs))
	for _, mac := range macs {
		records = append(records, domain.Record{MAC: mac, Hostname: "host-" + mac, InterfaceKind: domain.InterfaceWired})
	}
	_, err := e.registry.Upsert(context.Background(), records)
	require.NoError(t, err)
}

func TestRefreshNow(t *testing.T) {
	env := newAPIEnv(t)
	rec := env.do(t, http.MethodPost, "/refresh-now", "")

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"status":"refresh_triggered"}`, rec.Body.String())
	assert.Equal(t, int32(1), env.trigger.n.Load())
}

func TestLabelsLifecycle(t *testing.T) {
	env := newAPIEnv(t)
	env.seed(t, "aa:bb:cc:00:00:01")

	rec := env.do(t, http.MethodGet, "/labels", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/labels", `{"mac":"AA:BB:CC:00:00:01","label":"printer"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"mac":"aa:bb:cc:00:00:01","label":"printer"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/devices/aa:bb:cc:00:00:01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var dev domain.Device
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dev))
	assert.Equal(t, "printer", dev.Label)

	rec = env.do(t, http.MethodDelete, "/labels/aa:bb:cc:00:00:01", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, "/labels/aa:bb:cc:00:00:01", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetLabelErrors(t *testing.T) {
	env := newAPIEnv(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed body", `{"mac":`, http.StatusBadRequest},
		{"missing mac", `{"label":"x"}`, http.StatusBadRequest},
		{"unknown device", `{"mac":"de:ad:be:ef:00:00","label":"x"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/labels", tt.body)
			assert.Equal(t, tt.want, rec.Code)

			var errResp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
			assert.NotEmpty(t, errResp.Error)
		})
	}
}

func TestDevices(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(t, http.MethodGet, "/api/devices", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	env.seed(t, "aa:bb", "cc:dd")
	rec = env.do(t, http.MethodGet, "/api/devices", "")
	var devices []domain.Device
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &devices))
	assert.Len(t, devices, 2)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/devices/ee:ff", "").Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, "/api/devices/AA:BB", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/api/devices/aa:bb", "").Code)
}

func TestSnapshots(t *testing.T) {
	env := newAPIEnv(t)
	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	clock := base
	env.snapshots.SetClock(func() time.Time { return clock })

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/snapshots/latest", "").Code)

	g := domain.NewGraph()
	g.Nodes = append(g.Nodes, domain.GraphNode{ID: "aa:bb", Label: "device1"})
	_, err := env.snapshots.Append(context.Background(), g)
	require.NoError(t, err)

	clock = base.Add(time.Minute)
	g.Nodes = append(g.Nodes, domain.GraphNode{ID: "11:22", Label: "11:22"})
	g.Edges = append(g.Edges, domain.GraphEdge{Source: "aa:bb", Target: "11:22"})
	id2, err := env.snapshots.Append(context.Background(), g)
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/api/snapshots?limit=1000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summaries []domain.SnapshotSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 2)
	assert.Equal(t, id2, summaries[0].ID)
	assert.Equal(t, 2, summaries[0].NodeCount)
	assert.Equal(t, 1, summaries[0].EdgeCount)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/snapshots?limit=zero", "").Code)

	rec = env.do(t, http.MethodGet, "/api/snapshots/latest", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, id2, snap.ID)

	rec = env.do(t, http.MethodGet, "/api/snapshots/at?ts="+base.Add(30*time.Second).Format(time.RFC3339), "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, id2, snap.ID)

	assert.Equal(t, http.StatusNotFound,
		env.do(t, http.MethodGet, "/api/snapshots/at?ts="+base.Add(time.Hour).Format(time.RFC3339), "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/snapshots/at?ts=yesterday", "").Code)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/snapshots/abc", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/snapshots/999", "").Code)
}

func TestExportSnapshot(t *testing.T) {
	env := newAPIEnv(t)
	g := domain.NewGraph()
	g.Nodes = append(g.Nodes, domain.GraphNode{ID: "aa:bb", Label: "device1"})
	id, err := env.snapshots.Append(context.Background(), g)
	require.NoError(t, err)

	path := "/api/snapshots/" + strconv.FormatInt(id, 10) + "/export"

	rec := env.do(t, http.MethodGet, path+"?format=yaml", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "id: aa:bb")

	rec = env.do(t, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"nodes":[{"id":"aa:bb","label":"device1"}],"edges":[]}`, rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, path+"?format=xml", "").Code)
}

func TestHealthzAndCORS(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = env.do(t, http.MethodOptions, "/labels", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRecover(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), Recover(zerolog.Nop()))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
