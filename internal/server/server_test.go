package server_test

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	gosync "sync"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellisd4/tagsync"
	"github.com/ellisd4/tagsync/internal/metrics"
	"github.com/ellisd4/tagsync/internal/server"
	"github.com/ellisd4/tagsync/internal/sources/sonarr"
	"github.com/ellisd4/tagsync/pkg/catalogs"
	"github.com/ellisd4/tagsync/pkg/catalogs/memory"
	"github.com/ellisd4/tagsync/pkg/errors"
	"github.com/ellisd4/tagsync/pkg/logging"
	"github.com/ellisd4/tagsync/pkg/reconciler"
	"github.com/ellisd4/tagsync/pkg/sync"
)

func fixtures() (*memory.Source, *memory.Target) {
	source := memory.NewSource(
		[]catalogs.SourceRecord{
			{ID: "1", Title: "Firefly", ExternalIDs: catalogs.ExternalIDs{catalogs.SchemeTVDB: "78874"}, TagIDs: []int{1}},
			{ID: "2", Title: "Dark", ExternalIDs: catalogs.ExternalIDs{catalogs.SchemeTMDB: "70523"}, TagIDs: []int{2}},
		},
		[]catalogs.TagDefinition{{ID: 1, Label: "hd"}, {ID: 2, Label: "german"}},
	)
	target := memory.NewTarget(
		catalogs.TargetItem{ID: "e1", Name: "Firefly", ExternalIDs: catalogs.ExternalIDs{catalogs.SchemeTVDB: "78874"}, Tags: []string{"sonarr-old"}},
		catalogs.TargetItem{ID: "e2", Name: "Dark", ExternalIDs: catalogs.ExternalIDs{catalogs.SchemeTMDB: "70523"}},
	)
	return source, target
}

type testServer struct {
	*httptest.Server
	registry *prometheus.Registry
}

func start(t *testing.T, client tagsync.Client, mutate ...func(*server.Config)) *testServer {
	t.Helper()
	cfg := server.DefaultConfig()
	for _, fn := range mutate {
		fn(&cfg)
	}

	reg := prometheus.NewRegistry()
	srv := server.New(client, cfg,
		server.WithMetrics(metrics.New(reg, reg)),
		server.WithLogger(logging.NewNopLogger()),
	)
	srv.Start()

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return &testServer{Server: ts, registry: reg}
}

func newClient(t *testing.T, source catalogs.Source, target catalogs.Target) tagsync.Client {
	t.Helper()
	client, err := tagsync.New(
		tagsync.WithSource(source),
		tagsync.WithTarget(target),
		tagsync.WithTagPrefix("sonarr-"),
		tagsync.WithOverwriteExistingTags(true),
	)
	require.NoError(t, err)
	return client
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func do(t *testing.T, method, url string) (int, envelope) {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestHealth(t *testing.T) {
	source, target := fixtures()
	ts := start(t, newClient(t, source, target))

	status, env := do(t, http.MethodGet, ts.URL+"/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Nil(t, env.Error)
	assert.Contains(t, string(env.Data), `"healthy"`)
}

func TestSync(t *testing.T) {
	source, target := fixtures()
	ts := start(t, newClient(t, source, target))

	status, env := do(t, http.MethodGet, ts.URL+"/api/v1/sync/last")
	assert.Equal(t, http.StatusNotFound, status)

	status, env = do(t, http.MethodPost, ts.URL+"/api/v1/sync")
	require.Equal(t, http.StatusOK, status)

	var result struct {
		RunID   string `json:"run_id"`
		DryRun  bool   `json:"dry_run"`
		Summary struct {
			Matched     int `json:"matched"`
			TagsAdded   int `json:"tags_added"`
			TagsRemoved int `json:"tags_removed"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.False(t, result.DryRun)
	assert.Equal(t, 2, result.Summary.Matched)
	assert.Equal(t, 2, result.Summary.TagsAdded)
	assert.Equal(t, 1, result.Summary.TagsRemoved)
	assert.Equal(t, []string{"sonarr-hd"}, target.Tags("e1"))

	status, env = do(t, http.MethodGet, ts.URL+"/api/v1/sync/last")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), result.RunID)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `tagsync_runs_total{dry_run="false",outcome="success"} 1`)
	assert.Contains(t, string(body), `tagsync_tag_operations_total{kind="add",status="applied"} 2`)
	assert.Contains(t, string(body), `tagsync_matched_items 2`)
}

func TestSyncDryRun(t *testing.T) {
	source, target := fixtures()
	ts := start(t, newClient(t, source, target))

	status, env := do(t, http.MethodPost, ts.URL+"/api/v1/sync?dryRun=true")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"dry_run":true`)
	assert.Empty(t, target.Mutations())

	status, env = do(t, http.MethodPost, ts.URL+"/api/v1/sync?dryRun=maybe")
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "BAD_REQUEST", env.Error.Code)
}

func TestSyncErrors(t *testing.T) {
	t.Run("upstream unavailable", func(t *testing.T) {
		source, target := fixtures()
		source.FailFetch(stderrors.New("connection refused"))
		ts := start(t, newClient(t, source, target))

		status, env := do(t, http.MethodPost, ts.URL+"/api/v1/sync")
		assert.Equal(t, http.StatusBadGateway, status)
		require.NotNil(t, env.Error)
		assert.Equal(t, "UPSTREAM_UNAVAILABLE", env.Error.Code)
	})

	t.Run("catalog unavailable", func(t *testing.T) {
		source, target := fixtures()
		target.FailFetch(stderrors.New("database is locked"))
		ts := start(t, newClient(t, source, target))

		status, env := do(t, http.MethodPost, ts.URL+"/api/v1/sync")
		assert.Equal(t, http.StatusServiceUnavailable, status)
		require.NotNil(t, env.Error)
		assert.Equal(t, "CATALOG_UNAVAILABLE", env.Error.Code)
	})

	t.Run("configuration incomplete", func(t *testing.T) {
		_, target := fixtures()
		ts := start(t, newClient(t, sonarr.New(sonarr.Config{URL: "http://sonarr:8989"}), target))

		status, env := do(t, http.MethodPost, ts.URL+"/api/v1/sync")
		assert.Equal(t, http.StatusBadRequest, status)
		require.NotNil(t, env.Error)
		assert.Equal(t, "CONFIGURATION_INCOMPLETE", env.Error.Code)
	})
}

// canceledClient reports a run that was stopped after one tag was applied.
type canceledClient struct {
	tagsync.Client
}

func (canceledClient) Sync(context.Context, ...sync.Option) (*reconciler.Result, error) {
	result := &reconciler.Result{Canceled: true}
	result.Summary.Matched = 2
	result.Summary.TagsAdded = 1
	return result, errors.WrapCanceled(context.Canceled)
}

func TestSyncCanceledKeepsPartialResult(t *testing.T) {
	source, target := fixtures()
	ts := start(t, canceledClient{Client: newClient(t, source, target)})

	status, env := do(t, http.MethodPost, ts.URL+"/api/v1/sync")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "CANCELED", env.Error.Code)

	var result struct {
		Canceled bool `json:"canceled"`
		Summary  struct {
			Matched   int `json:"matched"`
			TagsAdded int `json:"tags_added"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.True(t, result.Canceled)
	assert.Equal(t, 2, result.Summary.Matched)
	assert.Equal(t, 1, result.Summary.TagsAdded)
}

// blockingSource holds FetchRecords until released.
type blockingSource struct {
	*memory.Source
	started chan struct{}
	release chan struct{}
	once    gosync.Once
}

func (b *blockingSource) FetchRecords(ctx context.Context) ([]catalogs.SourceRecord, error) {
	b.once.Do(func() { close(b.started) })
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return b.Source.FetchRecords(ctx)
}

func TestSyncRunInProgress(t *testing.T) {
	source, target := fixtures()
	blocking := &blockingSource{Source: source, started: make(chan struct{}), release: make(chan struct{})}
	client := newClient(t, blocking, target)
	ts := start(t, client)

	errCh := make(chan error, 1)
	go func() {
		_, err := client.Sync(context.Background())
		errCh <- err
	}()
	<-blocking.started

	status, env := do(t, http.MethodPost, ts.URL+"/api/v1/sync")
	assert.Equal(t, http.StatusConflict, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "RUN_IN_PROGRESS", env.Error.Code)

	close(blocking.release)
	require.NoError(t, <-errCh)
}

func TestStatusAndConnection(t *testing.T) {
	source, target := fixtures()
	ts := start(t, newClient(t, source, target))

	status, env := do(t, http.MethodGet, ts.URL+"/api/v1/status")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"configured":true`)
	assert.Contains(t, string(env.Data), `"tag_prefix":"sonarr-"`)

	status, env = do(t, http.MethodGet, ts.URL+"/api/v1/test")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"success":true`)
}

func TestAuth(t *testing.T) {
	source, target := fixtures()
	ts := start(t, newClient(t, source, target), func(cfg *server.Config) {
		cfg.APIKey = "secret"
	})

	status, _ := do(t, http.MethodGet, ts.URL+"/api/v1/status")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = do(t, http.MethodGet, ts.URL+"/health")
	assert.Equal(t, http.StatusOK, status)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/status", nil)
	require.NoError(t, err)
	req.Header.Set("X-Api-Key", "secret")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEvents(t *testing.T) {
	source, target := fixtures()
	ts := start(t, newClient(t, source, target))

	conn, _, err := gws.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/v1/events", nil)
	require.NoError(t, err)
	defer conn.Close()

	type message struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	read := func() message {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var m message
		require.NoError(t, conn.ReadJSON(&m))
		return m
	}

	require.Equal(t, "client.connected", read().Type)

	status, _ := do(t, http.MethodPost, ts.URL+"/api/v1/sync")
	require.Equal(t, http.StatusOK, status)

	var types []string
	for len(types) == 0 || types[len(types)-1] != "run.completed" {
		types = append(types, read().Type)
	}
	assert.Equal(t, []string{"tag.changed", "tag.changed", "tag.changed", "run.completed"}, types)
}
