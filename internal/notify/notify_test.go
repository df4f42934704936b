package notify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dgnsrekt/osm-live-updates/internal/osm"
	"github.com/dgnsrekt/osm-live-updates/internal/replication"
	"github.com/dgnsrekt/osm-live-updates/internal/transport"
)

type capturedRequest struct {
	path    string
	title   string
	tags    string
	prio    string
	auth    string
	message string
}

func newNtfyServer(t *testing.T, status int) (*httptest.Server, func() []capturedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []capturedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, capturedRequest{
			path:    r.URL.Path,
			title:   r.Header.Get("Title"),
			tags:    r.Header.Get("Tags"),
			prio:    r.Header.Get("Priority"),
			auth:    r.Header.Get("Authorization"),
			message: string(body),
		})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedRequest(nil), reqs...)
	}
}

func sampleResult() *replication.RunResult {
	return &replication.RunResult{
		RunID:    "run-1",
		From:     100,
		To:       102,
		Applied:  3,
		Upstream: osm.SyncState{SequenceNumber: 102, Timestamp: "2024-03-01T12:00:00Z"},
		Duration: 4 * time.Second,
	}
}

func TestClient_SendSuccess(t *testing.T) {
	srv, requests := newNtfyServer(t, http.StatusOK)
	cfg := &Config{Enabled: true, Server: srv.URL + "/", Topic: "osm", Priority: "default", Tags: "world_map", Token: "tk"}

	err := NewClient(cfg, zap.NewNop()).SendSuccess(context.Background(), sampleResult())
	require.NoError(t, err)

	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/osm", reqs[0].path)
	assert.Equal(t, "OSM Sync Complete: 102", reqs[0].title)
	assert.Equal(t, "world_map,white_check_mark", reqs[0].tags)
	assert.Equal(t, "Bearer tk", reqs[0].auth)
	assert.Contains(t, reqs[0].message, "Sequences: 100..102")
	assert.Contains(t, reqs[0].message, "Applied: 3 diffs")
}

func TestClient_SendFailure(t *testing.T) {
	srv, requests := newNtfyServer(t, http.StatusOK)
	cfg := &Config{Enabled: true, Server: srv.URL, Topic: "osm", Priority: "low", Tags: "world_map"}

	result := sampleResult()
	result.Applied = 1
	batchErr := &transport.BatchError{Total: 2, Failed: []*transport.TransportError{
		{URL: "https://example.org/node/1", StatusCode: 500},
	}}

	err := NewClient(cfg, zap.NewNop()).SendFailure(context.Background(), result, batchErr)
	require.NoError(t, err)

	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "high", reqs[0].prio)
	assert.Equal(t, "OSM Sync Failed after 100", reqs[0].title)
	assert.Contains(t, reqs[0].message, "https://example.org/node/1")
}

func TestClient_SendStatusError(t *testing.T) {
	srv, _ := newNtfyServer(t, http.StatusForbidden)
	cfg := &Config{Enabled: true, Server: srv.URL, Topic: "osm", Priority: "default"}

	err := NewClient(cfg, zap.NewNop()).SendSuccess(context.Background(), sampleResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestClient_DisabledSendsNothing(t *testing.T) {
	srv, requests := newNtfyServer(t, http.StatusOK)
	cfg := &Config{Enabled: false, Server: srv.URL, Topic: "osm"}

	require.NoError(t, NewClient(cfg, zap.NewNop()).SendSuccess(context.Background(), sampleResult()))
	assert.Empty(t, requests())
}

func TestNew_ReturnsNoopWhenDisabled(t *testing.T) {
	n := New(&Config{}, zap.NewNop())
	_, ok := n.(*NoopNotifier)
	assert.True(t, ok)
	assert.NoError(t, n.SendFailure(context.Background(), sampleResult(), errors.New("boom")))
}

func TestFormatSuccessMessage_UpToDate(t *testing.T) {
	result := &replication.RunResult{From: 11, To: 10, Upstream: osm.SyncState{SequenceNumber: 10}}
	assert.Contains(t, FormatSuccessMessage(result), "Already up to date")
}

func TestFormatFailureMessage_LimitsURLs(t *testing.T) {
	var failed []*transport.TransportError
	for _, u := range []string{"u1", "u2", "u3", "u4", "u5"} {
		failed = append(failed, &transport.TransportError{URL: u, StatusCode: 502})
	}
	msg := FormatFailureMessage(sampleResult(), &transport.BatchError{Total: 5, Failed: failed})

	assert.Contains(t, msg, "- u3")
	assert.NotContains(t, msg, "- u4")
	assert.Contains(t, msg, "... and 2 more")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"disabled", Config{}, false},
		{"valid", Config{Enabled: true, Server: "https://ntfy.sh", Topic: "osm", Priority: "default"}, false},
		{"missing topic", Config{Enabled: true, Server: "https://ntfy.sh", Priority: "default"}, true},
		{"bad server", Config{Enabled: true, Server: "ntfy", Topic: "osm", Priority: "default"}, true},
		{"bad priority", Config{Enabled: true, Server: "https://ntfy.sh", Topic: "osm", Priority: "loud"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("NTFY_ENABLED", "true")
	t.Setenv("NTFY_TOPIC", "osm-sync")
	t.Setenv("NTFY_PRIORITY", "high")

	cfg := LoadConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "osm-sync", cfg.Topic)
	assert.Equal(t, "high", cfg.Priority)
	assert.Equal(t, "https://ntfy.sh", cfg.Server)
	assert.Equal(t, "world_map", cfg.Tags)
}

type recordingNotifier struct {
	success, failure int
}

func (r *recordingNotifier) SendSuccess(context.Context, *replication.RunResult) error {
	r.success++
	return nil
}

func (r *recordingNotifier) SendFailure(context.Context, *replication.RunResult, error) error {
	r.failure++
	return nil
}

func TestReport(t *testing.T) {
	tests := []struct {
		name        string
		result      *replication.RunResult
		err         error
		wantSuccess int
		wantFailure int
	}{
		{"applied", sampleResult(), nil, 1, 0},
		{"up to date", &replication.RunResult{From: 11, To: 10}, nil, 0, 0},
		{"failed", sampleResult(), errors.New("status 503"), 0, 1},
		{"failed without result", nil, errors.New("status 503"), 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &recordingNotifier{}
			require.NoError(t, Report(context.Background(), n, tt.result, tt.err))
			assert.Equal(t, tt.wantSuccess, n.success)
			assert.Equal(t, tt.wantFailure, n.failure)
		})
	}
}
