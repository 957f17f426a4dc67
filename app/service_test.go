package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/macmarek/scheduling-assistant/config"
	"github.com/macmarek/scheduling-assistant/core/factory"
	"github.com/macmarek/scheduling-assistant/core/scheduler/runlog"
)

func newService(t *testing.T) *Service {
	t.Helper()
	cfg := config.Default()
	cfg.RunLog.Path = filepath.Join(t.TempDir(), "runs.jsonl")
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "prometheus"}}
	cfg.API.Token = "tok"
	svc, err := New(cfg)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestServiceRoutes(t *testing.T) {
	svc := newService(t)
	srv := httptest.NewServer(svc.Handler())
	defer srv.Close()

	body := `{"participants":[{"id":"A"}],"meetings":[{"id":"standup","duration_minutes":30,"participants":["A"]}]}`
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/schedule", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer tok")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("schedule status %d", resp.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/api/runs?meeting_id=standup", nil)
	req.Header.Set("Authorization", "Bearer tok")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	var recs []runlog.Record
	if err := json.NewDecoder(resp.Body).Decode(&recs); err != nil {
		t.Fatalf("decode runs: %v", err)
	}
	_ = resp.Body.Close()
	if len(recs) != 1 || recs[0].Outcome != "scheduled" {
		t.Fatalf("unexpected runs %+v", recs)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if !strings.Contains(string(b), "schedassist_runs_total") {
		t.Fatalf("metrics missing run counter")
	}

	resp, err = http.Get(srv.URL + "/healthz")
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: %v", err)
	}
	_ = resp.Body.Close()
}

func TestServiceRunStopsOnCancel(t *testing.T) {
	svc := newService(t)
	svc.cfg.API.Addr = "127.0.0.1:0"
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- svc.Run(ctx) }()
	cancel()
	if err := <-errc; err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestNewRejectsUnknownSink(t *testing.T) {
	cfg := config.Default()
	cfg.RunLog.Path = filepath.Join(t.TempDir(), "runs.jsonl")
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "statsd"}}
	if _, err := New(cfg); err == nil {
		t.Fatalf("expected error")
	}
}
