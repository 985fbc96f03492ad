package test

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/seatmatch/app"
	"github.com/kilianp07/seatmatch/config"
	"github.com/kilianp07/seatmatch/core/factory"
	"github.com/kilianp07/seatmatch/core/matching"
	"github.com/kilianp07/seatmatch/core/model"
	"github.com/kilianp07/seatmatch/dataset"
	"github.com/kilianp07/seatmatch/infra/logger"
	"github.com/kilianp07/seatmatch/test/util"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.History.Backend = "sqlite"
	cfg.History.Path = filepath.Join(t.TempDir(), "runs.db")
	cfg.Matching.Seed = 11
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func TestMetricsHTTPExposure(t *testing.T) {
	reg := prometheus.NewRegistry()
	matching.ResetMetrics(reg)
	t.Cleanup(func() { matching.ResetMetrics(nil) })

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	e, err := matching.NewEngine(matching.GroupPriorityPolicy{}, matching.NoopFallback{}, matching.Config{}, logger.NopLogger{})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	ds := dataset.Demo()
	if _, err := e.Run(model.CloneApplicants(ds.Applicants), ds.SeatMap()); err != nil {
		t.Fatalf("run: %v", err)
	}

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	out := string(body)
	for _, name := range []string{"seatmatch_rounds", "seatmatch_unmatched_applicants"} {
		if !strings.Contains(out, name) {
			t.Errorf("metrics output missing %s: %s", name, out)
		}
	}
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return addr
}

func TestServicePromSinkServed(t *testing.T) {
	matching.ResetMetrics(nil)
	cfg := testConfig(t)
	cfg.Metrics.PrometheusAddr = freeAddr(t)
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "prometheus"}}

	svc, err := app.New(cfg, app.WithLogger(logger.NopLogger{}))
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	defer func() { _ = svc.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	go func() { _ = svc.ServeMetrics(ctx) }()

	if _, err := svc.Match(ctx, dataset.Demo()); err != nil {
		t.Fatalf("match: %v", err)
	}
	url := fmt.Sprintf("http://%s/metrics", cfg.Metrics.PrometheusAddr)
	waitCtx, waitCancel := context.WithTimeout(ctx, util.MetricTimeout)
	defer waitCancel()
	const want = `
# HELP seatmatch_runs_total Number of matching runs by convergence reason
# TYPE seatmatch_runs_total counter
seatmatch_runs_total{converged="all_seated"} 1
`
	if err := util.WaitForMetrics(waitCtx, url, want, "seatmatch_runs_total"); err != nil {
		t.Fatal(err)
	}
}
