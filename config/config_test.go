package config

import (
	"os"
	"path/filepath"
	"testing"
)

//nolint:gocyclo
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `log:
  level: debug
matching:
  max_rounds: 50
  seed: 42
  fallback: none
data:
  path: "applicants.yaml"
  grade: "03"
  fill_default_preferences: true
metrics:
  prometheus_addr: ":9090"
  sinks:
    - type: "nop"
history:
  backend: sqlite
  path: runs.db
mqtt:
  enabled: true
  broker: "tcp://localhost:1883"
  client_id: "cli"
  qos: 1
sentry:
  dsn: ""
  environment: test
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"log.level", cfg.Log.Level, "debug"},
		{"matching.max_rounds", cfg.Matching.MaxRounds, 50},
		{"matching.seed", cfg.Matching.Seed, uint64(42)},
		{"matching.fallback", cfg.Matching.Fallback, "none"},
		{"data.path", cfg.Data.Path, "applicants.yaml"},
		{"data.grade", cfg.Data.Grade, "03"},
		{"data.fill", cfg.Data.FillDefaultPreferences, true},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"metrics.prometheus_addr", cfg.Metrics.PrometheusAddr, ":9090"},
		{"history.backend", cfg.History.Backend, "sqlite"},
		{"mqtt.broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"mqtt.qos", cfg.MQTT.QoS, byte(1)},
		{"mqtt.topic_prefix", cfg.MQTT.TopicPrefix, "seatmatch"},
		{"sentry.environment", cfg.Sentry.Environment, "test"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Matching.MaxRounds != 1000 || cfg.Matching.Fallback != "random" {
		t.Errorf("matching defaults not applied: %+v", cfg.Matching)
	}
	if cfg.History.Backend != "jsonl" || cfg.Log.Level != "info" {
		t.Errorf("defaults not applied: %+v %+v", cfg.History, cfg.Log)
	}
}

func TestSentryConfig_EnvironmentFromAppEnv(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	var c SentryConfig
	c.SetDefaults()
	if c.Environment != "dev" {
		t.Errorf("environment = %q, want dev", c.Environment)
	}
	if c.Enabled() {
		t.Errorf("empty dsn must disable reporting")
	}

	t.Setenv("APP_ENV", "")
	c = SentryConfig{}
	c.SetDefaults()
	if c.Environment != "production" {
		t.Errorf("environment = %q, want production", c.Environment)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"matching":{"max_rounds":10}}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("K_MATCHING__MAX_ROUNDS", "7")
	t.Setenv("K_DATA__GRADE", "05")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Matching.MaxRounds != 7 {
		t.Errorf("env override ignored: %d", cfg.Matching.MaxRounds)
	}
	if cfg.Data.Grade != "05" {
		t.Errorf("env override ignored: %q", cfg.Data.Grade)
	}
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"level.yaml":   "log:\n  level: loud\n",
		"rounds.yaml":  "matching:\n  max_rounds: -1\n",
		"history.yaml": "history:\n  backend: csv\n",
		"mqtt.yaml":    "mqtt:\n  enabled: true\n",
		"sentry.yaml":  "sentry:\n  traces_sample_rate: 2\n",
		"dsn.yaml":     "sentry:\n  dsn: not-a-dsn\n",
	}
	for name, body := range cases {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
	if _, err := Load(filepath.Join(dir, "config.toml")); err == nil {
		t.Errorf("expected unsupported format error")
	}
}
