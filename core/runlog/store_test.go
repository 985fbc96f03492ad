package runlog

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/seatmatch/core/model"
)

func sampleRecord(id string, at time.Time) RunRecord {
	return RunRecord{
		RunID:     id,
		Timestamp: at,
		Grade:     "01",
		Rounds:    2,
		Converged: model.ConvergedAllSeated,
		Assignments: []model.Assignment{
			{ApplicantID: 1, Facility: "F1", Grade: "01", Rank: 1},
			{ApplicantID: 2, Facility: "F2", Grade: "01", Rank: 2},
		},
		Unmatched: []int64{3},
	}
}

func TestRunQuery_Matches(t *testing.T) {
	now := time.Now()
	rec := sampleRecord("r1", now)
	tests := []struct {
		name string
		q    RunQuery
		want bool
	}{
		{"empty", RunQuery{}, true},
		{"in window", RunQuery{Start: now.Add(-time.Minute), End: now.Add(time.Minute)}, true},
		{"before window", RunQuery{Start: now.Add(time.Minute)}, false},
		{"after window", RunQuery{End: now.Add(-time.Minute)}, false},
		{"assigned applicant", RunQuery{ApplicantID: 2}, true},
		{"unmatched applicant", RunQuery{ApplicantID: 3}, true},
		{"unknown applicant", RunQuery{ApplicantID: 9}, false},
		{"facility", RunQuery{Facility: "F1"}, true},
		{"applicant at facility", RunQuery{ApplicantID: 2, Facility: "F2"}, true},
		{"applicant elsewhere", RunQuery{ApplicantID: 2, Facility: "F1"}, false},
		{"unmatched has no facility", RunQuery{ApplicantID: 3, Facility: "F1"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.Matches(rec))
		})
	}
}

func TestRunRecord_JSONKeys(t *testing.T) {
	b, err := json.Marshal(sampleRecord("r1", time.Now()))
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	for _, k := range []string{"run_id", "timestamp", "rounds", "converged", "assignments", "unmatched"} {
		assert.Contains(t, m, k)
	}
}

func TestNewRunRecord(t *testing.T) {
	res := &model.MatchResult{
		RunID:       "abc",
		Rounds:      3,
		Converged:   model.ConvergedExhausted,
		Assignments: []model.Assignment{{ApplicantID: 1}},
		Unmatched:   []*model.Applicant{{ID: 4}},
	}
	at := time.Unix(100, 0)
	rec := NewRunRecord(res, "02", 2, at)
	assert.Equal(t, "abc", rec.RunID)
	assert.Equal(t, at, rec.Timestamp)
	assert.Equal(t, []int64{4}, rec.Unmatched)
	assert.Equal(t, 2, rec.Applicants)
}

func TestJSONLStore_AppendQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	store, err := NewJSONLStore(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	now := time.Now()
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, sampleRecord("r1", now.Add(-time.Hour))))
	require.NoError(t, store.Append(ctx, sampleRecord("r2", now)))

	out, err := store.Query(ctx, RunQuery{})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "r1", out[0].RunID)

	out, err = store.Query(ctx, RunQuery{Start: now.Add(-time.Minute)})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "r2", out[0].RunID)
	assert.Len(t, out[0].Assignments, 2)
}

func TestJSONLStore_CanceledContext(t *testing.T) {
	store, err := NewJSONLStore(filepath.Join(t.TempDir(), "runs.jsonl"))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, store.Append(ctx, sampleRecord("r1", time.Now())), context.Canceled)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		cfg  Config
		want any
	}{
		{Config{Backend: "jsonl", Path: filepath.Join(dir, "a.jsonl")}, &JSONLStore{}},
		{Config{Backend: "jsonl", Path: filepath.Join(dir, "b.jsonl"), MaxSizeMB: 1}, &RotatingJSONLStore{}},
		{Config{Backend: "sqlite", Path: filepath.Join(dir, "c.db")}, &SQLiteStore{}},
	}
	for _, tt := range tests {
		s, err := Open(tt.cfg)
		require.NoError(t, err)
		assert.IsType(t, tt.want, s)
		_ = s.Close()
	}
	_, err := Open(Config{Backend: "csv"})
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.NoError(t, c.Validate())
	assert.Equal(t, "jsonl", c.Backend)
	c.Backend = "redis"
	assert.Error(t, c.Validate())
	c = Config{Backend: "sqlite", MaxBackups: -1}
	assert.Error(t, c.Validate())
}
