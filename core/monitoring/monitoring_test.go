package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordMonitor struct {
	errs   []error
	tags   map[string]string
	panics []any
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.errs = append(r.errs, err)
	r.tags = tags
}
func (r *recordMonitor) Recover()            {}
func (r *recordMonitor) Flush(time.Duration) {}
func (r *recordMonitor) ReportPanic(v any)   { r.panics = append(r.panics, v) }

func TestCaptureException(t *testing.T) {
	mon := &recordMonitor{}
	Init(mon)
	t.Cleanup(func() { Init(nil) })

	CaptureException(nil, nil)
	CaptureException(errors.New("boom"), map[string]string{"run_id": "r1"})
	require.Len(t, mon.errs, 1)
	assert.Equal(t, "r1", mon.tags["run_id"])
}

func TestRecover_ReportsAndRepanics(t *testing.T) {
	mon := &recordMonitor{}
	Init(mon)
	t.Cleanup(func() { Init(nil) })

	assert.PanicsWithValue(t, "bad", func() {
		defer Recover()
		panic("bad")
	})
	assert.Equal(t, []any{"bad"}, mon.panics)
}

func TestInit_NilRestoresNop(t *testing.T) {
	Init(nil)
	assert.IsType(t, NopMonitor{}, get())
}
