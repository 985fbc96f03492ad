package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/seatmatch/core/events"
	coremetrics "github.com/kilianp07/seatmatch/core/metrics"
	"github.com/kilianp07/seatmatch/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and forwards engine events
// of run runID to the optional recorders of sink. It stops when the context
// is canceled or the bus is closed; the returned channel is closed then.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink, runID string) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				record(sink, runID, ev)
			}
		}
	}()
	return done
}

func record(sink coremetrics.MetricsSink, runID string, ev eventbus.Event) {
	now := time.Now()
	switch e := ev.(type) {
	case events.RoundEvent:
		if r, ok := sink.(coremetrics.RoundRecorder); ok {
			_ = r.RecordRound(coremetrics.RoundEvent{
				RunID: runID, Round: e.Round, Proposals: e.Proposals,
				Rejections: e.Rejections, Unseated: e.Unseated, Time: now,
			})
		}
	case events.FallbackEvent:
		if r, ok := sink.(coremetrics.FallbackRecorder); ok {
			_ = r.RecordFallback(coremetrics.FallbackEvent{
				RunID: runID, ApplicantID: e.ApplicantID, Facility: e.Seat.Facility,
				Grade: e.Seat.Grade, Mode: e.Mode, Time: now,
			})
		}
	case events.UnitDissolvedEvent:
		if r, ok := sink.(coremetrics.DissolutionRecorder); ok {
			_ = r.RecordDissolution(coremetrics.DissolutionEvent{
				RunID: runID, Unit: e.Unit, Members: len(e.Members),
				Round: e.Round, Reason: e.Reason, Time: now,
			})
		}
	}
}
