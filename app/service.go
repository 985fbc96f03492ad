package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/seatmatch/app/plugins"
	"github.com/kilianp07/seatmatch/config"
	"github.com/kilianp07/seatmatch/core/matching"
	coremetrics "github.com/kilianp07/seatmatch/core/metrics"
	"github.com/kilianp07/seatmatch/core/model"
	coremon "github.com/kilianp07/seatmatch/core/monitoring"
	"github.com/kilianp07/seatmatch/core/notify"
	"github.com/kilianp07/seatmatch/core/runlog"
	"github.com/kilianp07/seatmatch/dataset"
	"github.com/kilianp07/seatmatch/infra/logger"
	"github.com/kilianp07/seatmatch/infra/metrics"
	"github.com/kilianp07/seatmatch/infra/mqtt"
	"github.com/kilianp07/seatmatch/internal/eventbus"
)

// runBuffer is the event bus capacity of one run, large enough that the
// metrics collector does not drop round events of typical runs.
const runBuffer = 1024

// Service runs matches and fans the results out to metrics sinks, the run
// history and notification publishers.
type Service struct {
	cfg       *config.Config
	sink      coremetrics.MetricsSink
	store     runlog.Store
	publisher notify.Publisher
	policy    matching.SeatPolicy
	log       logger.Logger
	now       func() time.Time
}

// Option customises a Service built by New.
type Option func(*Service)

// WithSink replaces the configured metrics sinks.
func WithSink(s coremetrics.MetricsSink) Option { return func(svc *Service) { svc.sink = s } }

// WithStore replaces the configured history store.
func WithStore(s runlog.Store) Option { return func(svc *Service) { svc.store = s } }

// WithPublisher replaces the configured notification publisher.
func WithPublisher(p notify.Publisher) Option { return func(svc *Service) { svc.publisher = p } }

// WithPolicy replaces the seat resolution policy.
func WithPolicy(p matching.SeatPolicy) Option { return func(svc *Service) { svc.policy = p } }

// WithLogger replaces the service logger.
func WithLogger(l logger.Logger) Option { return func(svc *Service) { svc.log = l } }

// New creates a Service from the configuration. Components supplied as
// options are not built from cfg.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}
	if !plugins.Fallbacks.Has(cfg.Matching.Fallback) {
		return nil, fmt.Errorf("unknown fallback %q (available: %v)", cfg.Matching.Fallback, plugins.Fallbacks.Names())
	}
	svc := &Service{cfg: cfg, policy: matching.GroupPriorityPolicy{}, now: time.Now}
	for _, o := range opts {
		o(svc)
	}
	if svc.log == nil {
		svc.log = logger.New("service")
	}
	if svc.sink == nil {
		sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
		if err != nil {
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
		svc.sink = sink
	}
	if svc.store == nil {
		store, err := plugins.NewStore(cfg.History)
		if err != nil {
			return nil, fmt.Errorf("history store: %w", err)
		}
		svc.store = store
	}
	if svc.publisher == nil {
		if cfg.MQTT.Enabled {
			client, err := mqtt.NewPahoClient(cfg.MQTT)
			if err != nil {
				_ = svc.store.Close()
				return nil, fmt.Errorf("mqtt client: %w", err)
			}
			svc.publisher = client
		} else {
			svc.publisher = notify.NopPublisher{}
		}
	}
	return svc, nil
}

type outcome struct {
	res *model.MatchResult
	err error
}

// Match runs the engine on a fresh copy of ds. The engine itself cannot be
// interrupted: when ctx ends first Match returns ctx.Err() and the result
// of the background run is discarded.
func (s *Service) Match(ctx context.Context, ds dataset.Dataset) (*model.MatchResult, error) {
	runID := uuid.NewString()
	grade := s.cfg.Data.Grade
	in := dataset.Dataset{Seats: ds.Seats, Applicants: model.CloneApplicants(ds.FilterGrade(grade).Applicants)}
	if s.cfg.Data.FillDefaultPreferences {
		in.FillDefaultPreferences(s.log)
	}
	applicants := len(in.Applicants)

	fallback, err := plugins.NewFallback(s.cfg.Matching)
	if err != nil {
		return nil, fmt.Errorf("fallback: %w", err)
	}
	engine, err := matching.NewEngine(s.policy, fallback, s.cfg.Matching, logger.New("matching"))
	if err != nil {
		return nil, err
	}
	bus := eventbus.NewTyped[eventbus.Event](runBuffer)
	engine.SetEventBus(bus)
	collected := metrics.StartEventCollector(ctx, bus, s.sink, runID)

	done := make(chan outcome, 1)
	go func() {
		defer bus.Close()
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("matching panicked: %v", r)
				coremon.CaptureException(err, map[string]string{"module": "matching", "run_id": runID})
				done <- outcome{err: err}
			}
		}()
		res, err := engine.Run(in.Applicants, in.SeatMap())
		done <- outcome{res: res, err: err}
	}()

	var out outcome
	select {
	case <-ctx.Done():
		s.log.Warnf("run %s abandoned: %v", runID, ctx.Err())
		return nil, ctx.Err()
	case out = <-done:
	}
	<-collected

	if out.err != nil {
		if errors.Is(out.err, matching.ErrInvariantViolation) {
			coremon.CaptureException(out.err, map[string]string{"module": "matching", "run_id": runID})
		}
		return nil, fmt.Errorf("run %s: %w", runID, out.err)
	}
	res := out.res
	res.RunID = runID
	at := s.now()

	if err := s.sink.RecordMatchResult(coremetrics.NewMatchRecord(res, grade, applicants, at)); err != nil {
		s.log.Errorf("record metrics: %v", err)
	}
	if err := s.store.Append(ctx, runlog.NewRunRecord(res, grade, applicants, at)); err != nil {
		s.log.Errorf("persist run %s: %v", runID, err)
		coremon.CaptureException(err, map[string]string{"module": "runlog", "run_id": runID})
	}
	s.notify(ctx, res)
	return res, nil
}

func (s *Service) notify(ctx context.Context, res *model.MatchResult) {
	failed := 0
	for _, a := range res.Assignments {
		if err := s.publisher.PublishAssignment(ctx, res.RunID, a); err != nil {
			failed++
		}
	}
	for _, a := range res.Unmatched {
		if err := s.publisher.PublishUnmatched(ctx, res.RunID, a); err != nil {
			failed++
		}
	}
	if failed > 0 {
		s.log.Errorf("run %s: %d notifications failed", res.RunID, failed)
	}
}

// History returns the stored runs matching q.
func (s *Service) History(ctx context.Context, q runlog.RunQuery) ([]runlog.RunRecord, error) {
	return s.store.Query(ctx, q)
}

// ServeMetrics exposes the Prometheus endpoint until ctx is canceled. It
// returns immediately when no address is configured.
func (s *Service) ServeMetrics(ctx context.Context) error {
	if s.cfg.Metrics.PrometheusAddr == "" {
		return nil
	}
	return metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr, s.log)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.publisher.Close()
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	return s.store.Close()
}
