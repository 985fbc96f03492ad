package metrics

import "errors"

// MultiSink fans out records to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordMatchResult forwards the record to all sinks and joins their errors.
func (m *MultiSink) RecordMatchResult(rec MatchRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordMatchResult(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordRound forwards round events to sinks supporting them.
func (m *MultiSink) RecordRound(ev RoundEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(RoundRecorder); ok {
			if err := rec.RecordRound(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordFallback forwards fallback events to sinks supporting them.
func (m *MultiSink) RecordFallback(ev FallbackEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(FallbackRecorder); ok {
			if err := rec.RecordFallback(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordDissolution forwards dissolution events to sinks supporting them.
func (m *MultiSink) RecordDissolution(ev DissolutionEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(DissolutionRecorder); ok {
			if err := rec.RecordDissolution(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes the sinks holding resources.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
