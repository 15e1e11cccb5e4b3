package metrics

import (
	"time"
)

// Statements groups the instruments recorded while executing SQL statements.
// A nil *Statements is valid and records nothing.
type Statements struct {
	total         *Counter
	failures      *Counter
	introspection *Counter
	queueDepth    *Gauge
	duration      *Histogram
}

// NewStatements registers the statement instruments under prefix, e.g.
// "sqlquery" yields sqlquery_statements_total.
func NewStatements(c Client, prefix string) (*Statements, error) {
	name := func(s string) string {
		if prefix == "" {
			return s
		}
		return prefix + "_" + s
	}

	total, err := c.NewCounter(name("statements_total"))
	if err != nil {
		return nil, err
	}
	failures, err := c.NewCounter(name("statement_errors_total"))
	if err != nil {
		return nil, err
	}
	introspection, err := c.NewCounter(name("introspection_failures_total"))
	if err != nil {
		return nil, err
	}
	queueDepth, err := c.NewGauge(name("queue_depth"))
	if err != nil {
		return nil, err
	}
	duration, err := c.NewHistogram(name("statement_duration_seconds"))
	if err != nil {
		return nil, err
	}

	return &Statements{
		total:         total,
		failures:      failures,
		introspection: introspection,
		queueDepth:    queueDepth,
		duration:      duration,
	}, nil
}

// Queued marks a statement waiting for the connection.
func (s *Statements) Queued() {
	if s == nil {
		return
	}
	s.queueDepth.Inc()
}

// Dequeued marks a statement leaving the queue to run.
func (s *Statements) Dequeued() {
	if s == nil {
		return
	}
	s.queueDepth.Dec()
}

// Executed records one finished driver round trip.
func (s *Statements) Executed(elapsed time.Duration, err error) {
	if s == nil {
		return
	}
	s.total.Inc()
	if err != nil {
		s.failures.Inc()
	}
	s.duration.Observe(elapsed.Seconds())
}

// IntrospectionFailed records a schema fetch that was skipped.
func (s *Statements) IntrospectionFailed() {
	if s == nil {
		return
	}
	s.introspection.Inc()
}
