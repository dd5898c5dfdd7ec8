package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/strrl/postwatch/internal/activity"
	"github.com/strrl/postwatch/internal/policy"
)

// Source yields the current public feed of one actor.
type Source interface {
	FetchRecords(ctx context.Context, handle string) ([]activity.Record, error)
}

// Sink persists collected records and session summaries.
type Sink interface {
	Upsert(ctx context.Context, records []activity.Record) (int, error)
	RecordSession(ctx context.Context, session activity.Session) error
}

// FailureRecorder is notified of every actor whose feed could not be collected.
type FailureRecorder interface {
	FetchFailed(actor string)
}

type Collector struct {
	registry *policy.Registry
	source   Source
	sink     Sink
	failures FailureRecorder
	logger   *logrus.Logger
	now      func() time.Time
	newID    func() string
}

type Option func(*Collector)

func WithClock(now func() time.Time) Option {
	return func(c *Collector) {
		c.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(c *Collector) {
		c.newID = newID
	}
}

func WithFailureRecorder(r FailureRecorder) Option {
	return func(c *Collector) {
		c.failures = r
	}
}

func New(registry *policy.Registry, source Source, sink Sink, logger *logrus.Logger, opts ...Option) *Collector {
	c := &Collector{
		registry: registry,
		source:   source,
		sink:     sink,
		logger:   logger,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunCycle collects every registered actor once and records the session.
// Per-actor failures end up in Session.Errors; only a failure to persist the
// session itself is returned.
func (c *Collector) RunCycle(ctx context.Context) (activity.Session, error) {
	session := activity.Session{
		ID:              c.newID(),
		StartedAt:       c.now().UTC(),
		AccountsChecked: []string{},
		Errors:          []string{},
	}
	log := c.logger.WithField("session_id", session.ID)
	log.Info("Starting monitoring cycle")

	for _, p := range c.registry.Policies() {
		session.AccountsChecked = append(session.AccountsChecked, p.ActorHandle)

		stored, err := c.collectActor(ctx, p)
		if err != nil {
			log.WithField("actor", p.ActorHandle).WithError(err).Warn("Collection failed")
			session.Errors = append(session.Errors, fmt.Sprintf("%s: %v", p.ActorHandle, err))
			if c.failures != nil {
				c.failures.FetchFailed(p.Key)
			}
			continue
		}
		session.RecordsFound += stored
		log.WithFields(logrus.Fields{"actor": p.ActorHandle, "records": stored}).Info("Collected feed")
	}

	ended := c.now().UTC()
	session.EndedAt = &ended

	if err := c.sink.RecordSession(ctx, session); err != nil {
		return session, fmt.Errorf("failed to record session: %w", err)
	}

	log.WithFields(logrus.Fields{
		"records": session.RecordsFound,
		"errors":  len(session.Errors),
	}).Info("Monitoring cycle complete")
	return session, nil
}

// Run repeats RunCycle every interval until ctx is done. The first cycle
// starts immediately.
func (c *Collector) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := c.RunCycle(ctx); err != nil {
			c.logger.WithError(err).Error("Monitoring cycle failed")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (c *Collector) collectActor(ctx context.Context, p policy.Policy) (int, error) {
	records, err := c.source.FetchRecords(ctx, p.ActorHandle)
	if err != nil {
		return 0, err
	}
	return c.sink.Upsert(ctx, records)
}
