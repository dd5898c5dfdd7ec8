package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/strrl/postwatch/internal/activity"
	"github.com/strrl/postwatch/internal/analyzer"
	"github.com/strrl/postwatch/internal/policy"
)

// Fetcher is the Activity Store Adapter as the aggregator sees it.
type Fetcher interface {
	GetRecords(ctx context.Context, actorHandle string, hoursBack int) ([]activity.Record, error)
}

type Config struct {
	// FetchTimeout bounds each actor's store fetch. Zero means no per-actor deadline.
	FetchTimeout time.Duration
	// Concurrency caps parallel fetches. Values below 1 mean one at a time.
	Concurrency int
	// IsolateFailures turns a failed fetch into a degraded entry instead of
	// aborting the whole report.
	IsolateFailures bool
}

func DefaultConfig() Config {
	return Config{
		FetchTimeout:    10 * time.Second,
		Concurrency:     4,
		IsolateFailures: true,
	}
}

type Aggregator struct {
	config   Config
	registry *policy.Registry
	fetcher  Fetcher
	analyzer *analyzer.Analyzer
	logger   *logrus.Logger
	now      func() time.Time
}

type Option func(*Aggregator)

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

func WithLogger(logger *logrus.Logger) Option {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

func NewAggregator(cfg Config, registry *policy.Registry, fetcher Fetcher, an *analyzer.Analyzer, opts ...Option) *Aggregator {
	a := &Aggregator{
		config:   cfg,
		registry: registry,
		fetcher:  fetcher,
		analyzer: an,
		logger:   logrus.StandardLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeActor fetches and analyzes a single registered actor.
func (a *Aggregator) AnalyzeActor(ctx context.Context, key string, windowHours int) (analyzer.Analysis, error) {
	p, ok := a.registry.Get(key)
	if !ok {
		return analyzer.Analysis{}, &ConfigurationError{Actor: key}
	}

	records, err := a.fetch(ctx, key, p, windowHours)
	if err != nil {
		return analyzer.Analysis{}, err
	}

	return a.analyzer.Analyze(p, records, windowHours), nil
}

// GenerateReport analyzes every registered actor and summarizes the results.
// Actors are fetched concurrently; the summary waits for all of them.
func (a *Aggregator) GenerateReport(ctx context.Context, windowHours int) (*Report, error) {
	keys := a.registry.Keys()
	results := make([]analyzer.Analysis, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, a.config.Concurrency))

	for i, key := range keys {
		g.Go(func() error {
			p, _ := a.registry.Get(key)
			log := a.logger.WithFields(logrus.Fields{"actor": key, "window_hours": windowHours})
			log.Infof("Analyzing %s schedule compliance", p.DisplayName)

			records, err := a.fetch(gctx, key, p, windowHours)
			if err != nil {
				if !a.config.IsolateFailures {
					return err
				}
				log.WithError(err).Warn("Fetch failed, recording degraded entry")
				results[i] = a.degraded(p, windowHours, err)
				return nil
			}

			results[i] = a.analyzer.Analyze(p, records, windowHours)
			log.WithFields(logrus.Fields{
				"records": results[i].RecordsFound,
				"issues":  len(results[i].Issues),
				"score":   results[i].ComplianceScore,
			}).Debug("Analysis complete")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{
		GeneratedAt: a.now().UTC(),
		WindowHours: windowHours,
		PerActor:    make(map[string]analyzer.Analysis, len(keys)),
		Order:       keys,
	}
	for i, key := range keys {
		report.PerActor[key] = results[i]
	}
	report.Summary = Summarize(results)

	return report, nil
}

// Summarize computes fleet totals and the unweighted mean score.
func Summarize(analyses []analyzer.Analysis) Summary {
	var s Summary
	var total float64
	for _, an := range analyses {
		s.TotalRecords += an.RecordsFound
		s.TotalIssues += len(an.Issues)
		total += an.ComplianceScore
	}
	if len(analyses) > 0 {
		s.AverageCompliance = total / float64(len(analyses))
	}
	return s
}

func (a *Aggregator) fetch(ctx context.Context, key string, p policy.Policy, windowHours int) ([]activity.Record, error) {
	if a.config.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.FetchTimeout)
		defer cancel()
	}

	records, err := a.fetcher.GetRecords(ctx, p.ActorHandle, windowHours)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, &DataSourceError{Actor: key, Err: err}
	}
	return records, nil
}

func (a *Aggregator) degraded(p policy.Policy, windowHours int, err error) analyzer.Analysis {
	cause := err.Error()
	var dse *DataSourceError
	if errors.As(err, &dse) {
		cause = dse.Err.Error()
	}
	return analyzer.Analysis{
		Actor:              p.ActorHandle,
		DisplayName:        p.DisplayName,
		WindowHours:        windowHours,
		ExpectedSchedule:   p.ScheduleDescription,
		Issues:             []string{fmt.Sprintf("data unavailable: %s", cause)},
		Recommendations:    []string{},
		ComplianceScore:    0,
		ReplyWindowMinutes: p.ReplyWindowMinutes,
		RecordPreviews:     []analyzer.Preview{},
		Degraded:           true,
		FetchError:         cause,
	}
}
