package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strrl/postwatch/internal/activity"
	"github.com/strrl/postwatch/internal/logging"
	"github.com/strrl/postwatch/internal/policy"
)

type fakeSource struct {
	feeds map[string][]activity.Record
	errs  map[string]error
}

func (f *fakeSource) FetchRecords(_ context.Context, handle string) ([]activity.Record, error) {
	if err := f.errs[handle]; err != nil {
		return nil, err
	}
	return f.feeds[handle], nil
}

type fakeSink struct {
	upserted   []activity.Record
	sessions   []activity.Session
	sessionErr error
}

func (f *fakeSink) Upsert(_ context.Context, records []activity.Record) (int, error) {
	f.upserted = append(f.upserted, records...)
	return len(records), nil
}

func (f *fakeSink) RecordSession(_ context.Context, s activity.Session) error {
	if f.sessionErr != nil {
		return f.sessionErr
	}
	f.sessions = append(f.sessions, s)
	return nil
}

type countingRecorder struct {
	failed []string
}

func (c *countingRecorder) FetchFailed(actor string) {
	c.failed = append(c.failed, actor)
}

var cycleStart = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func registry(t *testing.T) *policy.Registry {
	t.Helper()
	r, err := policy.NewRegistry(
		policy.Policy{Key: "a", ActorHandle: "AlphaBot", MinIntervalMinutes: 1, MaxIntervalMinutes: 2},
		policy.Policy{Key: "b", ActorHandle: "BetaBot", MinIntervalMinutes: 1, MaxIntervalMinutes: 2},
	)
	require.NoError(t, err)
	return r
}

func feedRecord(id, actor string) activity.Record {
	return activity.Record{ID: id, Actor: actor, Timestamp: cycleStart.Add(-time.Hour), Kind: activity.KindOriginal}
}

func TestRunCycle(t *testing.T) {
	source := &fakeSource{feeds: map[string][]activity.Record{
		"AlphaBot": {feedRecord("1", "AlphaBot"), feedRecord("2", "AlphaBot")},
		"BetaBot":  {feedRecord("9", "BetaBot")},
	}}
	sink := &fakeSink{}

	c := New(registry(t), source, sink, logging.NewDiscardLogger(),
		WithClock(func() time.Time { return cycleStart }),
		WithIDGenerator(func() string { return "session-1" }))

	session, err := c.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "session-1", session.ID)
	assert.Equal(t, cycleStart, session.StartedAt)
	require.NotNil(t, session.EndedAt)
	assert.Equal(t, []string{"AlphaBot", "BetaBot"}, session.AccountsChecked)
	assert.Equal(t, 3, session.RecordsFound)
	assert.Empty(t, session.Errors)
	assert.Len(t, sink.upserted, 3)
	require.Len(t, sink.sessions, 1)
	assert.Equal(t, session, sink.sessions[0])
}

func TestRunCycleCollectsPerActorErrors(t *testing.T) {
	source := &fakeSource{
		feeds: map[string][]activity.Record{"BetaBot": {feedRecord("9", "BetaBot")}},
		errs:  map[string]error{"AlphaBot": errors.New("all mirrors failed")},
	}
	sink := &fakeSink{}
	recorder := &countingRecorder{}

	c := New(registry(t), source, sink, logging.NewDiscardLogger(), WithFailureRecorder(recorder))

	session, err := c.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, session.RecordsFound)
	assert.Equal(t, []string{"AlphaBot: all mirrors failed"}, session.Errors)
	assert.Equal(t, []string{"a"}, recorder.failed)
	assert.NotEmpty(t, session.ID)
}

func TestRunCycleSessionWriteFailure(t *testing.T) {
	sink := &fakeSink{sessionErr: errors.New("disk full")}
	c := New(registry(t), &fakeSource{}, sink, logging.NewDiscardLogger())

	_, err := c.RunCycle(context.Background())
	assert.ErrorContains(t, err, "failed to record session: disk full")
}

func TestRunStopsOnCancel(t *testing.T) {
	sink := &fakeSink{}
	c := New(registry(t), &fakeSource{}, sink, logging.NewDiscardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, c.Run(ctx, time.Hour))
	assert.Len(t, sink.sessions, 1)
}
