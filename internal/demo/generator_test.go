package demo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strrl/postwatch/internal/activity"
	"github.com/strrl/postwatch/internal/analyzer"
	"github.com/strrl/postwatch/internal/policy"
)

var clock = func() time.Time { return time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC) }

func defaultPolicy(t *testing.T, key string) policy.Policy {
	t.Helper()
	p, ok := policy.DefaultRegistry().Get(key)
	require.True(t, ok)
	return p
}

func TestGenerateDailyCue(t *testing.T) {
	p := defaultPolicy(t, "bitbard")
	records := NewGenerator(1, clock).Generate(p, 48)

	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, 14, r.Timestamp.Hour())
		assert.Equal(t, activity.KindOriginal, r.Kind)
		assert.NoError(t, r.Validate())
	}

	a := analyzer.NewDefault().Analyze(p, records[:1], 24)
	assert.Empty(t, a.Issues)
}

func TestGenerateCadence(t *testing.T) {
	p := defaultPolicy(t, "ladymacbeth")
	now := clock()
	records := NewGenerator(7, clock).Generate(p, 24)
	require.NotEmpty(t, records)

	ids := map[string]bool{}
	originals := 0
	for _, r := range records {
		require.NoError(t, r.Validate())
		assert.False(t, ids[r.ID], "duplicate id %s", r.ID)
		ids[r.ID] = true

		assert.True(t, r.Timestamp.After(now.Add(-24*time.Hour)))
		assert.False(t, r.Timestamp.After(now))
		if r.IsOriginal() {
			originals++
			assert.True(t, p.IsActiveHour(r.Timestamp.Hour()))
		}
	}
	assert.LessOrEqual(t, originals, p.MaxRecordsPerDay)
}

func TestGenerateIsDeterministic(t *testing.T) {
	p := defaultPolicy(t, "ladymacbeth")
	a := NewGenerator(42, clock).Generate(p, 24)
	b := NewGenerator(42, clock).Generate(p, 24)
	assert.Equal(t, a, b)
}

func TestGenerateEmptyWindow(t *testing.T) {
	p := defaultPolicy(t, "bitbard")
	p.ExpectedWindowUTC = nil
	p.ActiveHoursUTC = nil
	assert.Empty(t, NewGenerator(1, clock).Generate(p, 24))
}
