package analyzer

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strrl/postwatch/internal/activity"
	"github.com/strrl/postwatch/internal/policy"
)

var day = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func original(id string, ts time.Time) activity.Record {
	return activity.Record{ID: id, Actor: "bot", Content: "post " + id, Timestamp: ts, Kind: activity.KindOriginal}
}

func reply(id string, ts time.Time) activity.Record {
	return activity.Record{ID: id, Actor: "bot", Content: "reply " + id, Timestamp: ts, Kind: activity.KindReply, InReplyTo: "x"}
}

// newestFirst mirrors the order the store hands out.
func newestFirst(records ...activity.Record) []activity.Record {
	out := make([]activity.Record, len(records))
	copy(out, records)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func nightPolicy() policy.Policy {
	return policy.Policy{
		Key:                 "night",
		ActorHandle:         "bot",
		DisplayName:         "Night Bot",
		ScheduleDescription: "nights",
		ActiveHoursUTC:      append(policy.HourRange(18, 23), policy.HourRange(0, 6)...),
		MaxRecordsPerDay:    10,
		MinIntervalMinutes:  60,
		MaxIntervalMinutes:  90,
	}
}

func cuePolicy() policy.Policy {
	return policy.Policy{
		Key:                "cue",
		ActorHandle:        "bot",
		DisplayName:        "Cue Bot",
		ActiveHoursUTC:     []int{14, 15},
		MaxRecordsPerDay:   5,
		MinIntervalMinutes: 60,
		MaxIntervalMinutes: 1440,
		RuleVariant:        policy.VariantDailySinglePost,
	}
}

func hasIssue(a Analysis, fragment string) bool {
	for _, issue := range a.Issues {
		if strings.Contains(strings.ToLower(issue), strings.ToLower(fragment)) {
			return true
		}
	}
	return false
}

func TestScenarioInfrequentPosting(t *testing.T) {
	records := newestFirst(original("1", at(19, 0)), original("2", at(21, 0)), original("3", at(23, 0)))

	a := NewDefault().Analyze(nightPolicy(), records, 24)

	assert.True(t, hasIssue(a, "posting too infrequently"), a.Issues)
	require.NotNil(t, a.ActiveHoursCompliance)
	assert.Equal(t, 1.0, *a.ActiveHoursCompliance)
	require.NotNil(t, a.AverageIntervalMinutes)
	assert.InDelta(t, 120.0, *a.AverageIntervalMinutes, 1e-9)
	assert.Equal(t, 85.0, a.ComplianceScore)
	assert.Equal(t, 3, a.OriginalRecordsCount)
}

func TestScenarioSingleCuePost(t *testing.T) {
	a := NewDefault().Analyze(cuePolicy(), []activity.Record{original("1", at(14, 0))}, 24)

	require.NotNil(t, a.DailyCuePostsCount)
	assert.Equal(t, 1, *a.DailyCuePostsCount)
	assert.False(t, hasIssue(a, "expected window"))
	assert.False(t, hasIssue(a, "multiple posts"))
	assert.Equal(t, 100.0, a.ComplianceScore)
}

func TestScenarioMultipleCuePosts(t *testing.T) {
	records := newestFirst(original("1", at(14, 0)), original("2", at(15, 0)))

	a := NewDefault().Analyze(cuePolicy(), records, 24)

	require.NotNil(t, a.DailyCuePostsCount)
	assert.Equal(t, 2, *a.DailyCuePostsCount)
	assert.True(t, hasIssue(a, "multiple posts found, expected one"), a.Issues)
}

func TestScenarioNoCuePost(t *testing.T) {
	a := NewDefault().Analyze(cuePolicy(), []activity.Record{reply("r", at(14, 30))}, 24)

	require.NotNil(t, a.DailyCuePostsCount)
	assert.Equal(t, 0, *a.DailyCuePostsCount)
	assert.True(t, hasIssue(a, "no post found in expected window"), a.Issues)
	assert.True(t, hasIssue(a, "14:00-15:00 UTC"))
	assert.Nil(t, a.ActiveHoursCompliance)
	assert.Nil(t, a.AverageIntervalMinutes)
	assert.Equal(t, 85.0, a.ComplianceScore)
}

func TestScenarioEmptyWindow(t *testing.T) {
	for _, p := range []policy.Policy{nightPolicy(), cuePolicy(), {}} {
		for _, h := range []int{1, 24, 168} {
			a := NewDefault().Analyze(p, nil, h)
			assert.Equal(t, 0.0, a.ComplianceScore)
			assert.Equal(t, []string{IssueNoRecords}, a.Issues)
			assert.Equal(t, []string{RecommendationNoRecords}, a.Recommendations)
			assert.Zero(t, a.RecordsFound)
			assert.Zero(t, a.OriginalRecordsCount)
			assert.Nil(t, a.DailyCuePostsCount)
			assert.Empty(t, a.RecordPreviews)
			assert.Equal(t, h, a.WindowHours)
		}
	}
}

func TestScenarioVolumeExceeded(t *testing.T) {
	var records []activity.Record
	for i := 0; i < 12; i++ {
		records = append(records, original(fmt.Sprintf("%d", i), at(18, 0).Add(time.Duration(i)*75*time.Minute)))
	}

	a := NewDefault().Analyze(nightPolicy(), newestFirst(records...), 24)

	var volume string
	for _, issue := range a.Issues {
		if strings.Contains(issue, "daily post limit") {
			volume = issue
		}
	}
	require.NotEmpty(t, volume, a.Issues)
	assert.Contains(t, volume, "12")
	assert.Contains(t, volume, "10")
}

func TestActiveHoursBelowThreshold(t *testing.T) {
	records := newestFirst(
		original("1", at(10, 0)),
		original("2", at(11, 15)),
		original("3", at(19, 0)),
		original("4", at(20, 15)),
	)

	a := NewDefault().Analyze(nightPolicy(), records, 24)

	require.NotNil(t, a.ActiveHoursCompliance)
	assert.Equal(t, 0.5, *a.ActiveHoursCompliance)
	assert.True(t, hasIssue(a, "outside active hours: 50.0%"), a.Issues)
}

func TestPostingTooFrequently(t *testing.T) {
	records := newestFirst(original("1", at(19, 0)), original("2", at(19, 30)), original("3", at(20, 0)))

	a := NewDefault().Analyze(nightPolicy(), records, 24)

	assert.True(t, hasIssue(a, "posting too frequently"))
	assert.False(t, hasIssue(a, "posting too infrequently"))
}

func TestIntervalUsesSortedOriginalsOnly(t *testing.T) {
	// Unsorted input with a reply in between: gaps 19:00->20:00->21:00.
	records := []activity.Record{
		original("2", at(20, 0)),
		reply("r", at(20, 30)),
		original("3", at(21, 0)),
		original("1", at(19, 0)),
	}

	a := NewDefault().Analyze(nightPolicy(), records, 24)

	require.NotNil(t, a.AverageIntervalMinutes)
	assert.InDelta(t, 60.0, *a.AverageIntervalMinutes, 1e-9)
	assert.Empty(t, a.Issues)
}

func TestIntervalRuleNeverFiresBoth(t *testing.T) {
	p := nightPolicy()
	for gap := 1; gap <= 200; gap += 7 {
		records := newestFirst(
			original("1", at(19, 0)),
			original("2", at(19, 0).Add(time.Duration(gap)*time.Minute)),
		)
		a := NewDefault().Analyze(p, records, 24)
		assert.False(t, hasIssue(a, "too frequently") && hasIssue(a, "too infrequently"), "gap %d", gap)
	}
}

func TestNightActivityVariant(t *testing.T) {
	p := nightPolicy()
	p.RuleVariant = policy.VariantNightActivity

	records := newestFirst(
		reply("r1", at(9, 0)),
		reply("r2", at(10, 0)),
		original("1", at(19, 0)),
		original("2", at(20, 15)),
	)

	a := NewDefault().Analyze(p, records, 24)

	require.NotNil(t, a.ReplyCount)
	assert.Equal(t, 2, *a.ReplyCount)
	require.NotNil(t, a.NightHoursCompliance)
	assert.Equal(t, 0.5, *a.NightHoursCompliance)
	// Originals are all inside active hours, so only the all-record ratio complains.
	assert.Equal(t, 1.0, *a.ActiveHoursCompliance)
	assert.True(t, hasIssue(a, "low night activity: 50.0%"), a.Issues)
	assert.Equal(t, 85.0, a.ComplianceScore)
}

func TestVariantIssuesMergeAfterBaseIssues(t *testing.T) {
	p := cuePolicy()
	p.MaxRecordsPerDay = 1
	records := newestFirst(original("1", at(14, 0)), original("2", at(14, 30)))

	a := NewDefault().Analyze(p, records, 24)

	require.Len(t, a.Issues, 3)
	assert.Contains(t, a.Issues[0], "Exceeded daily post limit")
	assert.Contains(t, a.Issues[1], "Posting too frequently")
	assert.Contains(t, a.Issues[2], "Multiple posts found")
	assert.Equal(t, 55.0, a.ComplianceScore)
}

func TestUnknownVariantIsNoOp(t *testing.T) {
	p := nightPolicy()
	p.RuleVariant = "moon_phase"
	a := NewDefault().Analyze(p, []activity.Record{original("1", at(20, 0))}, 24)

	assert.Empty(t, a.Issues)
	assert.Equal(t, VariantMetrics{}, a.VariantMetrics)
}

func TestCustomVariantRegistration(t *testing.T) {
	const complainer policy.Variant = "always_complains"
	variants := DefaultVariants().With(complainer, func(records []activity.Record, _ policy.Policy, _ Thresholds) VariantResult {
		return VariantResult{Issues: []string{fmt.Sprintf("saw %d records", len(records))}}
	})
	p := nightPolicy()
	p.RuleVariant = complainer

	a := New(DefaultThresholds(), variants).Analyze(p, []activity.Record{original("1", at(20, 0))}, 24)

	assert.Equal(t, []string{"saw 1 records"}, a.Issues)
	assert.Len(t, DefaultVariants(), 2)
}

func TestScoreMatchesIssueCount(t *testing.T) {
	an := NewDefault()
	cases := [][]activity.Record{
		{original("1", at(12, 0))},
		newestFirst(original("1", at(10, 0)), original("2", at(10, 5))),
		newestFirst(original("1", at(1, 0)), original("2", at(20, 0)), reply("r", at(22, 0))),
	}
	for _, records := range cases {
		for _, p := range []policy.Policy{nightPolicy(), cuePolicy()} {
			a := an.Analyze(p, records, 24)
			assert.Equal(t, math.Max(0, 100-15*float64(len(a.Issues))), a.ComplianceScore)
		}
	}
	assert.Equal(t, 0.0, an.Score(7))
	assert.Equal(t, 100.0, an.Score(0))
}

func TestCustomThresholds(t *testing.T) {
	th := DefaultThresholds()
	th.PenaltyPerIssue = 40
	th.ActiveHoursMinRatio = 0.4
	records := newestFirst(original("1", at(10, 0)), original("2", at(19, 0)))

	a := New(th, nil).Analyze(nightPolicy(), records, 24)

	assert.False(t, hasIssue(a, "outside active hours"))
	assert.True(t, hasIssue(a, "too infrequently"))
	assert.Equal(t, 60.0, a.ComplianceScore)
}

func TestPreviews(t *testing.T) {
	var records []activity.Record
	for i := 0; i < 12; i++ {
		r := original(fmt.Sprintf("%02d", i), at(23, 0).Add(-time.Duration(i)*time.Hour))
		r.Engagement = activity.Engagement{"likes": int64(i)}
		records = append(records, r)
	}
	records[0].Content = strings.Repeat("é", 150)
	records[1].Content = strings.Repeat("x", 100)

	a := NewDefault().Analyze(nightPolicy(), records, 24)

	require.Len(t, a.RecordPreviews, 10)
	assert.Equal(t, strings.Repeat("é", 100)+"...", a.RecordPreviews[0].Content)
	assert.Equal(t, strings.Repeat("x", 100), a.RecordPreviews[1].Content)
	assert.Equal(t, records[0].Timestamp, a.RecordPreviews[0].Timestamp)
	assert.Equal(t, activity.Engagement{"likes": 9}, a.RecordPreviews[9].Engagement)
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	p := nightPolicy()
	p.RuleVariant = policy.VariantNightActivity
	records := newestFirst(original("1", at(2, 0)), reply("r", at(3, 0)), original("2", at(5, 0)))

	first, err := json.Marshal(NewDefault().Analyze(p, records, 24))
	require.NoError(t, err)
	second, err := json.Marshal(NewDefault().Analyze(p, records, 24))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestAnalysisJSONOmitsUnsetMetrics(t *testing.T) {
	a := NewDefault().Analyze(nightPolicy(), []activity.Record{reply("r", at(20, 0))}, 24)

	b, err := json.Marshal(a)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))

	assert.NotContains(t, decoded, "activeHoursCompliance")
	assert.NotContains(t, decoded, "averageIntervalMinutes")
	assert.NotContains(t, decoded, "dailyCuePostsCount")
	assert.Contains(t, decoded, "issues")
	assert.Equal(t, "bot", decoded["account"])
}
