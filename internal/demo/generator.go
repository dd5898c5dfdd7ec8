package demo

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/strrl/postwatch/internal/activity"
	"github.com/strrl/postwatch/internal/policy"
)

// Generator produces synthetic feeds that roughly follow a policy. Output is
// deterministic for a given seed and clock.
type Generator struct {
	now func() time.Time
	rng *rand.Rand
}

func NewGenerator(seed uint64, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{
		now: now,
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Generate returns records for p inside the trailing hoursBack window.
func (g *Generator) Generate(p policy.Policy, hoursBack int) []activity.Record {
	now := g.now().UTC().Truncate(time.Minute)
	start := now.Add(-time.Duration(hoursBack) * time.Hour)

	if p.RuleVariant == policy.VariantDailySinglePost {
		return g.dailyCue(p, start, now)
	}
	return g.cadence(p, start, now)
}

func (g *Generator) dailyCue(p policy.Policy, start, now time.Time) []activity.Record {
	window := p.ExpectedWindow()
	if len(window) == 0 {
		return nil
	}

	var records []activity.Record
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	for ; !day.After(now); day = day.AddDate(0, 0, 1) {
		ts := day.Add(time.Duration(window[0]) * time.Hour)
		if !ts.After(start) || ts.After(now) {
			continue
		}
		records = append(records, g.record(p, ts, activity.KindOriginal, "daily cue"))
	}
	return records
}

func (g *Generator) cadence(p policy.Policy, start, now time.Time) []activity.Record {
	step := time.Duration((p.MinIntervalMinutes+p.MaxIntervalMinutes)/2) * time.Minute
	if step <= 0 {
		step = time.Hour
	}

	var records []activity.Record
	originals := 0
	for ts := now.Add(-time.Minute); ts.After(start); ts = ts.Add(-g.jitter(step)) {
		if p.MaxRecordsPerDay > 0 && originals >= p.MaxRecordsPerDay {
			break
		}
		if len(p.ActiveHoursUTC) > 0 && !p.IsActiveHour(ts.Hour()) {
			continue
		}
		records = append(records, g.record(p, ts, activity.KindOriginal, fmt.Sprintf("post %d", originals+1)))
		originals++

		if p.RuleVariant == policy.VariantNightActivity && g.rng.IntN(2) == 0 {
			replyAt := ts.Add(5 * time.Minute)
			if !replyAt.After(now) {
				reply := g.record(p, replyAt, activity.KindReply, "reply")
				reply.InReplyTo = fmt.Sprintf("mention_%d", ts.Unix())
				records = append(records, reply)
			}
		}
	}
	return records
}

// jitter varies step by up to ten percent either way.
func (g *Generator) jitter(step time.Duration) time.Duration {
	spread := int64(step) / 10
	if spread == 0 {
		return step
	}
	return step + time.Duration(g.rng.Int64N(2*spread+1)-spread)
}

func (g *Generator) record(p policy.Policy, ts time.Time, kind activity.Kind, label string) activity.Record {
	return activity.Record{
		ID:        fmt.Sprintf("demo_%s_%s_%d", p.ActorHandle, kind, ts.Unix()),
		Actor:     p.ActorHandle,
		Content:   fmt.Sprintf("Demo %s %s", p.DisplayName, label),
		Timestamp: ts,
		Kind:      kind,
		Engagement: activity.Engagement{
			"likes":   int64(g.rng.IntN(40)),
			"reposts": int64(g.rng.IntN(8)),
			"replies": int64(g.rng.IntN(5)),
		},
	}
}
