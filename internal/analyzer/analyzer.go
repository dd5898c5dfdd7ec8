package analyzer

import (
	"fmt"
	"math"
	"sort"

	"github.com/strrl/postwatch/internal/activity"
	"github.com/strrl/postwatch/internal/policy"
)

type Analyzer struct {
	thresholds Thresholds
	variants   VariantRegistry
}

func New(thresholds Thresholds, variants VariantRegistry) *Analyzer {
	if variants == nil {
		variants = VariantRegistry{}
	}
	return &Analyzer{
		thresholds: thresholds,
		variants:   variants,
	}
}

// NewDefault returns an analyzer with DefaultThresholds and DefaultVariants.
func NewDefault() *Analyzer {
	return New(DefaultThresholds(), DefaultVariants())
}

func (a *Analyzer) Thresholds() Thresholds {
	return a.thresholds
}

// Analyze scores records against p. records must already be limited to the
// trailing windowHours and ordered newest first; Analyze reads no clock.
func (a *Analyzer) Analyze(p policy.Policy, records []activity.Record, windowHours int) Analysis {
	analysis := Analysis{
		Actor:              p.ActorHandle,
		DisplayName:        p.DisplayName,
		WindowHours:        windowHours,
		ExpectedSchedule:   p.ScheduleDescription,
		RecordsFound:       len(records),
		Issues:             []string{},
		Recommendations:    []string{},
		ReplyWindowMinutes: p.ReplyWindowMinutes,
		RecordPreviews:     []Preview{},
	}

	if len(records) == 0 {
		analysis.Issues = append(analysis.Issues, IssueNoRecords)
		analysis.Recommendations = append(analysis.Recommendations, RecommendationNoRecords)
		analysis.ComplianceScore = 0
		return analysis
	}

	originals := filterOriginal(records)
	analysis.OriginalRecordsCount = len(originals)

	if len(originals) > p.MaxRecordsPerDay {
		analysis.Issues = append(analysis.Issues,
			fmt.Sprintf("Exceeded daily post limit: %d/%d", len(originals), p.MaxRecordsPerDay))
	}

	if len(originals) > 0 {
		ratio := activeHoursRatio(originals, p)
		analysis.ActiveHoursCompliance = &ratio
		if ratio < a.thresholds.ActiveHoursMinRatio {
			analysis.Issues = append(analysis.Issues,
				fmt.Sprintf("Many posts outside active hours: %s compliance", percent(ratio)))
		}
	}

	if len(originals) > 1 {
		avg := averageIntervalMinutes(originals)
		analysis.AverageIntervalMinutes = &avg
		if avg < float64(p.MinIntervalMinutes) {
			analysis.Issues = append(analysis.Issues,
				fmt.Sprintf("Posting too frequently: %.1fmin avg (min: %dmin)", avg, p.MinIntervalMinutes))
		} else if avg > float64(p.MaxIntervalMinutes) {
			analysis.Issues = append(analysis.Issues,
				fmt.Sprintf("Posting too infrequently: %.1fmin avg (max: %dmin)", avg, p.MaxIntervalMinutes))
		}
	}

	if rule, ok := a.variants[p.RuleVariant]; ok {
		result := rule(records, p, a.thresholds)
		analysis.VariantMetrics.merge(result.Metrics)
		analysis.Issues = append(analysis.Issues, result.Issues...)
	}

	analysis.ComplianceScore = a.Score(len(analysis.Issues))
	analysis.RecordPreviews = a.previews(records)

	return analysis
}

// Score applies the linear per-issue penalty, floored at zero.
func (a *Analyzer) Score(issues int) float64 {
	return math.Max(0, a.thresholds.MaxScore-a.thresholds.PenaltyPerIssue*float64(issues))
}

func (a *Analyzer) previews(records []activity.Record) []Preview {
	n := min(len(records), a.thresholds.MaxPreviews)
	out := make([]Preview, 0, n)
	for _, r := range records[:n] {
		out = append(out, Preview{
			Timestamp:  r.Timestamp.UTC(),
			Content:    truncate(r.Content, a.thresholds.PreviewContentLength),
			Kind:       r.Kind,
			Engagement: r.Engagement,
		})
	}
	return out
}

func filterOriginal(records []activity.Record) []activity.Record {
	var result []activity.Record
	for _, r := range records {
		if r.IsOriginal() {
			result = append(result, r)
		}
	}
	return result
}

func activeHoursRatio(originals []activity.Record, p policy.Policy) float64 {
	matching := 0
	for _, r := range originals {
		if p.IsActiveHour(r.Timestamp.UTC().Hour()) {
			matching++
		}
	}
	return float64(matching) / float64(len(originals))
}

func averageIntervalMinutes(originals []activity.Record) float64 {
	sorted := make([]activity.Record, len(originals))
	copy(sorted, originals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var total float64
	for i := 1; i < len(sorted); i++ {
		total += sorted[i].Timestamp.Sub(sorted[i-1].Timestamp).Minutes()
	}
	return total / float64(len(sorted)-1)
}

func percent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen]) + "..."
	}
	return s
}
