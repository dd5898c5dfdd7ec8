package analyzer

import (
	"fmt"
	"slices"

	"github.com/strrl/postwatch/internal/activity"
	"github.com/strrl/postwatch/internal/policy"
)

// VariantRule is an account-specific extension. It sees every record in the
// window, not just originals.
type VariantRule func(records []activity.Record, p policy.Policy, th Thresholds) VariantResult

// VariantRegistry resolves a policy's variant tag to its rule. A tag with no
// entry adds nothing.
type VariantRegistry map[policy.Variant]VariantRule

func DefaultVariants() VariantRegistry {
	return VariantRegistry{
		policy.VariantDailySinglePost: DailySinglePost,
		policy.VariantNightActivity:   NightActivity,
	}
}

// With returns a copy of the registry with rule registered under v.
func (r VariantRegistry) With(v policy.Variant, rule VariantRule) VariantRegistry {
	out := make(VariantRegistry, len(r)+1)
	for k, fn := range r {
		out[k] = fn
	}
	out[v] = rule
	return out
}

// DailySinglePost expects exactly one original record inside the policy's
// expected window.
func DailySinglePost(records []activity.Record, p policy.Policy, _ Thresholds) VariantResult {
	window := p.ExpectedWindow()

	count := 0
	for _, r := range records {
		if r.IsOriginal() && slices.Contains(window, r.Timestamp.UTC().Hour()) {
			count++
		}
	}

	result := VariantResult{Metrics: VariantMetrics{DailyCuePostsCount: &count}}
	switch {
	case count == 0:
		result.Issues = append(result.Issues,
			fmt.Sprintf("No post found in expected window (%s)", describeWindow(window)))
	case count > 1:
		result.Issues = append(result.Issues,
			fmt.Sprintf("Multiple posts found, expected one: %d in expected window", count))
	}
	return result
}

// NightActivity counts replies and measures the share of all records inside
// the active hours.
func NightActivity(records []activity.Record, p policy.Policy, th Thresholds) VariantResult {
	replies := 0
	inWindow := 0
	for _, r := range records {
		if r.Kind == activity.KindReply {
			replies++
		}
		if p.IsActiveHour(r.Timestamp.UTC().Hour()) {
			inWindow++
		}
	}

	result := VariantResult{Metrics: VariantMetrics{ReplyCount: &replies}}
	if len(records) == 0 {
		return result
	}

	ratio := float64(inWindow) / float64(len(records))
	result.Metrics.NightHoursCompliance = &ratio
	if ratio < th.NightActivityMinRatio {
		result.Issues = append(result.Issues,
			fmt.Sprintf("Low night activity: %s of posts", percent(ratio)))
	}
	return result
}

func describeWindow(hours []int) string {
	if len(hours) == 0 {
		return "no hours configured"
	}
	lo, hi := slices.Min(hours), slices.Max(hours)
	return fmt.Sprintf("%02d:00-%02d:00 UTC", lo, hi)
}
