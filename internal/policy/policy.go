package policy

import (
	"fmt"
	"slices"
)

// Variant selects an account-specific rule extension. The set is closed; the
// analyzer keeps the lookup table from Variant to rule.
type Variant string

const (
	VariantNone            Variant = ""
	VariantDailySinglePost Variant = "daily_single_post"
	VariantNightActivity   Variant = "night_activity"
)

// KnownVariants lists every tag a policy file may declare.
var KnownVariants = map[Variant]string{
	VariantNone:            "base rules only",
	VariantDailySinglePost: "one original post per day inside the expected window",
	VariantNightActivity:   "reply count and night-hours share across all records",
}

func (v Variant) IsKnown() bool {
	_, ok := KnownVariants[v]
	return ok
}

// Policy is the behavioral policy one monitored actor is expected to follow.
type Policy struct {
	Key                 string  `yaml:"key" json:"key"`
	ActorHandle         string  `yaml:"handle" json:"actorHandle"`
	DisplayName         string  `yaml:"display_name" json:"displayName"`
	ScheduleDescription string  `yaml:"schedule" json:"scheduleDescription"`
	ActiveHoursUTC      []int   `yaml:"active_hours_utc" json:"activeHoursUtc"`
	MaxRecordsPerDay    int     `yaml:"max_posts_per_day" json:"maxRecordsPerDay"`
	MinIntervalMinutes  int     `yaml:"min_interval_minutes" json:"minIntervalMinutes"`
	MaxIntervalMinutes  int     `yaml:"max_interval_minutes" json:"maxIntervalMinutes"`
	RuleVariant         Variant `yaml:"variant,omitempty" json:"ruleVariant,omitempty"`

	// ExpectedWindowUTC narrows the daily-single-post window. Empty means ActiveHoursUTC.
	ExpectedWindowUTC []int `yaml:"expected_window_utc,omitempty" json:"expectedWindowUtc,omitempty"`

	// ReplyWindowMinutes is carried for reporting only. Records have no mention
	// timestamps, so reply latency cannot be scored.
	ReplyWindowMinutes *int `yaml:"reply_window_minutes,omitempty" json:"replyWindowMinutes,omitempty"`
}

func (p Policy) IsActiveHour(hour int) bool {
	return slices.Contains(p.ActiveHoursUTC, hour)
}

func (p Policy) ExpectedWindow() []int {
	if len(p.ExpectedWindowUTC) > 0 {
		return p.ExpectedWindowUTC
	}
	return p.ActiveHoursUTC
}

func (p Policy) Validate() error {
	if p.Key == "" {
		return fmt.Errorf("policy key is required")
	}
	if p.ActorHandle == "" {
		return fmt.Errorf("policy %s: handle is required", p.Key)
	}
	for _, h := range append(slices.Clone(p.ActiveHoursUTC), p.ExpectedWindowUTC...) {
		if h < 0 || h > 23 {
			return fmt.Errorf("policy %s: hour %d out of range 0-23", p.Key, h)
		}
	}
	if p.MaxRecordsPerDay < 0 {
		return fmt.Errorf("policy %s: max_posts_per_day must not be negative", p.Key)
	}
	if p.MinIntervalMinutes > p.MaxIntervalMinutes {
		return fmt.Errorf("policy %s: min_interval_minutes %d exceeds max_interval_minutes %d",
			p.Key, p.MinIntervalMinutes, p.MaxIntervalMinutes)
	}
	return nil
}

// HourRange returns the inclusive span from..to.
func HourRange(from, to int) []int {
	var hours []int
	for h := from; h <= to; h++ {
		hours = append(hours, h)
	}
	return hours
}

func intPtr(v int) *int { return &v }
