package analyzer

import (
	"time"

	"github.com/strrl/postwatch/internal/activity"
)

// Analysis is the compliance verdict for one actor over one window.
type Analysis struct {
	Actor            string `json:"account"`
	DisplayName      string `json:"displayName"`
	WindowHours      int    `json:"windowHours"`
	ExpectedSchedule string `json:"expectedSchedule"`

	RecordsFound         int `json:"recordsFound"`
	OriginalRecordsCount int `json:"originalRecordsCount"`

	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
	ComplianceScore float64  `json:"complianceScore"`

	// Omitted when there are no original records.
	ActiveHoursCompliance *float64 `json:"activeHoursCompliance,omitempty"`
	// Omitted when there are fewer than two original records.
	AverageIntervalMinutes *float64 `json:"averageIntervalMinutes,omitempty"`

	VariantMetrics

	ReplyWindowMinutes *int `json:"replyWindowMinutes,omitempty"`

	RecordPreviews []Preview `json:"recordPreviews"`

	// Degraded marks an entry the aggregator built because records could not be fetched.
	Degraded   bool   `json:"degraded,omitempty"`
	FetchError string `json:"fetchError,omitempty"`
}

// VariantMetrics holds the derived fields of account-specific rules. Each rule
// fills only its own fields.
type VariantMetrics struct {
	DailyCuePostsCount   *int     `json:"dailyCuePostsCount,omitempty"`
	NightHoursCompliance *float64 `json:"nightHoursCompliance,omitempty"`
	ReplyCount           *int     `json:"replyCount,omitempty"`
}

func (m *VariantMetrics) merge(other VariantMetrics) {
	if other.DailyCuePostsCount != nil {
		m.DailyCuePostsCount = other.DailyCuePostsCount
	}
	if other.NightHoursCompliance != nil {
		m.NightHoursCompliance = other.NightHoursCompliance
	}
	if other.ReplyCount != nil {
		m.ReplyCount = other.ReplyCount
	}
}

// VariantResult is what a variant rule contributes to an analysis.
type VariantResult struct {
	Metrics VariantMetrics
	Issues  []string
}

// Preview is a reduced record for human review. Not used in scoring.
type Preview struct {
	Timestamp  time.Time           `json:"timestamp"`
	Content    string              `json:"contentPreview"`
	Kind       activity.Kind       `json:"kind"`
	Engagement activity.Engagement `json:"engagement,omitempty"`
}

// Thresholds are the scoring constants. DefaultThresholds holds the values the
// monitored accounts were tuned against.
type Thresholds struct {
	PenaltyPerIssue       float64
	MaxScore              float64
	ActiveHoursMinRatio   float64
	NightActivityMinRatio float64
	MaxPreviews           int
	PreviewContentLength  int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		PenaltyPerIssue:       15,
		MaxScore:              100,
		ActiveHoursMinRatio:   0.80,
		NightActivityMinRatio: 0.70,
		MaxPreviews:           10,
		PreviewContentLength:  100,
	}
}

const (
	IssueNoRecords          = "No posts found in analysis period"
	RecommendationNoRecords = "Check if agent is posting or if scraping is working"
)
