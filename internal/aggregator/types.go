package aggregator

import (
	"slices"
	"time"

	"github.com/strrl/postwatch/internal/analyzer"
)

type Report struct {
	GeneratedAt time.Time                    `json:"generatedAt"`
	WindowHours int                          `json:"windowHours"`
	PerActor    map[string]analyzer.Analysis `json:"accounts"`
	Summary     Summary                      `json:"summary"`

	// Order is the registry order of PerActor keys.
	Order []string `json:"-"`
}

type Summary struct {
	TotalRecords      int     `json:"totalRecords"`
	TotalIssues       int     `json:"totalIssues"`
	AverageCompliance float64 `json:"averageCompliance"`
}

// Keys returns the actor keys in registry order, falling back to sorted keys
// for reports that were decoded from JSON.
func (r *Report) Keys() []string {
	if len(r.Order) == len(r.PerActor) {
		return r.Order
	}
	keys := make([]string, 0, len(r.PerActor))
	for k := range r.PerActor {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
