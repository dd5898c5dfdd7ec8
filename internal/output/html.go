package output

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/strrl/postwatch/internal/aggregator"
	"github.com/strrl/postwatch/internal/analyzer"
)

//go:embed templates/dashboard.html.tmpl
var templateFS embed.FS

const recentPreviews = 3

type DashboardData struct {
	Report         *aggregator.Report
	Status         Status
	RefreshSeconds int
}

// Accounts returns the per-actor analyses in report order.
func (d DashboardData) Accounts() []analyzer.Analysis {
	keys := d.Report.Keys()
	out := make([]analyzer.Analysis, 0, len(keys))
	for _, k := range keys {
		out = append(out, d.Report.PerActor[k])
	}
	return out
}

var dashboardFuncs = template.FuncMap{
	"upper": strings.ToUpper,
	"pct": func(v float64) string {
		return fmt.Sprintf("%.1f%%", v)
	},
	"when": func(v any) string {
		switch t := v.(type) {
		case time.Time:
			return t.UTC().Format(timeLayout)
		case *time.Time:
			if t == nil {
				return ""
			}
			return t.UTC().Format(timeLayout)
		}
		return ""
	},
	"recent": func(p []analyzer.Preview) []analyzer.Preview {
		if len(p) > recentPreviews {
			return p[:recentPreviews]
		}
		return p
	},
}

// DashboardTemplate parses the embedded dashboard page.
func DashboardTemplate() (*template.Template, error) {
	tmpl, err := template.New("dashboard.html.tmpl").Funcs(dashboardFuncs).ParseFS(templateFS, "templates/dashboard.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse dashboard template: %w", err)
	}
	return tmpl, nil
}

func RenderDashboard(w io.Writer, tmpl *template.Template, data DashboardData) error {
	if data.RefreshSeconds <= 0 {
		data.RefreshSeconds = 300
	}
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render dashboard: %w", err)
	}
	return nil
}
