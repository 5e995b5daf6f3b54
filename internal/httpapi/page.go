package httpapi

import (
	"html/template"
	"net/http"

	"github.com/rs/zerolog/log"

	"salespulse/internal/kpi"
)

type pageData struct {
	Report kpi.Report
	AEs    []string
}

var dashboardPage = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"progress": func(c kpi.Card) int { return int(c.PercentageOfTarget) },
}).Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>Sales KPI Dashboard</title>
<style>
body { font-family: sans-serif; margin: 2rem; background: #f6f7f9; }
.cards { display: grid; grid-template-columns: repeat(auto-fill, minmax(220px, 1fr)); gap: 1rem; }
.card { background: #fff; border-radius: 8px; padding: 1rem; }
.Excellent { border-left: 6px solid #2e7d32; }
.Good { border-left: 6px solid #f9a825; }
.Poor { border-left: 6px solid #c62828; }
.bar { background: #eee; height: 6px; } .bar div { background: #1565c0; height: 6px; }
table { border-collapse: collapse; margin-top: 2rem; background: #fff; width: 100%; }
td, th { padding: .4rem .8rem; border-bottom: 1px solid #eee; text-align: left; }
.diag { color: #c62828; }
</style>
</head>
<body>
<h1>Sales KPI Dashboard</h1>
<form method="get">
<select name="ae"><option value="all">All AEs</option>{{range .AEs}}<option value="{{.}}"{{if eq . $.Report.Filter}} selected{{end}}>{{.}}</option>{{end}}</select>
<input type="month" name="month" value="{{.Report.Month}}">
<button>Apply</button>
</form>
<p>Source: {{.Report.Source}} · loaded {{.Report.LoadedAt.Format "2006-01-02 15:04"}}</p>
{{with .Report.Diagnostic}}<p class="diag">{{.}}</p>{{end}}
<div class="cards">
{{range .Report.Cards}}<div class="card {{.Status}}">
<h3>{{.Label}}</h3>
<p><strong>{{.DisplayValue}}</strong> / {{.Target}}{{if .IsPercentage}}%{{end}} · {{.Status}}</p>
<div class="bar"><div style="width: {{progress .}}%"></div></div>
<p>{{.ProgressText}} · YoY {{.Comparison.Text}}</p>
</div>{{end}}
</div>
<table>
<tr><th>ID</th><th>Name</th><th>Stage</th><th>Owner</th><th>Created</th><th>Days in stage</th><th>Risk</th></tr>
{{range .Report.Deals}}<tr><td>{{.ID}}</td><td>{{.Name}}</td><td>{{.Stage}}</td><td>{{.Owner}}</td><td>{{.CreateDate.Format "2006-01-02"}}</td><td>{{.DaysInStage}}</td><td>{{.RiskLabel}}</td></tr>
{{end}}
</table>
</body>
</html>
`))

func renderDashboard(w http.ResponseWriter, r kpi.Report, aes []string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardPage.Execute(w, pageData{Report: r, AEs: aes}); err != nil {
		log.Warn().Err(err).Msg("Failed to render dashboard page")
	}
}
