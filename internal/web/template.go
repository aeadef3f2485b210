package web

import (
	"html/template"
	"time"

	"b3monitor/internal/model"
)

// dashboardView is the data passed to the dashboard template.
type dashboardView struct {
	Params   model.ScreenParams
	MinWeeks int
	MaxWeeks int
	Waiting  bool
	Result   *model.ScreenResult
}

var dashboardTmpl = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"date": func(t time.Time) string { return t.Format("2006-01-02") },
	"dt":   func(t time.Time) string { return t.Format("2006-01-02 15:04") },
}).Parse(dashboardHTML))

const dashboardHTML = `<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>Monitor B3 &bull; altas em {{.Params.Weeks}} semanas</title>
<style>
body { font-family: sans-serif; margin: 2rem auto; max-width: 64rem; color: #222; }
h1 { font-size: 1.4rem; }
form.params { margin: 1rem 0; padding: 0.8rem; background: #f4f4f4; border-radius: 6px; }
form.params label { margin-right: 1rem; }
form.params input[type=number] { width: 5rem; }
table { border-collapse: collapse; width: 100%; margin-top: 1rem; }
th, td { border-bottom: 1px solid #ddd; padding: 0.4rem 0.6rem; text-align: right; }
th:first-child, td:first-child { text-align: left; }
th { background: #f4f4f4; }
td.up { color: #0a7d33; font-weight: bold; }
p.meta { color: #666; font-size: 0.85rem; }
p.warn { color: #a05a00; }
</style>
</head>
<body>
<h1>&#128200; Monitor B3: altas &ge; {{printf "%.0f" .Params.MinReturnPct}}% em {{.Params.Weeks}} semanas</h1>
<p class="meta">Fonte: Yahoo Finance. Universo de a&ccedil;&otilde;es da B3 via brapi.dev (fallback est&aacute;tico).</p>

<form class="params" method="get" action="/">
  <label>Per&iacute;odo (semanas)
    <input type="number" name="weeks" min="{{.MinWeeks}}" max="{{.MaxWeeks}}" value="{{.Params.Weeks}}">
  </label>
  <label>M&iacute;nimo de alta (%)
    <input type="number" name="min" min="0" max="1000" step="5" value="{{printf "%.0f" .Params.MinReturnPct}}">
  </label>
  <button type="submit">Aplicar</button>
</form>

{{if .Waiting}}
<p class="warn">Primeira coleta de pre&ccedil;os ainda em andamento. Recarregue em instantes.</p>
{{else}}
{{with .Result}}
<p class="meta">
  Universo: {{.UniverseSize}} tickers | coletados: {{.Fetched}} | falhas: {{.Failed}} |
  atualizado em {{dt .FetchedAt}}
</p>
<p><b>{{len .Rows}}</b> a&ccedil;&otilde;es acima do limiar.
  <a href="/gainers.csv?weeks={{.Params.Weeks}}&min={{.Params.MinReturnPct}}">Baixar CSV</a>
</p>
<table>
<tr><th>Ticker</th><th>Varia&ccedil;&atilde;o</th><th>&Uacute;ltimo fech.</th><th>Fech. refer&ecirc;ncia</th><th>Data &uacute;ltima</th><th>Data refer&ecirc;ncia</th></tr>
{{range .Rows}}
<tr>
  <td>{{.Ticker}}</td>
  <td class="up">{{printf "%+.2f%%" .ChangePct}}</td>
  <td>{{printf "%.2f" .LastClose}}</td>
  <td>{{printf "%.2f" .RefClose}}</td>
  <td>{{date .LastDate}}</td>
  <td>{{date .RefDate}}</td>
</tr>
{{end}}
</table>
{{end}}
{{end}}

<form method="post" action="/refresh" style="margin-top:1.5rem">
  <button type="submit">&#128260; Atualizar agora</button>
</form>

<p class="meta">
Varia&ccedil;&atilde;o = (&uacute;ltimo fechamento / fechamento de refer&ecirc;ncia &minus; 1) &times; 100.
A refer&ecirc;ncia &eacute; o preg&atilde;o igual ou anterior &agrave; data-alvo (&uacute;ltima data &minus; N semanas).
Apenas para fins informativos. N&atilde;o &eacute; recomenda&ccedil;&atilde;o de investimento.
</p>
</body>
</html>
`
