// internal/app/features/home/templates.go
package home

import "html/template"

var homePageTmpl = template.Must(template.New("home_index").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.SiteName}}</title></head>
<body>
  <h1>{{.SiteName}}</h1>
  {{if .SignedIn}}
  <p>Signed in as <strong>{{.Email}}</strong>.</p>
  <form method="post" action="/logout">
    {{.CSRFField}}
    <button type="submit">Log out</button>
  </form>
  {{else}}
  <p><a href="/login">Log in with an email code</a></p>
  {{end}}
</body>
</html>
`))

type homeVM struct {
	SiteName  string
	SignedIn  bool
	Email     string
	CSRFField template.HTML
}
