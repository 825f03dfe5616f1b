// internal/app/features/login/templates.go
package login

import "html/template"

var emailPageTmpl = template.Must(template.New("login_email").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Login - {{.SiteName}}</title></head>
<body>
  <h1>Log in to {{.SiteName}}</h1>
  {{if .Error}}<p role="alert">{{.Error}}</p>{{end}}
  <form method="post" action="{{.Action}}">
    {{.CSRFField}}
    <label for="email">Email address</label>
    <input type="email" id="email" name="email" value="{{.Email}}" required autofocus>
    <button type="submit">Email me a login code</button>
  </form>
</body>
</html>
`))

var codePageTmpl = template.Must(template.New("login_code").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Check Your Email - {{.SiteName}}</title></head>
<body>
  <h1>Check your email</h1>
  <p>We sent a login code to <strong>{{.Email}}</strong>.</p>
  {{if .Resent}}<p>A new copy of your code is on its way.</p>{{end}}
  {{if .Error}}<p role="alert">{{.Error}}</p>{{end}}
  <form method="post" action="/login/code">
    {{.CSRFField}}
    <input type="hidden" name="email" value="{{.Email}}">
    <label for="code">Login code</label>
    <input type="text" id="code" name="code" inputmode="numeric" autocomplete="one-time-code" required autofocus>
    <button type="submit">Log in</button>
  </form>
  <form method="post" action="/login/resend">
    {{.CSRFField}}
    <input type="hidden" name="email" value="{{.Email}}">
    <button type="submit">Resend code</button>
  </form>
</body>
</html>
`))

type emailPageVM struct {
	SiteName  string
	Error     string
	Email     string
	Action    string
	CSRFField template.HTML
}

type codePageVM struct {
	SiteName  string
	Email     string
	Error     string
	Resent    bool
	CSRFField template.HTML
}
