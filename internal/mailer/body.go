// internal/mailer/body.go
//
// HTML bodies for the summary email.
//
// The three variants share a shell; only the call-to-action block differs.
// Templates are parsed once at init and executed per send.
//
//------------------------------------------------------------------------------

package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

type bodyData struct {
	Address string
	SiteURL string
}

const shellTmpl = `<!DOCTYPE html>
<html>
<body style="font-family: Helvetica, Arial, sans-serif; color: #1a1a2e; max-width: 560px; margin: 0 auto; padding: 24px;">
  <h2 style="margin-bottom: 4px;">Your property cost summary</h2>
  {{if .Address}}<p style="color: #666; margin-top: 0;">{{.Address}}</p>{{end}}
  <p>Your full breakdown of stamp duty, government fees, and upfront costs is attached as a PDF.</p>
  {{block "cta" .}}{{end}}
  <p style="color: #999; font-size: 12px; margin-top: 32px;">
    Estimates only.  Confirm figures with your conveyancer before exchange.
  </p>
</body>
</html>`

const ctaExisting = `{{define "cta"}}
  <p>It looks like you already have an account with us.
  <a href="{{.SiteURL}}/login">Log in</a> to pick up this calculation where you left off —
  your progress has been saved against your email.</p>
{{end}}`

const ctaNew = `{{define "cta"}}
  <p><a href="{{.SiteURL}}/signup">Create a free account</a> to save this calculation,
  compare properties side by side, and update figures as your purchase progresses.</p>
{{end}}`

const ctaAuthed = `{{define "cta"}}
  <p>This calculation is saved to your account.
  <a href="{{.SiteURL}}/calculator">Return to the calculator</a> any time to adjust it.</p>
{{end}}`

var bodyTemplates = map[BodyKind]*template.Template{
	BodyExistingAccount: template.Must(template.Must(template.New("existing").Parse(shellTmpl)).Parse(ctaExisting)),
	BodyNewAccount:      template.Must(template.Must(template.New("new").Parse(shellTmpl)).Parse(ctaNew)),
	BodyAuthenticated:   template.Must(template.Must(template.New("authed").Parse(shellTmpl)).Parse(ctaAuthed)),
}

func renderBody(kind BodyKind, data bodyData) (string, error) {
	tmpl, ok := bodyTemplates[kind]
	if !ok {
		return "", fmt.Errorf("unknown body kind %d", kind)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
