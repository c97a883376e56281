package email

import (
	"bytes"
	htmltemplate "html/template"
	"net/url"
	"strings"
	texttemplate "text/template"
	"time"
)

// TemplateData holds every field the portal emails interpolate.
type TemplateData struct {
	PMName           string
	CompanyName      string
	TradieEmail      string
	TradieName       string
	RegistrationLink string
	ExpiresAt        time.Time
	Reason           string
	Message          string
}

// RegistrationLink builds the invitation link carrying the token and the invitee email.
func RegistrationLink(baseURL, token, recipient string) string {
	q := url.Values{}
	q.Set("invitation_token", token)
	q.Set("email", recipient)
	return strings.TrimRight(baseURL, "/") + "/register?" + q.Encode()
}

type template struct {
	subject *texttemplate.Template
	html    *htmltemplate.Template
	text    *texttemplate.Template
}

func mustTemplate(name, subject, html, text string) template {
	return template{
		subject: texttemplate.Must(texttemplate.New(name + "_subject").Parse(subject)),
		html:    htmltemplate.Must(htmltemplate.New(name).Funcs(htmltemplate.FuncMap{"date": formatDate}).Parse(html)),
		text:    texttemplate.Must(texttemplate.New(name).Funcs(texttemplate.FuncMap{"date": formatDate}).Parse(text)),
	}
}

func formatDate(t time.Time) string {
	return t.Format("2 January 2006")
}

func (t template) render(to string, data TemplateData) (Message, error) {
	var subject, html, text bytes.Buffer
	if err := t.subject.Execute(&subject, data); err != nil {
		return Message{}, err
	}
	if err := t.html.Execute(&html, data); err != nil {
		return Message{}, err
	}
	if err := t.text.Execute(&text, data); err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: subject.String(), HTML: html.String(), Text: text.String()}, nil
}

var (
	invitationTemplate = mustTemplate("invitation",
		"{{.PMName}} invited you to join {{.CompanyName}} on SprinklerHub",
		`<p>Hi,</p>
<p>{{.PMName}} has invited you to join <strong>{{.CompanyName}}</strong> on SprinklerHub.</p>
{{if .Message}}<blockquote>{{.Message}}</blockquote>{{end}}
<p><a href="{{.RegistrationLink}}">Create your account</a> to accept the invitation.</p>
<p>This invitation expires on {{date .ExpiresAt}}.</p>`,
		`Hi,

{{.PMName}} has invited you to join {{.CompanyName}} on SprinklerHub.
{{if .Message}}
"{{.Message}}"
{{end}}
Create your account to accept the invitation:
{{.RegistrationLink}}

This invitation expires on {{date .ExpiresAt}}.
`)

	acceptanceTemplate = mustTemplate("acceptance",
		"You're approved at {{.CompanyName}}",
		`<p>Hi {{.TradieName}},</p>
<p>{{.PMName}} approved your membership of <strong>{{.CompanyName}}</strong>. You can now view company jobs and place orders.</p>`,
		`Hi {{.TradieName}},

{{.PMName}} approved your membership of {{.CompanyName}}. You can now view company jobs and place orders.
`)

	rejectionTemplate = mustTemplate("rejection",
		"Your request to join {{.CompanyName}}",
		`<p>Hi {{.TradieName}},</p>
<p>Your request to join <strong>{{.CompanyName}}</strong> was not approved.</p>
{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}`,
		`Hi {{.TradieName}},

Your request to join {{.CompanyName}} was not approved.
{{if .Reason}}Reason: {{.Reason}}
{{end}}`)

	removalTemplate = mustTemplate("removal",
		"Your access at {{.CompanyName}} has changed",
		`<p>Hi {{.TradieName}},</p>
<p>{{.PMName}} removed you from <strong>{{.CompanyName}}</strong>. You can still browse the catalog.</p>
{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}`,
		`Hi {{.TradieName}},

{{.PMName}} removed you from {{.CompanyName}}. You can still browse the catalog.
{{if .Reason}}Reason: {{.Reason}}
{{end}}`)
)

func InvitationEmail(data TemplateData) (Message, error) {
	return invitationTemplate.render(data.TradieEmail, data)
}

func AcceptanceEmail(data TemplateData) (Message, error) {
	return acceptanceTemplate.render(data.TradieEmail, data)
}

func RejectionEmail(data TemplateData) (Message, error) {
	return rejectionTemplate.render(data.TradieEmail, data)
}

func RemovalEmail(data TemplateData) (Message, error) {
	return removalTemplate.render(data.TradieEmail, data)
}
