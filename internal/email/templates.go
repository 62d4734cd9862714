package email

import (
	"bytes"
	"fmt"
	"html/template"
	texttemplate "text/template"
)

// ReportEmailData alimenta la plantilla del informe de valuacion.
type ReportEmailData struct {
	VehicleTitle string
	Estimate     string
	RangeLow     string
	RangeHigh    string
	Confidence   int
	SummaryHTML  template.HTML
	SummaryText  string
	ReportURL    string
}

var reportHTML = template.Must(template.New("report_html").Parse(`<!doctype html>
<html><body style="font-family:Arial,sans-serif;color:#222">
<h2>{{.VehicleTitle}}</h2>
<p><strong>Estimated value:</strong> {{.Estimate}}</p>
<p><strong>Range:</strong> {{.RangeLow}} - {{.RangeHigh}} &middot; confidence {{.Confidence}}%</p>
<div>{{.SummaryHTML}}</div>
{{if .ReportURL}}<p><a href="{{.ReportURL}}">View full report</a></p>{{end}}
</body></html>`))

var reportText = texttemplate.Must(texttemplate.New("report_text").Parse(`{{.VehicleTitle}}

Estimated value: {{.Estimate}}
Range: {{.RangeLow}} - {{.RangeHigh}} (confidence {{.Confidence}}%)

{{.SummaryText}}
{{if .ReportURL}}
Full report: {{.ReportURL}}
{{end}}`))

// RenderReportEmail produce el Message listo para enviar.
func RenderReportEmail(to string, data ReportEmailData) (Message, error) {
	var htmlBuf, textBuf bytes.Buffer
	if err := reportHTML.Execute(&htmlBuf, data); err != nil {
		return Message{}, fmt.Errorf("render html: %w", err)
	}
	if err := reportText.Execute(&textBuf, data); err != nil {
		return Message{}, fmt.Errorf("render text: %w", err)
	}
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Your valuation: %s", data.VehicleTitle),
		HTML:    htmlBuf.String(),
		Text:    textBuf.String(),
	}, nil
}

// InviteEmailData alimenta la invitacion de referidos.
type InviteEmailData struct {
	ReferrerName string
	Code         string
	SignupURL    string
}

var inviteHTML = template.Must(template.New("invite_html").Parse(`<!doctype html>
<html><body style="font-family:Arial,sans-serif;color:#222">
<p>{{.ReferrerName}} invited you to value your car for free.</p>
<p>Sign up with code <strong>{{.Code}}</strong>{{if .SignupURL}} at <a href="{{.SignupURL}}">{{.SignupURL}}</a>{{end}}.</p>
</body></html>`))

var inviteText = texttemplate.Must(texttemplate.New("invite_text").Parse(`{{.ReferrerName}} invited you to value your car for free.
Sign up with code {{.Code}}{{if .SignupURL}} at {{.SignupURL}}{{end}}.
`))

func RenderInviteEmail(to string, data InviteEmailData) (Message, error) {
	if data.ReferrerName == "" {
		data.ReferrerName = "A friend"
	}
	var htmlBuf, textBuf bytes.Buffer
	if err := inviteHTML.Execute(&htmlBuf, data); err != nil {
		return Message{}, fmt.Errorf("render html: %w", err)
	}
	if err := inviteText.Execute(&textBuf, data); err != nil {
		return Message{}, fmt.Errorf("render text: %w", err)
	}
	return Message{
		To:      to,
		Subject: fmt.Sprintf("%s invited you to AutoValue", data.ReferrerName),
		HTML:    htmlBuf.String(),
		Text:    textBuf.String(),
	}, nil
}
