package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// VerificationEmailData fills the one-time code email.
type VerificationEmailData struct {
	SiteName  string
	Code      string
	ExpiresIn string // e.g. "10 minutes"
}

// InvitationEmailData fills the invitation email.
type InvitationEmailData struct {
	SiteName       string
	StudyGroupName string
	InviterName    string
	Role           string
	JoinLink       string
}

var (
	verificationHTML = template.Must(template.New("verification").Parse(layoutHTML + `
{{define "content"}}
<p style="margin:0 0 24px;font-size:16px;color:#374151;">Your verification code is:</p>
<div style="background:#f3f4f6;border-radius:8px;padding:24px;text-align:center;margin-bottom:24px;">
  <span style="font-size:32px;font-weight:700;letter-spacing:8px;color:#1f2937;font-family:'Courier New',monospace;">{{.Code}}</span>
</div>
<p style="margin:0;font-size:14px;color:#6b7280;text-align:center;">This code expires in {{.ExpiresIn}}.</p>
{{end}}
{{define "footer"}}If you did not request this code, you can safely ignore this email.{{end}}`))

	invitationHTML = template.Must(template.New("invitation").Parse(layoutHTML + `
{{define "content"}}
<p style="margin:0 0 24px;font-size:16px;color:#374151;">
  {{if .InviterName}}{{.InviterName}} has invited you{{else}}You have been invited{{end}}
  to join <strong>{{.StudyGroupName}}</strong> as {{.Role}}.
</p>
<p style="text-align:center;margin:0 0 24px;">
  <a href="{{.JoinLink}}" style="display:inline-block;padding:12px 32px;background:#4f46e5;color:#ffffff;text-decoration:none;border-radius:6px;font-weight:600;">Accept invitation</a>
</p>
<p style="margin:0;font-size:13px;color:#6b7280;word-break:break-all;">{{.JoinLink}}</p>
{{end}}
{{define "footer"}}If you were not expecting this invitation, you can ignore this email.{{end}}`))
)

const layoutHTML = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><meta name="viewport" content="width=device-width, initial-scale=1.0"></head>
<body style="margin:0;padding:0;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Arial,sans-serif;background:#f3f4f6;">
<table role="presentation" width="100%" cellspacing="0" cellpadding="0"><tr><td align="center" style="padding:40px 20px;">
<table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width:480px;background:#ffffff;border-radius:8px;">
  <tr><td style="padding:32px 32px 24px;text-align:center;border-bottom:1px solid #e5e7eb;">
    <h1 style="margin:0;font-size:24px;font-weight:600;color:#4f46e5;">{{.SiteName}}</h1>
  </td></tr>
  <tr><td style="padding:32px;">{{template "content" .}}</td></tr>
  <tr><td style="padding:24px 32px;border-top:1px solid #e5e7eb;font-size:12px;color:#9ca3af;text-align:center;">{{template "footer" .}}</td></tr>
</table>
</td></tr></table>
</body>
</html>`

// BuildVerificationEmail renders the one-time code email. The caller sets To.
func BuildVerificationEmail(data VerificationEmailData) Email {
	var text strings.Builder
	fmt.Fprintf(&text, "Your %s verification code is: %s\n\n", data.SiteName, data.Code)
	fmt.Fprintf(&text, "This code expires in %s.\n\n", data.ExpiresIn)
	text.WriteString("If you did not request this code, you can safely ignore this email.\n")

	return Email{
		Subject:  fmt.Sprintf("Your %s verification code", data.SiteName),
		TextBody: text.String(),
		HTMLBody: render(verificationHTML, data),
	}
}

// BuildInvitationEmail renders the invitation email. The caller sets To.
func BuildInvitationEmail(data InvitationEmailData) Email {
	var text strings.Builder
	if data.InviterName != "" {
		fmt.Fprintf(&text, "%s has invited you to join %s on %s as %s.\n\n", data.InviterName, data.StudyGroupName, data.SiteName, data.Role)
	} else {
		fmt.Fprintf(&text, "You have been invited to join %s on %s as %s.\n\n", data.StudyGroupName, data.SiteName, data.Role)
	}
	text.WriteString("Accept the invitation here:\n")
	text.WriteString(data.JoinLink + "\n\n")
	text.WriteString("If you were not expecting this invitation, you can ignore this email.\n")

	return Email{
		Subject:  fmt.Sprintf("You're invited to %s on %s", data.StudyGroupName, data.SiteName),
		TextBody: text.String(),
		HTMLBody: render(invitationHTML, data),
	}
}

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return ""
	}
	return buf.String()
}
