// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// LinkEmailData fills the confirmation and password reset templates.
type LinkEmailData struct {
	SiteName  string
	Link      string
	ExpiresIn string // e.g., "1 hour"
}

// ConfirmationLink builds <website>/confirmation/<token>.
func ConfirmationLink(website, token string) string {
	return strings.TrimRight(website, "/") + "/confirmation/" + token
}

// ResetLink builds <website>/resetpassword/<token>.
func ResetLink(website, token string) string {
	return strings.TrimRight(website, "/") + "/resetpassword/" + token
}

// BuildConfirmationEmail creates the email-address confirmation message.
func BuildConfirmationEmail(data LinkEmailData) Email {
	return Email{
		Subject:  "Email Confirmation",
		TextBody: fmt.Sprintf("Click on this link to confirm your email: %s\n\nThis link expires in %s.\n", data.Link, data.ExpiresIn),
		HTMLBody: render(confirmationTmpl, data),
	}
}

// BuildPasswordResetEmail creates the password reset message.
func BuildPasswordResetEmail(data LinkEmailData) Email {
	return Email{
		Subject: "Password Reset",
		TextBody: fmt.Sprintf("Click on this link to reset your password: %s\n\nThis link expires in %s. "+
			"If you did not ask to reset your password, you can ignore this email.\n", data.Link, data.ExpiresIn),
		HTMLBody: render(resetTmpl, data),
	}
}

func render(t *template.Template, data LinkEmailData) string {
	var buf bytes.Buffer
	_ = t.Execute(&buf, data)
	return buf.String()
}

var (
	confirmationTmpl = template.Must(template.New("confirm").Parse(layoutStart +
		`<p style="margin: 0 0 16px;">Welcome to {{.SiteName}}. Confirm your email address to start joining groups.</p>` +
		button + `<p style="margin: 16px 0 0; font-size: 13px; color: #6b7280;">This link expires in {{.ExpiresIn}}.</p>` + layoutEnd))

	resetTmpl = template.Must(template.New("reset").Parse(layoutStart +
		`<p style="margin: 0 0 16px;">We received a request to reset your {{.SiteName}} password.</p>` +
		button + `<p style="margin: 16px 0 0; font-size: 13px; color: #6b7280;">This link expires in {{.ExpiresIn}}. ` +
		`If you did not ask for this, you can ignore this email.</p>` + layoutEnd))
)

const layoutStart = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px; color: #374151; font-size: 15px;">
              <h1 style="margin: 0 0 24px; font-size: 22px; color: #4f46e5;">{{.SiteName}}</h1>
`

const button = `<p style="margin: 0;"><a href="{{.Link}}" style="display: inline-block; padding: 12px 24px; background-color: #4f46e5; color: #ffffff; text-decoration: none; border-radius: 6px;">Continue</a></p>
<p style="margin: 16px 0 0; font-size: 13px; color: #6b7280; word-break: break-all;">{{.Link}}</p>
`

const layoutEnd = `            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>
`
