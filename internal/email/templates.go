package email

import (
	"bytes"
	"fmt"
	"html/template"
)

var invitationTmpl = template.Must(template.New("invitation").Parse(`
<html>
<body style="font-family: sans-serif; color: #333;">
  <h2>{{.Heading}}</h2>
  <p>{{.Intro}}</p>
  <p><a href="{{.Link}}" style="color: #2a6fdb;">{{.LinkText}}</a></p>
  <p style="color: #888; font-size: 12px;">{{.Footer}}</p>
</body>
</html>
`))

var verificationTmpl = template.Must(template.New("verification").Parse(`
<html>
<body style="font-family: sans-serif; color: #333;">
  <h2>Welcome, {{.Name}}</h2>
  <p>Confirm your email address to finish setting up your account.</p>
  <p><a href="{{.Link}}" style="color: #2a6fdb;">Verify email address</a></p>
  <p style="color: #888; font-size: 12px;">The link expires in 24 hours. If you did not create an account, you can ignore this mail.</p>
</body>
</html>
`))

var passwordResetTmpl = template.Must(template.New("password_reset").Parse(`
<html>
<body style="font-family: sans-serif; color: #333;">
  <h2>Password reset</h2>
  <p>Hi {{.Name}}, someone requested a password reset for your account.</p>
  <p><a href="{{.Link}}" style="color: #2a6fdb;">Choose a new password</a></p>
  <p style="color: #888; font-size: 12px;">The link expires in 1 hour. If this was not you, no action is needed.</p>
</body>
</html>
`))

type invitationStrings struct {
	Subject  string
	Heading  string
	Intro    string
	LinkText string
	Footer   string
}

// Invitation copy is localized by the calendar's language. Anything we
// do not have strings for falls back to English.
func invitationCopy(lang, inviterName, calendarTitle string, userExists bool) invitationStrings {
	switch lang {
	case "de":
		s := invitationStrings{
			Subject:  fmt.Sprintf("%s hat den Kalender \"%s\" mit Ihnen geteilt", inviterName, calendarTitle),
			Heading:  fmt.Sprintf("Kalender \"%s\"", calendarTitle),
			Intro:    fmt.Sprintf("%s hat Ihnen Zugriff auf diesen Kalender gegeben.", inviterName),
			LinkText: "Kalender öffnen",
			Footer:   "Diese Einladung wurde über die Kalender-Freigabe verschickt.",
		}
		if !userExists {
			s.Intro = fmt.Sprintf("%s hat Ihnen Zugriff auf diesen Kalender gegeben. Erstellen Sie ein Konto mit dieser E-Mail-Adresse, um den Zugriff zu übernehmen.", inviterName)
			s.LinkText = "Konto erstellen"
		}
		return s
	default:
		s := invitationStrings{
			Subject:  fmt.Sprintf("%s shared the calendar \"%s\" with you", inviterName, calendarTitle),
			Heading:  fmt.Sprintf("Calendar \"%s\"", calendarTitle),
			Intro:    fmt.Sprintf("%s gave you access to this calendar.", inviterName),
			LinkText: "Open calendar",
			Footer:   "This invitation was sent through calendar sharing.",
		}
		if !userExists {
			s.Intro = fmt.Sprintf("%s gave you access to this calendar. Sign up with this email address to claim the access.", inviterName)
			s.LinkText = "Create an account"
		}
		return s
	}
}

func renderInvitation(lang, inviterName, calendarTitle, link string, userExists bool) (subject, html string, err error) {
	strs := invitationCopy(lang, inviterName, calendarTitle, userExists)

	var buf bytes.Buffer
	err = invitationTmpl.Execute(&buf, map[string]string{
		"Heading":  strs.Heading,
		"Intro":    strs.Intro,
		"Link":     link,
		"LinkText": strs.LinkText,
		"Footer":   strs.Footer,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to render invitation mail: %w", err)
	}

	return strs.Subject, buf.String(), nil
}

func renderVerification(name, link string) (string, error) {
	var buf bytes.Buffer
	err := verificationTmpl.Execute(&buf, map[string]string{
		"Name": name,
		"Link": link,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render verification mail: %w", err)
	}
	return buf.String(), nil
}

func renderPasswordReset(name, link string) (string, error) {
	var buf bytes.Buffer
	err := passwordResetTmpl.Execute(&buf, map[string]string{
		"Name": name,
		"Link": link,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render password reset mail: %w", err)
	}
	return buf.String(), nil
}
