// Package mail builds and delivers the password-reset email over SMTP.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/sholdev/music_school/internal/models"
)

var resetTemplate = template.Must(template.New("reset").Parse(`
<p>Hello {{.Name}},</p>
<p>We heard that you lost your password. Sorry about that!</p>
<p>But don't worry! You can use the following link to reset your password:</p>
<a href="{{.URL}}">{{.URL}}</a>
<p>If you don't use this link within 10 minutes, it will expire.</p>
<p>If you didn't send a request to reset your password just ignore this email.</p>
`))

type SMTPMailer struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func (m *SMTPMailer) SendResetEmail(_ context.Context, user *models.User, resetURL string) error {
	name := user.Name
	if name == "" {
		name = user.Email
	}

	var body bytes.Buffer
	if err := resetTemplate.Execute(&body, struct {
		Name string
		URL  string
	}{Name: name, URL: resetURL}); err != nil {
		return fmt.Errorf("mail: render template: %w", err)
	}

	msg := bytes.Buffer{}
	fmt.Fprintf(&msg, "From: %s\r\n", m.From)
	fmt.Fprintf(&msg, "To: %s\r\n", user.Email)
	fmt.Fprintf(&msg, "Subject: Music School - reset password\r\n")
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	msg.Write(body.Bytes())

	addr := m.Host + ":" + m.Port
	auth := smtp.PlainAuth("", m.Username, m.Password, m.Host)
	if err := smtp.SendMail(addr, auth, m.From, []string{user.Email}, msg.Bytes()); err != nil {
		return fmt.Errorf("mail: send failed: %w", err)
	}
	return nil
}
