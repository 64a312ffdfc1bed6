// Package mailer delivers one-time codes over SMTP.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"github.com/iliyamo/pestiq-backend/internal/config"
)

// Purpose selects the wording of an OTP email.
type Purpose string

const (
	PurposeVerify Purpose = "verify"
	PurposeReset  Purpose = "reset"
)

// Mailer sends OTP codes to users.
type Mailer interface {
	SendOTP(ctx context.Context, to, code string, purpose Purpose) error
}

var otpTemplate = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>{{.Brand}}</h2>
  <p>{{.Intro}}</p>
  <p style="font-size: 28px; font-weight: bold; letter-spacing: 6px;">{{.Code}}</p>
  <p>This code expires in {{.Minutes}} minutes.</p>
  <p>If you did not request this, you can ignore this email.</p>
</body>
</html>`))

type otpView struct {
	Brand   string
	Intro   string
	Code    string
	Minutes int
}

// RenderOTP returns the subject and HTML body for an OTP email.
func RenderOTP(brand, code string, purpose Purpose, minutes int) (string, string, error) {
	subject := "Your " + brand + " Verification Code"
	intro := "Use the code below to verify your email address."
	if purpose == PurposeReset {
		subject = "Your Password Reset Code"
		intro = "Use the code below to reset your password."
	}
	var buf bytes.Buffer
	err := otpTemplate.Execute(&buf, otpView{Brand: brand, Intro: intro, Code: code, Minutes: minutes})
	if err != nil {
		return "", "", err
	}
	return subject, buf.String(), nil
}

// SMTPMailer sends mail through one gomail dialer built at startup.
type SMTPMailer struct {
	cfg     config.MailConfig
	dialer  *gomail.Dialer
	minutes int
}

// NewSMTPMailer builds the mailer; ttlMinutes is quoted in the email body.
func NewSMTPMailer(cfg config.MailConfig, ttlMinutes int) *SMTPMailer {
	if ttlMinutes <= 0 {
		ttlMinutes = 10
	}
	return &SMTPMailer{
		cfg:     cfg,
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass),
		minutes: ttlMinutes,
	}
}

func (m *SMTPMailer) SendOTP(ctx context.Context, to, code string, purpose Purpose) error {
	subject, body, err := RenderOTP(m.cfg.Brand, code, purpose, m.minutes)
	if err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	// gomail has no context support; honour cancellation before dialing.
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
