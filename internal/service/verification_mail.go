package service

import (
	"context"
	"errors"
	"fmt"
	"html"

	"gopkg.in/gomail.v2"
)

// MailConfig holds the SMTP settings used to deliver mails
type MailConfig struct {
	Host          string
	Port          int
	SenderAddress string
	Password      string
	AppName       string
}

// Mailer sends verification links over SMTP
type Mailer struct {
	cfg  MailConfig
	send func(m ...*gomail.Message) error
}

func NewMailer(cfg MailConfig) *Mailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.SenderAddress, cfg.Password)

	return &Mailer{
		cfg:  cfg,
		send: d.DialAndSend,
	}
}

// SendVerificationMail mails the verification link to sendTo
func (m *Mailer) SendVerificationMail(ctx context.Context, sendTo, link string) error {
	if sendTo == m.cfg.SenderAddress {
		return errors.New("invalid email address")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	msg := m.verificationMessage(sendTo, link)
	if err := m.send(msg); err != nil {
		return fmt.Errorf("failed to send verification mail, %w", err)
	}

	return nil
}

func (m *Mailer) verificationMessage(sendTo, link string) *gomail.Message {
	msg := gomail.NewMessage()

	msg.SetHeader("From", m.cfg.SenderAddress)
	msg.SetHeader("To", sendTo)
	msg.SetHeader("Subject", fmt.Sprintf("Verify your email for %s", m.cfg.AppName))
	msg.SetBody("text/plain", fmt.Sprintf("Open this link to verify your account:\n\n%s\n\nThe link expires in one hour.", link))
	msg.AddAlternative("text/html", verificationHTML(link))

	return msg
}

func verificationHTML(link string) string {
	return fmt.Sprintf(`Click <a href="%s">here</a> to verify your account.<br><br>The link expires in one hour.`, html.EscapeString(link))
}
