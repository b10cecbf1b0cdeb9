package mail

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

// Message is the payload handed to the notification sink.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// AccountMailer delivers account lifecycle mail over SMTP.
type AccountMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
	useTLS   bool
}

func NewAccountMailer(host, port, username, password, from string, useTLS bool) *AccountMailer {
	return &AccountMailer{
		host:     strings.TrimSpace(host),
		port:     strings.TrimSpace(port),
		username: username,
		password: password,
		from:     strings.TrimSpace(from),
		useTLS:   useTLS,
	}
}

func (m *AccountMailer) SendVerification(ctx context.Context, to, firstName, lastName, link string) error {
	return m.Send(ctx, Message{
		To:      to,
		Subject: "Verify your account",
		HTML: fmt.Sprintf(`
            <h1>Hello, %s %s</h1>
            <h3>Your account has been created!</h3>
            <p>Click the link to verify it</p>
            <a href="%s">%s</a>
        `, firstName, lastName, link, link),
	})
}

func (m *AccountMailer) SendPasswordReset(ctx context.Context, to, firstName, lastName, link string) error {
	return m.Send(ctx, Message{
		To:      to,
		Subject: "Reset password",
		HTML: fmt.Sprintf(`
            <h1>Hello %s %s</h1>
            <p>Click on the link to change your password</p>
            <a href="%s">%s</a>
        `, firstName, lastName, link, link),
	})
}

func (m *AccountMailer) Send(ctx context.Context, msg Message) error {
	if m == nil {
		return errors.New("mailer not configured")
	}
	if m.host == "" || m.port == "" || m.from == "" {
		return errors.New("mailer missing configuration")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	message := strings.Builder{}
	message.WriteString(fmt.Sprintf("From: %s\r\n", m.from))
	message.WriteString(fmt.Sprintf("To: %s\r\n", msg.To))
	message.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	message.WriteString("MIME-Version: 1.0\r\n")
	message.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	message.WriteString("Content-Transfer-Encoding: 7bit\r\n\r\n")
	message.WriteString(msg.HTML)
	message.WriteString("\r\n")

	addr := net.JoinHostPort(m.host, m.port)
	var auth smtp.Auth
	if m.username != "" || m.password != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return smtp.SendMail(addr, auth, m.from, []string{msg.To}, []byte(message.String()))
}
