// Package mail delivers contact-form submissions to the blog owner's inbox.
// Delivery is best-effort; the caller logs failures and moves on.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

// Message is a contact-form submission.
type Message struct {
	Name  string
	Email string
	Phone string
	Body  string
}

// Mailer sends contact messages to a fixed recipient.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig carries relay settings. Credentials come from the environment,
// never from source.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

type smtpMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) Mailer {
	return &smtpMailer{cfg: cfg}
}

// Send connects to the relay over implicit TLS and delivers the message.
func (m *smtpMailer) Send(ctx context.Context, msg Message) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial mail relay: %w", err)
	}
	tlsConn := tls.Client(conn, &tls.Config{ServerName: m.cfg.Host})
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return fmt.Errorf("tls handshake with mail relay: %w", err)
	}

	client, err := smtp.NewClient(tlsConn, m.cfg.Host)
	if err != nil {
		tlsConn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := client.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(m.cfg.To); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write([]byte(render(m.cfg.From, m.cfg.To, msg))); err != nil {
		w.Close()
		return fmt.Errorf("write mail body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finish mail body: %w", err)
	}
	return client.Quit()
}

func render(from, to string, msg Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: New contact form submission\r\n")
	fmt.Fprintf(&b, "Reply-To: %s\r\n", msg.Email)
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "Name: %s\r\n", msg.Name)
	fmt.Fprintf(&b, "Email: %s\r\n", msg.Email)
	if msg.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\r\n", msg.Phone)
	}
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	b.WriteString("\r\n")
	return b.String()
}
