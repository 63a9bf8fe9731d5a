package utils

import (
	"context"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	log "github.com/sirupsen/logrus"

	"placement/config"
)

const senderName = "Student Placement Team"

type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers a rendered email. Implementations must be safe for
// concurrent use.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NewMailer picks the delivery channel named by cfg.MailDriver.
func NewMailer(cfg *config.Config) (Mailer, error) {
	switch cfg.MailDriver {
	case "", "log":
		return LogMailer{}, nil
	case "smtp":
		if cfg.SMTPUser == "" || cfg.SMTPPassword == "" {
			log.Warn("SMTP credentials not configured. Email sending will likely fail.")
		}
		from := cfg.MailFrom
		if cfg.SMTPUser != "" {
			from = cfg.SMTPUser
		}
		return &SMTPMailer{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     from,
		}, nil
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("SENDGRID_API_KEY is required for the sendgrid mail driver")
		}
		return NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFrom), nil
	default:
		return nil, fmt.Errorf("unknown mail driver %q", cfg.MailDriver)
	}
}

// SMTPMailer sends HTML mail through an SMTP submission server (STARTTLS on 587).
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// headerSafe flattens line breaks so a value cannot start a new header.
var headerSafe = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

func (m *SMTPMailer) compose(msg Message) []byte {
	// MIME basics
	var b strings.Builder
	b.WriteString("MIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n")
	fmt.Fprintf(&b, "From: %s <%s>\r\n", senderName, headerSafe.Replace(m.From))
	fmt.Fprintf(&b, "To: %s\r\n", headerSafe.Replace(msg.To))
	fmt.Fprintf(&b, "Subject: %s\r\n\r\n", headerSafe.Replace(msg.Subject))
	b.WriteString(msg.HTML)
	return []byte(b.String())
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	body := m.compose(msg)

	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}
	addr := m.Host + ":" + strconv.Itoa(m.Port)

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, m.From, []string{msg.To}, body)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", msg.To, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type SendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendGridMailer(apiKey, from string) *SendGridMailer {
	return &SendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(senderName, from),
	}
}

func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	message := mail.NewSingleEmail(m.from, msg.Subject, mail.NewEmail("", msg.To), "", msg.HTML)
	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send to %s: %w", msg.To, err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send to %s: status %d: %s", msg.To, resp.StatusCode, resp.Body)
	}
	return nil
}

// LogMailer only logs outgoing mail. It is the development default.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	log.WithFields(log.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("email (log driver, not delivered)")
	return nil
}
