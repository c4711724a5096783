package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Message is one notification. An empty To means nobody can be addressed
// directly and the message is only recorded.
type Message struct {
	To      string
	Subject string
	Body    string
}

type Notifier interface {
	Notify(ctx context.Context, m Message) error
}

// ConsoleNotifier writes notifications to the log.
type ConsoleNotifier struct {
	log *zap.Logger
}

func NewConsole(log *zap.Logger) *ConsoleNotifier {
	return &ConsoleNotifier{log: log}
}

func (c *ConsoleNotifier) Notify(_ context.Context, m Message) error {
	c.log.Info("notify",
		zap.String("to", m.To),
		zap.String("subject", m.Subject),
		zap.String("body", m.Body),
	)
	return nil
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier emails messages that have a recipient and logs the rest.
type SMTPNotifier struct {
	addr     string
	auth     smtp.Auth
	from     string
	send     sendMailFunc
	fallback Notifier
}

func NewSMTP(host string, port int, username, password, from string, fallback Notifier) *SMTPNotifier {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPNotifier{
		addr:     fmt.Sprintf("%s:%d", host, port),
		auth:     auth,
		from:     from,
		send:     smtp.SendMail,
		fallback: fallback,
	}
}

func (s *SMTPNotifier) Notify(ctx context.Context, m Message) error {
	if m.To == "" {
		return s.fallback.Notify(ctx, m)
	}
	if err := s.send(s.addr, s.auth, s.from, []string{m.To}, s.compose(m)); err != nil {
		return fmt.Errorf("send mail to %s: %w", m.To, err)
	}
	return nil
}

func (s *SMTPNotifier) compose(m Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + s.from + "\r\n")
	b.WriteString("To: " + m.To + "\r\n")
	b.WriteString("Subject: " + m.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(m.Body)
	b.WriteString("\r\n")
	return []byte(b.String())
}
