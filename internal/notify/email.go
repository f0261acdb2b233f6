package notify

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/smtp"
	"strings"
)

type EmailMessage struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// EmailSender delivers one message and returns a provider message identifier.
type EmailSender interface {
	Send(msg EmailMessage) (string, error)
}

// SMTPSender sends email over SMTP, optionally with PLAIN auth. Works
// against Mailpit in development and authenticated relays in production.
type SMTPSender struct {
	addr string
	host string
	from string
	auth smtp.Auth
}

func NewSMTPSender(host, port, from, user, pass string) *SMTPSender {
	host = strings.TrimSpace(host)
	port = strings.TrimSpace(port)
	from = strings.TrimSpace(from)
	if from == "" {
		from = "no-reply@roomdesk.local"
	}
	s := &SMTPSender{
		addr: fmt.Sprintf("%s:%s", host, port),
		host: host,
		from: from,
	}
	if user != "" {
		s.auth = smtp.PlainAuth("", user, pass, host)
	}
	return s
}

func (s *SMTPSender) Send(msg EmailMessage) (string, error) {
	messageID := newMessageID(s.host)
	raw := buildMessage(s.from, messageID, msg)
	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{msg.To}, []byte(raw)); err != nil {
		return "", err
	}
	return messageID, nil
}

func buildMessage(from, messageID string, msg EmailMessage) string {
	var b strings.Builder
	writeHeader := func(k, v string) {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\r\n")
	}
	writeHeader("From", from)
	writeHeader("To", msg.To)
	writeHeader("Subject", msg.Subject)
	writeHeader("Message-ID", "<"+messageID+">")
	writeHeader("MIME-Version", "1.0")

	if msg.HTML == "" {
		writeHeader("Content-Type", "text/plain; charset=utf-8")
		b.WriteString("\r\n")
		b.WriteString(msg.Text)
		b.WriteString("\r\n")
		return b.String()
	}

	boundary := "=_roomdesk_" + messageID[:12]
	writeHeader("Content-Type", "multipart/alternative; boundary=\""+boundary+"\"")
	b.WriteString("\r\n")
	// Plain text first so clients that cannot render HTML prefer it last-wins.
	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Text)
	b.WriteString("\r\n--" + boundary + "\r\n")
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	b.WriteString(msg.HTML)
	b.WriteString("\r\n--" + boundary + "--\r\n")
	return b.String()
}

func newMessageID(host string) string {
	var buf [16]byte
	_, _ = rand.Read(buf[:])
	if host == "" {
		host = "roomdesk.local"
	}
	return hex.EncodeToString(buf[:]) + "@" + host
}

// NoopEmailSender drops messages; useful in tests and local setups.
type NoopEmailSender struct{}

func (NoopEmailSender) Send(_ EmailMessage) (string, error) {
	return "email-noop", nil
}
