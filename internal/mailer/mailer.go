// Package mailer sends transactional email for the background worker.
package mailer

import gomail "gopkg.in/gomail.v2"

// Sender is the port the worker holds on the mail system.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

// SMTPSender delivers mail over SMTP.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender configures an SMTP sender.  An empty username disables
// authentication, which suits local relays in development.
func NewSMTPSender(host string, port int, user, pass, from string) *SMTPSender {
	return &SMTPSender{dialer: gomail.NewDialer(host, port, user, pass), from: from}
}

// Send delivers one HTML message.  Each call dials a fresh SMTP session;
// the worker sends mail far too rarely to justify connection pooling.
func (s *SMTPSender) Send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)
	return s.dialer.DialAndSend(m)
}
