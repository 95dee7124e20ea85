package smtp

import (
	"context"
	"crypto/tls"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/interactive-solutions/go-mailform"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string

	// UseSSL dials with implicit TLS instead of STARTTLS.
	UseSSL             bool
	InsecureSkipVerify bool

	From string
}

type smtpTransport struct {
	dialer *gomail.Dialer
	from   string
}

func NewSmtpTransport(cfg Config) mailform.EmailTransport {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.UseSSL

	if cfg.InsecureSkipVerify {
		d.TLSConfig = &tls.Config{InsecureSkipVerify: true, ServerName: cfg.Host}
	}

	from := cfg.From
	if from == "" {
		from = cfg.Username
	}

	return &smtpTransport{
		dialer: d,
		from:   from,
	}
}

func (t *smtpTransport) Name() string {
	return "smtp"
}

func (t *smtpTransport) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return mailform.WrapSendError(err, "smtp send aborted")
	}

	msg := t.newMessage(to, subject, htmlBody)

	if err := t.dialer.DialAndSend(msg); err != nil {
		return mailform.WrapSendError(err, fmt.Sprintf("smtp %s:%d", t.dialer.Host, t.dialer.Port))
	}

	return nil
}

func (t *smtpTransport) newMessage(to, subject, htmlBody string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", t.from)
	msg.SetHeader("To", mailform.SplitAddresses(to)...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", mailform.PlainText(htmlBody))
	msg.AddAlternative("text/html", htmlBody)

	return msg
}
