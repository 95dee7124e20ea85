package mailgun

import (
	"context"

	"github.com/mailgun/mailgun-go/v3"

	"github.com/interactive-solutions/go-mailform"
)

type MailgunOption func(t *mailgunTransport) error

func SetFrom(from string) MailgunOption {
	return func(e *mailgunTransport) error {
		e.from = from
		return nil
	}
}

func SetReplyTo(replyTo string) MailgunOption {
	return func(e *mailgunTransport) error {
		e.replyTo = replyTo
		return nil
	}
}

type mailgunTransport struct {
	mg mailgun.Mailgun

	from    string
	replyTo string
}

func NewMailgunTransport(mailgunClient mailgun.Mailgun, options ...MailgunOption) (mailform.EmailTransport, error) {
	t := &mailgunTransport{
		mg: mailgunClient,
	}

	for _, option := range options {
		if err := option(t); err != nil {
			return nil, err
		}
	}

	return t, nil
}

func (t *mailgunTransport) Name() string {
	return "mailgun"
}

func (t *mailgunTransport) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := t.mg.NewMessage(t.from, subject, mailform.PlainText(htmlBody), mailform.SplitAddresses(to)...)
	msg.SetHtml(htmlBody)

	if t.replyTo != "" {
		msg.SetReplyTo(t.replyTo)
	}

	if _, _, err := t.mg.Send(ctx, msg); err != nil {
		return mailform.WrapSendError(err, "Failed to send message")
	}

	return nil
}
