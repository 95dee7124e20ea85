package provider

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"

	"github.com/interactive-solutions/go-mailform"
)

type sesTransport struct {
	ses sesiface.SESAPI

	from    string
	charset string
}

func NewSesTransport(sess *session.Session, from string) *sesTransport {
	return newSesTransport(ses.New(sess), from)
}

func newSesTransport(api sesiface.SESAPI, from string) *sesTransport {
	return &sesTransport{
		ses:     api,
		from:    from,
		charset: "UTF-8",
	}
}

func (transport *sesTransport) Name() string {
	return "ses"
}

func (transport *sesTransport) Send(ctx context.Context, to, subject, htmlBody string) error {
	input := transport.input(to, subject, htmlBody)

	if _, err := transport.ses.SendEmailWithContext(ctx, input); err != nil {
		return mailform.WrapSendError(err, "ses send email")
	}

	return nil
}

func (transport *sesTransport) input(to, subject, htmlBody string) *ses.SendEmailInput {
	return &ses.SendEmailInput{
		Source: aws.String(transport.from),
		Destination: &ses.Destination{
			ToAddresses: aws.StringSlice(mailform.SplitAddresses(to)),
		},
		Message: &ses.Message{
			Subject: transport.content(subject),
			Body: &ses.Body{
				Html: transport.content(htmlBody),
				Text: transport.content(mailform.PlainText(htmlBody)),
			},
		},
	}
}

func (transport *sesTransport) content(data string) *ses.Content {
	return &ses.Content{
		Charset: aws.String(transport.charset),
		Data:    aws.String(data),
	}
}
