package mailform

import (
	"context"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/pkg/errors"
)

var (
	ErrMailTransportNotConfigured = errors.New("No mail transport configured")
	ErrMailSendFailed             = errors.New("Failed to send email")
)

type EmailTransport interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SplitAddresses splits a comma separated address list, dropping empty entries.
func SplitAddresses(addresses string) []string {
	result := make([]string, 0)

	for _, address := range strings.Split(addresses, ",") {
		if address = strings.TrimSpace(address); address != "" {
			result = append(result, address)
		}
	}

	return result
}

var textPolicy = bluemonday.StrictPolicy()

// PlainText derives the plain text alternative of an HTML body by dropping
// every tag.
func PlainText(htmlBody string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(htmlBody)))
}
