// Package graph sends mail through the Microsoft Graph sendMail API on
// behalf of a configured mailbox, authenticating with the OAuth2 client
// credentials grant.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/interactive-solutions/go-mailform"
)

const (
	DefaultAuthority = "https://login.microsoftonline.com"
	DefaultApiBase   = "https://graph.microsoft.com/v1.0"
	DefaultScope     = "https://graph.microsoft.com/.default"
)

type Config struct {
	TenantId     string
	ClientId     string
	ClientSecret string

	// From is the mailbox the mail is sent on behalf of.
	From string

	Authority string
	ApiBase   string

	// RetryMax is the number of extra attempts on retryable failures.
	RetryMax int

	Logger logrus.FieldLogger
}

// Message is a mail addressed with comma separated recipient lists.
type Message struct {
	To      string
	Cc      string
	Bcc     string
	Subject string
	Html    string
}

type graphTransport struct {
	client  *retryablehttp.Client
	from    string
	apiBase string
}

func NewGraphTransport(cfg Config) (*graphTransport, error) {
	if cfg.TenantId == "" || cfg.ClientId == "" || cfg.ClientSecret == "" {
		return nil, errors.New("Tenant id, client id and client secret are required")
	}

	if cfg.From == "" {
		return nil, errors.New("Sender mailbox is required")
	}

	if cfg.Authority == "" {
		cfg.Authority = DefaultAuthority
	}

	if cfg.ApiBase == "" {
		cfg.ApiBase = DefaultApiBase
	}

	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	credentials := &clientcredentials.Config{
		ClientID:     cfg.ClientId,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     fmt.Sprintf("%s/%s/oauth2/v2.0/token", cfg.Authority, url.PathEscape(cfg.TenantId)),
		Scopes:       []string{DefaultScope},
	}

	client := retryablehttp.NewClient()
	client.HTTPClient = oauth2.NewClient(context.Background(), credentials.TokenSource(context.Background()))
	client.RetryMax = cfg.RetryMax
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.Logger = &leveledLogger{logger: cfg.Logger.WithField("transport", "graph")}

	return &graphTransport{
		client:  client,
		from:    cfg.From,
		apiBase: cfg.ApiBase,
	}, nil
}

func (t *graphTransport) Name() string {
	return "graph"
}

func (t *graphTransport) Send(ctx context.Context, to, subject, htmlBody string) error {
	return t.SendMessage(ctx, Message{To: to, Subject: subject, Html: htmlBody})
}

func (t *graphTransport) SendMessage(ctx context.Context, message Message) error {
	body, err := json.Marshal(sendMailRequest{Message: newGraphMessage(message)})
	if err != nil {
		return mailform.WrapSendError(err, "failed to encode graph message")
	}

	endpoint := fmt.Sprintf("%s/users/%s/sendMail", t.apiBase, url.PathEscape(t.from))

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return mailform.WrapSendError(err, "failed to create graph request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", mailform.UserAgent)

	// The passthrough error handler hands back the response together with the
	// retry policy error, so the status is inspected first.
	resp, err := t.client.Do(req)
	if resp == nil {
		return mailform.WrapSendError(err, "graph sendMail request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 || resp.StatusCode <= 199 {
		return mailform.WrapSendError(decodeError(resp), "graph sendMail rejected")
	}

	if err != nil {
		return mailform.WrapSendError(err, "graph sendMail request failed")
	}

	return nil
}

type emailAddress struct {
	Address string `json:"address"`
}

type recipient struct {
	EmailAddress emailAddress `json:"emailAddress"`
}

type itemBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type graphMessage struct {
	Subject       string      `json:"subject"`
	Body          itemBody    `json:"body"`
	ToRecipients  []recipient `json:"toRecipients"`
	CcRecipients  []recipient `json:"ccRecipients"`
	BccRecipients []recipient `json:"bccRecipients"`
}

type sendMailRequest struct {
	Message graphMessage `json:"message"`
}

func newGraphMessage(message Message) graphMessage {
	return graphMessage{
		Subject:       message.Subject,
		Body:          itemBody{ContentType: "HTML", Content: message.Html},
		ToRecipients:  recipients(message.To),
		CcRecipients:  recipients(message.Cc),
		BccRecipients: recipients(message.Bcc),
	}
}

func recipients(addresses string) []recipient {
	list := make([]recipient, 0)
	for _, address := range mailform.SplitAddresses(addresses) {
		list = append(list, recipient{EmailAddress: emailAddress{Address: address}})
	}

	return list
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	payload := errorResponse{}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error.Code != "" {
		return errors.Errorf("%s: %s (status %d)", payload.Error.Code, payload.Error.Message, resp.StatusCode)
	}

	return errors.Errorf("Unexpected response code %d received from graph", resp.StatusCode)
}

// leveledLogger adapts logrus to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger logrus.FieldLogger
}

func (l *leveledLogger) fields(keysAndValues []interface{}) logrus.FieldLogger {
	entry := l.logger
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		entry = entry.WithField(fmt.Sprint(keysAndValues[i]), keysAndValues[i+1])
	}

	return entry
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Error(msg)
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Info(msg)
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Debug(msg)
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Warn(msg)
}
