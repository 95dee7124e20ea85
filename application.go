package mailform

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/interactive-solutions/go-mailform/internal/metrics"
)

const UserAgent = "InteractiveSolutions/GoMailform-1.0"

type Application interface {
	HttpHandler() *HttpHandler

	MailConfigured() bool

	Namespaces(ctx context.Context) ([]string, error)
	CreateNamespace(ctx context.Context, namespace string) error

	CreateTemplate(ctx context.Context, namespace, subject, body string) (Template, error)
	GetTemplate(ctx context.Context, namespace string, id int64) (Template, error)
	UpdateTemplate(ctx context.Context, namespace string, id int64, subject, body string) error
	DeleteTemplate(ctx context.Context, namespace string, id int64) error
	AllTemplates(ctx context.Context) (map[string][]Template, error)

	SendEmail(ctx context.Context, ref TemplateRef, to string, bindings map[string]string) error
}

type AppOption func(a *application)

func SetLogger(logger logrus.FieldLogger) AppOption {
	return func(a *application) {
		a.logger = logger
	}
}

func SetTemplateRepo(repo TemplateRepository) AppOption {
	return func(a *application) {
		a.templateRepo = repo
	}
}

func SetEmailTransport(transport EmailTransport) AppOption {
	return func(a *application) {
		a.emailTransport = transport
	}
}

func SetSessionStore(store sessions.Store) AppOption {
	return func(a *application) {
		a.sessionStore = store
	}
}

type application struct {
	logger logrus.FieldLogger

	templateRepo   TemplateRepository
	emailTransport EmailTransport
	sessionStore   sessions.Store
}

func NewApplication(options ...AppOption) (Application, error) {
	app := &application{
		logger: logrus.New(),
	}

	for _, option := range options {
		option(app)
	}

	if app.sessionStore == nil {
		app.sessionStore = sessions.NewCookieStore([]byte(uuid.NewString()))
	}

	if err := app.ensureUsableConfiguration(); err != nil {
		return app, err
	}

	if app.emailTransport == nil {
		app.logger.Warn("no mail transport configured, pages requiring mail will be refused")
	}

	return app, nil
}

func (a *application) HttpHandler() *HttpHandler {
	return &HttpHandler{
		app:      a,
		sessions: a.sessionStore,
		logger:   a.logger,
	}
}

func (a *application) MailConfigured() bool {
	return a.emailTransport != nil
}

func (a *application) ensureUsableConfiguration() error {
	if a.templateRepo == nil {
		return errors.New("Missing template repository")
	}

	return nil
}

func (a *application) Namespaces(ctx context.Context) ([]string, error) {
	namespaces, err := a.templateRepo.ListNamespaces(ctx)
	a.track("list_namespaces", err)

	return namespaces, err
}

func (a *application) CreateNamespace(ctx context.Context, namespace string) error {
	if err := ValidateNamespace(namespace); err != nil {
		return err
	}

	err := a.templateRepo.CreateNamespace(ctx, namespace)
	a.track("create_namespace", err)

	if err == nil {
		a.logger.WithField("namespace", namespace).Info("namespace created")
	}

	return err
}

func (a *application) CreateTemplate(ctx context.Context, namespace, subject, body string) (Template, error) {
	tpl, err := a.templateRepo.Save(ctx, namespace, subject, body)
	a.track("save", err)

	if err != nil {
		a.logger.
			WithField("namespace", namespace).
			WithError(err).
			Error("failed to save template")

		return tpl, err
	}

	return tpl, nil
}

func (a *application) GetTemplate(ctx context.Context, namespace string, id int64) (Template, error) {
	tpl, err := a.templateRepo.Get(ctx, namespace, id)
	a.track("get", err)

	return tpl, err
}

func (a *application) UpdateTemplate(ctx context.Context, namespace string, id int64, subject, body string) error {
	err := a.templateRepo.Update(ctx, namespace, id, subject, body)
	a.track("update", err)

	return err
}

func (a *application) DeleteTemplate(ctx context.Context, namespace string, id int64) error {
	err := a.templateRepo.Delete(ctx, namespace, id)
	a.track("delete", err)

	return err
}

func (a *application) AllTemplates(ctx context.Context) (map[string][]Template, error) {
	templates, err := a.templateRepo.ListAll(ctx)
	a.track("list_all", err)

	return templates, err
}

func (a *application) SendEmail(ctx context.Context, ref TemplateRef, to string, bindings map[string]string) error {
	if a.emailTransport == nil {
		return ErrMailTransportNotConfigured
	}

	tpl, err := a.GetTemplate(ctx, ref.Namespace, ref.Id)
	if err != nil {
		return err
	}

	subject, htmlBody := Render(tpl.Subject, tpl.Body, bindings)

	name := transportName(a.emailTransport)
	logger := a.logger.
		WithField("templateId", ref.String()).
		WithField("to", to).
		WithField("transport", name)

	if err := a.emailTransport.Send(ctx, to, subject, htmlBody); err != nil {
		metrics.MailSendFailure.WithLabelValues(name).Inc()
		logger.WithError(err).Error("failed to send email")

		if !errors.Is(err, ErrMailSendFailed) {
			err = WrapSendError(err, "transport "+name)
		}

		return err
	}

	metrics.MailSendSuccess.WithLabelValues(name).Inc()
	logger.Info("email sent")

	return nil
}

func (a *application) track(operation string, err error) {
	metrics.TemplateOperations.WithLabelValues(operation, metrics.Outcome(err)).Inc()
}

func transportName(transport EmailTransport) string {
	if named, ok := transport.(interface{ Name() string }); ok {
		return named.Name()
	}

	return fmt.Sprintf("%T", transport)
}
