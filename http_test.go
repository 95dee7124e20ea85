package mailform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestHttpHandler(t *testing.T) {
	suite.Run(t, new(httpHandlerTestSuite))
}

type httpHandlerTestSuite struct {
	suite.Suite

	repo      *memoryRepository
	transport *recordingTransport
	router    *mux.Router
	cookies   map[string]*http.Cookie
}

func (suite *httpHandlerTestSuite) SetupTest() {
	suite.repo = newMemoryRepository("mkt")
	suite.transport = &recordingTransport{}
	suite.cookies = make(map[string]*http.Cookie)
	suite.router = suite.newRouter(SetEmailTransport(suite.transport))
}

func (suite *httpHandlerTestSuite) newRouter(options ...AppOption) *mux.Router {
	logger, _ := test.NewNullLogger()

	app, err := NewApplication(append([]AppOption{SetLogger(logger), SetTemplateRepo(suite.repo)}, options...)...)
	require.NoError(suite.T(), err)

	return app.HttpHandler().Router()
}

func (suite *httpHandlerTestSuite) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	for _, cookie := range suite.cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	suite.router.ServeHTTP(rec, req)

	for _, cookie := range rec.Result().Cookies() {
		suite.cookies[cookie.Name] = cookie
	}

	return rec
}

// follow requests the redirect target of rec and returns the page body.
func (suite *httpHandlerTestSuite) follow(rec *httptest.ResponseRecorder) string {
	require.Equal(suite.T(), http.StatusFound, rec.Code)

	page := suite.do(http.MethodGet, rec.Header().Get("Location"), nil)
	require.Equal(suite.T(), http.StatusOK, page.Code)

	return page.Body.String()
}

func (suite *httpHandlerTestSuite) saveTemplate(subject, body string) Template {
	tpl, err := suite.repo.Save(context.Background(), "mkt", subject, body)
	require.NoError(suite.T(), err)

	return tpl
}

func (suite *httpHandlerTestSuite) TestPagesRefusedWithoutMail() {
	suite.router = suite.newRouter()

	rec := suite.do(http.MethodGet, "/templates", nil)

	assert.Equal(suite.T(), http.StatusInternalServerError, rec.Code)
	assert.Contains(suite.T(), rec.Body.String(), "Mail server not configured")
}

func (suite *httpHandlerTestSuite) TestEditorConfigWithoutMail() {
	suite.router = suite.newRouter()

	rec := suite.do(http.MethodGet, "/editor/config.json", nil)
	require.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.Equal(suite.T(), "application/json", rec.Header().Get("Content-Type"))

	var config map[string]interface{}
	require.NoError(suite.T(), json.Unmarshal(rec.Body.Bytes(), &config))
	assert.Contains(suite.T(), config, "toolbar")
}

func (suite *httpHandlerTestSuite) TestRequestIdHeader() {
	rec := suite.do(http.MethodGet, "/editor/config.json", nil)

	assert.NotEmpty(suite.T(), rec.Header().Get("X-Request-Id"))
}

func (suite *httpHandlerTestSuite) TestStaticAssets() {
	rec := suite.do(http.MethodGet, "/pub/main.js", nil)

	assert.Equal(suite.T(), http.StatusOK, rec.Code)
}

func (suite *httpHandlerTestSuite) TestSendFormRedirectsWithoutTemplates() {
	rec := suite.do(http.MethodGet, "/", nil)

	assert.Equal(suite.T(), "/templates", rec.Header().Get("Location"))
	assert.Contains(suite.T(), suite.follow(rec), "You must first create a template")
}

func (suite *httpHandlerTestSuite) TestTemplatesRedirectWithoutNamespaces() {
	suite.repo = newMemoryRepository()
	suite.router = suite.newRouter(SetEmailTransport(suite.transport))

	rec := suite.do(http.MethodGet, "/templates", nil)

	assert.Equal(suite.T(), "/database/create", rec.Header().Get("Location"))
	assert.Contains(suite.T(), suite.follow(rec), "You must first create a database")
}

func (suite *httpHandlerTestSuite) TestFlashIsShownOnce() {
	rec := suite.do(http.MethodGet, "/", nil)
	assert.Contains(suite.T(), suite.follow(rec), "You must first create a template")

	page := suite.do(http.MethodGet, "/templates", nil)
	assert.NotContains(suite.T(), page.Body.String(), "You must first create a template")
}

func (suite *httpHandlerTestSuite) TestSendForm() {
	tpl := suite.saveTemplate("Welcome", "Dear {{name}}")

	rec := suite.do(http.MethodGet, "/", nil)

	require.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.Contains(suite.T(), rec.Body.String(), `value="`+tpl.Ref().String()+`"`)
}

func (suite *httpHandlerTestSuite) TestSend() {
	tpl := suite.saveTemplate("Hello {{name}}", "Dear {{ name }}, welcome")

	rec := suite.do(http.MethodPost, "/send", url.Values{
		"to":              {"a@x.com"},
		"templateId":      {tpl.Ref().String()},
		"variables[name]": {"Ana"},
	})

	assert.Equal(suite.T(), "/", rec.Header().Get("Location"))
	assert.Contains(suite.T(), suite.follow(rec), "Email sent")

	require.Len(suite.T(), suite.transport.sent, 1)
	assert.Equal(suite.T(), sentEmail{To: "a@x.com", Subject: "Hello Ana", Html: "Dear Ana, welcome"}, suite.transport.sent[0])
}

func (suite *httpHandlerTestSuite) TestSendUnknownTemplate() {
	rec := suite.do(http.MethodPost, "/send", url.Values{
		"to":         {"a@x.com"},
		"templateId": {"mkt-42"},
	})

	assert.Equal(suite.T(), http.StatusNotFound, rec.Code)
	assert.Contains(suite.T(), rec.Body.String(), "Template not found")
}

func (suite *httpHandlerTestSuite) TestSendInvalidTemplateRef() {
	suite.saveTemplate("s", "b")

	rec := suite.do(http.MethodPost, "/send", url.Values{
		"to":         {"a@x.com"},
		"templateId": {"nodash"},
	})

	assert.Contains(suite.T(), suite.follow(rec), "Could not send email.")
	assert.Empty(suite.T(), suite.transport.sent)
}

func (suite *httpHandlerTestSuite) TestSendTransportFailure() {
	tpl := suite.saveTemplate("s", "b")
	suite.transport.failWith = errConnectionRefused

	rec := suite.do(http.MethodPost, "/send", url.Values{
		"to":         {"a@x.com"},
		"templateId": {tpl.Ref().String()},
	})

	body := suite.follow(rec)
	assert.Contains(suite.T(), body, "Could not send email.")
	assert.Contains(suite.T(), body, "connection refused")
}

func (suite *httpHandlerTestSuite) TestPreview() {
	tpl := suite.saveTemplate("Hello {{name}}", "Dear {{name}}, code {{ code }}")

	rec := suite.do(http.MethodPost, "/preview", url.Values{
		"templateId":      {tpl.Ref().String()},
		"variables[name]": {"Ana"},
	})

	require.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.JSONEq(suite.T(), `{"subject":"Hello Ana","body":"Dear Ana, code {{ code }}"}`, rec.Body.String())
}

func (suite *httpHandlerTestSuite) TestPreviewInvalidRef() {
	rec := suite.do(http.MethodPost, "/preview", url.Values{"templateId": {"mkt-x"}})

	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)
}

func (suite *httpHandlerTestSuite) TestTemplateVariables() {
	tpl := suite.saveTemplate("Hello {{name}}", "Dear {{name}}, code {{ code }}")

	rec := suite.do(http.MethodGet, "/templates/mkt/"+idString(tpl)+"/variables", nil)

	require.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.JSONEq(suite.T(), `{"variables":["name","code"]}`, rec.Body.String())

	missing := suite.do(http.MethodGet, "/templates/other/1/variables", nil)
	assert.Equal(suite.T(), http.StatusNotFound, missing.Code)
}

func (suite *httpHandlerTestSuite) TestCreateDatabase() {
	rec := suite.do(http.MethodPost, "/database/create", url.Values{"dbName": {"billing"}})

	assert.Equal(suite.T(), "/templates/create?dbName=billing", rec.Header().Get("Location"))
	assert.Contains(suite.T(), suite.follow(rec), "Database created successfully. Create a template")

	again := suite.do(http.MethodPost, "/database/create", url.Values{"dbName": {"billing"}})
	assert.Contains(suite.T(), suite.follow(again), "That database already exists")

	invalid := suite.do(http.MethodPost, "/database/create", url.Values{"dbName": {"../x"}})
	assert.Contains(suite.T(), suite.follow(invalid), "Invalid database name")
}

func (suite *httpHandlerTestSuite) TestCreateTemplateFormRequiresNamespace() {
	rec := suite.do(http.MethodGet, "/templates/create", nil)

	assert.Equal(suite.T(), "/templates", rec.Header().Get("Location"))
}

func (suite *httpHandlerTestSuite) TestCreateTemplate() {
	invalid := suite.do(http.MethodPost, "/templates/create", url.Values{
		"dbName":  {"mkt"},
		"subject": {"Hello"},
	})
	assert.Equal(suite.T(), "/templates/create?dbName=mkt", invalid.Header().Get("Location"))

	rec := suite.do(http.MethodPost, "/templates/create", url.Values{
		"dbName":  {"mkt"},
		"subject": {"Hello {{name}}"},
		"body":    {"<p>Dear {{name}}</p>"},
	})

	assert.Equal(suite.T(), "/templates", rec.Header().Get("Location"))
	assert.Contains(suite.T(), suite.follow(rec), "Template created")

	all, err := suite.repo.ListAll(context.Background())
	require.NoError(suite.T(), err)
	require.Len(suite.T(), all["mkt"], 1)
	assert.Equal(suite.T(), "Hello {{name}}", all["mkt"][0].Subject)
}

func (suite *httpHandlerTestSuite) TestEditTemplate() {
	tpl := suite.saveTemplate("s", "b")
	path := "/templates/edit/mkt/" + idString(tpl)

	form := suite.do(http.MethodGet, path, nil)
	require.Equal(suite.T(), http.StatusOK, form.Code)

	invalid := suite.do(http.MethodPost, path, url.Values{"subject": {"s2"}})
	assert.Equal(suite.T(), http.StatusBadRequest, invalid.Code)
	assert.Contains(suite.T(), invalid.Body.String(), "Invalid input")

	rec := suite.do(http.MethodPost, path, url.Values{"subject": {"s2"}, "body": {"b2"}})
	assert.Contains(suite.T(), suite.follow(rec), "Template updated")

	stored, err := suite.repo.Get(context.Background(), "mkt", tpl.Id)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "s2", stored.Subject)
	assert.Equal(suite.T(), "b2", stored.Body)
}

func (suite *httpHandlerTestSuite) TestEditUnknownTemplate() {
	rec := suite.do(http.MethodGet, "/templates/edit/mkt/99", nil)

	assert.Equal(suite.T(), "/templates", rec.Header().Get("Location"))
	assert.Contains(suite.T(), suite.follow(rec), "Template not found")
}

func (suite *httpHandlerTestSuite) TestDeleteTemplate() {
	tpl := suite.saveTemplate("s", "b")

	rec := suite.do(http.MethodPost, "/templates/delete/mkt/"+idString(tpl), nil)

	assert.Equal(suite.T(), "/templates", rec.Header().Get("Location"))
	assert.Contains(suite.T(), suite.follow(rec), "Template deleted")

	_, err := suite.repo.Get(context.Background(), "mkt", tpl.Id)
	assert.Equal(suite.T(), ErrTemplateNotFound, err)
}

func idString(tpl Template) string {
	return tpl.Ref().String()[len(tpl.Namespace)+1:]
}

func (suite *httpHandlerTestSuite) TestMetrics() {
	tpl := suite.saveTemplate("s", "b")

	suite.do(http.MethodPost, "/send", url.Values{
		"to":         {"a@x.com"},
		"templateId": {tpl.Ref().String()},
	})

	rec := suite.do(http.MethodGet, "/metrics", nil)

	require.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.Contains(suite.T(), rec.Body.String(), `mailform_mail_send_success_total{transport="recording"}`)
	assert.Contains(suite.T(), rec.Body.String(), `mailform_template_operations_total{operation="get",outcome="ok"}`)
}
