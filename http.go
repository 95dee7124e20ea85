package mailform

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/interactive-solutions/go-mailform/editor"
	"github.com/interactive-solutions/go-mailform/internal"
	"github.com/interactive-solutions/go-mailform/internal/metrics"
)

type HttpHandler struct {
	app      *application
	sessions sessions.Store
	logger   logrus.FieldLogger
}

// Router wires every route of the web tool.
func (h *HttpHandler) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(h.logRequests)

	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	router.PathPrefix("/pub/").Handler(http.StripPrefix("/pub/", http.FileServer(staticFS())))
	router.HandleFunc("/editor/config.json", h.EditorConfig).Methods(http.MethodGet)

	pages := router.NewRoute().Subrouter()
	pages.Use(h.requireMail, h.withFlash)

	pages.HandleFunc("/", h.SendForm).Methods(http.MethodGet)
	pages.HandleFunc("/send", h.Send).Methods(http.MethodPost)
	pages.HandleFunc("/preview", h.Preview).Methods(http.MethodPost)

	pages.HandleFunc("/database/create", h.CreateDatabaseForm).Methods(http.MethodGet)
	pages.HandleFunc("/database/create", h.CreateDatabase).Methods(http.MethodPost)

	pages.HandleFunc("/templates", h.ListTemplates).Methods(http.MethodGet)
	pages.HandleFunc("/templates/create", h.CreateTemplateForm).Methods(http.MethodGet)
	pages.HandleFunc("/templates/create", h.CreateTemplate).Methods(http.MethodPost)
	pages.HandleFunc("/templates/edit/{dbName}/{id:[0-9]+}", h.EditTemplateForm).Methods(http.MethodGet)
	pages.HandleFunc("/templates/edit/{dbName}/{id:[0-9]+}", h.UpdateTemplate).Methods(http.MethodPost)
	pages.HandleFunc("/templates/delete/{dbName}/{id:[0-9]+}", h.DeleteTemplate).Methods(http.MethodPost)
	pages.HandleFunc("/templates/{dbName}/{id:[0-9]+}/variables", h.TemplateVariables).Methods(http.MethodGet)

	return router
}

func (h *HttpHandler) SendForm(w http.ResponseWriter, r *http.Request) {
	templates, err := h.app.AllTemplates(r.Context())
	if err != nil {
		http.Error(w, "Failed to load app", 500)
		return
	}

	if countTemplates(templates) == 0 {
		h.redirectWithFlash(w, r, "/templates", "You must first create a template")
		return
	}

	h.render(w, r, "send_email.html", pageData{Namespaces: namespaceViews(templates)})
}

func (h *HttpHandler) Send(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", 400)
		return
	}

	body := internal.ParseSendRequest(r.PostForm)

	ref, err := ParseTemplateRef(body.TemplateId)
	if err != nil {
		h.redirectWithFlash(w, r, "/", "Could not send email. "+err.Error())
		return
	}

	if err := h.app.SendEmail(r.Context(), ref, body.To, body.Variables); err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			http.Error(w, "Template not found", 404)
			return
		}

		h.redirectWithFlash(w, r, "/", "Could not send email. "+err.Error())
		return
	}

	h.redirectWithFlash(w, r, "/", "Email sent")
}

func (h *HttpHandler) Preview(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", 400)
		return
	}

	body := internal.ParsePreviewRequest(r.PostForm)

	ref, err := ParseTemplateRef(body.TemplateId)
	if err != nil {
		http.Error(w, err.Error(), 400)
		return
	}

	template, ok := h.lookupTemplate(w, r, ref.Namespace, ref.Id)
	if !ok {
		return
	}

	subject, html := Preview(template.Subject, template.Body, body.Variables)

	h.writeJSON(w, struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}{subject, html})
}

func (h *HttpHandler) TemplateVariables(w http.ResponseWriter, r *http.Request) {
	namespace, id, ok := routeTemplate(w, r)
	if !ok {
		return
	}

	template, ok := h.lookupTemplate(w, r, namespace, id)
	if !ok {
		return
	}

	h.writeJSON(w, struct {
		Variables []string `json:"variables"`
	}{template.Variables()})
}

func (h *HttpHandler) CreateDatabaseForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "database_create.html", pageData{})
}

func (h *HttpHandler) CreateDatabase(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", 400)
		return
	}

	body := internal.ParseCreateDatabaseRequest(r.PostForm)

	if err := h.app.CreateNamespace(r.Context(), body.DbName); err != nil {
		switch {
		case errors.Is(err, ErrNamespaceAlreadyExists):
			h.redirectWithFlash(w, r, "/database/create", "That database already exists")

		case errors.Is(err, ErrInvalidNamespace):
			h.redirectWithFlash(w, r, "/database/create", "Invalid database name")

		default:
			h.logger.WithError(err).Error("failed to create database")
			h.redirectWithFlash(w, r, "/database/create", "Failed to create database")
		}

		return
	}

	h.redirectWithFlash(w, r, "/templates/create?dbName="+url.QueryEscape(body.DbName), "Database created successfully. Create a template")
}

func (h *HttpHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	namespaces, err := h.app.Namespaces(r.Context())
	if err != nil {
		h.redirectWithFlash(w, r, "/", "Failed to load templates")
		return
	}

	if len(namespaces) == 0 {
		h.redirectWithFlash(w, r, "/database/create", "You must first create a database")
		return
	}

	templates, err := h.app.AllTemplates(r.Context())
	if err != nil {
		h.redirectWithFlash(w, r, "/", "Failed to load templates")
		return
	}

	h.render(w, r, "template_list.html", pageData{Namespaces: namespaceViews(templates)})
}

func (h *HttpHandler) CreateTemplateForm(w http.ResponseWriter, r *http.Request) {
	dbName := r.URL.Query().Get("dbName")
	if dbName == "" {
		h.redirectWithFlash(w, r, "/templates", "You must choose a database to create template in")
		return
	}

	h.render(w, r, "template_create.html", pageData{DbName: dbName})
}

func (h *HttpHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", 400)
		return
	}

	body := internal.ParseTemplateRequest(r.PostForm)
	if body.DbName == "" || !body.Valid() {
		target := "/templates/create"
		if body.DbName != "" {
			target += "?dbName=" + url.QueryEscape(body.DbName)
		}

		h.redirectWithFlash(w, r, target, "Invalid input")
		return
	}

	if _, err := h.app.CreateTemplate(r.Context(), body.DbName, body.Subject, body.Body); err != nil {
		h.redirectWithFlash(w, r, "/templates/create?dbName="+url.QueryEscape(body.DbName), "Failed to create template")
		return
	}

	h.redirectWithFlash(w, r, "/templates", "Template created")
}

func (h *HttpHandler) EditTemplateForm(w http.ResponseWriter, r *http.Request) {
	namespace, id, ok := routeTemplate(w, r)
	if !ok {
		return
	}

	template, err := h.app.GetTemplate(r.Context(), namespace, id)
	if err != nil {
		h.redirectWithFlash(w, r, "/templates", "Template not found")
		return
	}

	h.render(w, r, "template_edit.html", pageData{DbName: namespace, Template: template})
}

func (h *HttpHandler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	namespace, id, ok := routeTemplate(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", 400)
		return
	}

	body := internal.ParseTemplateRequest(r.PostForm)
	if !body.Valid() {
		http.Error(w, "Invalid input", 400)
		return
	}

	if err := h.app.UpdateTemplate(r.Context(), namespace, id, body.Subject, body.Body); err != nil {
		h.redirectWithFlash(w, r, editURL(namespace, id), "Failed to update template")
		return
	}

	h.redirectWithFlash(w, r, "/templates", "Template updated")
}

func (h *HttpHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	namespace, id, ok := routeTemplate(w, r)
	if !ok {
		return
	}

	if err := h.app.DeleteTemplate(r.Context(), namespace, id); err != nil {
		h.redirectWithFlash(w, r, editURL(namespace, id), "Failed to delete template")
		return
	}

	h.redirectWithFlash(w, r, "/templates", "Template deleted")
}

func (h *HttpHandler) EditorConfig(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, editor.DefaultConfig())
}

func (h *HttpHandler) lookupTemplate(w http.ResponseWriter, r *http.Request, namespace string, id int64) (Template, bool) {
	template, err := h.app.GetTemplate(r.Context(), namespace, id)
	if err != nil {
		if errors.Is(err, ErrTemplateNotFound) || errors.Is(err, ErrNamespaceNotFound) {
			http.Error(w, "Template not found", 404)
			return template, false
		}

		http.Error(w, "Failed to retrieve template", 500)
		return template, false
	}

	return template, true
}

func (h *HttpHandler) render(w http.ResponseWriter, r *http.Request, page string, data pageData) {
	data.Flash = FlashMessage(r.Context())

	if err := renderPage(w, page, data); err != nil {
		h.logger.WithError(err).Error("failed to render page")
		http.Error(w, "Failed to render page", 500)
	}
}

func (h *HttpHandler) writeJSON(w http.ResponseWriter, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Failed to convert to json", 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// requireMail refuses to serve pages while no mail transport is configured.
func (h *HttpHandler) requireMail(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.app.MailConfigured() {
			http.Error(w, "Mail server not configured. Copy .env-example to .env and update the values.", 500)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *HttpHandler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestId := uuid.NewString()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		w.Header().Set("X-Request-Id", requestId)
		next.ServeHTTP(recorder, r)

		h.logger.
			WithField("request_id", requestId).
			WithField("method", r.Method).
			WithField("path", r.URL.Path).
			WithField("status", recorder.status).
			WithField("duration", time.Since(start)).
			Info("request handled")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routeTemplate(w http.ResponseWriter, r *http.Request) (string, int64, bool) {
	vars := mux.Vars(r)

	namespace, ok := vars["dbName"]
	if !ok {
		http.Error(w, "Route dbName var", 400)
		return "", 0, false
	}

	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid template id", 400)
		return "", 0, false
	}

	return namespace, id, true
}

func countTemplates(templates map[string][]Template) int {
	count := 0
	for _, list := range templates {
		count += len(list)
	}

	return count
}

func editURL(namespace string, id int64) string {
	return "/templates/edit/" + url.PathEscape(namespace) + "/" + strconv.FormatInt(id, 10)
}
