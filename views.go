package mailform

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"sort"

	"github.com/pkg/errors"
)

//go:embed views/*.html
var viewFiles embed.FS

//go:embed static
var staticFiles embed.FS

var pages = mustParsePages(
	"send_email.html",
	"database_create.html",
	"template_list.html",
	"template_create.html",
	"template_edit.html",
)

func mustParsePages(names ...string) map[string]*template.Template {
	parsed := make(map[string]*template.Template, len(names))

	for _, name := range names {
		parsed[name] = template.Must(template.New(name).ParseFS(viewFiles, "views/layout.html", "views/"+name))
	}

	return parsed
}

func staticFS() http.FileSystem {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}

	return http.FS(sub)
}

type pageData struct {
	Flash string

	DbName     string
	Template   Template
	Namespaces []namespaceView
}

type namespaceView struct {
	Name      string
	Templates []Template
}

// namespaceViews orders namespaces by name so pages render deterministically.
func namespaceViews(templates map[string][]Template) []namespaceView {
	views := make([]namespaceView, 0, len(templates))

	for name, list := range templates {
		views = append(views, namespaceView{Name: name, Templates: list})
	}

	sort.Slice(views, func(i, j int) bool {
		return views[i].Name < views[j].Name
	})

	return views
}

func renderPage(w http.ResponseWriter, name string, data pageData) error {
	page, ok := pages[name]
	if !ok {
		return errors.Errorf("Unknown page %s", name)
	}

	out := &bytes.Buffer{}
	if err := page.ExecuteTemplate(out, "layout", data); err != nil {
		return errors.Wrapf(err, "failed to render page %s", name)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := out.WriteTo(w)

	return err
}
