package internal

import (
	"net/url"
	"strings"
)

const variablePrefix = "variables["

type CreateDatabaseRequest struct {
	DbName string
}

type TemplateRequest struct {
	DbName  string
	Subject string
	Body    string
}

// Valid reports whether subject and body are present. DbName is checked by
// the caller since the edit route carries it in the path.
func (r TemplateRequest) Valid() bool {
	return strings.TrimSpace(r.Subject) != "" && strings.TrimSpace(r.Body) != ""
}

type SendRequest struct {
	To         string
	TemplateId string
	Variables  map[string]string
}

type PreviewRequest struct {
	TemplateId string
	Variables  map[string]string
}

func ParseCreateDatabaseRequest(form url.Values) CreateDatabaseRequest {
	return CreateDatabaseRequest{
		DbName: strings.TrimSpace(form.Get("dbName")),
	}
}

func ParseTemplateRequest(form url.Values) TemplateRequest {
	return TemplateRequest{
		DbName:  strings.TrimSpace(form.Get("dbName")),
		Subject: form.Get("subject"),
		Body:    form.Get("body"),
	}
}

func ParseSendRequest(form url.Values) SendRequest {
	return SendRequest{
		To:         strings.TrimSpace(form.Get("to")),
		TemplateId: form.Get("templateId"),
		Variables:  ParseVariables(form),
	}
}

func ParsePreviewRequest(form url.Values) PreviewRequest {
	return PreviewRequest{
		TemplateId: form.Get("templateId"),
		Variables:  ParseVariables(form),
	}
}

// ParseVariables collects the fields named "variables[<name>]" into a map
// keyed by name.
func ParseVariables(form url.Values) map[string]string {
	variables := make(map[string]string)

	for key, values := range form {
		if !strings.HasPrefix(key, variablePrefix) || !strings.HasSuffix(key, "]") {
			continue
		}

		name := key[len(variablePrefix) : len(key)-1]
		if len(values) > 0 {
			variables[name] = values[0]
		}
	}

	return variables
}
