package mailform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var ErrInvalidTemplateRef = errors.New("Invalid template reference, namespace-id expected")

type Template struct {
	Id        int64  `json:"id"`
	Namespace string `json:"namespace"`

	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Ref returns the reference used by the send form to select this template.
func (t Template) Ref() TemplateRef {
	return TemplateRef{Namespace: t.Namespace, Id: t.Id}
}

// Variables returns the distinct placeholder names of the template body.
func (t Template) Variables() []string {
	return ExtractVariables(t.Body)
}

// TemplateRef identifies a template across namespaces as "<namespace>-<id>".
type TemplateRef struct {
	Namespace string
	Id        int64
}

func (r TemplateRef) String() string {
	return fmt.Sprintf("%s-%d", r.Namespace, r.Id)
}

// ParseTemplateRef splits on the last dash so namespaces may contain dashes.
func ParseTemplateRef(value string) (TemplateRef, error) {
	idx := strings.LastIndex(value, "-")
	if idx <= 0 || idx == len(value)-1 {
		return TemplateRef{}, ErrInvalidTemplateRef
	}

	id, err := strconv.ParseInt(value[idx+1:], 10, 64)
	if err != nil {
		return TemplateRef{}, errors.Wrap(ErrInvalidTemplateRef, err.Error())
	}

	return TemplateRef{Namespace: value[:idx], Id: id}, nil
}
