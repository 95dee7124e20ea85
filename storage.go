package mailform

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrNamespaceAlreadyExists = errors.New("The namespace already exists")
	ErrNamespaceNotFound      = errors.New("The namespace was not found")
	ErrInvalidNamespace       = errors.New("The namespace name is invalid")
	ErrTemplateNotFound       = errors.New("The template was not found")
	ErrStorageIOFailure       = errors.New("The template storage failed")
)

// TemplateRepository stores templates grouped in namespaces. A namespace must
// be created before templates can be saved into it.
//
// Update and Delete only require the namespace to exist; they succeed even
// when no template has the given id.
type TemplateRepository interface {
	ListNamespaces(ctx context.Context) ([]string, error)
	CreateNamespace(ctx context.Context, namespace string) error

	Save(ctx context.Context, namespace, subject, body string) (Template, error)
	Get(ctx context.Context, namespace string, id int64) (Template, error)
	Update(ctx context.Context, namespace string, id int64, subject, body string) error
	Delete(ctx context.Context, namespace string, id int64) error

	// ListAll returns the templates of every namespace keyed by namespace.
	ListAll(ctx context.Context) (map[string][]Template, error)
}

// ValidateNamespace rejects names that cannot be used as a storage file name.
func ValidateNamespace(namespace string) error {
	if strings.TrimSpace(namespace) == "" || strings.HasPrefix(namespace, ".") {
		return ErrInvalidNamespace
	}

	if strings.ContainsAny(namespace, `/\?#%`+"\x00") {
		return ErrInvalidNamespace
	}

	return nil
}
