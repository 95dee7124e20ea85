package mailform

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

type memoryRepository struct {
	mu         sync.Mutex
	namespaces map[string][]Template
	nextId     int64
	failWith   error
}

func newMemoryRepository(namespaces ...string) *memoryRepository {
	repo := &memoryRepository{namespaces: make(map[string][]Template)}
	for _, namespace := range namespaces {
		repo.namespaces[namespace] = nil
	}

	return repo
}

func (repo *memoryRepository) ListNamespaces(ctx context.Context) ([]string, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if repo.failWith != nil {
		return nil, repo.failWith
	}

	names := make([]string, 0, len(repo.namespaces))
	for name := range repo.namespaces {
		names = append(names, name)
	}
	sort.Strings(names)

	return names, nil
}

func (repo *memoryRepository) CreateNamespace(ctx context.Context, namespace string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if err := ValidateNamespace(namespace); err != nil {
		return err
	}

	if _, ok := repo.namespaces[namespace]; ok {
		return ErrNamespaceAlreadyExists
	}

	repo.namespaces[namespace] = nil
	return nil
}

func (repo *memoryRepository) Save(ctx context.Context, namespace, subject, body string) (Template, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if repo.failWith != nil {
		return Template{}, repo.failWith
	}

	if _, ok := repo.namespaces[namespace]; !ok {
		return Template{}, ErrNamespaceNotFound
	}

	repo.nextId++
	tpl := Template{Id: repo.nextId, Namespace: namespace, Subject: subject, Body: body}
	repo.namespaces[namespace] = append(repo.namespaces[namespace], tpl)

	return tpl, nil
}

func (repo *memoryRepository) Get(ctx context.Context, namespace string, id int64) (Template, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if repo.failWith != nil {
		return Template{}, repo.failWith
	}

	list, ok := repo.namespaces[namespace]
	if !ok {
		return Template{}, ErrNamespaceNotFound
	}

	for _, tpl := range list {
		if tpl.Id == id {
			return tpl, nil
		}
	}

	return Template{}, ErrTemplateNotFound
}

func (repo *memoryRepository) Update(ctx context.Context, namespace string, id int64, subject, body string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	list, ok := repo.namespaces[namespace]
	if !ok {
		return ErrNamespaceNotFound
	}

	for i := range list {
		if list[i].Id == id {
			list[i].Subject = subject
			list[i].Body = body
		}
	}

	return nil
}

func (repo *memoryRepository) Delete(ctx context.Context, namespace string, id int64) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	list, ok := repo.namespaces[namespace]
	if !ok {
		return ErrNamespaceNotFound
	}

	kept := make([]Template, 0, len(list))
	for _, tpl := range list {
		if tpl.Id != id {
			kept = append(kept, tpl)
		}
	}
	repo.namespaces[namespace] = kept

	return nil
}

func (repo *memoryRepository) ListAll(ctx context.Context) (map[string][]Template, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if repo.failWith != nil {
		return nil, repo.failWith
	}

	all := make(map[string][]Template, len(repo.namespaces))
	for name, list := range repo.namespaces {
		all[name] = append(make([]Template, 0, len(list)), list...)
	}

	return all, nil
}

type sentEmail struct {
	To      string
	Subject string
	Html    string
}

type recordingTransport struct {
	sent     []sentEmail
	failWith error
}

func (t *recordingTransport) Name() string {
	return "recording"
}

func (t *recordingTransport) Send(ctx context.Context, to, subject, htmlBody string) error {
	if t.failWith != nil {
		return t.failWith
	}

	t.sent = append(t.sent, sentEmail{To: to, Subject: subject, Html: htmlBody})
	return nil
}

var errConnectionRefused = errors.New("connection refused")
