// Package sqlite stores every namespace in its own SQLite file inside a
// single directory. The file "<namespace>.db" holds one "templates" table.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/interactive-solutions/go-mailform"
)

const extension = ".db"

const createTable = `CREATE TABLE IF NOT EXISTS templates (
    id INTEGER PRIMARY KEY,
    subject TEXT,
    body TEXT
)`

type templateRepository struct {
	dir string
}

// NewTemplateRepository uses dir as the database location, creating it when
// missing.
func NewTemplateRepository(dir string) (mailform.TemplateRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, mailform.WrapStorageError(err, "failed to create database location")
	}

	return &templateRepository{
		dir: dir,
	}, nil
}

func (repo *templateRepository) path(namespace string) string {
	return filepath.Join(repo.dir, namespace+extension)
}

// open connects to an existing namespace file.
func (repo *templateRepository) open(namespace string) (*sql.DB, error) {
	if err := mailform.ValidateNamespace(namespace); err != nil {
		return nil, mailform.ErrNamespaceNotFound
	}

	path := repo.path(namespace)

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, mailform.ErrNamespaceNotFound
		}

		return nil, mailform.WrapStorageError(err, "failed to stat database")
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=rw", path))
	if err != nil {
		return nil, mailform.WrapStorageError(err, "failed to open sqlite3 database")
	}

	return db, nil
}

func (repo *templateRepository) ListNamespaces(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(repo.dir)
	if err != nil {
		return nil, mailform.WrapStorageError(err, "failed to read database location")
	}

	namespaces := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != extension {
			continue
		}

		namespaces = append(namespaces, strings.TrimSuffix(entry.Name(), extension))
	}

	return namespaces, nil
}

func (repo *templateRepository) CreateNamespace(ctx context.Context, namespace string) error {
	if err := mailform.ValidateNamespace(namespace); err != nil {
		return err
	}

	path := repo.path(namespace)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return mailform.ErrNamespaceAlreadyExists
		}

		return mailform.WrapStorageError(err, "failed to create new file for db")
	}

	file.Close()

	db, err := repo.open(namespace)
	if err != nil {
		os.Remove(path)
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, createTable); err != nil {
		os.Remove(path)
		return mailform.WrapStorageError(err, "failed to create table")
	}

	return nil
}

func (repo *templateRepository) Save(ctx context.Context, namespace, subject, body string) (mailform.Template, error) {
	tpl := mailform.Template{
		Namespace: namespace,
		Subject:   subject,
		Body:      body,
	}

	db, err := repo.open(namespace)
	if err != nil {
		return tpl, err
	}
	defer db.Close()

	result, err := db.ExecContext(ctx, `INSERT INTO templates (id, subject, body) VALUES (NULL, ?, ?)`, subject, body)
	if err != nil {
		return tpl, mailform.WrapStorageError(err, "failed to insert template")
	}

	if tpl.Id, err = result.LastInsertId(); err != nil {
		return tpl, mailform.WrapStorageError(err, "failed to read template id")
	}

	return tpl, nil
}

func (repo *templateRepository) Get(ctx context.Context, namespace string, id int64) (mailform.Template, error) {
	tpl := mailform.Template{Namespace: namespace}

	db, err := repo.open(namespace)
	if err != nil {
		return tpl, err
	}
	defer db.Close()

	row := db.QueryRowContext(ctx, `SELECT id, subject, body FROM templates WHERE id = ?`, id)
	if err := scanTemplate(row, &tpl); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return tpl, mailform.ErrTemplateNotFound
		}

		return tpl, mailform.WrapStorageError(err, "failed to select template")
	}

	return tpl, nil
}

func (repo *templateRepository) Update(ctx context.Context, namespace string, id int64, subject, body string) error {
	return repo.exec(ctx, namespace, "failed to update template",
		`UPDATE templates SET subject = ?, body = ? WHERE id = ?`, subject, body, id)
}

func (repo *templateRepository) Delete(ctx context.Context, namespace string, id int64) error {
	return repo.exec(ctx, namespace, "failed to delete template",
		`DELETE FROM templates WHERE id = ?`, id)
}

func (repo *templateRepository) ListAll(ctx context.Context) (map[string][]mailform.Template, error) {
	namespaces, err := repo.ListNamespaces(ctx)
	if err != nil {
		return nil, err
	}

	all := make(map[string][]mailform.Template, len(namespaces))

	for _, namespace := range namespaces {
		templates, err := repo.list(ctx, namespace)
		if err != nil {
			// Unreadable files are left out, like files that are not databases.
			continue
		}

		all[namespace] = templates
	}

	return all, nil
}

func (repo *templateRepository) list(ctx context.Context, namespace string) ([]mailform.Template, error) {
	db, err := repo.open(namespace)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT id, subject, body FROM templates ORDER BY id`)
	if err != nil {
		return nil, mailform.WrapStorageError(err, "failed to select templates")
	}
	defer rows.Close()

	templates := make([]mailform.Template, 0)

	for rows.Next() {
		tpl := mailform.Template{Namespace: namespace}
		if err := scanTemplate(rows, &tpl); err != nil {
			return nil, mailform.WrapStorageError(err, "failed to scan template")
		}

		templates = append(templates, tpl)
	}

	if err := rows.Err(); err != nil {
		return nil, mailform.WrapStorageError(err, "failed to iterate templates")
	}

	return templates, nil
}

func (repo *templateRepository) exec(ctx context.Context, namespace, message, query string, args ...interface{}) error {
	db, err := repo.open(namespace)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return mailform.WrapStorageError(err, message)
	}

	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanTemplate tolerates NULL subject and body columns.
func scanTemplate(row scanner, tpl *mailform.Template) error {
	var subject, body sql.NullString

	if err := row.Scan(&tpl.Id, &subject, &body); err != nil {
		return err
	}

	tpl.Subject = subject.String
	tpl.Body = body.String

	return nil
}
