// Package gopg keeps every namespace in one Postgres database: a namespace
// table plus a template table keyed by (namespace, id).
package gopg

import (
	"context"

	"github.com/go-pg/pg"
	"github.com/go-pg/pg/orm"

	"github.com/interactive-solutions/go-mailform"
)

type namespaceRow struct {
	TableName struct{} `sql:"mailform_namespaces,alias:mn" json:"-"`

	Name string `sql:",pk"`
}

type templateRow struct {
	TableName struct{} `sql:"mailform_templates,alias:mt" json:"-"`

	Id        int64  `sql:",pk"`
	Namespace string `sql:",notnull"`
	Subject   string `sql:",notnull"`
	Body      string `sql:",notnull"`
}

func (row templateRow) template() mailform.Template {
	return mailform.Template{
		Id:        row.Id,
		Namespace: row.Namespace,
		Subject:   row.Subject,
		Body:      row.Body,
	}
}

// CreateSchema creates the tables used by the repository when missing.
func CreateSchema(db *pg.DB) error {
	for _, model := range []interface{}{(*namespaceRow)(nil), (*templateRow)(nil)} {
		if err := db.CreateTable(model, &orm.CreateTableOptions{IfNotExists: true}); err != nil {
			return mailform.WrapStorageError(err, "failed to create table")
		}
	}

	return nil
}

func NewTemplateRepository(db *pg.DB) mailform.TemplateRepository {
	return &templateRepository{
		db: db,
	}
}

type templateRepository struct {
	db *pg.DB
}

func (repo *templateRepository) ensureNamespace(db *pg.DB, namespace string) error {
	exists, err := db.Model((*namespaceRow)(nil)).Where("name = ?", namespace).Exists()
	if err != nil {
		return mailform.WrapStorageError(err, "failed to look up namespace")
	}

	if !exists {
		return mailform.ErrNamespaceNotFound
	}

	return nil
}

func (repo *templateRepository) ListNamespaces(ctx context.Context) ([]string, error) {
	var rows []namespaceRow

	if err := repo.db.WithContext(ctx).Model(&rows).Order("name ASC").Select(); err != nil && err != pg.ErrNoRows {
		return nil, mailform.WrapStorageError(err, "failed to select namespaces")
	}

	namespaces := make([]string, 0, len(rows))
	for _, row := range rows {
		namespaces = append(namespaces, row.Name)
	}

	return namespaces, nil
}

func (repo *templateRepository) CreateNamespace(ctx context.Context, namespace string) error {
	if err := mailform.ValidateNamespace(namespace); err != nil {
		return err
	}

	if err := repo.db.WithContext(ctx).Insert(&namespaceRow{Name: namespace}); err != nil {
		if pgErr, ok := err.(pg.Error); ok && pgErr.IntegrityViolation() {
			return mailform.ErrNamespaceAlreadyExists
		}

		return mailform.WrapStorageError(err, "failed to insert namespace")
	}

	return nil
}

func (repo *templateRepository) Save(ctx context.Context, namespace, subject, body string) (mailform.Template, error) {
	db := repo.db.WithContext(ctx)
	row := &templateRow{Namespace: namespace, Subject: subject, Body: body}

	if err := repo.ensureNamespace(db, namespace); err != nil {
		return row.template(), err
	}

	if err := db.Insert(row); err != nil {
		return row.template(), mailform.WrapStorageError(err, "failed to insert template")
	}

	return row.template(), nil
}

func (repo *templateRepository) Get(ctx context.Context, namespace string, id int64) (mailform.Template, error) {
	db := repo.db.WithContext(ctx)
	row := &templateRow{}

	if err := repo.ensureNamespace(db, namespace); err != nil {
		return row.template(), err
	}

	if err := db.Model(row).Where("namespace = ? AND id = ?", namespace, id).Select(); err != nil {
		if err == pg.ErrNoRows {
			return row.template(), mailform.ErrTemplateNotFound
		}

		return row.template(), mailform.WrapStorageError(err, "failed to select template")
	}

	return row.template(), nil
}

func (repo *templateRepository) Update(ctx context.Context, namespace string, id int64, subject, body string) error {
	db := repo.db.WithContext(ctx)

	if err := repo.ensureNamespace(db, namespace); err != nil {
		return err
	}

	_, err := db.Model((*templateRow)(nil)).
		Set("subject = ?", subject).
		Set("body = ?", body).
		Where("namespace = ? AND id = ?", namespace, id).
		Update()

	return mailform.WrapStorageError(err, "failed to update template")
}

func (repo *templateRepository) Delete(ctx context.Context, namespace string, id int64) error {
	db := repo.db.WithContext(ctx)

	if err := repo.ensureNamespace(db, namespace); err != nil {
		return err
	}

	_, err := db.Model((*templateRow)(nil)).
		Where("namespace = ? AND id = ?", namespace, id).
		Delete()

	return mailform.WrapStorageError(err, "failed to delete template")
}

func (repo *templateRepository) ListAll(ctx context.Context) (map[string][]mailform.Template, error) {
	namespaces, err := repo.ListNamespaces(ctx)
	if err != nil {
		return nil, err
	}

	all := make(map[string][]mailform.Template, len(namespaces))
	for _, namespace := range namespaces {
		all[namespace] = make([]mailform.Template, 0)
	}

	var rows []templateRow
	if err := repo.db.WithContext(ctx).Model(&rows).Order("id ASC").Select(); err != nil && err != pg.ErrNoRows {
		return nil, mailform.WrapStorageError(err, "failed to select templates")
	}

	for _, row := range rows {
		all[row.Namespace] = append(all[row.Namespace], row.template())
	}

	return all, nil
}
