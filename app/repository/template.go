package repository

import (
	"context"
	"database/sql"

	"github.com/tokenfolio/ms-go-portfolios/app/entity"
)

type TemplateRepository struct {
	db DBTX
}

func NewTemplateRepository(db DBTX) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) FindByName(ctx context.Context, name string) (*entity.Template, error) {
	query := `
		SELECT id, name, display_name, description, html_template, css_template, is_active, created_at
		FROM templates
		WHERE name = ? AND is_active = 1
		LIMIT 1
	`

	template := &entity.Template{}
	err := r.db.QueryRowContext(ctx, query, name).Scan(
		&template.ID,
		&template.Name,
		&template.DisplayName,
		&template.Description,
		&template.HTMLTemplate,
		&template.CSSTemplate,
		&template.IsActive,
		&template.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return template, nil
}
