package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tokenfolio/ms-go-portfolios/app/entity"
)

var (
	ErrPortfolioNotFound = errors.New("portfolio not found")
	ErrUsernameTaken     = errors.New("username already taken")
)

type PortfolioRepository struct {
	db DBTX
}

func NewPortfolioRepository(db DBTX) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

func (r *PortfolioRepository) Create(ctx context.Context, portfolio *entity.Portfolio) error {
	query := `
		INSERT INTO portfolios (
			username, token_name, ticker, contract_address, slogan, description, template,
			logo_url, banner_url, twitter_url, telegram_url, website_url,
			is_published, published_at, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		portfolio.Username,
		portfolio.TokenName,
		portfolio.Ticker,
		portfolio.ContractAddress,
		portfolio.Slogan,
		portfolio.Description,
		portfolio.Template,
		portfolio.LogoURL,
		portfolio.BannerURL,
		portfolio.TwitterURL,
		portfolio.TelegramURL,
		portfolio.WebsiteURL,
		portfolio.IsPublished,
		nullableTimeValue(portfolio.PublishedAt),
		portfolio.CreatedAt,
		portfolio.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrUsernameTaken
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	portfolio.ID = uint64(id)
	return nil
}

// Update writes content fields only. Publish state is owned by Publish and
// Unpublish so the publication invariant cannot be bypassed here.
func (r *PortfolioRepository) Update(ctx context.Context, portfolio *entity.Portfolio) error {
	query := `
		UPDATE portfolios SET
			token_name = ?,
			ticker = ?,
			contract_address = ?,
			slogan = ?,
			description = ?,
			template = ?,
			logo_url = ?,
			banner_url = ?,
			twitter_url = ?,
			telegram_url = ?,
			website_url = ?,
			updated_at = ?
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query,
		portfolio.TokenName,
		portfolio.Ticker,
		portfolio.ContractAddress,
		portfolio.Slogan,
		portfolio.Description,
		portfolio.Template,
		portfolio.LogoURL,
		portfolio.BannerURL,
		portfolio.TwitterURL,
		portfolio.TelegramURL,
		portfolio.WebsiteURL,
		portfolio.UpdatedAt,
		portfolio.ID,
	)
	return err
}

func (r *PortfolioRepository) Delete(ctx context.Context, id uint64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM portfolios WHERE id = ?`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPortfolioNotFound
	}
	return nil
}

// Publish flips an unpublished portfolio to published and stamps
// published_at, as a single conditional write. It reports whether this call
// performed the transition; a false result means the row was missing or the
// portfolio was already published.
func (r *PortfolioRepository) Publish(ctx context.Context, id uint64, now time.Time) (bool, error) {
	query := `
		UPDATE portfolios SET
			is_published = 1,
			published_at = ?,
			updated_at = ?
		WHERE id = ? AND is_published = 0
	`

	result, err := r.db.ExecContext(ctx, query, now, now, id)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *PortfolioRepository) Unpublish(ctx context.Context, id uint64, now time.Time) (bool, error) {
	query := `
		UPDATE portfolios SET
			is_published = 0,
			published_at = NULL,
			updated_at = ?
		WHERE id = ? AND is_published = 1
	`

	result, err := r.db.ExecContext(ctx, query, now, id)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *PortfolioRepository) FindByID(ctx context.Context, id uint64) (*entity.Portfolio, error) {
	query := selectPortfolio + ` WHERE id = ?`

	portfolio := &entity.Portfolio{}
	if err := scanPortfolio(r.db.QueryRowContext(ctx, query, id), portfolio); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return portfolio, nil
}

func (r *PortfolioRepository) FindByUsername(ctx context.Context, username string) (*entity.Portfolio, error) {
	query := selectPortfolio + ` WHERE username = ? LIMIT 1`

	portfolio := &entity.Portfolio{}
	if err := scanPortfolio(r.db.QueryRowContext(ctx, query, username), portfolio); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return portfolio, nil
}

func (r *PortfolioRepository) FindPublishedByUsername(ctx context.Context, username string) (*entity.Portfolio, error) {
	query := selectPortfolio + ` WHERE username = ? AND is_published = 1 LIMIT 1`

	portfolio := &entity.Portfolio{}
	if err := scanPortfolio(r.db.QueryRowContext(ctx, query, username), portfolio); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return portfolio, nil
}

func (r *PortfolioRepository) List(ctx context.Context, limit, offset int32) ([]*entity.Portfolio, error) {
	query := selectPortfolio + ` ORDER BY id DESC LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	portfolios := make([]*entity.Portfolio, 0)
	for rows.Next() {
		item := &entity.Portfolio{}
		if err := scanPortfolio(rows, item); err != nil {
			return nil, err
		}
		portfolios = append(portfolios, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return portfolios, nil
}

const selectPortfolio = `
	SELECT id, username, token_name, ticker, contract_address, slogan, description, template,
		logo_url, banner_url, twitter_url, telegram_url, website_url,
		is_published, published_at, created_at, updated_at
	FROM portfolios
`

func scanPortfolio(scan rowScanner, portfolio *entity.Portfolio) error {
	var publishedAt sql.NullTime

	err := scan.Scan(
		&portfolio.ID,
		&portfolio.Username,
		&portfolio.TokenName,
		&portfolio.Ticker,
		&portfolio.ContractAddress,
		&portfolio.Slogan,
		&portfolio.Description,
		&portfolio.Template,
		&portfolio.LogoURL,
		&portfolio.BannerURL,
		&portfolio.TwitterURL,
		&portfolio.TelegramURL,
		&portfolio.WebsiteURL,
		&portfolio.IsPublished,
		&publishedAt,
		&portfolio.CreatedAt,
		&portfolio.UpdatedAt,
	)
	if err != nil {
		return err
	}

	portfolio.PublishedAt = timePtrFromNull(publishedAt)
	return nil
}
