package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/hearthgate/hearth/hearth/database/models"
	"github.com/hearthgate/hearth/hearth/economy"
)

// CurrencyRepository reads administrator-seeded currency reference data.
type CurrencyRepository interface {
	GetAll(ctx context.Context) ([]*models.Currency, error)
	GetByID(ctx context.Context, id int64) (*models.Currency, error)
	ListWorkable(ctx context.Context) ([]*models.Currency, error)
}

type currencyRepository struct {
	db *bun.DB
}

func NewCurrencyRepository(db *bun.DB) CurrencyRepository {
	return &currencyRepository{db: db}
}

func (r *currencyRepository) GetAll(ctx context.Context) ([]*models.Currency, error) {
	var currencies []*models.Currency
	err := r.db.NewSelect().
		Model(&currencies).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get currencies: %w", err)
	}
	return currencies, nil
}

func (r *currencyRepository) GetByID(ctx context.Context, id int64) (*models.Currency, error) {
	currency := new(models.Currency)
	err := r.db.NewSelect().
		Model(currency).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, economy.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get currency: %w", err)
	}
	return currency, nil
}

func (r *currencyRepository) ListWorkable(ctx context.Context) ([]*models.Currency, error) {
	var currencies []*models.Currency
	err := r.db.NewSelect().
		Model(&currencies).
		Where("can_work_for = TRUE").
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workable currencies: %w", err)
	}
	return currencies, nil
}
