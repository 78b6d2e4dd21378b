package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mrosiy/tarot-miniapp/internal/models"
)

type RateRepository struct {
	db *sql.DB
}

func NewRateRepository(db *sql.DB) *RateRepository {
	return &RateRepository{db: db}
}

func (r *RateRepository) List(ctx context.Context) ([]models.Rate, error) {
	const query = `SELECT package_key, requests, price, label FROM rates ORDER BY price ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list rates: %w", err)
	}
	defer rows.Close()

	var rates []models.Rate
	for rows.Next() {
		var rate models.Rate
		if err := rows.Scan(&rate.PackageKey, &rate.Requests, &rate.Price, &rate.Label); err != nil {
			return nil, fmt.Errorf("scan rate: %w", err)
		}
		rates = append(rates, rate)
	}
	return rates, rows.Err()
}

func (r *RateRepository) FindByKey(ctx context.Context, packageKey string) (*models.Rate, error) {
	const query = `SELECT package_key, requests, price, label FROM rates WHERE package_key = ?`
	row := r.db.QueryRowContext(ctx, query, packageKey)
	var rate models.Rate
	if err := row.Scan(&rate.PackageKey, &rate.Requests, &rate.Price, &rate.Label); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan rate: %w", err)
	}
	return &rate, nil
}
