package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mrosiy/tarot-miniapp/internal/models"
)

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) CreateIntent(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	const query = `
INSERT INTO payments (user_id, label, package_key, amount, requests, status)
VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, payment.UserID, payment.Label, payment.PackageKey, payment.Amount, payment.Requests, payment.Status)
	if err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	payment.ID = id
	return payment, nil
}

func (r *PaymentRepository) FindByLabel(ctx context.Context, label string) (*models.Payment, error) {
	const query = `
SELECT id, user_id, label, package_key, amount, requests, status, created_at, updated_at
FROM payments WHERE label = ?`
	row := r.db.QueryRowContext(ctx, query, label)
	var p models.Payment
	if err := row.Scan(&p.ID, &p.UserID, &p.Label, &p.PackageKey, &p.Amount, &p.Requests, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	return &p, nil
}

// UpdateStatus moves a pending intent forward. Settled intents never move
// again; false means there was no pending row under that label.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, label, status string) (bool, error) {
	const query = `UPDATE payments SET status = ? WHERE label = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, query, status, label, models.PaymentPending)
	if err != nil {
		return false, fmt.Errorf("update payment status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("payment rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *PaymentRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Payment, error) {
	const query = `
SELECT id, user_id, label, package_key, amount, requests, status, created_at, updated_at
FROM payments WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.UserID, &p.Label, &p.PackageKey, &p.Amount, &p.Requests, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan payment row: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *PaymentRepository) CountConfirmed(ctx context.Context) (int, int, error) {
	const query = `SELECT COUNT(*), COALESCE(SUM(amount), 0) FROM payments WHERE status = ?`
	var count, revenue int
	if err := r.db.QueryRowContext(ctx, query, models.PaymentConfirmed).Scan(&count, &revenue); err != nil {
		return 0, 0, fmt.Errorf("count confirmed payments: %w", err)
	}
	return count, revenue, nil
}

func (r *PaymentRepository) CountConfirmedByUser(ctx context.Context, userID int64) (int, int, error) {
	const query = `SELECT COUNT(*), COALESCE(SUM(amount), 0) FROM payments WHERE user_id = ? AND status = ?`
	var count, spent int
	if err := r.db.QueryRowContext(ctx, query, userID, models.PaymentConfirmed).Scan(&count, &spent); err != nil {
		return 0, 0, fmt.Errorf("count user payments: %w", err)
	}
	return count, spent, nil
}

func (r *PaymentRepository) CountPending(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM payments WHERE status = ?`
	var count int
	if err := r.db.QueryRowContext(ctx, query, models.PaymentPending).Scan(&count); err != nil {
		return 0, fmt.Errorf("count pending payments: %w", err)
	}
	return count, nil
}
