package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mrosiy/tarot-miniapp/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) DB() *sql.DB {
	return r.db
}

func (r *UserRepository) FindByID(ctx context.Context, userID int64) (*models.User, error) {
	const query = `
SELECT user_id, COALESCE(username, ''), COALESCE(first_name, ''), COALESCE(last_name, ''), requests_left, premium_requests, is_banned, agreed_rules, referrals_count, forbidden_attempts, last_activity, created_at
FROM users WHERE user_id = ?`
	row := r.db.QueryRowContext(ctx, query, userID)
	var u models.User
	var banned, agreed int
	if err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.RequestsLeft, &u.PremiumRequests, &banned, &agreed, &u.ReferralsCount, &u.ForbiddenAttempts, &u.LastActivity, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.IsBanned = banned != 0
	u.AgreedRules = agreed != 0
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	const query = `
INSERT INTO users (user_id, username, first_name, last_name, requests_left, premium_requests, agreed_rules)
VALUES (?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), ?, ?, ?)`
	agreed := 0
	if user.AgreedRules {
		agreed = 1
	}
	if _, err := r.db.ExecContext(ctx, query, user.ID, user.Username, user.FirstName, user.LastName, user.RequestsLeft, user.PremiumRequests, agreed); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, userID int64, username, firstName, lastName string) error {
	const query = `
UPDATE users SET username = NULLIF(?, ''), first_name = NULLIF(?, ''), last_name = NULLIF(?, '')
WHERE user_id = ?`
	if _, err := r.db.ExecContext(ctx, query, username, firstName, lastName, userID); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// Ensure returns the user, creating it on first contact. A user born through
// a verified Mini App session has already passed the bot's terms gate, so it
// starts with agreed_rules set.
func (r *UserRepository) Ensure(ctx context.Context, userID int64, username, firstName, lastName string, freeRequests int) (*models.User, bool, error) {
	user, err := r.FindByID(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if user != nil {
		go func() {
			_ = r.UpdateProfile(context.Background(), user.ID, username, firstName, lastName)
		}()
		return user, false, nil
	}
	newUser := &models.User{
		ID:           userID,
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		RequestsLeft: freeRequests,
		AgreedRules:  true,
	}
	created, err := r.Create(ctx, newUser)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

// ConsumeRequest decrements the chosen balance by one. The condition and the
// decrement run in a single statement, so concurrent calls for the same user
// cannot overdraw; false means the balance was already empty.
func (r *UserRepository) ConsumeRequest(ctx context.Context, userID int64, kind models.RequestKind) (bool, error) {
	var query string
	switch kind {
	case models.KindPremium:
		query = `UPDATE users SET premium_requests = premium_requests - 1 WHERE user_id = ? AND premium_requests > 0`
	case models.KindFree:
		query = `UPDATE users SET requests_left = requests_left - 1 WHERE user_id = ? AND requests_left > 0`
	default:
		return false, fmt.Errorf("unknown request kind %q", kind)
	}
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return false, fmt.Errorf("consume %s request: %w", kind, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("consume rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *UserRepository) AddRequests(ctx context.Context, userID int64, amount int, kind models.RequestKind) error {
	var query string
	switch kind {
	case models.KindPremium:
		query = `UPDATE users SET premium_requests = GREATEST(premium_requests + ?, 0) WHERE user_id = ?`
	case models.KindFree:
		query = `UPDATE users SET requests_left = GREATEST(requests_left + ?, 0) WHERE user_id = ?`
	default:
		return fmt.Errorf("unknown request kind %q", kind)
	}
	if _, err := r.db.ExecContext(ctx, query, amount, userID); err != nil {
		return fmt.Errorf("add %s requests: %w", kind, err)
	}
	return nil
}

func (r *UserRepository) IncrementForbiddenAttempts(ctx context.Context, userID int64) error {
	const query = `UPDATE users SET forbidden_attempts = forbidden_attempts + 1 WHERE user_id = ?`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("increment forbidden attempts: %w", err)
	}
	return nil
}

func (r *UserRepository) TouchActivity(ctx context.Context, userID int64) error {
	const query = `UPDATE users SET last_activity = NOW() WHERE user_id = ?`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("touch activity: %w", err)
	}
	return nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM users`
	var count int
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

func (r *UserRepository) CountActiveSince(ctx context.Context, since time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM users WHERE last_activity >= ?`
	var count int
	if err := r.db.QueryRowContext(ctx, query, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active users: %w", err)
	}
	return count, nil
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	const query = `
SELECT user_id, COALESCE(username, ''), COALESCE(first_name, ''), COALESCE(last_name, ''), requests_left, premium_requests, is_banned, agreed_rules, referrals_count, forbidden_attempts, last_activity, created_at
FROM users ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		var banned, agreed int
		if err := rows.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.RequestsLeft, &u.PremiumRequests, &banned, &agreed, &u.ReferralsCount, &u.ForbiddenAttempts, &u.LastActivity, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		u.IsBanned = banned != 0
		u.AgreedRules = agreed != 0
		users = append(users, u)
	}
	return users, rows.Err()
}
