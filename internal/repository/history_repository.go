package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/mrosiy/tarot-miniapp/internal/models"
)

type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Append(ctx context.Context, reading *models.Reading) (*models.Reading, error) {
	const query = `
INSERT INTO readings (user_id, question, cards, interpretation, reading_type, is_premium)
VALUES (?, ?, ?, ?, ?, ?)`
	cards, err := json.Marshal(reading.Cards)
	if err != nil {
		return nil, fmt.Errorf("encode cards: %w", err)
	}
	premium := 0
	if reading.IsPremium {
		premium = 1
	}
	res, err := r.db.ExecContext(ctx, query, reading.UserID, reading.Question, string(cards), reading.Interpretation, reading.ReadingType, premium)
	if err != nil {
		return nil, fmt.Errorf("insert reading: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	reading.ID = id
	return reading, nil
}

// Recent returns the user's latest readings ordered oldest first, so prompt
// context reads chronologically.
func (r *HistoryRepository) Recent(ctx context.Context, userID int64, limit int) ([]models.Reading, error) {
	readings, err := r.ListPaged(ctx, userID, limit, 0)
	if err != nil {
		return nil, err
	}
	slices.Reverse(readings)
	return readings, nil
}

func (r *HistoryRepository) ListPaged(ctx context.Context, userID int64, limit, offset int) ([]models.Reading, error) {
	const query = `
SELECT id, user_id, question, cards, interpretation, reading_type, is_premium, created_at
FROM readings WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	defer rows.Close()

	var readings []models.Reading
	for rows.Next() {
		var reading models.Reading
		var cards string
		var premium int
		if err := rows.Scan(&reading.ID, &reading.UserID, &reading.Question, &cards, &reading.Interpretation, &reading.ReadingType, &premium, &reading.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		if err := json.Unmarshal([]byte(cards), &reading.Cards); err != nil {
			return nil, fmt.Errorf("decode cards: %w", err)
		}
		reading.IsPremium = premium != 0
		readings = append(readings, reading)
	}
	return readings, rows.Err()
}

func (r *HistoryRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM readings WHERE user_id = ?`
	var count int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count user readings: %w", err)
	}
	return count, nil
}

func (r *HistoryRepository) Count(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM readings`
	var count int
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count readings: %w", err)
	}
	return count, nil
}

func (r *HistoryRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM readings WHERE created_at >= ?`
	var count int
	if err := r.db.QueryRowContext(ctx, query, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("count recent readings: %w", err)
	}
	return count, nil
}

func (r *HistoryRepository) Stats(ctx context.Context, userID int64) (*models.UserStats, error) {
	const query = `
SELECT COUNT(*), COALESCE(SUM(is_premium), 0), MAX(created_at)
FROM readings WHERE user_id = ?`
	var stats models.UserStats
	var last sql.NullTime
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&stats.TotalReadings, &stats.PremiumReadings, &last); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &stats, nil
		}
		return nil, fmt.Errorf("scan user stats: %w", err)
	}
	if last.Valid {
		stats.LastReadingAt = &last.Time
	}
	return &stats, nil
}

// ActiveDays returns the distinct calendar days the user performed readings,
// newest first. Streak computation walks this list.
func (r *HistoryRepository) ActiveDays(ctx context.Context, userID int64, limit int) ([]time.Time, error) {
	const query = `
SELECT DISTINCT DATE(created_at) AS day
FROM readings WHERE user_id = ? ORDER BY day DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list active days: %w", err)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("scan active day: %w", err)
		}
		days = append(days, day)
	}
	return days, rows.Err()
}
