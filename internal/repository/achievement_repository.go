package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mrosiy/tarot-miniapp/internal/models"
)

type AchievementRepository struct {
	db *sql.DB
}

func NewAchievementRepository(db *sql.DB) *AchievementRepository {
	return &AchievementRepository{db: db}
}

func (r *AchievementRepository) ListByUser(ctx context.Context, userID int64) ([]models.Achievement, error) {
	const query = `
SELECT user_id, name, unlocked_at
FROM achievements WHERE user_id = ? ORDER BY unlocked_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	defer rows.Close()

	var achievements []models.Achievement
	for rows.Next() {
		var a models.Achievement
		if err := rows.Scan(&a.UserID, &a.Name, &a.UnlockedAt); err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		achievements = append(achievements, a)
	}
	return achievements, rows.Err()
}

// Unlock awards an achievement once. Re-awarding is a silent no-op; true
// means this call was the one that unlocked it.
func (r *AchievementRepository) Unlock(ctx context.Context, userID int64, name string) (bool, error) {
	const query = `INSERT IGNORE INTO achievements (user_id, name) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, query, userID, name)
	if err != nil {
		return false, fmt.Errorf("unlock achievement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("achievement rows affected: %w", err)
	}
	return affected > 0, nil
}
