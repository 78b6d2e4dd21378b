package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/mrosiy/tarot-miniapp/internal/models"
)

// AchievementSpec is one entry of the static achievement catalog.
type AchievementSpec struct {
	Name        string
	Emoji       string
	Description string
}

var achievementCatalog = []AchievementSpec{
	{Name: "Новичок", Emoji: "🌱", Description: "Сделал первый шаг в мир Таро"},
	{Name: "Искатель", Emoji: "🔍", Description: "Первый расклад"},
	{Name: "Ученик", Emoji: "📚", Description: "5 раскладов"},
	{Name: "Практик", Emoji: "🔮", Description: "10 раскладов"},
	{Name: "Адепт", Emoji: "⭐", Description: "25 раскладов"},
	{Name: "Мастер", Emoji: "🌟", Description: "50 раскладов"},
	{Name: "Гуру", Emoji: "👑", Description: "100 раскладов"},
	{Name: "Наставник", Emoji: "🤝", Description: "Пригласил первого друга"},
	{Name: "Посланник", Emoji: "📣", Description: "5 приглашённых друзей"},
	{Name: "Меценат", Emoji: "💎", Description: "Первая покупка"},
	{Name: "Покровитель", Emoji: "💰", Description: "3 покупки"},
	{Name: "Постоянный", Emoji: "🔥", Description: "3 дня подряд"},
	{Name: "Ежедневный практик", Emoji: "🔥🔥", Description: "7 дней подряд"},
	{Name: "Непрерывный путь", Emoji: "🔥🔥🔥", Description: "30 дней подряд"},
}

// Level thresholds over total readings; crossing threshold i means level i+1.
var levelThresholds = []int{0, 1, 5, 10, 25, 50, 100}

var readingMilestones = []struct {
	Count int
	Name  string
}{
	{1, "Искатель"},
	{5, "Ученик"},
	{10, "Практик"},
	{25, "Адепт"},
	{50, "Мастер"},
	{100, "Гуру"},
}

var referralMilestones = []struct {
	Count int
	Name  string
}{
	{1, "Наставник"},
	{5, "Посланник"},
}

var purchaseMilestones = []struct {
	Count int
	Name  string
}{
	{1, "Меценат"},
	{3, "Покровитель"},
}

var streakMilestones = []struct {
	Days int
	Name string
}{
	{3, "Постоянный"},
	{7, "Ежедневный практик"},
	{30, "Непрерывный путь"},
}

// ProgressionService derives levels from reading history and awards
// achievements. Awards are idempotent, so evaluating twice is harmless.
type ProgressionService struct {
	log          *slog.Logger
	users        UserStore
	readings     ReadingStore
	payments     PaymentStore
	achievements AchievementStore
}

// CatalogEntry is an achievement spec annotated with the user's unlock state.
type CatalogEntry struct {
	Name        string
	Emoji       string
	Description string
	Unlocked    bool
}

// Snapshot is everything the achievements screen renders.
type Snapshot struct {
	Level    *models.LevelInfo
	Unlocked []models.Achievement
	Catalog  []CatalogEntry
}

func NewProgressionService(log *slog.Logger, users UserStore, readings ReadingStore, payments PaymentStore, achievements AchievementStore) *ProgressionService {
	return &ProgressionService{
		log:          log,
		users:        users,
		readings:     readings,
		payments:     payments,
		achievements: achievements,
	}
}

func (s *ProgressionService) Level(ctx context.Context, userID int64) (*models.LevelInfo, error) {
	total, err := s.readings.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	referrals := 0
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		referrals = user.ReferralsCount
	}

	level, nextAt := levelFor(total)
	return &models.LevelInfo{
		Level:         level,
		Experience:    total*10 + referrals*25,
		TotalReadings: total,
		NextLevelAt:   nextAt,
	}, nil
}

// AwardOnJoin unlocks the joining achievement for a fresh user.
func (s *ProgressionService) AwardOnJoin(ctx context.Context, userID int64) error {
	return s.award(ctx, userID, "Новичок")
}

// Evaluate re-checks every achievement rule for the user. Called after each
// successful reading and on profile reads.
func (s *ProgressionService) Evaluate(ctx context.Context, userID int64) error {
	total, err := s.readings.CountByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, m := range readingMilestones {
		if total >= m.Count {
			if err := s.award(ctx, userID, m.Name); err != nil {
				return err
			}
		}
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user != nil {
		for _, m := range referralMilestones {
			if user.ReferralsCount >= m.Count {
				if err := s.award(ctx, userID, m.Name); err != nil {
					return err
				}
			}
		}
	}

	purchases, _, err := s.payments.CountConfirmedByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, m := range purchaseMilestones {
		if purchases >= m.Count {
			if err := s.award(ctx, userID, m.Name); err != nil {
				return err
			}
		}
	}

	days, err := s.readings.ActiveDays(ctx, userID, 30)
	if err != nil {
		return err
	}
	streak := streakLength(days)
	for _, m := range streakMilestones {
		if streak >= m.Days {
			if err := s.award(ctx, userID, m.Name); err != nil {
				return err
			}
		}
	}

	return nil
}

// Snapshot bundles level info, unlocked achievements and the annotated
// catalog for one user.
func (s *ProgressionService) Snapshot(ctx context.Context, userID int64) (*Snapshot, error) {
	level, err := s.Level(ctx, userID)
	if err != nil {
		return nil, err
	}
	unlocked, err := s.achievements.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	names := make(map[string]struct{}, len(unlocked))
	for _, a := range unlocked {
		names[a.Name] = struct{}{}
	}
	catalog := make([]CatalogEntry, 0, len(achievementCatalog))
	for _, spec := range achievementCatalog {
		_, ok := names[spec.Name]
		catalog = append(catalog, CatalogEntry{
			Name:        spec.Name,
			Emoji:       spec.Emoji,
			Description: spec.Description,
			Unlocked:    ok,
		})
	}

	return &Snapshot{
		Level:    level,
		Unlocked: unlocked,
		Catalog:  catalog,
	}, nil
}

func (s *ProgressionService) award(ctx context.Context, userID int64, name string) error {
	fresh, err := s.achievements.Unlock(ctx, userID, name)
	if err != nil {
		return err
	}
	if fresh {
		s.log.Info("achievement unlocked", "user_id", userID, "name", name)
	}
	return nil
}

func levelFor(totalReadings int) (level, nextAt int) {
	level = 1
	for i, threshold := range levelThresholds {
		if totalReadings >= threshold {
			level = i + 1
		}
	}
	if level < len(levelThresholds) {
		nextAt = levelThresholds[level]
	}
	return level, nextAt
}

// streakLength counts consecutive days walking back from the most recent
// active day. Days come in newest first as UTC midnights.
func streakLength(days []time.Time) int {
	if len(days) == 0 {
		return 0
	}
	streak := 1
	for i := 1; i < len(days); i++ {
		if days[i-1].Sub(days[i]) != 24*time.Hour {
			break
		}
		streak++
	}
	return streak
}
