package api

import (
	"time"

	"github.com/mrosiy/tarot-miniapp/internal/models"
	"github.com/mrosiy/tarot-miniapp/internal/service"
)

// View structs pin the JSON field names the Mini App frontend consumes.

// authUserView is the condensed user returned by /api/auth.
type authUserView struct {
	ID                int64  `json:"id"`
	Username          string `json:"username"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	RequestsLeft      int    `json:"requests_left"`
	PremiumRequests   int    `json:"premium_requests"`
	IsBanned          bool   `json:"is_banned"`
	AgreedRules       bool   `json:"agreed_rules"`
	Level             int    `json:"level"`
	Experience        int    `json:"experience"`
	TotalReadings     int    `json:"total_readings"`
	AchievementsCount int    `json:"achievements_count"`
}

func newAuthUserView(p *service.Profile) authUserView {
	return authUserView{
		ID:                p.User.ID,
		Username:          p.User.Username,
		FirstName:         p.User.FirstName,
		LastName:          p.User.LastName,
		RequestsLeft:      p.User.RequestsLeft,
		PremiumRequests:   p.User.PremiumRequests,
		IsBanned:          p.User.IsBanned,
		AgreedRules:       p.User.AgreedRules,
		Level:             p.Progress.Level.Level,
		Experience:        p.Progress.Level.Experience,
		TotalReadings:     p.Stats.TotalReadings,
		AchievementsCount: len(p.Progress.Unlocked),
	}
}

type userView struct {
	ID              int64  `json:"id"`
	Username        string `json:"username"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	RequestsLeft    int    `json:"requests_left"`
	PremiumRequests int    `json:"premium_requests"`
	ReferralsCount  int    `json:"referrals_count"`
	IsBanned        bool   `json:"is_banned"`
	AgreedRules     bool   `json:"agreed_rules"`
	Level           int    `json:"level"`
	TotalReadings   int    `json:"total_readings"`
}

func newUserView(p *service.Profile) userView {
	return userView{
		ID:              p.User.ID,
		Username:        p.User.Username,
		FirstName:       p.User.FirstName,
		LastName:        p.User.LastName,
		RequestsLeft:    p.User.RequestsLeft,
		PremiumRequests: p.User.PremiumRequests,
		ReferralsCount:  p.User.ReferralsCount,
		IsBanned:        p.User.IsBanned,
		AgreedRules:     p.User.AgreedRules,
		Level:           p.Progress.Level.Level,
		TotalReadings:   p.Progress.Level.TotalReadings,
	}
}

type statsView struct {
	TotalReadings   int        `json:"total_readings"`
	PremiumReadings int        `json:"premium_readings"`
	TotalSpent      int        `json:"total_spent"`
	LastReadingAt   *time.Time `json:"last_reading_at"`
}

func newStatsView(stats *models.UserStats) statsView {
	if stats == nil {
		return statsView{}
	}
	return statsView{
		TotalReadings:   stats.TotalReadings,
		PremiumReadings: stats.PremiumReadings,
		TotalSpent:      stats.TotalSpent,
		LastReadingAt:   stats.LastReadingAt,
	}
}

type levelView struct {
	Level         int `json:"level"`
	Experience    int `json:"experience"`
	TotalReadings int `json:"total_readings"`
	NextLevelAt   int `json:"next_level_at"`
}

func newLevelView(info *models.LevelInfo) levelView {
	if info == nil {
		return levelView{Level: 1}
	}
	return levelView{
		Level:         info.Level,
		Experience:    info.Experience,
		TotalReadings: info.TotalReadings,
		NextLevelAt:   info.NextLevelAt,
	}
}

type achievementView struct {
	Name       string    `json:"achievement_name"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

func newAchievementViews(unlocked []models.Achievement) []achievementView {
	views := make([]achievementView, 0, len(unlocked))
	for _, a := range unlocked {
		views = append(views, achievementView{Name: a.Name, UnlockedAt: a.UnlockedAt})
	}
	return views
}

type catalogView struct {
	Name        string `json:"name"`
	Emoji       string `json:"emoji"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
}

func newCatalogViews(catalog []service.CatalogEntry) []catalogView {
	views := make([]catalogView, 0, len(catalog))
	for _, entry := range catalog {
		views = append(views, catalogView{
			Name:        entry.Name,
			Emoji:       entry.Emoji,
			Description: entry.Description,
			Unlocked:    entry.Unlocked,
		})
	}
	return views
}

type readingView struct {
	ID          int64     `json:"id"`
	Question    string    `json:"question"`
	Cards       []string  `json:"cards"`
	Response    string    `json:"response"`
	ReadingType string    `json:"reading_type"`
	IsPremium   bool      `json:"is_premium"`
	CreatedAt   time.Time `json:"created_at"`
}

func newReadingViews(readings []models.Reading) []readingView {
	views := make([]readingView, 0, len(readings))
	for _, r := range readings {
		views = append(views, readingView{
			ID:          r.ID,
			Question:    r.Question,
			Cards:       r.Cards,
			Response:    r.Interpretation,
			ReadingType: r.ReadingType,
			IsPremium:   r.IsPremium,
			CreatedAt:   r.CreatedAt,
		})
	}
	return views
}

type paymentView struct {
	Label      string    `json:"label"`
	PackageKey string    `json:"package_key"`
	Amount     int       `json:"amount"`
	Requests   int       `json:"requests"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

func newPaymentViews(payments []models.Payment) []paymentView {
	views := make([]paymentView, 0, len(payments))
	for _, p := range payments {
		views = append(views, paymentView{
			Label:      p.Label,
			PackageKey: p.PackageKey,
			Amount:     p.Amount,
			Requests:   p.Requests,
			Status:     p.Status,
			CreatedAt:  p.CreatedAt,
		})
	}
	return views
}

type rateView struct {
	PackageKey string `json:"package_key"`
	Requests   int    `json:"requests"`
	Price      int    `json:"price"`
	Label      string `json:"label"`
}

func newRateViews(rates []models.Rate) []rateView {
	views := make([]rateView, 0, len(rates))
	for _, r := range rates {
		views = append(views, rateView{
			PackageKey: r.PackageKey,
			Requests:   r.Requests,
			Price:      r.Price,
			Label:      r.Label,
		})
	}
	return views
}

// adminUserView is the roster row for the admin screen.
type adminUserView struct {
	UserID          int64     `json:"user_id"`
	Username        string    `json:"username"`
	FirstName       string    `json:"first_name"`
	RequestsLeft    int       `json:"requests_left"`
	PremiumRequests int       `json:"premium_requests"`
	ReferralsCount  int       `json:"referrals_count"`
	IsBanned        bool      `json:"is_banned"`
	LastActivity    time.Time `json:"last_activity"`
	CreatedAt       time.Time `json:"created_at"`
}

func newAdminUserViews(users []models.User) []adminUserView {
	views := make([]adminUserView, 0, len(users))
	for _, u := range users {
		views = append(views, adminUserView{
			UserID:          u.ID,
			Username:        u.Username,
			FirstName:       u.FirstName,
			RequestsLeft:    u.RequestsLeft,
			PremiumRequests: u.PremiumRequests,
			ReferralsCount:  u.ReferralsCount,
			IsBanned:        u.IsBanned,
			LastActivity:    u.LastActivity,
			CreatedAt:       u.CreatedAt,
		})
	}
	return views
}
