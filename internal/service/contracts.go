package service

import (
	"context"
	"time"

	"github.com/mrosiy/tarot-miniapp/internal/models"
	"github.com/mrosiy/tarot-miniapp/internal/ohmygpt"
)

// Storage contracts as the services consume them. Concrete implementations
// live in internal/repository; tests substitute fakes.

type UserStore interface {
	FindByID(ctx context.Context, userID int64) (*models.User, error)
	Ensure(ctx context.Context, userID int64, username, firstName, lastName string, freeRequests int) (*models.User, bool, error)
	ConsumeRequest(ctx context.Context, userID int64, kind models.RequestKind) (bool, error)
	AddRequests(ctx context.Context, userID int64, amount int, kind models.RequestKind) error
	IncrementForbiddenAttempts(ctx context.Context, userID int64) error
	TouchActivity(ctx context.Context, userID int64) error
	Count(ctx context.Context) (int, error)
	CountActiveSince(ctx context.Context, since time.Time) (int, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
}

type ReadingStore interface {
	Append(ctx context.Context, reading *models.Reading) (*models.Reading, error)
	Recent(ctx context.Context, userID int64, limit int) ([]models.Reading, error)
	ListPaged(ctx context.Context, userID int64, limit, offset int) ([]models.Reading, error)
	CountByUser(ctx context.Context, userID int64) (int, error)
	Count(ctx context.Context) (int, error)
	CountSince(ctx context.Context, since time.Time) (int, error)
	Stats(ctx context.Context, userID int64) (*models.UserStats, error)
	ActiveDays(ctx context.Context, userID int64, limit int) ([]time.Time, error)
}

type PaymentStore interface {
	CreateIntent(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	FindByLabel(ctx context.Context, label string) (*models.Payment, error)
	UpdateStatus(ctx context.Context, label, status string) (bool, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Payment, error)
	CountConfirmed(ctx context.Context) (int, int, error)
	CountConfirmedByUser(ctx context.Context, userID int64) (int, int, error)
	CountPending(ctx context.Context) (int, error)
}

type RateStore interface {
	List(ctx context.Context) ([]models.Rate, error)
	FindByKey(ctx context.Context, packageKey string) (*models.Rate, error)
}

type AchievementStore interface {
	ListByUser(ctx context.Context, userID int64) ([]models.Achievement, error)
	Unlock(ctx context.Context, userID int64, name string) (bool, error)
}

// Oracle produces the interpretation text for a reading.
type Oracle interface {
	Interpret(ctx context.Context, req ohmygpt.Request) (string, error)
}

// GrantNotifier tells a user their balance was topped up by an admin.
// Implementations are best-effort.
type GrantNotifier interface {
	GrantIssued(userID int64, amount int, kind models.RequestKind)
}
