package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/mrosiy/tarot-miniapp/internal/models"
)

// AdminService backs the admin endpoints: aggregate stats, the user roster
// and manual balance grants.
type AdminService struct {
	log      *slog.Logger
	users    UserStore
	readings ReadingStore
	payments PaymentStore
	ledger   *Ledger
	notifier GrantNotifier
}

type AdminStats struct {
	TotalUsers      int
	Active24h       int
	TotalReadings   int
	Readings24h     int
	TotalPayments   int
	TotalRevenue    int
	PendingPayments int
}

type UserPage struct {
	Users []models.User
	Page  int
	Limit int
	Total int
}

func NewAdminService(log *slog.Logger, users UserStore, readings ReadingStore, payments PaymentStore, ledger *Ledger, notifier GrantNotifier) *AdminService {
	return &AdminService{
		log:      log,
		users:    users,
		readings: readings,
		payments: payments,
		ledger:   ledger,
		notifier: notifier,
	}
}

func (s *AdminService) Stats(ctx context.Context) (*AdminStats, error) {
	dayAgo := time.Now().Add(-24 * time.Hour)

	totalUsers, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.users.CountActiveSince(ctx, dayAgo)
	if err != nil {
		return nil, err
	}
	totalReadings, err := s.readings.Count(ctx)
	if err != nil {
		return nil, err
	}
	readings24h, err := s.readings.CountSince(ctx, dayAgo)
	if err != nil {
		return nil, err
	}
	totalPayments, revenue, err := s.payments.CountConfirmed(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.payments.CountPending(ctx)
	if err != nil {
		return nil, err
	}

	return &AdminStats{
		TotalUsers:      totalUsers,
		Active24h:       active,
		TotalReadings:   totalReadings,
		Readings24h:     readings24h,
		TotalPayments:   totalPayments,
		TotalRevenue:    revenue,
		PendingPayments: pending,
	}, nil
}

func (s *AdminService) Users(ctx context.Context, page, limit int) (*UserPage, error) {
	if page < 0 {
		page = 0
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	users, err := s.users.List(ctx, limit, page*limit)
	if err != nil {
		return nil, err
	}
	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &UserPage{Users: users, Page: page, Limit: limit, Total: total}, nil
}

// AddRequests grants balance units to a user and notifies them.
func (s *AdminService) AddRequests(ctx context.Context, userID int64, amount int, premium bool) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	kind := models.KindFree
	if premium {
		kind = models.KindPremium
	}
	if err := s.ledger.Grant(ctx, userID, amount, kind); err != nil {
		return err
	}

	s.log.Info("requests granted", "user_id", userID, "amount", amount, "kind", kind)
	if s.notifier != nil {
		s.notifier.GrantIssued(userID, amount, kind)
	}
	return nil
}
