package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mrosiy/tarot-miniapp/internal/models"
)

type HistoryService struct {
	log      *slog.Logger
	readings ReadingStore
	payments PaymentStore
}

// HistoryPage is one page of a user's readings plus the payment history the
// client renders next to it.
type HistoryPage struct {
	Readings   []models.Reading
	Payments   []models.Payment
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

func NewHistoryService(log *slog.Logger, readings ReadingStore, payments PaymentStore) *HistoryService {
	return &HistoryService{
		log:      log,
		readings: readings,
		payments: payments,
	}
}

func (s *HistoryService) Record(ctx context.Context, reading *models.Reading) error {
	if _, err := s.readings.Append(ctx, reading); err != nil {
		return fmt.Errorf("append reading: %w", err)
	}
	return nil
}

// RecentContext renders the user's latest readings as prompt context,
// oldest first.
func (s *HistoryService) RecentContext(ctx context.Context, userID int64, limit int) (string, error) {
	readings, err := s.readings.Recent(ctx, userID, limit)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, reading := range readings {
		fmt.Fprintf(&b, "Вопрос: %s\nКарты: %s\n\n", reading.Question, strings.Join(reading.Cards, ", "))
	}
	return b.String(), nil
}

// Stats merges reading aggregates with the total spent on confirmed
// purchases.
func (s *HistoryService) Stats(ctx context.Context, userID int64) (*models.UserStats, error) {
	stats, err := s.readings.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}
	_, spent, err := s.payments.CountConfirmedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats.TotalSpent = spent
	return stats, nil
}

// Page is 0-based. Limit is clamped to 1..100 with a default of 10.
func (s *HistoryService) Page(ctx context.Context, userID int64, page, limit int) (*HistoryPage, error) {
	if page < 0 {
		page = 0
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	offset := page * limit

	readings, err := s.readings.ListPaged(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.readings.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return &HistoryPage{
		Readings:   readings,
		Payments:   payments,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages(total, limit),
	}, nil
}

// totalPages is ceil(total/limit), but an empty history still renders as one
// page.
func totalPages(total, limit int) int {
	if total <= 0 {
		return 1
	}
	return (total + limit - 1) / limit
}
