package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/mrosiy/tarot-miniapp/internal/config"
	"github.com/mrosiy/tarot-miniapp/internal/models"
)

var (
	ErrUnknownPackage = errors.New("unknown payment package")
	ErrIntentCreation = errors.New("payment intent not created")
)

// fallbackRates backs the catalog when the rates table is empty, so payments
// keep working on a fresh database.
var fallbackRates = []models.Rate{
	{PackageKey: "buy_1", Requests: 1, Price: 50, Label: "1 расклад"},
	{PackageKey: "buy_5", Requests: 5, Price: 200, Label: "5 раскладов"},
	{PackageKey: "buy_10", Requests: 10, Price: 350, Label: "10 раскладов"},
}

type PaymentService struct {
	cfg      config.Config
	log      *slog.Logger
	payments PaymentStore
	rates    RateStore
}

// Intent is a created payment awaiting settlement: the pending row is
// already persisted and URL is where the client goes to pay.
type Intent struct {
	URL        string
	Label      string
	Amount     int
	Requests   int
	PackageKey string
}

func NewPaymentService(cfg config.Config, log *slog.Logger, payments PaymentStore, rates RateStore) *PaymentService {
	return &PaymentService{
		cfg:      cfg,
		log:      log,
		payments: payments,
		rates:    rates,
	}
}

// CreateIntent resolves the package, persists a pending payment row and only
// then builds the redirect URL. The row exists even if the client never
// follows the redirect, so every settlement callback finds its intent.
func (s *PaymentService) CreateIntent(ctx context.Context, userID int64, packageKey string) (*Intent, error) {
	if packageKey == "" {
		packageKey = "buy_1"
	}

	rate, err := s.resolveRate(ctx, packageKey)
	if err != nil {
		return nil, err
	}
	if rate == nil {
		return nil, ErrUnknownPackage
	}

	// The user id and package are recoverable from the label itself; the
	// uuid keeps retries of the same purchase distinct.
	label := fmt.Sprintf("%d:%s:%s", userID, packageKey, uuid.NewString())

	payment := &models.Payment{
		UserID:     userID,
		Label:      label,
		PackageKey: packageKey,
		Amount:     rate.Price,
		Requests:   rate.Requests,
		Status:     models.PaymentPending,
	}
	if _, err := s.payments.CreateIntent(ctx, payment); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIntentCreation, err)
	}

	s.log.Info("payment intent created", "user_id", userID, "package", packageKey, "amount", rate.Price)

	return &Intent{
		URL:        s.paymentURL(rate, label),
		Label:      label,
		Amount:     rate.Price,
		Requests:   rate.Requests,
		PackageKey: packageKey,
	}, nil
}

// Rates returns the purchasable catalog, falling back to the built-in
// packages when the table is empty.
func (s *PaymentService) Rates(ctx context.Context) ([]models.Rate, error) {
	rates, err := s.rates.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(rates) == 0 {
		return fallbackRates, nil
	}
	return rates, nil
}

func (s *PaymentService) FindByLabel(ctx context.Context, label string) (*models.Payment, error) {
	return s.payments.FindByLabel(ctx, label)
}

// Settle moves a pending intent to confirmed or failed. Crediting the
// purchased requests is the settlement collaborator's job, not ours.
func (s *PaymentService) Settle(ctx context.Context, label, status string) (bool, error) {
	if status != models.PaymentConfirmed && status != models.PaymentFailed {
		return false, fmt.Errorf("invalid settlement status %q", status)
	}
	return s.payments.UpdateStatus(ctx, label, status)
}

func (s *PaymentService) resolveRate(ctx context.Context, packageKey string) (*models.Rate, error) {
	rate, err := s.rates.FindByKey(ctx, packageKey)
	if err != nil {
		return nil, err
	}
	if rate != nil {
		return rate, nil
	}
	for _, fallback := range fallbackRates {
		if fallback.PackageKey == packageKey {
			return &fallback, nil
		}
	}
	return nil, nil
}

func (s *PaymentService) paymentURL(rate *models.Rate, label string) string {
	params := url.Values{}
	params.Set("receiver", s.cfg.YooMoneyReceiver)
	params.Set("quickpay-form", "shop")
	params.Set("targets", fmt.Sprintf("Покупка %d раскладов Таро", rate.Requests))
	params.Set("paymentType", "AC")
	params.Set("sum", strconv.Itoa(rate.Price))
	params.Set("label", label)
	if s.cfg.YooMoneySuccessURL != "" {
		params.Set("successURL", s.cfg.YooMoneySuccessURL)
	}
	return s.cfg.YooMoneyQuickpay + "?" + params.Encode()
}
