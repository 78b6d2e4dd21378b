package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/mrosiy/tarot-miniapp/internal/models"
	"github.com/mrosiy/tarot-miniapp/internal/ohmygpt"
)

// In-memory stand-ins for the repository layer, shared by the service tests.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeUsers struct {
	fakeBalances
	touched    map[int64]int
	violations map[int64]int
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{
		touched:    make(map[int64]int),
		violations: make(map[int64]int),
	}
	f.users = make(map[int64]*models.User)
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Ensure(_ context.Context, userID int64, username, firstName, lastName string, freeRequests int) (*models.User, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[userID]; ok {
		u.Username = username
		u.FirstName = firstName
		u.LastName = lastName
		snapshot := *u
		return &snapshot, false, nil
	}
	u := &models.User{
		ID:           userID,
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		RequestsLeft: freeRequests,
		AgreedRules:  true,
		CreatedAt:    time.Now(),
	}
	f.users[userID] = u
	snapshot := *u
	return &snapshot, true, nil
}

func (f *fakeUsers) IncrementForbiddenAttempts(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.violations[userID]++
	if u, ok := f.users[userID]; ok {
		u.ForbiddenAttempts++
	}
	return nil
}

func (f *fakeUsers) TouchActivity(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched[userID]++
	if u, ok := f.users[userID]; ok {
		u.LastActivity = time.Now()
	}
	return nil
}

func (f *fakeUsers) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users), nil
}

func (f *fakeUsers) CountActiveSince(_ context.Context, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, u := range f.users {
		if !u.LastActivity.Before(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakeUsers) List(_ context.Context, limit, offset int) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int64, 0, len(f.users))
	for id := range f.users {
		ids = append(ids, id)
	}
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if ids[j] > ids[i] {
				ids[i], ids[j] = ids[j], ids[i]
			}
		}
	}
	var out []models.User
	for i := offset; i < len(ids) && len(out) < limit; i++ {
		out = append(out, *f.users[ids[i]])
	}
	return out, nil
}

type fakeReadings struct {
	mu        sync.Mutex
	readings  []models.Reading
	nextID    int64
	appendErr error
	days      []time.Time
}

func (f *fakeReadings) Append(_ context.Context, reading *models.Reading) (*models.Reading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	f.nextID++
	reading.ID = f.nextID
	if reading.CreatedAt.IsZero() {
		reading.CreatedAt = time.Now()
	}
	f.readings = append(f.readings, *reading)
	return reading, nil
}

func (f *fakeReadings) Recent(_ context.Context, userID int64, limit int) ([]models.Reading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var mine []models.Reading
	for _, r := range f.readings {
		if r.UserID == userID {
			mine = append(mine, r)
		}
	}
	if len(mine) > limit {
		mine = mine[len(mine)-limit:]
	}
	return mine, nil
}

func (f *fakeReadings) ListPaged(_ context.Context, userID int64, limit, offset int) ([]models.Reading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var mine []models.Reading
	for i := len(f.readings) - 1; i >= 0; i-- {
		if f.readings[i].UserID == userID {
			mine = append(mine, f.readings[i])
		}
	}
	if offset >= len(mine) {
		return nil, nil
	}
	mine = mine[offset:]
	if len(mine) > limit {
		mine = mine[:limit]
	}
	return mine, nil
}

func (f *fakeReadings) CountByUser(_ context.Context, userID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, r := range f.readings {
		if r.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakeReadings) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.readings), nil
}

func (f *fakeReadings) CountSince(_ context.Context, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, r := range f.readings {
		if !r.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakeReadings) Stats(_ context.Context, userID int64) (*models.UserStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var stats models.UserStats
	for _, r := range f.readings {
		if r.UserID != userID {
			continue
		}
		stats.TotalReadings++
		if r.IsPremium {
			stats.PremiumReadings++
		}
		if stats.LastReadingAt == nil || r.CreatedAt.After(*stats.LastReadingAt) {
			created := r.CreatedAt
			stats.LastReadingAt = &created
		}
	}
	return &stats, nil
}

func (f *fakeReadings) ActiveDays(_ context.Context, _ int64, limit int) ([]time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	days := f.days
	if len(days) > limit {
		days = days[:limit]
	}
	return days, nil
}

type fakePayments struct {
	mu        sync.Mutex
	payments  []models.Payment
	nextID    int64
	createErr error
}

func (f *fakePayments) CreateIntent(_ context.Context, payment *models.Payment) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, p := range f.payments {
		if p.Label == payment.Label {
			return nil, fmt.Errorf("duplicate label %q", payment.Label)
		}
	}
	f.nextID++
	payment.ID = f.nextID
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = payment.CreatedAt
	f.payments = append(f.payments, *payment)
	return payment, nil
}

func (f *fakePayments) FindByLabel(_ context.Context, label string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if p.Label == label {
			snapshot := p
			return &snapshot, nil
		}
	}
	return nil, nil
}

func (f *fakePayments) UpdateStatus(_ context.Context, label, status string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.payments {
		if f.payments[i].Label == label && f.payments[i].Status == models.PaymentPending {
			f.payments[i].Status = status
			f.payments[i].UpdatedAt = time.Now()
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePayments) ListByUser(_ context.Context, userID int64, limit, offset int) ([]models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var mine []models.Payment
	for i := len(f.payments) - 1; i >= 0; i-- {
		if f.payments[i].UserID == userID {
			mine = append(mine, f.payments[i])
		}
	}
	if offset >= len(mine) {
		return nil, nil
	}
	mine = mine[offset:]
	if len(mine) > limit {
		mine = mine[:limit]
	}
	return mine, nil
}

func (f *fakePayments) CountConfirmed(_ context.Context) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count, revenue := 0, 0
	for _, p := range f.payments {
		if p.Status == models.PaymentConfirmed {
			count++
			revenue += p.Amount
		}
	}
	return count, revenue, nil
}

func (f *fakePayments) CountConfirmedByUser(_ context.Context, userID int64) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count, spent := 0, 0
	for _, p := range f.payments {
		if p.UserID == userID && p.Status == models.PaymentConfirmed {
			count++
			spent += p.Amount
		}
	}
	return count, spent, nil
}

func (f *fakePayments) CountPending(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, p := range f.payments {
		if p.Status == models.PaymentPending {
			count++
		}
	}
	return count, nil
}

type fakeRates struct {
	rates []models.Rate
	err   error
}

func (f *fakeRates) List(_ context.Context) ([]models.Rate, error) {
	return f.rates, f.err
}

func (f *fakeRates) FindByKey(_ context.Context, packageKey string) (*models.Rate, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, rate := range f.rates {
		if rate.PackageKey == packageKey {
			snapshot := rate
			return &snapshot, nil
		}
	}
	return nil, nil
}

type fakeAchievements struct {
	mu       sync.Mutex
	unlocked []models.Achievement
}

func (f *fakeAchievements) ListByUser(_ context.Context, userID int64) ([]models.Achievement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var mine []models.Achievement
	for _, a := range f.unlocked {
		if a.UserID == userID {
			mine = append(mine, a)
		}
	}
	return mine, nil
}

func (f *fakeAchievements) Unlock(_ context.Context, userID int64, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.unlocked {
		if a.UserID == userID && a.Name == name {
			return false, nil
		}
	}
	f.unlocked = append(f.unlocked, models.Achievement{UserID: userID, Name: name, UnlockedAt: time.Now()})
	return true, nil
}

func (f *fakeAchievements) names(userID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for _, a := range f.unlocked {
		if a.UserID == userID {
			names = append(names, a.Name)
		}
	}
	return names
}

type fakeOracle struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
	lastReq  ohmygpt.Request
}

func (f *fakeOracle) Interpret(_ context.Context, req ohmygpt.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastReq = req
	return f.response, f.err
}

type grantNote struct {
	UserID int64
	Amount int
	Kind   models.RequestKind
}

type fakeNotifier struct {
	mu     sync.Mutex
	grants []grantNote
}

func (f *fakeNotifier) GrantIssued(userID int64, amount int, kind models.RequestKind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.grants = append(f.grants, grantNote{UserID: userID, Amount: amount, Kind: kind})
}
