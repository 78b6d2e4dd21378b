package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mrosiy/tarot-miniapp/internal/models"
	"github.com/mrosiy/tarot-miniapp/internal/ohmygpt"
)

// In-memory repositories backing the full service graph for endpoint tests.

type memStore struct {
	users        *memUsers
	readings     *memReadings
	payments     *memPayments
	rates        *memRates
	achievements *memAchievements
}

func newMemStore() *memStore {
	return &memStore{
		users:        &memUsers{users: make(map[int64]*models.User)},
		readings:     &memReadings{},
		payments:     &memPayments{},
		rates:        &memRates{},
		achievements: &memAchievements{},
	}
}

type memUsers struct {
	mu    sync.Mutex
	users map[int64]*models.User
}

func (m *memUsers) add(u *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

func (m *memUsers) freeBalance(userID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		return u.RequestsLeft
	}
	return 0
}

func (m *memUsers) premiumBalance(userID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		return u.PremiumRequests
	}
	return 0
}

func (m *memUsers) FindByID(_ context.Context, userID int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, nil
	}
	snapshot := *u
	return &snapshot, nil
}

func (m *memUsers) Ensure(_ context.Context, userID int64, username, firstName, lastName string, freeRequests int) (*models.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
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
	m.users[userID] = u
	snapshot := *u
	return &snapshot, true, nil
}

func (m *memUsers) ConsumeRequest(_ context.Context, userID int64, kind models.RequestKind) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return false, nil
	}
	if kind == models.KindPremium {
		if u.PremiumRequests <= 0 {
			return false, nil
		}
		u.PremiumRequests--
		return true, nil
	}
	if u.RequestsLeft <= 0 {
		return false, nil
	}
	u.RequestsLeft--
	return true, nil
}

func (m *memUsers) AddRequests(_ context.Context, userID int64, amount int, kind models.RequestKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil
	}
	if kind == models.KindPremium {
		u.PremiumRequests = max(u.PremiumRequests+amount, 0)
	} else {
		u.RequestsLeft = max(u.RequestsLeft+amount, 0)
	}
	return nil
}

func (m *memUsers) IncrementForbiddenAttempts(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		u.ForbiddenAttempts++
	}
	return nil
}

func (m *memUsers) TouchActivity(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		u.LastActivity = time.Now()
	}
	return nil
}

func (m *memUsers) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), nil
}

func (m *memUsers) CountActiveSince(_ context.Context, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, u := range m.users {
		if !u.LastActivity.Before(since) {
			count++
		}
	}
	return count, nil
}

func (m *memUsers) List(_ context.Context, limit, offset int) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.users))
	for id := range m.users {
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
		out = append(out, *m.users[ids[i]])
	}
	return out, nil
}

type memReadings struct {
	mu       sync.Mutex
	readings []models.Reading
	nextID   int64
}

func (m *memReadings) Append(_ context.Context, reading *models.Reading) (*models.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	reading.ID = m.nextID
	if reading.CreatedAt.IsZero() {
		reading.CreatedAt = time.Now()
	}
	m.readings = append(m.readings, *reading)
	return reading, nil
}

func (m *memReadings) Recent(ctx context.Context, userID int64, limit int) ([]models.Reading, error) {
	mine, _ := m.ListPaged(ctx, userID, limit, 0)
	// ListPaged is newest first; prompt context wants oldest first.
	for i, j := 0, len(mine)-1; i < j; i, j = i+1, j-1 {
		mine[i], mine[j] = mine[j], mine[i]
	}
	return mine, nil
}

func (m *memReadings) ListPaged(_ context.Context, userID int64, limit, offset int) ([]models.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var mine []models.Reading
	for i := len(m.readings) - 1; i >= 0; i-- {
		if m.readings[i].UserID == userID {
			mine = append(mine, m.readings[i])
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

func (m *memReadings) CountByUser(_ context.Context, userID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, r := range m.readings {
		if r.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (m *memReadings) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.readings), nil
}

func (m *memReadings) CountSince(_ context.Context, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, r := range m.readings {
		if !r.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (m *memReadings) Stats(_ context.Context, userID int64) (*models.UserStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &models.UserStats{}
	for _, r := range m.readings {
		if r.UserID != userID {
			continue
		}
		stats.TotalReadings++
		if r.IsPremium {
			stats.PremiumReadings++
		}
		created := r.CreatedAt
		if stats.LastReadingAt == nil || created.After(*stats.LastReadingAt) {
			stats.LastReadingAt = &created
		}
	}
	return stats, nil
}

func (m *memReadings) ActiveDays(_ context.Context, userID int64, limit int) ([]time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[time.Time]bool)
	var days []time.Time
	for i := len(m.readings) - 1; i >= 0; i-- {
		r := m.readings[i]
		if r.UserID != userID {
			continue
		}
		day := r.CreatedAt.UTC().Truncate(24 * time.Hour)
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
		if len(days) == limit {
			break
		}
	}
	return days, nil
}

type memPayments struct {
	mu       sync.Mutex
	payments []models.Payment
	nextID   int64
}

func (m *memPayments) CreateIntent(_ context.Context, payment *models.Payment) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.Label == payment.Label {
			return nil, fmt.Errorf("duplicate label %q", payment.Label)
		}
	}
	m.nextID++
	payment.ID = m.nextID
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = payment.CreatedAt
	m.payments = append(m.payments, *payment)
	return payment, nil
}

func (m *memPayments) FindByLabel(_ context.Context, label string) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.Label == label {
			snapshot := p
			return &snapshot, nil
		}
	}
	return nil, nil
}

func (m *memPayments) UpdateStatus(_ context.Context, label, status string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.payments {
		if m.payments[i].Label == label && m.payments[i].Status == models.PaymentPending {
			m.payments[i].Status = status
			return true, nil
		}
	}
	return false, nil
}

func (m *memPayments) ListByUser(_ context.Context, userID int64, limit, offset int) ([]models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var mine []models.Payment
	for i := len(m.payments) - 1; i >= 0; i-- {
		if m.payments[i].UserID == userID {
			mine = append(mine, m.payments[i])
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

func (m *memPayments) CountConfirmed(_ context.Context) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count, revenue := 0, 0
	for _, p := range m.payments {
		if p.Status == models.PaymentConfirmed {
			count++
			revenue += p.Amount
		}
	}
	return count, revenue, nil
}

func (m *memPayments) CountConfirmedByUser(_ context.Context, userID int64) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count, spent := 0, 0
	for _, p := range m.payments {
		if p.UserID == userID && p.Status == models.PaymentConfirmed {
			count++
			spent += p.Amount
		}
	}
	return count, spent, nil
}

func (m *memPayments) CountPending(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, p := range m.payments {
		if p.Status == models.PaymentPending {
			count++
		}
	}
	return count, nil
}

type memRates struct {
	mu    sync.Mutex
	rates []models.Rate
}

func (m *memRates) List(_ context.Context) ([]models.Rate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rates, nil
}

func (m *memRates) FindByKey(_ context.Context, packageKey string) (*models.Rate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rates {
		if r.PackageKey == packageKey {
			snapshot := r
			return &snapshot, nil
		}
	}
	return nil, nil
}

type memAchievements struct {
	mu       sync.Mutex
	unlocked []models.Achievement
}

func (m *memAchievements) ListByUser(_ context.Context, userID int64) ([]models.Achievement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var mine []models.Achievement
	for _, a := range m.unlocked {
		if a.UserID == userID {
			mine = append(mine, a)
		}
	}
	return mine, nil
}

func (m *memAchievements) Unlock(_ context.Context, userID int64, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.unlocked {
		if a.UserID == userID && a.Name == name {
			return false, nil
		}
	}
	m.unlocked = append(m.unlocked, models.Achievement{UserID: userID, Name: name, UnlockedAt: time.Now()})
	return true, nil
}

type stubOracle struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
}

func (o *stubOracle) Interpret(_ context.Context, _ ohmygpt.Request) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
	return o.response, o.err
}
