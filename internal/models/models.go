package models

import "time"

// RequestKind selects which balance a reading is paid from. The caller
// declares the kind explicitly; the ledger never substitutes one for the
// other.
type RequestKind string

const (
	KindFree    RequestKind = "free"
	KindPremium RequestKind = "premium"
)

// Payment status values. An intent is created pending and only ever moves
// forward; the transition is performed by the settlement collaborator.
const (
	PaymentPending   = "pending"
	PaymentConfirmed = "confirmed"
	PaymentFailed    = "failed"
)

// User is keyed by the Telegram user id. Created on first verified session,
// never deleted.
type User struct {
	ID                int64
	Username          string
	FirstName         string
	LastName          string
	RequestsLeft      int
	PremiumRequests   int
	IsBanned          bool
	AgreedRules       bool
	ReferralsCount    int
	ForbiddenAttempts int
	LastActivity      time.Time
	CreatedAt         time.Time
}

// Reading is one completed question→interpretation transaction. Append-only.
type Reading struct {
	ID             int64
	UserID         int64
	Question       string
	Cards          []string
	Interpretation string
	ReadingType    string
	IsPremium      bool
	CreatedAt      time.Time
}

// Payment is a pending-first intent row. Label is globally unique and ties
// the intent to its eventual settlement confirmation.
type Payment struct {
	ID         int64
	UserID     int64
	Label      string
	PackageKey string
	Amount     int
	Requests   int
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Rate is one purchasable package from the catalog.
type Rate struct {
	PackageKey string
	Requests   int
	Price      int
	Label      string
}

// Achievement is an unlocked milestone for a user.
type Achievement struct {
	UserID     int64
	Name       string
	UnlockedAt time.Time
}

// LevelInfo is the derived progression snapshot for a user.
type LevelInfo struct {
	Level         int
	Experience    int
	TotalReadings int
	NextLevelAt   int
}

// UserStats aggregates a user's reading and purchase history.
type UserStats struct {
	TotalReadings   int
	PremiumReadings int
	TotalSpent      int
	LastReadingAt   *time.Time
}
