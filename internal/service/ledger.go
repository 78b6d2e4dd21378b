package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrosiy/tarot-miniapp/internal/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserBanned        = errors.New("user is banned")
	ErrRulesNotAccepted  = errors.New("rules not accepted")
	ErrNoFreeRequests    = errors.New("no free requests left")
	ErrNoPremiumRequests = errors.New("no premium requests left")
	ErrReservationDone   = errors.New("reservation already finished")
)

// BalanceStore is the slice of user storage the ledger needs.
type BalanceStore interface {
	FindByID(ctx context.Context, userID int64) (*models.User, error)
	ConsumeRequest(ctx context.Context, userID int64, kind models.RequestKind) (bool, error)
	AddRequests(ctx context.Context, userID int64, amount int, kind models.RequestKind) error
}

// Ledger meters free and premium request balances. Spending is two-phase:
// Reserve up front, Commit only after generation produced something usable,
// Release to walk away without spending. The reserve check is optimistic;
// the commit decrement is conditional in the database and is what actually
// prevents overdraw under concurrency.
type Ledger struct {
	users BalanceStore
}

func NewLedger(users BalanceStore) *Ledger {
	return &Ledger{users: users}
}

// Reservation is a claim on one unit of a single user's balance. It belongs
// to one request and is not safe for concurrent use.
type Reservation struct {
	UserID int64
	Kind   models.RequestKind
	done   bool
}

// Reserve checks the user may spend a unit of the declared kind. It never
// substitutes kinds and never mutates the balance.
func (l *Ledger) Reserve(ctx context.Context, userID int64, kind models.RequestKind) (*Reservation, error) {
	user, err := l.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.IsBanned {
		return nil, ErrUserBanned
	}
	if !user.AgreedRules {
		return nil, ErrRulesNotAccepted
	}

	switch kind {
	case models.KindPremium:
		if user.PremiumRequests <= 0 {
			return nil, ErrNoPremiumRequests
		}
	case models.KindFree:
		if user.RequestsLeft <= 0 {
			return nil, ErrNoFreeRequests
		}
	default:
		return nil, fmt.Errorf("unknown request kind %q", kind)
	}

	return &Reservation{UserID: userID, Kind: kind}, nil
}

// Commit spends the reserved unit. A balance that raced to zero since
// Reserve surfaces as the same kind-specific insufficiency error.
func (l *Ledger) Commit(ctx context.Context, res *Reservation) error {
	if res == nil || res.done {
		return ErrReservationDone
	}
	res.done = true

	ok, err := l.users.ConsumeRequest(ctx, res.UserID, res.Kind)
	if err != nil {
		return err
	}
	if !ok {
		return insufficiencyFor(res.Kind)
	}
	return nil
}

// Release abandons the reservation. The balance was never touched, so there
// is nothing to roll back.
func (l *Ledger) Release(res *Reservation) {
	if res != nil {
		res.done = true
	}
}

// Grant tops up a balance. Negative amounts clamp at zero.
func (l *Ledger) Grant(ctx context.Context, userID int64, amount int, kind models.RequestKind) error {
	return l.users.AddRequests(ctx, userID, amount, kind)
}

func insufficiencyFor(kind models.RequestKind) error {
	if kind == models.KindPremium {
		return ErrNoPremiumRequests
	}
	return ErrNoFreeRequests
}
