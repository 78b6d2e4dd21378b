package service

import (
	"context"
	"log/slog"

	"github.com/mrosiy/tarot-miniapp/internal/config"
	"github.com/mrosiy/tarot-miniapp/internal/models"
)

type UserService struct {
	cfg      config.Config
	log      *slog.Logger
	users    UserStore
	history  *HistoryService
	progress *ProgressionService
}

// Profile is the full user view the client renders: identity, balances,
// reading stats, level and achievements.
type Profile struct {
	User     *models.User
	Stats    *models.UserStats
	Progress *Snapshot
	Created  bool
}

func NewUserService(cfg config.Config, log *slog.Logger, users UserStore, history *HistoryService, progress *ProgressionService) *UserService {
	return &UserService{
		cfg:      cfg,
		log:      log,
		users:    users,
		history:  history,
		progress: progress,
	}
}

// Authenticate resolves a verified session to a stored user, creating one
// with the joining balance on first contact.
func (s *UserService) Authenticate(ctx context.Context, userID int64, username, firstName, lastName string) (*Profile, error) {
	user, created, err := s.users.Ensure(ctx, userID, username, firstName, lastName, s.cfg.FreeRequestsOnJoin)
	if err != nil {
		return nil, err
	}
	if created {
		s.log.Info("user registered", "user_id", userID, "username", username)
		if err := s.progress.AwardOnJoin(ctx, userID); err != nil {
			s.log.Error("failed to award join achievement", "user_id", userID, "err", err)
		}
	}
	if err := s.users.TouchActivity(ctx, userID); err != nil {
		s.log.Error("failed to touch activity", "user_id", userID, "err", err)
	}

	profile, err := s.profileFor(ctx, user)
	if err != nil {
		return nil, err
	}
	profile.Created = created
	return profile, nil
}

// Profile loads the view for an existing user. Achievement rules are
// re-evaluated here so externally driven milestones (referrals, purchases)
// surface without requiring a reading.
func (s *UserService) Profile(ctx context.Context, userID int64) (*Profile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if err := s.progress.Evaluate(ctx, userID); err != nil {
		s.log.Error("failed to evaluate achievements", "user_id", userID, "err", err)
	}
	return s.profileFor(ctx, user)
}

func (s *UserService) profileFor(ctx context.Context, user *models.User) (*Profile, error) {
	stats, err := s.history.Stats(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	progress, err := s.progress.Snapshot(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: user, Stats: stats, Progress: progress}, nil
}
