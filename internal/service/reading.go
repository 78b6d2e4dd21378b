package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/mrosiy/tarot-miniapp/internal/models"
	"github.com/mrosiy/tarot-miniapp/internal/ohmygpt"
	"github.com/mrosiy/tarot-miniapp/internal/policy"
	"github.com/mrosiy/tarot-miniapp/internal/tarot"
)

var (
	ErrQuestionRequired  = errors.New("question is required")
	ErrQuestionTooLong   = errors.New("question too long")
	ErrForbiddenTopic    = errors.New("question touches a forbidden topic")
	ErrOracleUnavailable = errors.New("interpretation service unavailable")
)

const maxQuestionRunes = 300

// ReadingService runs one question through the full pipeline: validation,
// policy, balance reservation, card draw, interpretation, commit, history.
type ReadingService struct {
	log      *slog.Logger
	users    UserStore
	ledger   *Ledger
	history  *HistoryService
	progress *ProgressionService
	policy   *policy.Filter
	oracle   Oracle
}

type ReadingRequest struct {
	Question    string
	CardsCount  int
	ReadingType string
	UsePremium  bool
	Cards       []string
}

type ReadingResult struct {
	Cards          []string
	Interpretation string
	ReadingType    string
	IsPremium      bool
}

func NewReadingService(log *slog.Logger, users UserStore, ledger *Ledger, history *HistoryService, progress *ProgressionService, filter *policy.Filter, oracle Oracle) *ReadingService {
	return &ReadingService{
		log:      log,
		users:    users,
		ledger:   ledger,
		history:  history,
		progress: progress,
		policy:   filter,
		oracle:   oracle,
	}
}

// Perform executes a reading. The reserved unit is only spent after the
// oracle produced a usable interpretation; a failed generation leaves the
// balance untouched.
func (s *ReadingService) Perform(ctx context.Context, userID int64, req ReadingRequest) (*ReadingResult, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, ErrQuestionRequired
	}
	if utf8.RuneCountInString(question) > maxQuestionRunes {
		return nil, ErrQuestionTooLong
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if s.policy.IsForbidden(question) {
		if err := s.users.IncrementForbiddenAttempts(ctx, userID); err != nil {
			s.log.Error("failed to count policy violation", "user_id", userID, "err", err)
		}
		return nil, ErrForbiddenTopic
	}

	kind := models.KindFree
	if req.UsePremium {
		kind = models.KindPremium
	}
	reservation, err := s.ledger.Reserve(ctx, userID, kind)
	if err != nil {
		return nil, err
	}

	readingType := req.ReadingType
	if readingType == "" {
		readingType = "classic"
	}

	cards := req.Cards
	if len(cards) == 0 {
		count := req.CardsCount
		if count <= 0 {
			count = tarot.DefaultCards
		}
		if count > tarot.MaxCards {
			count = tarot.MaxCards
		}
		cards = tarot.Draw(count)
	}

	historyContext, err := s.history.RecentContext(ctx, userID, 3)
	if err != nil {
		// Context is a nicety; the reading proceeds without it.
		s.log.Error("failed to load history context", "user_id", userID, "err", err)
		historyContext = ""
	}

	interpretation, err := s.oracle.Interpret(ctx, ohmygpt.Request{
		Question:       question,
		Cards:          cards,
		ReadingType:    readingType,
		IsPremium:      req.UsePremium,
		HistoryContext: historyContext,
		UserID:         userID,
		Username:       user.Username,
	})
	if err != nil {
		s.ledger.Release(reservation)
		s.log.Error("interpretation failed", "user_id", userID, "err", err)
		return nil, ErrOracleUnavailable
	}

	if err := s.ledger.Commit(ctx, reservation); err != nil {
		return nil, err
	}

	reading := &models.Reading{
		UserID:         userID,
		Question:       question,
		Cards:          cards,
		Interpretation: interpretation,
		ReadingType:    readingType,
		IsPremium:      req.UsePremium,
	}
	if err := s.history.Record(ctx, reading); err != nil {
		s.log.Error("failed to record reading", "user_id", userID, "err", err)
	}

	if err := s.progress.Evaluate(ctx, userID); err != nil {
		s.log.Error("failed to evaluate achievements", "user_id", userID, "err", err)
	}

	if err := s.users.TouchActivity(ctx, userID); err != nil {
		s.log.Error("failed to touch activity", "user_id", userID, "err", err)
	}

	return &ReadingResult{
		Cards:          cards,
		Interpretation: interpretation,
		ReadingType:    readingType,
		IsPremium:      req.UsePremium,
	}, nil
}
