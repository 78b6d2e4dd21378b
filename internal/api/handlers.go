package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/mrosiy/tarot-miniapp/internal/initdata"
	"github.com/mrosiy/tarot-miniapp/internal/service"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"status":  "ok",
		"message": "API is running",
	})
}

type authRequest struct {
	InitData string `json:"initData"`
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.failMessage(w, http.StatusBadRequest, "validation_error", "invalid json")
		return
	}

	session, err := initdata.Verify(req.InitData, s.cfg.BotToken)
	if err != nil || session.User == nil {
		s.log.Warn("auth rejected", "err", err)
		s.fail(w, http.StatusUnauthorized, "invalid_init_data")
		return
	}

	profile, err := s.users.Authenticate(r.Context(), session.User.ID, session.User.Username, session.User.FirstName, session.User.LastName)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    newAuthUserView(profile),
	})
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	profile, err := s.users.Profile(r.Context(), userID(r.Context()))
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"user":         newUserView(profile),
		"stats":        newStatsView(profile.Stats),
		"level":        newLevelView(profile.Progress.Level),
		"achievements": newAchievementViews(profile.Progress.Unlocked),
	})
}

type readingRequest struct {
	Question    string   `json:"question"`
	CardsCount  int      `json:"cards_count"`
	ReadingType string   `json:"reading_type"`
	UsePremium  bool     `json:"use_premium"`
	Cards       []string `json:"cards" validate:"max=10,dive,required"`
}

func (s *Server) handleReading(w http.ResponseWriter, r *http.Request) {
	var req readingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.failMessage(w, http.StatusBadRequest, "validation_error", "invalid json")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.failValidation(w, err)
		return
	}

	result, err := s.readings.Perform(r.Context(), userID(r.Context()), service.ReadingRequest{
		Question:    req.Question,
		CardsCount:  req.CardsCount,
		ReadingType: req.ReadingType,
		UsePremium:  req.UsePremium,
		Cards:       req.Cards,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"reading": map[string]any{
			"cards":          result.Cards,
			"interpretation": result.Interpretation,
			"reading_type":   result.ReadingType,
			"is_premium":     result.IsPremium,
		},
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 0)
	limit := queryInt(r, "limit", 10)

	result, err := s.history.Page(r.Context(), userID(r.Context()), page, limit)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"history":  newReadingViews(result.Readings),
		"payments": newPaymentViews(result.Payments),
		"pagination": map[string]any{
			"page":        result.Page,
			"limit":       result.Limit,
			"total":       result.Total,
			"total_pages": result.TotalPages,
		},
	})
}

type paymentRequest struct {
	PackageKey string `json:"package_key" validate:"omitempty,max=64"`
}

func (s *Server) handlePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.failMessage(w, http.StatusBadRequest, "validation_error", "invalid json")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.failValidation(w, err)
		return
	}

	intent, err := s.payments.CreateIntent(r.Context(), userID(r.Context()), req.PackageKey)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"payment": map[string]any{
			"url":         intent.URL,
			"label":       intent.Label,
			"amount":      intent.Amount,
			"requests":    intent.Requests,
			"package_key": intent.PackageKey,
		},
	})
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.progress.Snapshot(r.Context(), userID(r.Context()))
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"achievements":     newAchievementViews(snapshot.Unlocked),
		"all_achievements": newCatalogViews(snapshot.Catalog),
		"level":            newLevelView(snapshot.Level),
	})
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	rates, err := s.payments.Rates(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"rates":   newRateViews(rates),
	})
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.admin.Stats(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"stats": map[string]any{
			"total_users":      stats.TotalUsers,
			"active_24h":       stats.Active24h,
			"total_readings":   stats.TotalReadings,
			"readings_24h":     stats.Readings24h,
			"total_payments":   stats.TotalPayments,
			"total_revenue":    stats.TotalRevenue,
			"pending_payments": stats.PendingPayments,
		},
	})
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 0)
	limit := queryInt(r, "limit", 50)

	result, err := s.admin.Users(r.Context(), page, limit)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"users":   newAdminUserViews(result.Users),
		"pagination": map[string]any{
			"page":  result.Page,
			"limit": result.Limit,
			"total": result.Total,
		},
	})
}

type addRequestsRequest struct {
	UserID    int64 `json:"user_id" validate:"required"`
	Amount    *int  `json:"amount"`
	IsPremium *bool `json:"is_premium"`
}

func (s *Server) handleAdminAddRequests(w http.ResponseWriter, r *http.Request) {
	var req addRequestsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.failMessage(w, http.StatusBadRequest, "validation_error", "invalid json")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.failValidation(w, err)
		return
	}

	// Historical defaults: a bare {"user_id": N} grants one premium request.
	amount := 1
	if req.Amount != nil {
		amount = *req.Amount
	}
	premium := true
	if req.IsPremium != nil {
		premium = *req.IsPremium
	}

	if err := s.admin.AddRequests(r.Context(), req.UserID, amount, premium); err != nil {
		s.respondError(w, err)
		return
	}

	kind := "free"
	if premium {
		kind = "premium"
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Added %d %s requests to user %d", amount, kind, req.UserID),
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
