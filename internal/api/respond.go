package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mrosiy/tarot-miniapp/internal/service"
)

const forbiddenTopicsMessage = "Вопрос содержит запрещённые темы. Пожалуйста, избегайте вопросов о болезнях, смерти и других деликатных тем."

type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) fail(w http.ResponseWriter, status int, code string) {
	s.writeJSON(w, status, envelope{Success: false, Error: code})
}

func (s *Server) failMessage(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, envelope{Success: false, Error: code, Message: message})
}

// respondError translates service errors into the envelope codes the
// frontend switches on. Anything unrecognized is logged and reported as a
// generic internal error.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		s.fail(w, http.StatusNotFound, "user_not_found")
	case errors.Is(err, service.ErrUserBanned):
		s.fail(w, http.StatusForbidden, "user_banned")
	case errors.Is(err, service.ErrRulesNotAccepted):
		s.fail(w, http.StatusForbidden, "rules_not_accepted")
	case errors.Is(err, service.ErrQuestionRequired):
		s.fail(w, http.StatusBadRequest, "question_required")
	case errors.Is(err, service.ErrQuestionTooLong):
		s.fail(w, http.StatusBadRequest, "question_too_long")
	case errors.Is(err, service.ErrForbiddenTopic):
		s.failMessage(w, http.StatusBadRequest, "forbidden_keywords", forbiddenTopicsMessage)
	case errors.Is(err, service.ErrNoFreeRequests):
		s.fail(w, http.StatusBadRequest, "no_free_requests")
	case errors.Is(err, service.ErrNoPremiumRequests):
		s.fail(w, http.StatusBadRequest, "no_premium_requests")
	case errors.Is(err, service.ErrUnknownPackage):
		s.fail(w, http.StatusBadRequest, "invalid_package")
	case errors.Is(err, service.ErrOracleUnavailable):
		s.fail(w, http.StatusServiceUnavailable, "ai_service_unavailable")
	default:
		s.log.Error("handler error", "err", err)
		s.fail(w, http.StatusInternalServerError, "internal_error")
	}
}

func (s *Server) failValidation(w http.ResponseWriter, err error) {
	s.failMessage(w, http.StatusBadRequest, "validation_error", validationMessage(err))
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
