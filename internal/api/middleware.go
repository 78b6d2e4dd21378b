package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/mrosiy/tarot-miniapp/internal/initdata"
)

type ctxKey int

const userIDKey ctxKey = iota

func userID(ctx context.Context) int64 {
	id, _ := ctx.Value(userIDKey).(int64)
	return id
}

// cors mirrors the header set the Mini App frontend was shipped against.
// OPTIONS preflights are answered here for any path.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, X-Telegram-Init-Data, X-User-Id, Authorization")
		h.Set("Access-Control-Max-Age", "3600")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) recoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.log.Error("panic in handler", "path", r.URL.Path, "panic", rec)
				s.fail(w, http.StatusInternalServerError, "internal_error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// withIdentity resolves the caller. A verified init data header is the
// production path; the raw id fallbacks only work when ALLOW_DIRECT_USER_ID
// is set, so a production deployment cannot be impersonated with a header.
func (s *Server) withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.resolveIdentity(r)
		if !ok {
			s.fail(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, id)))
	})
}

func (s *Server) resolveIdentity(r *http.Request) (int64, bool) {
	if raw := r.Header.Get("X-Telegram-Init-Data"); raw != "" {
		session, err := initdata.Verify(raw, s.cfg.BotToken)
		if err == nil && session.User != nil {
			return session.User.ID, true
		}
		s.log.Warn("rejected init data", "err", err)
	}
	if s.cfg.AllowDirectUserID {
		if raw := r.Header.Get("X-User-Id"); raw != "" {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
				return id, true
			}
		}
		if raw := r.URL.Query().Get("user_id"); raw != "" {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
				return id, true
			}
		}
	}
	return 0, false
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID(r.Context()) != s.cfg.AdminID {
			s.fail(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}
