// Package initdata verifies Telegram Mini App init data per the official
// scheme: https://core.telegram.org/bots/webapps#validating-data-received-via-the-mini-app
package initdata

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalid = errors.New("init data invalid")
	ErrExpired = errors.New("init data expired")
)

// maxAge is how long a signed session stays acceptable after auth_date.
const maxAge = 24 * time.Hour

// SessionUser is the user object embedded in verified init data.
type SessionUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Session is a verified snapshot of one signed session. It is never persisted
// and is only valid for the lifetime of the request that presented it.
type Session struct {
	User         *SessionUser
	AuthDate     int64
	QueryID      string
	ChatType     string
	ChatInstance string
}

// Verify checks the signature and freshness of raw init data against the bot
// token and returns the parsed session. It is a pure function: any parse
// failure comes back as ErrInvalid, never as a panic.
func Verify(raw, botToken string) (*Session, error) {
	return verifyAt(raw, botToken, time.Now())
}

func verifyAt(raw, botToken string, now time.Time) (*Session, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalid)
	}

	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed query string", ErrInvalid)
	}

	receivedHash := values.Get("hash")
	if receivedHash == "" {
		return nil, fmt.Errorf("%w: missing hash", ErrInvalid)
	}

	pairs := make([]string, 0, len(values))
	for key, vals := range values {
		if key == "hash" || len(vals) == 0 {
			continue
		}
		pairs = append(pairs, key+"="+vals[0])
	}
	sort.Strings(pairs)
	checkString := strings.Join(pairs, "\n")

	secret := hmacSHA256([]byte("WebAppData"), []byte(botToken))
	calculated := hex.EncodeToString(hmacSHA256(secret, []byte(checkString)))

	if !hmac.Equal([]byte(calculated), []byte(receivedHash)) {
		return nil, fmt.Errorf("%w: hash mismatch", ErrInvalid)
	}

	session := &Session{
		QueryID:      values.Get("query_id"),
		ChatType:     values.Get("chat_type"),
		ChatInstance: values.Get("chat_instance"),
	}

	if authDateRaw := values.Get("auth_date"); authDateRaw != "" {
		authDate, err := strconv.ParseInt(authDateRaw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad auth_date", ErrInvalid)
		}
		if now.Unix()-authDate > int64(maxAge.Seconds()) {
			return nil, fmt.Errorf("%w: auth_date %ds old", ErrExpired, now.Unix()-authDate)
		}
		session.AuthDate = authDate
	}

	if userRaw := values.Get("user"); userRaw != "" {
		var user SessionUser
		if err := json.Unmarshal([]byte(userRaw), &user); err != nil {
			return nil, fmt.Errorf("%w: bad user payload", ErrInvalid)
		}
		session.User = &user
	}

	return session, nil
}

func hmacSHA256(key, message []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return mac.Sum(nil)
}
