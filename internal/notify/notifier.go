// Package notify delivers best-effort bot messages to users. Delivery
// failures are logged, never returned: a blocked bot must not fail the
// operation that triggered the message.
package notify

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mrosiy/tarot-miniapp/internal/models"
)

type Notifier struct {
	bot *tgbotapi.BotAPI
	log *slog.Logger
}

// New builds a notifier around an authorized bot. A nil bot yields a
// notifier that silently drops everything, which keeps the API usable
// when the bot token is missing or Telegram is unreachable at startup.
func New(bot *tgbotapi.BotAPI, log *slog.Logger) *Notifier {
	return &Notifier{bot: bot, log: log}
}

func (n *Notifier) GrantIssued(userID int64, amount int, kind models.RequestKind) {
	var text string
	if kind == models.KindPremium {
		text = fmt.Sprintf("✨ Вам начислены премиум-расклады: %d. Загляните в приложение!", amount)
	} else {
		text = fmt.Sprintf("✨ Вам начислены бесплатные расклады: %d. Загляните в приложение!", amount)
	}
	n.send(userID, text)
}

func (n *Notifier) send(userID int64, text string) {
	if n.bot == nil {
		return
	}
	msg := tgbotapi.NewMessage(userID, text)
	if _, err := n.bot.Send(msg); err != nil {
		n.log.Error("send notification", "user_id", userID, "err", err)
	}
}
