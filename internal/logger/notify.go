package logger

import (
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// TelegramSender is the slice of the bot API the notifier needs.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

var (
	notifyMu sync.Mutex
	sender   TelegramSender
	adminID  int64
)

// InitNotifier enables critical alerts to the shop admin's Telegram chat.
// Safe to call again after the bot is restarted with a new token.
func InitNotifier(s TelegramSender, admin int64) {
	notifyMu.Lock()
	defer notifyMu.Unlock()
	sender = s
	adminID = admin
}

// NotifyAdmin sends a critical notification to the admin chat. A no-op when
// the notifier is not configured (demo mode).
func NotifyAdmin(msg string) {
	notifyMu.Lock()
	s, id := sender, adminID
	notifyMu.Unlock()
	if s == nil || id == 0 {
		return
	}
	if _, err := s.Send(tgbotapi.NewMessage(id, "[ALERT] "+msg)); err != nil {
		Error("admin notification failed", zap.Error(err))
	}
}
