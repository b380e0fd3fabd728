package bot

import (
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"shop-telegram-bot/config"
	"shop-telegram-bot/internal/logger"
	"shop-telegram-bot/internal/shop"
	"shop-telegram-bot/internal/store"
)

// Manager owns the polling lifecycle so the dashboard can stop and restart
// the bot after a token or status change without touching the rest of the
// process.
type Manager struct {
	mu      sync.Mutex
	store   *store.Store
	shop    *shop.Service
	adminID int64
	api     *tgbotapi.BotAPI
	running bool
}

func NewManager(st *store.Store, svc *shop.Service, adminID int64) *Manager {
	return &Manager{store: st, shop: svc, adminID: adminID}
}

// Start begins long polling when the stored settings allow it. A missing or
// invalid token is not an error: the shop keeps running in demo mode with
// only the dashboard active.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil
	}

	settings, err := m.store.BotSettings()
	if err != nil {
		return err
	}
	if settings == nil || !config.ValidBotToken(settings.Token) {
		logger.Info("valid bot token not provided, running in demo mode")
		return nil
	}
	if settings.Status != store.BotActive {
		logger.Info("bot polling disabled", zap.String("status", settings.Status))
		return nil
	}

	api, err := tgbotapi.NewBotAPI(settings.Token)
	if err != nil {
		logger.Error("bot initialization failed, running in demo mode", zap.Error(err))
		return nil
	}
	m.api = api

	// Rebind the admin notifier to the fresh client so alerts keep flowing
	// after a token change or a demo-mode start brought live by the dashboard.
	if m.adminID != 0 {
		logger.InitNotifier(api, m.adminID)
	}

	handler := NewHandler(m.store, m.shop, api)
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)
	m.running = true
	logger.Info("bot polling started", zap.String("account", api.Self.UserName))

	go func() {
		for update := range updates {
			handler.HandleUpdate(update)
		}
	}()
	return nil
}

func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.api.StopReceivingUpdates()
	m.running = false
	logger.Info("bot polling stopped")
}

// Restart picks up new settings after the dashboard changes token or status.
func (m *Manager) Restart() error {
	m.Stop()
	return m.Start()
}

func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// API exposes the underlying client for the admin notifier; nil in demo mode.
func (m *Manager) API() *tgbotapi.BotAPI {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.api
}
