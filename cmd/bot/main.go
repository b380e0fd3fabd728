package main

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"shop-telegram-bot/config"
	"shop-telegram-bot/internal/api"
	"shop-telegram-bot/internal/bot"
	"shop-telegram-bot/internal/logger"
	"shop-telegram-bot/internal/services"
	"shop-telegram-bot/internal/shop"
	"shop-telegram-bot/internal/store"
)

func main() {
	defer logger.Sync()

	cfg := config.Load()

	st, err := store.New()
	if err != nil {
		logger.Error("store initialization failed", zap.Error(err))
		return
	}
	if err := st.SeedDefaults(cfg.BotToken); err != nil {
		logger.Error("seeding failed", zap.Error(err))
		return
	}
	if cfg.SeedFile != "" {
		catalog, err := store.LoadSeedCatalog(cfg.SeedFile)
		if err != nil {
			logger.Error("seed catalog load failed", zap.String("path", cfg.SeedFile), zap.Error(err))
			return
		}
		if err := st.ApplySeedCatalog(catalog); err != nil {
			logger.Error("seed catalog apply failed", zap.Error(err))
			return
		}
		logger.Info("seed catalog applied", zap.String("path", cfg.SeedFile))
	}

	svc := shop.NewService(st)
	manager := bot.NewManager(st, svc, cfg.AdminTelegramID)
	if err := manager.Start(); err != nil {
		logger.Error("bot start failed", zap.Error(err))
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@every 15m", func() { services.NotifyLowStock(st) }); err != nil {
		logger.Error("low stock schedule failed", zap.Error(err))
	}
	if _, err := scheduler.AddFunc("0 9 * * *", func() { services.SendDailySummary(st) }); err != nil {
		logger.Error("daily summary schedule failed", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	server := api.NewServer(cfg.HTTPAddr, st, manager, cfg.SessionSecret)
	if err := server.Run(); err != nil {
		logger.Error("dashboard server stopped", zap.Error(err))
	}
}
