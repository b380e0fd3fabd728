package services

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"shop-telegram-bot/internal/logger"
	"shop-telegram-bot/internal/shop"
	"shop-telegram-bot/internal/store"
)

// SendDailySummary reports the last 24 hours of trading to the admin chat.
func SendDailySummary(st *store.Store) {
	orders, err := st.OrdersCreatedSince(time.Now().Add(-24 * time.Hour))
	if err != nil {
		logger.Error("daily summary failed", zap.Error(err))
		return
	}

	var completed int
	var revenue int64
	for _, o := range orders {
		if o.Status == store.OrderCompleted {
			completed++
			revenue += o.TotalAmount
		}
	}

	logger.NotifyAdmin(fmt.Sprintf(
		"Daily summary: %d orders (%d completed), revenue $%s.",
		len(orders), completed, shop.FormatPrice(revenue),
	))
}
