package services

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"shop-telegram-bot/internal/logger"
	"shop-telegram-bot/internal/store"
)

// NotifyLowStock alerts the admin about active products whose credential pool
// is empty. Scheduled periodically from main.
func NotifyLowStock(st *store.Store) {
	products, err := st.ListProducts(true)
	if err != nil {
		logger.Error("low stock check failed", zap.Error(err))
		return
	}

	var depleted []string
	for _, p := range products {
		n, err := st.CountAvailableAccounts(p.ID)
		if err != nil {
			logger.Error("account count failed", zap.Int64("product", p.ID), zap.Error(err))
			continue
		}
		if n == 0 {
			depleted = append(depleted, p.Name)
		}
	}
	if len(depleted) == 0 {
		return
	}

	logger.Warn("products out of deliverable accounts", zap.Strings("products", depleted))
	logger.NotifyAdmin(fmt.Sprintf("Out of stock: %s. Add accounts to keep selling.", strings.Join(depleted, ", ")))
}
