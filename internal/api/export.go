package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"shop-telegram-bot/internal/logger"
	"shop-telegram-bot/internal/shop"
)

// handleExportOrders streams the full order book as an xlsx workbook.
func (s *Server) handleExportOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.store.ListOrders()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}
	users, err := s.store.ListUsers()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	usernames := make(map[int64]string, len(users))
	for _, u := range users {
		usernames[u.ID] = u.Username
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Orders"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []string{"Order ID", "Date", "Customer", "Status", "Total ($)", "Payment Method", "Payment Ref"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, order := range orders {
		values := []interface{}{
			order.ID,
			order.CreatedAt.Format("2006-01-02 15:04:05"),
			usernames[order.UserID],
			order.Status,
			shop.FormatPrice(order.TotalAmount),
			order.PaymentMethod,
			order.PaymentRef,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		logger.Error("orders export failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to build export")
		return
	}

	filename := fmt.Sprintf("orders_%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.Error("orders export write failed", zap.Error(err))
	}
}
