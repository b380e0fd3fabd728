package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"shop-telegram-bot/internal/shop"
	"shop-telegram-bot/internal/store"
)

func mainMenuKeyboard() *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛍️ Browse Products", "browse_products"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛒 View Cart", "view_cart"),
			tgbotapi.NewInlineKeyboardButtonData("📦 My Orders", "view_orders"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❓ Help", "help"),
			tgbotapi.NewInlineKeyboardButtonData("💬 Feedback", "feedback"),
		),
	)
	return &kb
}

// productKeyboards splits the catalog into keyboards of three rows each so a
// long catalog does not produce one unwieldy message.
func productKeyboards(products []store.Product) []tgbotapi.InlineKeyboardMarkup {
	const perKeyboard = 3

	var keyboards []tgbotapi.InlineKeyboardMarkup
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, p := range products {
		label := fmt.Sprintf("%s - $%s", p.Name, shop.FormatPrice(p.Price))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("product_%d", p.ID)),
		))
		if len(rows) == perKeyboard {
			keyboards = append(keyboards, tgbotapi.NewInlineKeyboardMarkup(rows...))
			rows = nil
		}
	}
	if len(rows) > 0 {
		keyboards = append(keyboards, tgbotapi.NewInlineKeyboardMarkup(rows...))
	}
	return keyboards
}

func afterAddKeyboard() *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛍️ Continue Shopping", "browse_products"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛒 View Cart", "view_cart"),
			tgbotapi.NewInlineKeyboardButtonData("💳 Checkout Now", "checkout"),
		),
	)
	return &kb
}

func cartKeyboard(view *shop.CartView) *tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛍️ Continue Shopping", "browse_products"),
			tgbotapi.NewInlineKeyboardButtonData("💳 Checkout", "checkout"),
		),
	}
	for _, line := range view.Lines {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("❌ Remove %s", line.Product.Name),
				fmt.Sprintf("remove_item_%d", line.Item.ID),
			),
		))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

// paymentSlug is the callback-safe form of a payment method label:
// "Bank Transfer" becomes bank_transfer.
func paymentSlug(method string) string {
	return strings.ToLower(strings.ReplaceAll(method, " ", "_"))
}

// paymentKeyboard turns the configured method names into callback buttons.
func paymentKeyboard(methods []string) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, method := range methods {
		data := "payment_" + paymentSlug(method)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💳 "+method, data),
		))
	}
	if len(rows) == 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💳 Crypto", "payment_crypto"),
		))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func postOrderKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📦 View My Orders", "view_orders"),
			tgbotapi.NewInlineKeyboardButtonData("🛍️ Browse More Products", "browse_products"),
		),
	)
}

// ordersKeyboard offers a credential re-read button per completed order.
func ordersKeyboard(completed []store.Order) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, order := range completed {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("🔐 Credentials for Order #%d", order.ID),
				fmt.Sprintf("view_credentials_%d", order.ID),
			),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🛍️ Browse Products", "browse_products"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func helpKeyboard() *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛍️ Browse Products", "browse_products"),
			tgbotapi.NewInlineKeyboardButtonData("🛒 View Cart", "view_cart"),
		),
	)
	return &kb
}
