package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"shop-telegram-bot/internal/logger"
	"shop-telegram-bot/internal/shop"
	"shop-telegram-bot/internal/store"
)

// Sender is the slice of the Telegram API the handlers use; tests plug in a
// fake, production plugs in *tgbotapi.BotAPI.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Handler dispatches inbound messages and callback queries to the shop
// workflow and renders the replies.
type Handler struct {
	store   *store.Store
	shop    *shop.Service
	sender  Sender
	limiter *RateLimiter
}

func NewHandler(st *store.Store, svc *shop.Service, sender Sender) *Handler {
	return &Handler{store: st, shop: svc, sender: sender, limiter: NewRateLimiter()}
}

// HandleUpdate is the single entry point for every inbound event. Errors are
// caught and logged here so a bad update can never kill the polling loop.
func (h *Handler) HandleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while handling update", zap.Any("panic", r))
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(update.CallbackQuery)
	case update.Message != nil:
		h.handleMessage(update.Message)
	}
}

func (h *Handler) handleMessage(msg *tgbotapi.Message) {
	if msg.Chat == nil {
		return
	}
	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	user := h.ensureUser(msg.From)
	if user == nil {
		return
	}

	settings, err := h.store.BotSettings()
	if err != nil {
		logger.Error("settings lookup failed", zap.Error(err))
		return
	}
	if settings != nil && settings.Status == store.BotMaintenance {
		h.reply(msg.Chat.ID, "🛠 The shop is under maintenance. Please check back soon.")
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if strings.HasPrefix(text, "/") {
		command := strings.Fields(text)[0]
		if msg.From != nil && h.limiter.IsLimited(msg.From.ID, command) {
			h.reply(msg.Chat.ID, "Please slow down a little and try again in a few seconds.")
			return
		}
		h.dispatchCommand(chatID, msg.Chat.ID, user, command)
		return
	}

	h.handleText(msg.Chat.ID, text)
}

// dispatchCommand routes a literal command through the registry: unknown or
// inactive commands get the static "not available" reply, known ones their
// dedicated handler, any other registered command its stored response text.
func (h *Handler) dispatchCommand(chatID string, chatID64 int64, user *store.User, command string) {
	cmd, err := h.store.BotCommandByLiteral(command)
	if err != nil {
		logger.Error("command lookup failed", zap.String("command", command), zap.Error(err))
		h.reply(chatID64, "😔 Something went wrong. Please try again or contact support.")
		return
	}
	if cmd == nil || !cmd.Active {
		h.reply(chatID64, "Sorry, this command is not available.")
		return
	}

	switch command {
	case "/start":
		h.sendWelcome(chatID64)
	case "/products":
		h.sendProductList(chatID64)
	case "/cart":
		h.sendCart(chatID, chatID64, "")
	case "/checkout":
		h.sendCheckout(chatID, chatID64)
	case "/orders":
		h.sendOrders(chatID64, chatID, user)
	case "/help":
		h.sendHelp(chatID64)
	case "/feedback":
		h.sendFeedback(chatID64)
	default:
		if cmd.ResponseMessage != "" {
			h.reply(chatID64, cmd.ResponseMessage)
		} else {
			h.reply(chatID64, "Command not implemented yet.")
		}
	}
}

func (h *Handler) handleCallback(q *tgbotapi.CallbackQuery) {
	if _, err := h.sender.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		logger.Warn("callback ack failed", zap.Error(err))
	}
	if q.Message == nil || q.Message.Chat == nil || q.Data == "" {
		return
	}

	user := h.ensureUser(q.From)
	if user == nil {
		return
	}
	chatID64 := q.Message.Chat.ID
	chatID := strconv.FormatInt(chatID64, 10)
	data := q.Data

	switch {
	case strings.HasPrefix(data, "product_"):
		id, err := strconv.ParseInt(strings.TrimPrefix(data, "product_"), 10, 64)
		if err != nil {
			return
		}
		h.addToCart(chatID, chatID64, user, id)
	case data == "browse_products":
		h.sendProductList(chatID64)
	case data == "view_cart":
		h.sendCart(chatID, chatID64, "")
	case data == "checkout":
		h.sendCheckout(chatID, chatID64)
	case data == "view_orders":
		h.sendOrders(chatID64, chatID, user)
	case data == "help":
		h.sendHelp(chatID64)
	case data == "feedback":
		h.sendFeedback(chatID64)
	case strings.HasPrefix(data, "remove_item_"):
		id, err := strconv.ParseInt(strings.TrimPrefix(data, "remove_item_"), 10, 64)
		if err != nil {
			return
		}
		if _, err := h.shop.RemoveItem(id); err != nil {
			logger.Error("cart item removal failed", zap.Int64("item", id), zap.Error(err))
		}
		h.sendCart(chatID, chatID64, "Item removed from cart.")
	case strings.HasPrefix(data, "payment_"):
		h.processPayment(chatID, chatID64, strings.TrimPrefix(data, "payment_"))
	case strings.HasPrefix(data, "view_credentials_"):
		id, err := strconv.ParseInt(strings.TrimPrefix(data, "view_credentials_"), 10, 64)
		if err != nil {
			return
		}
		h.sendCredentials(chatID, chatID64, id)
	}
}

// ensureUser auto-registers Telegram users on first contact.
func (h *Handler) ensureUser(from *tgbotapi.User) *store.User {
	if from == nil {
		return nil
	}
	tgID := strconv.FormatInt(from.ID, 10)
	user, err := h.store.UserByTelegramID(tgID)
	if err != nil {
		logger.Error("user lookup failed", zap.Error(err))
		return nil
	}
	if user != nil {
		return user
	}

	username := from.UserName
	if username == "" {
		username = "user_" + tgID
	}
	user = &store.User{
		Username:         username,
		TelegramID:       &tgID,
		TelegramUsername: from.UserName,
		FirstName:        from.FirstName,
		LastName:         from.LastName,
		Role:             "user",
		IsActive:         true,
	}
	if err := h.store.CreateUser(user); err != nil {
		// The Telegram username may collide with a dashboard login.
		user = &store.User{
			Username:         "user_" + tgID,
			TelegramID:       &tgID,
			TelegramUsername: from.UserName,
			FirstName:        from.FirstName,
			LastName:         from.LastName,
			Role:             "user",
			IsActive:         true,
		}
		if err := h.store.CreateUser(user); err != nil {
			logger.Error("user auto-registration failed", zap.String("telegram_id", tgID), zap.Error(err))
			return nil
		}
	}
	return user
}

func (h *Handler) sendWelcome(chatID int64) {
	welcome := "Welcome to our Digital Shop Bot! 👋 I can help you purchase premium digital accounts."
	if settings, err := h.store.BotSettings(); err == nil && settings != nil && settings.WelcomeMessage != "" {
		welcome = settings.WelcomeMessage
	}
	h.replyMarkdown(chatID, welcome, mainMenuKeyboard())
}

func (h *Handler) sendProductList(chatID int64) {
	products, err := h.store.ListProducts(true)
	if err != nil {
		logger.Error("product list failed", zap.Error(err))
		return
	}
	if len(products) == 0 {
		h.reply(chatID, "Sorry, no products are available at the moment.")
		return
	}

	h.replyMarkdown(chatID, "📋 *Available Products:*", nil)
	for i, kb := range productKeyboards(products) {
		text := "Please select a product to add to your cart:"
		if i > 0 {
			text = "More products:"
		}
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ReplyMarkup = kb
		h.send(msg)
	}
}

func (h *Handler) addToCart(chatID string, chatID64 int64, user *store.User, productID int64) {
	product, err := h.shop.AddToCart(chatID, user.ID, productID)
	if errors.Is(err, shop.ErrUnknownProduct) || errors.Is(err, shop.ErrInactiveProduct) {
		h.reply(chatID64, "Sorry, this product is no longer available.")
		return
	}
	if err != nil {
		logger.Error("add to cart failed", zap.Int64("product", productID), zap.Error(err))
		h.reply(chatID64, "😔 Something went wrong. Please try again or contact support.")
		return
	}

	text := fmt.Sprintf("✅ Added *%s (%s)* to your cart for *$%s*.",
		product.Name, product.Description, shop.FormatPrice(product.Price))
	h.replyMarkdown(chatID64, text, afterAddKeyboard())
}

func (h *Handler) sendCart(chatID string, chatID64 int64, prefix string) {
	view, err := h.shop.ViewCart(chatID)
	if err != nil {
		logger.Error("cart view failed", zap.Error(err))
		return
	}
	if view == nil || len(view.Lines) == 0 {
		h.reply(chatID64, "Your cart is empty. Use /products to browse our catalog.")
		return
	}

	text := renderCart(view)
	if prefix != "" {
		text = prefix + "\n\n" + text
	}
	h.replyMarkdown(chatID64, text, cartKeyboard(view))
}

func renderCart(view *shop.CartView) string {
	var b strings.Builder
	b.WriteString("🛒 *Your Shopping Cart:*\n\n")
	for _, line := range view.Lines {
		fmt.Fprintf(&b, "• %s (%s)\n", line.Product.Name, line.Product.Description)
		fmt.Fprintf(&b, "  Quantity: %d\n", line.Item.Quantity)
		fmt.Fprintf(&b, "  Price: $%s\n", shop.FormatPrice(line.Product.Price))
		fmt.Fprintf(&b, "  Subtotal: $%s\n\n", shop.FormatPrice(line.Subtotal))
	}
	fmt.Fprintf(&b, "*Total: $%s*", shop.FormatPrice(view.Total))
	return b.String()
}

func (h *Handler) sendCheckout(chatID string, chatID64 int64) {
	view, err := h.shop.ViewCart(chatID)
	if err != nil {
		logger.Error("cart view failed", zap.Error(err))
		return
	}
	if view == nil || len(view.Lines) == 0 {
		h.reply(chatID64, "Your cart is empty. Use /products to browse our catalog.")
		return
	}

	settings, err := h.store.BotSettings()
	if err != nil || settings == nil {
		return
	}

	text := fmt.Sprintf("🛍️ *Checkout*\n\nTotal amount: *$%s*\n\nPlease select a payment method:",
		shop.FormatPrice(view.Total))
	h.replyMarkdown(chatID64, text, paymentKeyboard(settings.PaymentMethods))
}

// paymentMethodLabel maps a callback slug back to the configured label, so the
// order records "Bank Transfer" rather than "bank_transfer".
func (h *Handler) paymentMethodLabel(slug string) string {
	settings, err := h.store.BotSettings()
	if err == nil && settings != nil {
		for _, method := range settings.PaymentMethods {
			if paymentSlug(method) == slug {
				return method
			}
		}
	}
	return strings.ReplaceAll(slug, "_", " ")
}

func (h *Handler) processPayment(chatID string, chatID64 int64, slug string) {
	method := h.paymentMethodLabel(slug)
	deliver := func(target, text string) error {
		id, err := strconv.ParseInt(target, 10, 64)
		if err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(id, text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		_, err = h.sender.Send(msg)
		return err
	}

	order, err := h.shop.Checkout(chatID, method, deliver)
	var oos *shop.OutOfStockError
	switch {
	case errors.Is(err, shop.ErrEmptyCart):
		h.reply(chatID64, "Your cart is empty. Use /products to browse our catalog.")
	case errors.As(err, &oos):
		h.reply(chatID64, fmt.Sprintf("❌ Sorry, no accounts are available for %s at the moment. Please try again later.", oos.Product))
	case errors.Is(err, shop.ErrDeliveryFailed):
		h.reply(chatID64, "❌ Failed to deliver account credentials. Your cart was kept — please try again or contact support.")
	case err != nil:
		logger.Error("checkout failed", zap.String("chat", chatID), zap.Error(err))
		h.reply(chatID64, "❌ Error processing your order. Please try again later.")
	default:
		msg := tgbotapi.NewMessage(chatID64, fmt.Sprintf("Order #ORD-%d is complete. What would you like to do next?", order.ID))
		msg.ReplyMarkup = postOrderKeyboard()
		h.send(msg)
	}
}

func (h *Handler) sendOrders(chatID64 int64, chatID string, user *store.User) {
	orders, err := h.store.ListUserOrders(user.ID)
	if err != nil {
		logger.Error("order list failed", zap.Error(err))
		return
	}
	if len(orders) == 0 {
		h.reply(chatID64, "You don't have any orders yet. Use /products to browse our catalog.")
		return
	}

	var b strings.Builder
	b.WriteString("📜 *Your Order History:*\n\n")
	var withCredentials []store.Order
	for _, order := range orders {
		fmt.Fprintf(&b, "• Order #%d\n", order.ID)
		fmt.Fprintf(&b, "  Date: %s\n", order.CreatedAt.Format("2006-01-02 15:04"))
		fmt.Fprintf(&b, "  Total: $%s\n", shop.FormatPrice(order.TotalAmount))
		fmt.Fprintf(&b, "  Status: %s\n\n", strings.ToUpper(order.Status))
		if order.Status == store.OrderCompleted && order.AccountCredentials != "" && order.TelegramChatID == chatID {
			withCredentials = append(withCredentials, order)
		}
	}

	kb := ordersKeyboard(withCredentials)
	h.replyMarkdown(chatID64, b.String(), &kb)
}

func (h *Handler) sendCredentials(chatID string, chatID64 int64, orderID int64) {
	order, err := h.store.Order(orderID)
	if err != nil {
		logger.Error("order lookup failed", zap.Int64("order", orderID), zap.Error(err))
		return
	}
	// Only the chat that placed the order may re-read its credentials.
	if order == nil || order.AccountCredentials == "" || order.TelegramChatID != chatID {
		h.reply(chatID64, "Credentials for this order are not available.")
		return
	}

	text := fmt.Sprintf("🔐 *Account Credentials for Order #%d*\n\n```\n%s\n```\n\n⚠️ Keep these credentials safe and do not share them.",
		order.ID, order.AccountCredentials)
	h.replyMarkdown(chatID64, text, nil)
}

func (h *Handler) sendHelp(chatID int64) {
	help := "🤖 *Need help?* Here's how to use our shop:\n\n" +
		"• /products - Browse our catalog of premium accounts\n" +
		"• /cart - View your shopping cart\n" +
		"• /checkout - Complete your purchase\n" +
		"• /orders - View your order history\n\n" +
		"If you need assistance, please contact our support team."
	h.replyMarkdown(chatID, help, helpKeyboard())
}

func (h *Handler) sendFeedback(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "We value your feedback! Please share your thoughts about our bot and service:")
	msg.ReplyMarkup = tgbotapi.ForceReply{ForceReply: true}
	h.send(msg)
}

// handleText handles plain (non-command) text the way a shop assistant would:
// anything that smells like a purchase intent gets the product list.
func (h *Handler) handleText(chatID int64, text string) {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "product") || strings.Contains(lower, "buy") {
		h.sendProductList(chatID)
		return
	}
	h.reply(chatID, "I'm not sure what you mean. Please use one of the following commands:\n\n"+
		"/products - Browse our products\n"+
		"/cart - View your shopping cart\n"+
		"/orders - Check your order history\n"+
		"/help - Get assistance")
}

func (h *Handler) reply(chatID int64, text string) {
	h.send(tgbotapi.NewMessage(chatID, text))
}

func (h *Handler) replyMarkdown(chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if kb != nil {
		msg.ReplyMarkup = *kb
	}
	h.send(msg)
}

func (h *Handler) send(c tgbotapi.Chattable) {
	if _, err := h.sender.Send(c); err != nil {
		logger.Error("message send failed", zap.Error(err))
	}
}
