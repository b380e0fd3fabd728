package shop

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shop-telegram-bot/internal/logger"
	"shop-telegram-bot/internal/store"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrDeliveryFailed  = errors.New("credential delivery failed")
	ErrUserNotFound    = errors.New("user not found")
	ErrUnknownProduct  = errors.New("product not found")
	ErrInactiveProduct = errors.New("product is not for sale")
)

// OutOfStockError names the product whose credential pool ran dry so the bot
// can tell the buyer which line blocked the checkout.
type OutOfStockError struct {
	Product string
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("no accounts available for %s", e.Product)
}

// DeliverFunc hands the confirmation text (including credentials) to the
// buyer's chat. Checkout retries it before declaring the delivery failed.
type DeliverFunc func(chatID, text string) error

// Service implements the cart-to-order-to-delivery workflow on top of the
// entity store. Construct one per process; it holds no state of its own.
type Service struct {
	store *store.Store

	// Delivery retry policy for the credential message.
	DeliveryAttempts int
	RetryDelay       time.Duration
}

func NewService(st *store.Store) *Service {
	return &Service{
		store:            st,
		DeliveryAttempts: 3,
		RetryDelay:       2 * time.Second,
	}
}

// AddToCart finds or creates the chat's cart and adds one unit of the
// product, coalescing quantity with any existing line.
func (s *Service) AddToCart(chatID string, userID, productID int64) (*store.Product, error) {
	product, err := s.store.Product(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrUnknownProduct
	}
	if !product.Active {
		return nil, ErrInactiveProduct
	}

	cart, err := s.store.CartByChatID(chatID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		cart = &store.Cart{UserID: userID, TelegramChatID: chatID}
		if err := s.store.CreateCart(cart); err != nil {
			return nil, err
		}
	}

	if _, err := s.store.AddCartItem(cart.ID, productID, 1); err != nil {
		return nil, err
	}
	return product, nil
}

// RemoveItem deletes a cart line; no effect if it is already gone.
func (s *Service) RemoveItem(itemID int64) (bool, error) {
	return s.store.RemoveCartItem(itemID)
}

// CartLine pairs a cart item with its live product.
type CartLine struct {
	Item     store.CartItem
	Product  store.Product
	Subtotal int64
}

type CartView struct {
	Cart  *store.Cart
	Lines []CartLine
	Total int64
}

// ViewCart assembles the chat's cart. Lines whose product has been deleted
// from the catalog are silently dropped from the view and the total.
func (s *Service) ViewCart(chatID string) (*CartView, error) {
	cart, err := s.store.CartByChatID(chatID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, nil
	}

	items, err := s.store.CartItems(cart.ID)
	if err != nil {
		return nil, err
	}

	view := &CartView{Cart: cart}
	for _, item := range items {
		product, err := s.store.Product(item.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			continue
		}
		subtotal := product.Price * int64(item.Quantity)
		view.Lines = append(view.Lines, CartLine{Item: item, Product: *product, Subtotal: subtotal})
		view.Total += subtotal
	}
	return view, nil
}

// Checkout turns the chat's cart into a completed order. The payment itself
// is simulated; a uuid reference stands in for a processor transaction id.
//
// Every cart line is fulfilled: quantity accounts are claimed atomically per
// line. If any line cannot be fully satisfied the claims are rolled back, no
// order is created and the cart survives so the buyer can retry. After the
// order is recorded the credential message is sent with retries; if delivery
// ultimately fails the accounts are released, the order is marked failed and
// the cart is kept. Only a successful delivery deletes the cart.
func (s *Service) Checkout(chatID, method string, deliver DeliverFunc) (*store.Order, error) {
	view, err := s.ViewCart(chatID)
	if err != nil {
		return nil, err
	}
	if view == nil || len(view.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	user, err := s.store.User(view.Cart.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	claimed, err := s.claimAll(view.Lines, user.ID)
	if err != nil {
		return nil, err
	}

	order := &store.Order{
		UserID:         user.ID,
		Status:         store.OrderProcessing,
		TotalAmount:    view.Total,
		TelegramChatID: chatID,
		PaymentMethod:  method,
		PaymentRef:     uuid.NewString(),
	}
	if err := s.store.CreateOrder(order); err != nil {
		s.releaseAll(claimed)
		return nil, err
	}

	for _, line := range view.Lines {
		if err := s.store.CreateOrderItem(&store.OrderItem{
			OrderID:   order.ID,
			ProductID: line.Product.ID,
			Quantity:  line.Item.Quantity,
			Price:     line.Product.Price,
		}); err != nil {
			logger.Error("order item write failed", zap.Int64("order", order.ID), zap.Error(err))
		}
		newStock := line.Product.Stock - line.Item.Quantity
		if newStock < 0 {
			newStock = 0
		}
		if _, err := s.store.UpdateProduct(line.Product.ID, store.ProductPatch{Stock: &newStock}); err != nil {
			logger.Error("stock update failed", zap.Int64("product", line.Product.ID), zap.Error(err))
		}
	}

	for _, acc := range claimed {
		if err := s.store.AttachAccountToOrder(acc.ID, order.ID); err != nil {
			logger.Error("account attach failed", zap.Int64("account", acc.ID), zap.Error(err))
		}
	}

	credentials := joinCredentials(claimed)
	if err := s.deliverWithRetry(chatID, order, credentials, deliver); err != nil {
		// Best-effort compensation: the buyer never saw the credentials, so
		// the accounts go back into the pool and the order is a dud.
		s.releaseAll(claimed)
		if _, uerr := s.store.UpdateOrderStatus(order.ID, store.OrderFailed); uerr != nil {
			logger.Error("order status update failed", zap.Int64("order", order.ID), zap.Error(uerr))
		}
		logger.NotifyAdmin(fmt.Sprintf("Credential delivery failed for order #%d (chat %s)", order.ID, chatID))
		return nil, err
	}

	completed, err := s.store.CompleteOrder(order.ID, credentials)
	if err != nil {
		return nil, err
	}
	if completed == nil {
		return nil, fmt.Errorf("order %d already has credentials recorded", order.ID)
	}
	if _, err := s.store.DeleteCart(view.Cart.ID); err != nil {
		logger.Error("cart cleanup failed", zap.Int64("cart", view.Cart.ID), zap.Error(err))
	}
	return completed, nil
}

// claimAll reserves quantity accounts per line, rolling every claim back if
// any line cannot be fully satisfied.
func (s *Service) claimAll(lines []CartLine, userID int64) ([]store.Account, error) {
	var claimed []store.Account
	for _, line := range lines {
		for i := 0; i < line.Item.Quantity; i++ {
			acc, err := s.store.ClaimAccount(line.Product.ID, userID)
			if err != nil {
				s.releaseAll(claimed)
				if errors.Is(err, store.ErrOutOfStock) {
					return nil, &OutOfStockError{Product: line.Product.Name}
				}
				return nil, err
			}
			claimed = append(claimed, *acc)
		}
	}
	return claimed, nil
}

func (s *Service) releaseAll(accounts []store.Account) {
	for _, acc := range accounts {
		if err := s.store.ReleaseAccount(acc.ID); err != nil {
			logger.Error("account release failed", zap.Int64("account", acc.ID), zap.Error(err))
		}
	}
}

func (s *Service) deliverWithRetry(chatID string, order *store.Order, credentials string, deliver DeliverFunc) error {
	text := fmt.Sprintf(
		"✅ *Order Confirmed!*\n\nOrder ID: #ORD-%d\nTotal: $%s\nPayment Method: %s\n\nYour account credentials:\n```\n%s\n```\n\n⚠️ Please save these credentials securely. Thank you for your purchase!",
		order.ID, FormatPrice(order.TotalAmount), order.PaymentMethod, credentials,
	)

	var lastErr error
	for attempt := 1; attempt <= s.DeliveryAttempts; attempt++ {
		if err := deliver(chatID, text); err != nil {
			lastErr = err
			logger.Warn("credential delivery attempt failed",
				zap.Int64("order", order.ID), zap.Int("attempt", attempt), zap.Error(err))
			if attempt < s.DeliveryAttempts {
				time.Sleep(s.RetryDelay)
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrDeliveryFailed, s.DeliveryAttempts, lastErr)
}

func joinCredentials(accounts []store.Account) string {
	creds := make([]string, len(accounts))
	for i, acc := range accounts {
		creds[i] = acc.Credentials
	}
	return strings.Join(creds, "\n")
}

// FormatPrice renders minor currency units as a dollar string: 1199 -> "11.99".
func FormatPrice(amount int64) string {
	return fmt.Sprintf("%d.%02d", amount/100, amount%100)
}
