package shop

import (
	"errors"
	"strings"
	"testing"
	"time"

	"shop-telegram-bot/internal/store"
)

type fixture struct {
	store *store.Store
	svc   *Service
	user  *store.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.New()
	if err != nil {
		t.Fatalf("store init: %v", err)
	}
	svc := NewService(st)
	svc.RetryDelay = 0

	tgID := "1000"
	user := &store.User{Username: "shopper", TelegramID: &tgID, IsActive: true}
	if err := st.CreateUser(user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return &fixture{store: st, svc: svc, user: user}
}

func (f *fixture) product(t *testing.T, name string, price int64, stock int, creds ...string) *store.Product {
	t.Helper()
	p := &store.Product{Name: name, Description: "test", Price: price, Stock: stock, Active: true}
	if err := f.store.CreateProduct(p); err != nil {
		t.Fatalf("create product: %v", err)
	}
	if len(creds) > 0 {
		if _, err := f.store.AddBulkAccounts(p.ID, creds); err != nil {
			t.Fatalf("add accounts: %v", err)
		}
	}
	return p
}

func okDeliver(chatID, text string) error { return nil }

func TestAddToCartCreatesCartLazily(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Gmail Account", 500, 10, "g:1")

	if _, err := f.svc.AddToCart("1000", f.user.ID, p.ID); err != nil {
		t.Fatalf("add: %v", err)
	}

	view, err := f.svc.ViewCart("1000")
	if err != nil || view == nil {
		t.Fatalf("view: %v, %v", view, err)
	}
	if len(view.Lines) != 1 || view.Total != 500 {
		t.Errorf("unexpected cart: %+v", view)
	}

	// A second add of the same product coalesces instead of duplicating.
	if _, err := f.svc.AddToCart("1000", f.user.ID, p.ID); err != nil {
		t.Fatalf("add again: %v", err)
	}
	view, _ = f.svc.ViewCart("1000")
	if len(view.Lines) != 1 || view.Lines[0].Item.Quantity != 2 || view.Total != 1000 {
		t.Errorf("coalescing failed: %+v", view)
	}
}

func TestAddToCartRejectsUnknownAndInactive(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.AddToCart("1000", f.user.ID, 999); !errors.Is(err, ErrUnknownProduct) {
		t.Errorf("expected ErrUnknownProduct, got %v", err)
	}

	p := f.product(t, "Retired", 100, 0)
	if _, err := f.store.UpdateProduct(p.ID, store.ProductPatch{Active: boolPtr(false)}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := f.svc.AddToCart("1000", f.user.ID, p.ID); !errors.Is(err, ErrInactiveProduct) {
		t.Errorf("expected ErrInactiveProduct, got %v", err)
	}
}

func TestCheckoutHappyPath(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Gmail Account", 500, 5, "gmail:secret")

	if _, err := f.svc.AddToCart("1000", f.user.ID, p.ID); err != nil {
		t.Fatalf("add: %v", err)
	}

	var delivered string
	order, err := f.svc.Checkout("1000", "crypto", func(chatID, text string) error {
		delivered = text
		return nil
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if order.Status != store.OrderCompleted {
		t.Errorf("status: got %q, want completed", order.Status)
	}
	if order.TotalAmount != 500 {
		t.Errorf("total: got %d, want 500", order.TotalAmount)
	}
	if order.AccountCredentials != "gmail:secret" {
		t.Errorf("credentials: got %q", order.AccountCredentials)
	}
	if order.PaymentRef == "" {
		t.Error("payment reference not assigned")
	}
	if !strings.Contains(delivered, "gmail:secret") {
		t.Errorf("delivery message missing credentials: %q", delivered)
	}

	// The account is spent and the cart is gone.
	n, _ := f.store.CountAvailableAccounts(p.ID)
	if n != 0 {
		t.Errorf("account still available after sale: %d", n)
	}
	cart, _ := f.store.CartByChatID("1000")
	if cart != nil {
		t.Errorf("cart survived checkout: %+v", cart)
	}

	items, _ := f.store.OrderItems(order.ID)
	if len(items) != 1 || items[0].Price != 500 {
		t.Errorf("order items: %+v", items)
	}

	reread, _ := f.store.Product(p.ID)
	if reread.Stock != 4 {
		t.Errorf("stock: got %d, want 4", reread.Stock)
	}
}

func TestCheckoutOutOfStockKeepsCart(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Disney+ Premium", 799, 3) // no accounts loaded

	if _, err := f.svc.AddToCart("1000", f.user.ID, p.ID); err != nil {
		t.Fatalf("add: %v", err)
	}

	_, err := f.svc.Checkout("1000", "crypto", okDeliver)
	var oos *OutOfStockError
	if !errors.As(err, &oos) {
		t.Fatalf("expected OutOfStockError, got %v", err)
	}
	if oos.Product != "Disney+ Premium" {
		t.Errorf("error should name the product, got %q", oos.Product)
	}

	view, _ := f.svc.ViewCart("1000")
	if view == nil || len(view.Lines) != 1 {
		t.Errorf("cart should survive a failed checkout: %+v", view)
	}
	orders, _ := f.store.ListOrders()
	if len(orders) != 0 {
		t.Errorf("no order should exist: %+v", orders)
	}
}

func TestCheckoutPartialShortfallRollsBackClaims(t *testing.T) {
	f := newFixture(t)
	stocked := f.product(t, "Gmail Account", 200, 5, "g:1")
	empty := f.product(t, "Xbox Game Pass", 1499, 5)

	if _, err := f.svc.AddToCart("1000", f.user.ID, stocked.ID); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := f.svc.AddToCart("1000", f.user.ID, empty.ID); err != nil {
		t.Fatalf("add: %v", err)
	}

	_, err := f.svc.Checkout("1000", "crypto", okDeliver)
	var oos *OutOfStockError
	if !errors.As(err, &oos) {
		t.Fatalf("expected OutOfStockError, got %v", err)
	}

	// The claim on the stocked line must have been released.
	n, _ := f.store.CountAvailableAccounts(stocked.ID)
	if n != 1 {
		t.Errorf("claimed account not released: %d available, want 1", n)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Checkout("1000", "crypto", okDeliver); !errors.Is(err, ErrEmptyCart) {
		t.Errorf("expected ErrEmptyCart, got %v", err)
	}
}

func TestCheckoutDeliveryFailureCompensates(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Gmail Account", 500, 5, "gmail:secret")

	if _, err := f.svc.AddToCart("1000", f.user.ID, p.ID); err != nil {
		t.Fatalf("add: %v", err)
	}

	attempts := 0
	_, err := f.svc.Checkout("1000", "crypto", func(chatID, text string) error {
		attempts++
		return errors.New("network down")
	})
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
	if attempts != f.svc.DeliveryAttempts {
		t.Errorf("attempts: got %d, want %d", attempts, f.svc.DeliveryAttempts)
	}

	// Account back in the pool, order marked failed with no credentials,
	// cart untouched so the buyer can retry.
	n, _ := f.store.CountAvailableAccounts(p.ID)
	if n != 1 {
		t.Errorf("account not released: %d available, want 1", n)
	}
	orders, _ := f.store.ListOrders()
	if len(orders) != 1 {
		t.Fatalf("orders: %+v", orders)
	}
	if orders[0].Status != store.OrderFailed || orders[0].AccountCredentials != "" {
		t.Errorf("failed order state: %+v", orders[0])
	}
	cart, _ := f.store.CartByChatID("1000")
	if cart == nil {
		t.Error("cart should survive a failed delivery")
	}
}

func TestDeliveryRetrySleepsOnlyBetweenAttempts(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Gmail Account", 500, 5, "gmail:secret")

	if _, err := f.svc.AddToCart("1000", f.user.ID, p.ID); err != nil {
		t.Fatalf("add: %v", err)
	}

	f.svc.RetryDelay = 100 * time.Millisecond
	start := time.Now()
	_, err := f.svc.Checkout("1000", "crypto", func(chatID, text string) error {
		return errors.New("network down")
	})
	elapsed := time.Since(start)

	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
	// Three attempts mean two gaps; a third sleep would only delay the
	// failure message.
	if elapsed < 2*f.svc.RetryDelay {
		t.Errorf("retries too fast: %v", elapsed)
	}
	if elapsed >= 3*f.svc.RetryDelay {
		t.Errorf("slept after the final attempt: %v", elapsed)
	}
}

func TestCheckoutRacedCompletionReturnsError(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Gmail Account", 500, 5, "gmail:secret")

	if _, err := f.svc.AddToCart("1000", f.user.ID, p.ID); err != nil {
		t.Fatalf("add: %v", err)
	}

	// Another writer wins the credential write between delivery and
	// completion; checkout must report that instead of returning nothing.
	order, err := f.svc.Checkout("1000", "crypto", func(chatID, text string) error {
		orders, err := f.store.ListOrders()
		if err != nil || len(orders) != 1 {
			t.Fatalf("in-flight order: %v, %v", orders, err)
		}
		if _, err := f.store.CompleteOrder(orders[0].ID, "raced:creds"); err != nil {
			t.Fatalf("racing completion: %v", err)
		}
		return nil
	})
	if err == nil {
		t.Fatal("expected an error when credentials were already recorded")
	}
	if order != nil {
		t.Errorf("no order should be returned, got %+v", order)
	}

	reread, _ := f.store.ListOrders()
	if len(reread) != 1 || reread[0].AccountCredentials != "raced:creds" {
		t.Errorf("first credential write should stand: %+v", reread)
	}
}

func TestCheckoutRecordsMethodVerbatim(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Gmail Account", 500, 5, "gmail:secret")

	if _, err := f.svc.AddToCart("1000", f.user.ID, p.ID); err != nil {
		t.Fatalf("add: %v", err)
	}

	order, err := f.svc.Checkout("1000", "Bank Transfer", okDeliver)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if order.PaymentMethod != "Bank Transfer" {
		t.Errorf("payment method: got %q, want %q", order.PaymentMethod, "Bank Transfer")
	}
}

func TestViewCartDropsDeletedProducts(t *testing.T) {
	f := newFixture(t)
	keep := f.product(t, "Gmail Account", 200, 5, "g:1")
	gone := f.product(t, "Vanished", 999, 5, "v:1")

	if _, err := f.svc.AddToCart("1000", f.user.ID, keep.ID); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := f.svc.AddToCart("1000", f.user.ID, gone.ID); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := f.store.DeleteProduct(gone.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	view, err := f.svc.ViewCart("1000")
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if len(view.Lines) != 1 || view.Total != 200 {
		t.Errorf("deleted product should be dropped from view: %+v", view)
	}
}

func TestFormatPrice(t *testing.T) {
	cases := map[int64]string{
		0:    "0.00",
		5:    "0.05",
		200:  "2.00",
		1199: "11.99",
		5299: "52.99",
	}
	for amount, want := range cases {
		if got := FormatPrice(amount); got != want {
			t.Errorf("FormatPrice(%d) = %q, want %q", amount, got, want)
		}
	}
}

func boolPtr(v bool) *bool { return &v }
