package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strconv"
	"testing"

	"shop-telegram-bot/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *http.Client, *store.Store) {
	t.Helper()
	st, err := store.New()
	if err != nil {
		t.Fatalf("store init: %v", err)
	}
	if err := st.SeedDefaults("123456789:ABCDEF-secret-token"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	srv := httptest.NewServer(NewServer("", st, nil, "test-secret").Router())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return srv, &http.Client{Jar: jar}, st
}

func doJSON(t *testing.T, client *http.Client, method, url string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func login(t *testing.T, client *http.Client, base string) {
	t.Helper()
	resp := doJSON(t, client, http.MethodPost, base+"/api/register",
		map[string]string{"username": "admin", "password": "hunter22"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: status %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAuthFlow(t *testing.T) {
	srv, client, _ := newTestServer(t)

	// Protected routes reject anonymous requests.
	resp, err := http.Get(srv.URL + "/api/products")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("anonymous access: status %d, want 401", resp.StatusCode)
	}

	login(t, client, srv.URL)

	var user store.User
	resp = doJSON(t, client, http.MethodGet, srv.URL+"/api/user", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("current user: status %d", resp.StatusCode)
	}
	decode(t, resp, &user)
	if user.Username != "admin" {
		t.Errorf("username: got %q", user.Username)
	}

	// Duplicate registration is rejected.
	resp = doJSON(t, client, http.MethodPost, srv.URL+"/api/register",
		map[string]string{"username": "admin", "password": "other"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate register: status %d, want 409", resp.StatusCode)
	}

	// Wrong password fails, right one succeeds.
	resp = doJSON(t, client, http.MethodPost, srv.URL+"/api/login",
		map[string]string{"username": "admin", "password": "wrong"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad login: status %d, want 401", resp.StatusCode)
	}
	resp = doJSON(t, client, http.MethodPost, srv.URL+"/api/login",
		map[string]string{"username": "admin", "password": "hunter22"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("login: status %d, want 200", resp.StatusCode)
	}
}

func TestProductEndpoints(t *testing.T) {
	srv, client, _ := newTestServer(t)
	login(t, client, srv.URL)

	var created store.Product
	resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/products",
		map[string]interface{}{"name": "Spotify Premium", "description": "1 Month", "price": 499, "active": true})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d", resp.StatusCode)
	}
	decode(t, resp, &created)
	if created.ID == 0 {
		t.Fatal("created product has no id")
	}

	// Partial update touches only the provided fields.
	var updated store.Product
	resp = doJSON(t, client, http.MethodPut, srv.URL+"/api/products/"+itoa(created.ID),
		map[string]interface{}{"price": 599})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: status %d", resp.StatusCode)
	}
	decode(t, resp, &updated)
	if updated.Price != 599 || updated.Name != "Spotify Premium" {
		t.Errorf("patch result: %+v", updated)
	}

	resp = doJSON(t, client, http.MethodGet, srv.URL+"/api/products/99999", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing product: status %d, want 404", resp.StatusCode)
	}

	resp = doJSON(t, client, http.MethodDelete, srv.URL+"/api/products/"+itoa(created.ID), nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete: status %d, want 204", resp.StatusCode)
	}
}

func TestAccountUpload(t *testing.T) {
	srv, client, st := newTestServer(t)
	login(t, client, srv.URL)

	products, _ := st.ListProducts(true)
	p := products[0]

	// Newline separated textarea form.
	resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/products/"+itoa(p.ID)+"/accounts",
		map[string]string{"credentials": "one:pass\ntwo:pass\n\n"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload: status %d", resp.StatusCode)
	}
	var accounts []store.Account
	decode(t, resp, &accounts)
	if len(accounts) != 2 {
		t.Errorf("accounts created: got %d, want 2", len(accounts))
	}

	// JSON list form.
	resp = doJSON(t, client, http.MethodPost, srv.URL+"/api/products/"+itoa(p.ID)+"/accounts",
		map[string]interface{}{"credentials": []string{"three:pass"}})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload list: status %d", resp.StatusCode)
	}

	n, _ := st.CountAvailableAccounts(p.ID)
	if n != 3 {
		t.Errorf("available accounts: got %d, want 3", n)
	}
}

func TestBotSettingsMasking(t *testing.T) {
	srv, client, _ := newTestServer(t)
	login(t, client, srv.URL)

	var settings store.BotSettings
	resp := doJSON(t, client, http.MethodGet, srv.URL+"/api/bot/settings", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get settings: status %d", resp.StatusCode)
	}
	decode(t, resp, &settings)
	if settings.Token != "12345...token" {
		t.Errorf("token not masked: %q", settings.Token)
	}

	// A malformed replacement token is rejected.
	resp = doJSON(t, client, http.MethodPut, srv.URL+"/api/bot/settings",
		map[string]string{"token": "not a token"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad token: status %d, want 400", resp.StatusCode)
	}

	// Status updates pass through and come back masked.
	resp = doJSON(t, client, http.MethodPut, srv.URL+"/api/bot/settings",
		map[string]string{"status": store.BotMaintenance})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: status %d", resp.StatusCode)
	}
	decode(t, resp, &settings)
	if settings.Status != store.BotMaintenance {
		t.Errorf("status: got %q", settings.Status)
	}

	resp = doJSON(t, client, http.MethodPut, srv.URL+"/api/bot/settings",
		map[string]string{"status": "sideways"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown status: status %d, want 400", resp.StatusCode)
	}
}

func TestStatisticsEndpoint(t *testing.T) {
	srv, client, st := newTestServer(t)
	login(t, client, srv.URL)

	if err := st.CreateOrder(&store.Order{UserID: 1, Status: store.OrderCompleted, TotalAmount: 1500}); err != nil {
		t.Fatalf("order: %v", err)
	}

	var stats store.Statistics
	resp := doJSON(t, client, http.MethodGet, srv.URL+"/api/statistics", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("statistics: status %d", resp.StatusCode)
	}
	decode(t, resp, &stats)
	if stats.TotalOrders != 1 || stats.TotalRevenue != 1500 {
		t.Errorf("statistics: %+v", stats)
	}
	if stats.TotalProducts != 6 {
		t.Errorf("seeded product count: got %d, want 6", stats.TotalProducts)
	}
}

func TestOrdersExport(t *testing.T) {
	srv, client, st := newTestServer(t)
	login(t, client, srv.URL)

	if err := st.CreateOrder(&store.Order{UserID: 1, Status: store.OrderCompleted, TotalAmount: 999, PaymentMethod: "crypto"}); err != nil {
		t.Fatalf("order: %v", err)
	}

	resp := doJSON(t, client, http.MethodGet, srv.URL+"/api/orders/export", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export: status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("content type: %q", ct)
	}
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
