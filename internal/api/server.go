package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"shop-telegram-bot/internal/bot"
	"shop-telegram-bot/internal/logger"
	"shop-telegram-bot/internal/store"
)

// Server is the admin dashboard REST API. Everything except registration and
// login sits behind cookie auth.
type Server struct {
	addr   string
	store  *store.Store
	bot    *bot.Manager
	secret []byte
}

func NewServer(addr string, st *store.Store, mgr *bot.Manager, secret string) *Server {
	return &Server{addr: addr, store: st, bot: mgr, secret: []byte(secret)}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/user", s.handleCurrentUser)

			r.Get("/products", s.handleListProducts)
			r.Post("/products", s.handleCreateProduct)
			r.Get("/products/{id}", s.handleGetProduct)
			r.Put("/products/{id}", s.handleUpdateProduct)
			r.Delete("/products/{id}", s.handleDeleteProduct)
			r.Get("/products/{id}/accounts", s.handleListAccounts)
			r.Post("/products/{id}/accounts", s.handleAddAccounts)

			r.Get("/categories", s.handleListCategories)
			r.Post("/categories", s.handleCreateCategory)

			r.Get("/orders", s.handleListOrders)
			r.Get("/orders/export", s.handleExportOrders)
			r.Get("/orders/{id}", s.handleGetOrder)
			r.Get("/orders/{id}/items", s.handleOrderItems)
			r.Put("/orders/{id}/status", s.handleUpdateOrderStatus)

			r.Get("/customers", s.handleListCustomers)

			r.Get("/bot/settings", s.handleGetBotSettings)
			r.Put("/bot/settings", s.handleUpdateBotSettings)
			r.Get("/bot/commands", s.handleListBotCommands)
			r.Post("/bot/commands", s.handleCreateBotCommand)
			r.Put("/bot/commands/{id}", s.handleUpdateBotCommand)

			r.Get("/statistics", s.handleStatistics)
		})
	})

	return r
}

func (s *Server) Run() error {
	logger.Info("dashboard listening", zap.String("addr", s.addr))
	return http.ListenAndServe(s.addr, s.Router())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encoding failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
