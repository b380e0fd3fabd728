package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"shop-telegram-bot/config"
	"shop-telegram-bot/internal/logger"
	"shop-telegram-bot/internal/store"
)

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

// --- Products ---

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.store.ListProducts(false)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var product store.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		writeError(w, http.StatusBadRequest, "invalid product payload")
		return
	}
	if product.Name == "" || product.Price <= 0 {
		writeError(w, http.StatusBadRequest, "product name and a positive price are required")
		return
	}
	product.ID = 0
	if err := s.store.CreateProduct(&product); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create product")
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	product, err := s.store.Product(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load product")
		return
	}
	if product == nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var patch store.ProductPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid product payload")
		return
	}
	product, err := s.store.UpdateProduct(id, patch)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update product")
		return
	}
	if product == nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	deleted, err := s.store.DeleteProduct(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Credential inventory ---

// credentialList accepts either a JSON array of strings or one newline
// separated string, matching what the dashboard textarea submits.
type credentialList []string

func (c *credentialList) UnmarshalJSON(b []byte) error {
	var many []string
	if err := json.Unmarshal(b, &many); err == nil {
		*c = many
		return nil
	}
	var one string
	if err := json.Unmarshal(b, &one); err != nil {
		return err
	}
	for _, line := range strings.Split(one, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			*c = append(*c, line)
		}
	}
	return nil
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	accounts, err := s.store.ProductAccounts(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list accounts")
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleAddAccounts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	product, err := s.store.Product(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load product")
		return
	}
	if product == nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	var req struct {
		Credentials credentialList `json:"credentials"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Credentials) == 0 {
		writeError(w, http.StatusBadRequest, "credentials are required")
		return
	}

	accounts, err := s.store.AddBulkAccounts(id, req.Credentials)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to add accounts")
		return
	}
	writeJSON(w, http.StatusCreated, accounts)
}

// --- Categories ---

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.ListCategories()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var category store.Category
	if err := json.NewDecoder(r.Body).Decode(&category); err != nil || category.Name == "" {
		writeError(w, http.StatusBadRequest, "category name is required")
		return
	}
	category.ID = 0
	if err := s.store.CreateCategory(&category); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create category")
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

// --- Orders ---

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.store.ListOrders()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	order, err := s.store.Order(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load order")
		return
	}
	if order == nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleOrderItems(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	items, err := s.store.OrderItems(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list order items")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}
	order, err := s.store.UpdateOrderStatus(id, req.Status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update order")
		return
	}
	if order == nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// --- Customers ---

func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := s.store.ListCustomers()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list customers")
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

// --- Bot settings and commands ---

// maskToken hides the middle of the bot token so the dashboard can show which
// token is configured without disclosing it.
func maskToken(token string) string {
	if len(token) <= 10 {
		return token
	}
	return token[:5] + "..." + token[len(token)-5:]
}

func (s *Server) handleGetBotSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.BotSettings()
	if err != nil || settings == nil {
		writeError(w, http.StatusInternalServerError, "failed to load bot settings")
		return
	}
	masked := *settings
	masked.Token = maskToken(settings.Token)
	writeJSON(w, http.StatusOK, masked)
}

func (s *Server) handleUpdateBotSettings(w http.ResponseWriter, r *http.Request) {
	var patch store.BotSettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid settings payload")
		return
	}
	if patch.Token != nil && !config.ValidBotToken(*patch.Token) {
		writeError(w, http.StatusBadRequest, "bot token format is invalid")
		return
	}
	if patch.Status != nil {
		switch *patch.Status {
		case store.BotActive, store.BotMaintenance, store.BotInactive:
		default:
			writeError(w, http.StatusBadRequest, "unknown bot status")
			return
		}
	}

	settings, err := s.store.UpdateBotSettings(patch)
	if err != nil || settings == nil {
		writeError(w, http.StatusInternalServerError, "failed to update bot settings")
		return
	}

	// Pick the new token or status up on a fresh polling connection. Delayed
	// so the HTTP response is not held up by the Telegram handshake.
	if s.bot != nil && (patch.Token != nil || patch.Status != nil) {
		go func() {
			time.Sleep(time.Second)
			if err := s.bot.Restart(); err != nil {
				logger.Error("bot restart failed", zap.Error(err))
			}
		}()
	}

	masked := *settings
	masked.Token = maskToken(settings.Token)
	writeJSON(w, http.StatusOK, masked)
}

func (s *Server) handleListBotCommands(w http.ResponseWriter, r *http.Request) {
	commands, err := s.store.ListBotCommands(false)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list commands")
		return
	}
	writeJSON(w, http.StatusOK, commands)
}

func (s *Server) handleCreateBotCommand(w http.ResponseWriter, r *http.Request) {
	var cmd store.BotCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil || cmd.Command == "" {
		writeError(w, http.StatusBadRequest, "command literal is required")
		return
	}
	if !strings.HasPrefix(cmd.Command, "/") {
		writeError(w, http.StatusBadRequest, "command must start with /")
		return
	}
	cmd.ID = 0
	if err := s.store.CreateBotCommand(&cmd); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create command")
		return
	}
	writeJSON(w, http.StatusCreated, cmd)
}

func (s *Server) handleUpdateBotCommand(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid command id")
		return
	}
	var patch store.BotCommandPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid command payload")
		return
	}
	cmd, err := s.store.UpdateBotCommand(id, patch)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update command")
		return
	}
	if cmd == nil {
		writeError(w, http.StatusNotFound, "command not found")
		return
	}
	writeJSON(w, http.StatusOK, cmd)
}

// --- Statistics ---

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Statistics()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute statistics")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
