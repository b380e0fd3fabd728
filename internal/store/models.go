package store

import "time"

// Order statuses. Transitions are caller-driven; the dashboard may overwrite
// any status with any other.
const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderCompleted  = "completed"
	OrderCancelled  = "cancelled"
	OrderFailed     = "failed"
)

// Bot statuses.
const (
	BotActive      = "active"
	BotMaintenance = "maintenance"
	BotInactive    = "inactive"
)

// User covers both dashboard operators and Telegram shoppers. Telegram users
// carry an empty password; dashboard users carry a bcrypt hash.
type User struct {
	ID               int64   `gorm:"primaryKey" json:"id"`
	Username         string  `gorm:"uniqueIndex" json:"username"`
	Password         string  `json:"-"`
	IsAdmin          bool    `json:"isAdmin"`
	Role             string  `json:"role"`
	IsActive         bool    `json:"isActive"`
	Email            string  `json:"email,omitempty"`
	TelegramID       *string `gorm:"uniqueIndex" json:"telegramId,omitempty"`
	TelegramUsername string  `json:"telegramUsername,omitempty"`
	FirstName        string  `json:"firstName,omitempty"`
	LastName         string  `json:"lastName,omitempty"`
}

type Product struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"` // minor currency units
	CategoryID  int64  `json:"categoryId"`
	Stock       int    `json:"stock"` // advisory; deliverable accounts govern real availability
	Active      bool   `json:"active"`
	Icon        string `json:"icon"`
	IconBg      string `json:"iconBg"`
}

type Category struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex" json:"name"`
}

// Account is one sellable credential unit tied to a product. Once delivered
// it is permanently spent; there is no restock path.
type Account struct {
	ID                 int64      `gorm:"primaryKey" json:"id"`
	ProductID          int64      `gorm:"index" json:"productId"`
	Credentials        string     `json:"credentials"`
	IsDelivered        bool       `json:"isDelivered"`
	DeliveredAt        *time.Time `json:"deliveredAt,omitempty"`
	DeliveredToUserID  *int64     `json:"deliveredToUserId,omitempty"`
	DeliveredToOrderID *int64     `json:"deliveredToOrderId,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
}

// Cart is the per-chat shopping cart. At most one open cart per chat; created
// lazily on the first item add and deleted wholesale at checkout.
type Cart struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	UserID         int64     `gorm:"uniqueIndex" json:"userId"`
	TelegramChatID string    `gorm:"uniqueIndex" json:"telegramChatId"`
	CreatedAt      time.Time `json:"createdAt"`
}

type CartItem struct {
	ID        int64 `gorm:"primaryKey" json:"id"`
	CartID    int64 `gorm:"index" json:"cartId"`
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type Order struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	UserID         int64     `gorm:"index" json:"userId"`
	Status         string    `json:"status"`
	TotalAmount    int64     `json:"totalAmount"`
	TelegramChatID string    `json:"telegramChatId"`
	PaymentMethod  string    `json:"paymentMethod"`
	PaymentRef     string    `json:"paymentRef"`
	// AccountCredentials is the literal credential text revealed to the buyer.
	// Set exactly once, at completion, and never changed afterwards.
	AccountCredentials string    `json:"accountCredentials,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

// OrderItem snapshots the price at time of sale, decoupled from the live
// product price.
type OrderItem struct {
	ID        int64 `gorm:"primaryKey" json:"id"`
	OrderID   int64 `gorm:"index" json:"orderId"`
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
	Price     int64 `json:"price"`
}

// BotSettings is a process-wide singleton (exactly one row).
type BotSettings struct {
	ID             int64    `gorm:"primaryKey" json:"id"`
	Token          string   `json:"token"`
	Status         string   `json:"status"`
	WelcomeMessage string   `json:"welcomeMessage"`
	PaymentMethods []string `gorm:"serializer:json" json:"paymentMethods"`
}

type BotCommand struct {
	ID              int64  `gorm:"primaryKey" json:"id"`
	Command         string `gorm:"uniqueIndex" json:"command"`
	Description     string `json:"description"`
	Active          bool   `json:"active"`
	ResponseMessage string `json:"responseMessage"`
}

// Statistics is computed on demand from the source collections rather than
// kept as counters, so it can never drift from ground truth.
type Statistics struct {
	TotalOrders    int64 `json:"totalOrders"`
	TotalCustomers int64 `json:"totalCustomers"`
	TotalRevenue   int64 `json:"totalRevenue"`
	TotalProducts  int64 `json:"totalProducts"`
}
