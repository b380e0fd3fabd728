package store

import (
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrOutOfStock = errors.New("no accounts available")
)

// Store owns every entity collection. State lives in an in-memory sqlite
// database, so a process restart resets everything to the seeded defaults.
// Each Store gets its own database; tests construct a fresh one per case.
type Store struct {
	db *gorm.DB
}

func New() (*Store, error) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open in-memory database: %w", err)
	}

	// A single connection keeps the :memory: database alive and serializes
	// multi-step transactions against concurrent update handlers.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&User{}, &Product{}, &Category{}, &Account{},
		&Cart{}, &CartItem{}, &Order{}, &OrderItem{},
		&BotSettings{}, &BotCommand{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &Store{db: db}, nil
}

// first runs a lookup and maps gorm's record-not-found to a nil result, so
// callers null-check instead of branching on errors.
func first[T any](q *gorm.DB) (*T, error) {
	var out T
	err := q.First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Users ---

func (s *Store) CreateUser(u *User) error {
	return s.db.Create(u).Error
}

func (s *Store) User(id int64) (*User, error) {
	return first[User](s.db.Where("id = ?", id))
}

func (s *Store) UserByUsername(username string) (*User, error) {
	return first[User](s.db.Where("username = ?", username))
}

func (s *Store) UserByTelegramID(telegramID string) (*User, error) {
	return first[User](s.db.Where("telegram_id = ?", telegramID))
}

// UserPatch is a partial update; nil fields are left untouched.
type UserPatch struct {
	Username         *string `json:"username"`
	Password         *string `json:"password"`
	IsAdmin          *bool   `json:"isAdmin"`
	Role             *string `json:"role"`
	IsActive         *bool   `json:"isActive"`
	Email            *string `json:"email"`
	TelegramUsername *string `json:"telegramUsername"`
	FirstName        *string `json:"firstName"`
	LastName         *string `json:"lastName"`
}

func (p UserPatch) fields() map[string]interface{} {
	m := map[string]interface{}{}
	if p.Username != nil {
		m["username"] = *p.Username
	}
	if p.Password != nil {
		m["password"] = *p.Password
	}
	if p.IsAdmin != nil {
		m["is_admin"] = *p.IsAdmin
	}
	if p.Role != nil {
		m["role"] = *p.Role
	}
	if p.IsActive != nil {
		m["is_active"] = *p.IsActive
	}
	if p.Email != nil {
		m["email"] = *p.Email
	}
	if p.TelegramUsername != nil {
		m["telegram_username"] = *p.TelegramUsername
	}
	if p.FirstName != nil {
		m["first_name"] = *p.FirstName
	}
	if p.LastName != nil {
		m["last_name"] = *p.LastName
	}
	return m
}

// UpdateUser applies a partial update. Returns nil for an unknown id.
func (s *Store) UpdateUser(id int64, p UserPatch) (*User, error) {
	fields := p.fields()
	if len(fields) == 0 {
		return s.User(id)
	}
	res := s.db.Model(&User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return s.User(id)
}

func (s *Store) ListUsers() ([]User, error) {
	var users []User
	err := s.db.Order("id").Find(&users).Error
	return users, err
}

// ListCustomers returns users who arrived through Telegram.
func (s *Store) ListCustomers() ([]User, error) {
	var users []User
	err := s.db.Where("telegram_id IS NOT NULL").Order("id").Find(&users).Error
	return users, err
}
