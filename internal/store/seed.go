package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedDefaults installs the out-of-the-box shop: bot settings, the command
// registry, three categories and a small catalog. Idempotent: a store that
// already has settings is left alone.
func (s *Store) SeedDefaults(botToken string) error {
	settings, err := s.BotSettings()
	if err != nil {
		return err
	}
	if settings != nil {
		return nil
	}

	if err := s.db.Create(&BotSettings{
		Token:          botToken,
		Status:         BotActive,
		WelcomeMessage: "Welcome to our Digital Shop! Browse our catalog of premium accounts by using the /products command.",
		PaymentMethods: []string{"Crypto", "Bank Transfer"},
	}).Error; err != nil {
		return err
	}

	commands := []BotCommand{
		{Command: "/start", Description: "Welcome message with bot instructions", Active: true,
			ResponseMessage: "Welcome to our Digital Shop Bot! 👋 I can help you purchase premium digital accounts. Use these commands:\n\n/products - Browse available products\n/cart - View your shopping cart\n/orders - Check your order history\n/help - Get assistance"},
		{Command: "/products", Description: "Browse available digital accounts", Active: true,
			ResponseMessage: "Here are our available products:"},
		{Command: "/cart", Description: "View current shopping cart", Active: true,
			ResponseMessage: "Your shopping cart:"},
		{Command: "/checkout", Description: "Complete purchase process", Active: true,
			ResponseMessage: "Let's complete your purchase:"},
		{Command: "/orders", Description: "Check order history and status", Active: true,
			ResponseMessage: "Your order history:"},
		{Command: "/help", Description: "Get customer assistance", Active: true,
			ResponseMessage: "How can I help you today? Here are the available commands:\n\n/products - Browse available products\n/cart - View your shopping cart\n/orders - Check your order history"},
		{Command: "/feedback", Description: "Submit customer feedback", Active: false,
			ResponseMessage: "Please share your feedback with us:"},
	}
	for i := range commands {
		if err := s.CreateBotCommand(&commands[i]); err != nil {
			return err
		}
	}

	streaming := Category{Name: "Streaming Services"}
	gaming := Category{Name: "Gaming"}
	production := Category{Name: "Production Software"}
	for _, c := range []*Category{&streaming, &gaming, &production} {
		if err := s.CreateCategory(c); err != nil {
			return err
		}
	}

	products := []Product{
		{Name: "Gmail Account", Description: "1 Month Old Account", Price: 200,
			CategoryID: streaming.ID, Stock: 22, Active: true, Icon: "fa-envelope", IconBg: "#EA4335"},
		{Name: "YouTube Premium", Description: "1 Month Subscription", Price: 1199,
			CategoryID: streaming.ID, Stock: 75, Active: true, Icon: "fa-youtube", IconBg: "#FF0000"},
		{Name: "Disney+ Premium", Description: "1 Month Subscription", Price: 799,
			CategoryID: streaming.ID, Stock: 80, Active: true, Icon: "fa-play", IconBg: "#0063e5"},
		{Name: "Xbox Game Pass", Description: "1 Month Subscription", Price: 1499,
			CategoryID: gaming.ID, Stock: 30, Active: true, Icon: "fa-xbox", IconBg: "#107C10"},
		{Name: "PlayStation Plus", Description: "1 Month Subscription", Price: 999,
			CategoryID: gaming.ID, Stock: 40, Active: true, Icon: "fa-playstation", IconBg: "#006FCD"},
		{Name: "Adobe Creative Cloud", Description: "1 Month Subscription", Price: 5299,
			CategoryID: production.ID, Stock: 20, Active: true, Icon: "fa-adobe", IconBg: "#FF0000"},
	}
	for i := range products {
		if err := s.CreateProduct(&products[i]); err != nil {
			return err
		}
	}

	return nil
}

// SeedCatalog is the optional YAML catalog an operator can ship alongside the
// binary to replace the built-in demo products with real inventory.
type SeedCatalog struct {
	Categories []SeedCategory `yaml:"categories"`
	Products   []SeedProduct  `yaml:"products"`
}

type SeedCategory struct {
	Name string `yaml:"name"`
}

type SeedProduct struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Price       int64    `yaml:"price"`
	Category    string   `yaml:"category"`
	Stock       int      `yaml:"stock"`
	Active      *bool    `yaml:"active"`
	Accounts    []string `yaml:"accounts"`
}

func LoadSeedCatalog(path string) (*SeedCatalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var catalog SeedCatalog
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("parse seed catalog %s: %w", path, err)
	}
	return &catalog, nil
}

// ApplySeedCatalog adds the catalog's categories, products and credential
// inventory on top of whatever is already present. Categories are matched by
// name so the same file can be applied to a seeded store.
func (s *Store) ApplySeedCatalog(catalog *SeedCatalog) error {
	byName := map[string]int64{}
	existing, err := s.ListCategories()
	if err != nil {
		return err
	}
	for _, c := range existing {
		byName[c.Name] = c.ID
	}

	for _, sc := range catalog.Categories {
		if _, ok := byName[sc.Name]; ok {
			continue
		}
		c := Category{Name: sc.Name}
		if err := s.CreateCategory(&c); err != nil {
			return err
		}
		byName[c.Name] = c.ID
	}

	for _, sp := range catalog.Products {
		active := true
		if sp.Active != nil {
			active = *sp.Active
		}
		p := Product{
			Name:        sp.Name,
			Description: sp.Description,
			Price:       sp.Price,
			CategoryID:  byName[sp.Category],
			Stock:       sp.Stock,
			Active:      active,
		}
		if err := s.CreateProduct(&p); err != nil {
			return err
		}
		if len(sp.Accounts) > 0 {
			if _, err := s.AddBulkAccounts(p.ID, sp.Accounts); err != nil {
				return err
			}
		}
	}

	return nil
}
