package store

// --- Products ---

func (s *Store) CreateProduct(p *Product) error {
	return s.db.Create(p).Error
}

func (s *Store) Product(id int64) (*Product, error) {
	return first[Product](s.db.Where("id = ?", id))
}

type ProductPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"`
	CategoryID  *int64  `json:"categoryId"`
	Stock       *int    `json:"stock"`
	Active      *bool   `json:"active"`
	Icon        *string `json:"icon"`
	IconBg      *string `json:"iconBg"`
}

func (p ProductPatch) fields() map[string]interface{} {
	m := map[string]interface{}{}
	if p.Name != nil {
		m["name"] = *p.Name
	}
	if p.Description != nil {
		m["description"] = *p.Description
	}
	if p.Price != nil {
		m["price"] = *p.Price
	}
	if p.CategoryID != nil {
		m["category_id"] = *p.CategoryID
	}
	if p.Stock != nil {
		m["stock"] = *p.Stock
	}
	if p.Active != nil {
		m["active"] = *p.Active
	}
	if p.Icon != nil {
		m["icon"] = *p.Icon
	}
	if p.IconBg != nil {
		m["icon_bg"] = *p.IconBg
	}
	return m
}

func (s *Store) UpdateProduct(id int64, p ProductPatch) (*Product, error) {
	fields := p.fields()
	if len(fields) == 0 {
		return s.Product(id)
	}
	res := s.db.Model(&Product{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return s.Product(id)
}

// DeleteProduct reports false for an unknown id.
func (s *Store) DeleteProduct(id int64) (bool, error) {
	res := s.db.Delete(&Product{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) ListProducts(onlyActive bool) ([]Product, error) {
	q := s.db.Order("id")
	if onlyActive {
		q = q.Where("active = ?", true)
	}
	var products []Product
	err := q.Find(&products).Error
	return products, err
}

// --- Categories ---

func (s *Store) CreateCategory(c *Category) error {
	return s.db.Create(c).Error
}

func (s *Store) Category(id int64) (*Category, error) {
	return first[Category](s.db.Where("id = ?", id))
}

func (s *Store) CategoryByName(name string) (*Category, error) {
	return first[Category](s.db.Where("name = ?", name))
}

func (s *Store) ListCategories() ([]Category, error) {
	var categories []Category
	err := s.db.Order("id").Find(&categories).Error
	return categories, err
}
