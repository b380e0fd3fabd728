package store

// --- Carts ---

func (s *Store) CreateCart(c *Cart) error {
	return s.db.Create(c).Error
}

func (s *Store) Cart(id int64) (*Cart, error) {
	return first[Cart](s.db.Where("id = ?", id))
}

func (s *Store) CartByUserID(userID int64) (*Cart, error) {
	return first[Cart](s.db.Where("user_id = ?", userID))
}

func (s *Store) CartByChatID(chatID string) (*Cart, error) {
	return first[Cart](s.db.Where("telegram_chat_id = ?", chatID))
}

// DeleteCart removes the cart and all its items, so no orphan items remain
// reachable through CartItems. Reports false for an unknown id.
func (s *Store) DeleteCart(id int64) (bool, error) {
	if err := s.db.Where("cart_id = ?", id).Delete(&CartItem{}).Error; err != nil {
		return false, err
	}
	res := s.db.Delete(&Cart{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// --- Cart items ---

func (s *Store) CartItems(cartID int64) ([]CartItem, error) {
	var items []CartItem
	err := s.db.Where("cart_id = ?", cartID).Order("id").Find(&items).Error
	return items, err
}

// AddCartItem coalesces quantity: adding a product already in the cart bumps
// the existing line instead of inserting a duplicate.
func (s *Store) AddCartItem(cartID, productID int64, quantity int) (*CartItem, error) {
	existing, err := first[CartItem](s.db.Where("cart_id = ? AND product_id = ?", cartID, productID))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.UpdateCartItemQuantity(existing.ID, existing.Quantity+quantity)
	}

	item := CartItem{CartID: cartID, ProductID: productID, Quantity: quantity}
	if err := s.db.Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpdateCartItemQuantity(id int64, quantity int) (*CartItem, error) {
	res := s.db.Model(&CartItem{}).Where("id = ?", id).Update("quantity", quantity)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return first[CartItem](s.db.Where("id = ?", id))
}

// RemoveCartItem reports false when the item is already gone.
func (s *Store) RemoveCartItem(id int64) (bool, error) {
	res := s.db.Delete(&CartItem{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
