package store

import "time"

// --- Orders ---

func (s *Store) CreateOrder(o *Order) error {
	if o.Status == "" {
		o.Status = OrderPending
	}
	return s.db.Create(o).Error
}

func (s *Store) Order(id int64) (*Order, error) {
	return first[Order](s.db.Where("id = ?", id))
}

// UpdateOrderStatus overwrites the status with whatever the caller supplies;
// no transition rules are enforced. Returns nil for an unknown id.
func (s *Store) UpdateOrderStatus(id int64, status string) (*Order, error) {
	res := s.db.Model(&Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return s.Order(id)
}

// CompleteOrder marks the order completed and records the credential text
// handed to the buyer. The guard on account_credentials makes the write
// first-wins: once set, the credentials are immutable.
func (s *Store) CompleteOrder(id int64, credentials string) (*Order, error) {
	res := s.db.Model(&Order{}).
		Where("id = ? AND account_credentials = ?", id, "").
		Updates(map[string]interface{}{
			"status":              OrderCompleted,
			"account_credentials": credentials,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return s.Order(id)
}

func (s *Store) ListOrders() ([]Order, error) {
	var orders []Order
	err := s.db.Order("id").Find(&orders).Error
	return orders, err
}

func (s *Store) ListUserOrders(userID int64) ([]Order, error) {
	var orders []Order
	err := s.db.Where("user_id = ?", userID).Order("id").Find(&orders).Error
	return orders, err
}

// OrdersCreatedSince returns orders created at or after t, for reporting.
func (s *Store) OrdersCreatedSince(t time.Time) ([]Order, error) {
	var orders []Order
	err := s.db.Where("created_at >= ?", t).Order("id").Find(&orders).Error
	return orders, err
}

// --- Order items ---

func (s *Store) CreateOrderItem(item *OrderItem) error {
	return s.db.Create(item).Error
}

func (s *Store) OrderItems(orderID int64) ([]OrderItem, error) {
	var items []OrderItem
	err := s.db.Where("order_id = ?", orderID).Order("id").Find(&items).Error
	return items, err
}
