package store

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// --- Accounts (credential inventory) ---

func (s *Store) AddAccount(a *Account) error {
	return s.db.Create(a).Error
}

// AddBulkAccounts appends one account per credential line. A plain sequence
// of single adds: if one insert fails the preceding ones stay committed.
func (s *Store) AddBulkAccounts(productID int64, credentials []string) ([]Account, error) {
	accounts := make([]Account, 0, len(credentials))
	for _, cred := range credentials {
		a := Account{ProductID: productID, Credentials: cred}
		if err := s.AddAccount(&a); err != nil {
			return accounts, err
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

func (s *Store) Account(id int64) (*Account, error) {
	return first[Account](s.db.Where("id = ?", id))
}

// AvailableAccount returns the oldest undelivered account for the product,
// or nil when the pool is empty. Never returns a delivered account.
func (s *Store) AvailableAccount(productID int64) (*Account, error) {
	return first[Account](s.db.
		Where("product_id = ? AND is_delivered = ?", productID, false).
		Order("id"))
}

// ClaimAccount atomically reserves one undelivered account for productID.
// The guarded update is a compare-and-swap on is_delivered, so two
// concurrent checkouts can never walk away with the same credentials.
func (s *Store) ClaimAccount(productID, userID int64) (*Account, error) {
	var claimed *Account
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for {
			var acc Account
			err := tx.Where("product_id = ? AND is_delivered = ?", productID, false).
				Order("id").First(&acc).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOutOfStock
			}
			if err != nil {
				return err
			}

			now := time.Now()
			res := tx.Model(&Account{}).
				Where("id = ? AND is_delivered = ?", acc.ID, false).
				Updates(map[string]interface{}{
					"is_delivered":         true,
					"delivered_at":         now,
					"delivered_to_user_id": userID,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// Lost the race for this row; try the next candidate.
				continue
			}

			acc.IsDelivered = true
			acc.DeliveredAt = &now
			acc.DeliveredToUserID = &userID
			claimed = &acc
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// ReleaseAccount reverts a claim, returning the account to the sellable
// pool. Compensation for failed deliveries; best-effort, not transactional
// with whatever triggered it.
func (s *Store) ReleaseAccount(id int64) error {
	return s.db.Model(&Account{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_delivered":          false,
			"delivered_at":          nil,
			"delivered_to_user_id":  nil,
			"delivered_to_order_id": nil,
		}).Error
}

// MarkAccountDelivered overwrites the delivery fields unconditionally; it
// does not check the previous state. Returns nil for an unknown id.
func (s *Store) MarkAccountDelivered(id, userID, orderID int64) (*Account, error) {
	now := time.Now()
	res := s.db.Model(&Account{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_delivered":          true,
			"delivered_at":          now,
			"delivered_to_user_id":  userID,
			"delivered_to_order_id": orderID,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return s.Account(id)
}

// AttachAccountToOrder records which order a claimed account was sold under.
func (s *Store) AttachAccountToOrder(accountID, orderID int64) error {
	return s.db.Model(&Account{}).Where("id = ?", accountID).
		Update("delivered_to_order_id", orderID).Error
}

func (s *Store) ProductAccounts(productID int64) ([]Account, error) {
	var accounts []Account
	err := s.db.Where("product_id = ?", productID).Order("id").Find(&accounts).Error
	return accounts, err
}

// CountAvailableAccounts returns the number of deliverable accounts left.
func (s *Store) CountAvailableAccounts(productID int64) (int64, error) {
	var n int64
	err := s.db.Model(&Account{}).
		Where("product_id = ? AND is_delivered = ?", productID, false).
		Count(&n).Error
	return n, err
}
