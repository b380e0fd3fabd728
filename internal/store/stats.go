package store

// Statistics aggregates the dashboard counters straight from the source
// collections on every call. Deriving instead of maintaining counters means
// a mutation path can never be "missed" and leave the numbers drifted.
func (s *Store) Statistics() (*Statistics, error) {
	var st Statistics

	if err := s.db.Model(&Order{}).Count(&st.TotalOrders).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&User{}).
		Where("telegram_id IS NOT NULL").
		Count(&st.TotalCustomers).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&Order{}).
		Where("status = ?", OrderCompleted).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&st.TotalRevenue).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&Product{}).Count(&st.TotalProducts).Error; err != nil {
		return nil, err
	}

	return &st, nil
}
