package storage

import "context"

// AddPhone attaches a phone profile to a user. Duplicates are ignored.
func (s *Store) AddPhone(ctx context.Context, userID int64, phone string) error {
	return s.locked(ctx, "store.add_phone", func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO chrome_profiles (user_id, phone_number) VALUES (?, ?)`, userID, phone)
		return err
	})
}

// PhonesPage returns page (zero based) of the user's phone profiles.
func (s *Store) PhonesPage(ctx context.Context, userID int64, page, size int) ([]string, error) {
	var out []string
	if page < 0 || size <= 0 {
		return out, nil
	}
	err := s.locked(ctx, "store.phones_page", func() error {
		return s.db.SelectContext(ctx, &out, `
			SELECT phone_number FROM chrome_profiles
			WHERE user_id = ? ORDER BY id LIMIT ? OFFSET ?`, userID, size, page*size)
	})
	return out, err
}

// CountPhones returns how many phone profiles the user has.
func (s *Store) CountPhones(ctx context.Context, userID int64) (int, error) {
	var n int
	err := s.locked(ctx, "store.count_phones", func() error {
		return s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM chrome_profiles WHERE user_id = ?`, userID)
	})
	return n, err
}
