package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/wbcoef/wbcoef/core/telegram/state"
	"github.com/wbcoef/wbcoef/internal/domain"
)

// AddUser inserts the user once. Later calls keep the first username.
func (s *Store) AddUser(ctx context.Context, id int64, username string) error {
	if username == "" {
		username = domain.NoUsername
	}
	return s.locked(ctx, "store.add_user", func() error {
		_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO users (id, username) VALUES (?, ?)`, id, username)
		return err
	})
}

// UserIDs lists every known user.
func (s *Store) UserIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.locked(ctx, "store.user_ids", func() error {
		return s.db.SelectContext(ctx, &ids, `SELECT id FROM users ORDER BY id`)
	})
	return ids, err
}

// UserIDByUsername finds a user by username, ignoring case and a leading "@".
func (s *Store) UserIDByUsername(ctx context.Context, username string) (int64, bool, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	var id int64
	found := true
	err := s.locked(ctx, "store.user_by_username", func() error {
		err := s.db.GetContext(ctx, &id, `SELECT id FROM users WHERE username = ? COLLATE NOCASE LIMIT 1`, username)
		if errors.Is(err, sql.ErrNoRows) {
			found = false
			return nil
		}
		return err
	})
	return id, found && err == nil, err
}

// SetState stores the user's dialogue state.
func (s *Store) SetState(ctx context.Context, userID int64, st state.State) error {
	return s.locked(ctx, "store.set_state", func() error {
		_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO user_states (id, state) VALUES (?, ?)`, userID, int64(st))
		return err
	})
}

// GetState returns the user's dialogue state, Idle when none is stored.
func (s *Store) GetState(ctx context.Context, userID int64) (state.State, error) {
	var raw int64
	err := s.locked(ctx, "store.get_state", func() error {
		err := s.db.GetContext(ctx, &raw, `SELECT state FROM user_states WHERE id = ?`, userID)
		if errors.Is(err, sql.ErrNoRows) {
			raw = int64(domain.StateIdle)
			return nil
		}
		return err
	})
	if err != nil {
		return domain.StateIdle, err
	}
	return domain.ParseState(raw), nil
}

// ClearState removes the stored state, which then reads as Idle.
func (s *Store) ClearState(ctx context.Context, userID int64) error {
	return s.locked(ctx, "store.clear_state", func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM user_states WHERE id = ?`, userID)
		return err
	})
}

// SetToken stores the user's marketplace token.
func (s *Store) SetToken(ctx context.Context, userID int64, token string) error {
	return s.locked(ctx, "store.set_token", func() error {
		_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO user_tokens (chat_id, token) VALUES (?, ?)`, userID, token)
		return err
	})
}

// GetToken returns the stored token or "" when the user has none.
func (s *Store) GetToken(ctx context.Context, userID int64) (string, error) {
	var token string
	err := s.locked(ctx, "store.get_token", func() error {
		err := s.db.GetContext(ctx, &token, `SELECT token FROM user_tokens WHERE chat_id = ?`, userID)
		if errors.Is(err, sql.ErrNoRows) {
			token = ""
			return nil
		}
		return err
	})
	return token, err
}
