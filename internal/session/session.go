// Package session keeps the per-browser values the storefront needs
// between requests: the auth token, the phone and user id handed over by
// login, and the marker of the last order sent to the payment gateway.
package session

import (
	"context"
	"fmt"
)

// Well-known keys.
const (
	KeyToken        = "token"
	KeyPhone        = "phone"
	KeyUserID       = "userId"
	KeyPendingOrder = "pending_topup_order"
)

// Store persists string values per session id. Get reports ok=false for a
// missing key or session.
type Store interface {
	Get(ctx context.Context, id, key string) (string, bool, error)
	Set(ctx context.Context, id string, values map[string]string) error
	Delete(ctx context.Context, id string, keys ...string) error
}

// Manager hands out Sessions over a Store.
type Manager struct {
	store Store
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Open returns the session with the given id. Nothing is written until a
// value is set.
func (m *Manager) Open(id string) *Session {
	return &Session{id: id, store: m.store}
}

// Session is typed access to one browser's values.
type Session struct {
	id    string
	store Store
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) get(ctx context.Context, key string) (string, error) {
	v, _, err := s.store.Get(ctx, s.id, key)
	if err != nil {
		return "", fmt.Errorf("failed to read session %s key %s: %w", s.id, key, err)
	}
	return v, nil
}

// Token returns the auth token, empty when logged out.
func (s *Session) Token(ctx context.Context) (string, error) {
	return s.get(ctx, KeyToken)
}

func (s *Session) Phone(ctx context.Context) (string, error) {
	return s.get(ctx, KeyPhone)
}

func (s *Session) UserID(ctx context.Context) (string, error) {
	return s.get(ctx, KeyUserID)
}

// Login stores what the login flow hands over. Empty phone or user id
// values are not written.
func (s *Session) Login(ctx context.Context, token, phone, userID string) error {
	values := map[string]string{KeyToken: token}
	if phone != "" {
		values[KeyPhone] = phone
	}
	if userID != "" {
		values[KeyUserID] = userID
	}
	if err := s.store.Set(ctx, s.id, values); err != nil {
		return fmt.Errorf("failed to store login for session %s: %w", s.id, err)
	}
	return nil
}

// Logout removes the credentials. The pending order marker stays.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.id, KeyToken, KeyPhone, KeyUserID); err != nil {
		return fmt.Errorf("failed to clear login for session %s: %w", s.id, err)
	}
	return nil
}

// ClearToken drops a token the API no longer accepts.
func (s *Session) ClearToken(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.id, KeyToken); err != nil {
		return fmt.Errorf("failed to clear token for session %s: %w", s.id, err)
	}
	return nil
}

// SetPendingOrder records the id of the order about to be paid on the
// gateway. It must succeed before the shopper is redirected.
func (s *Session) SetPendingOrder(ctx context.Context, orderID string) error {
	if err := s.store.Set(ctx, s.id, map[string]string{KeyPendingOrder: orderID}); err != nil {
		return fmt.Errorf("failed to store pending order for session %s: %w", s.id, err)
	}
	return nil
}

// PendingOrder returns the last recorded order id, empty when there is none.
func (s *Session) PendingOrder(ctx context.Context) (string, error) {
	return s.get(ctx, KeyPendingOrder)
}
