package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fjod/techhub/internal/domain"
	"github.com/fjod/techhub/internal/storage"
	"go.uber.org/zap"
)

// Login records a session for the shopper, replacing any previous one.
// Credentials are not checked here; see package auth.
func (s *CartService) Login(ctx context.Context, shopperID, email, name string) (*domain.Session, error) {
	session := domain.NewSession(email, name, s.now())

	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("marshal session failed: %w", err)
	}
	if err := s.store.Set(ctx, sessionKey(shopperID), data); err != nil {
		s.log.Error("login failed", zap.String("shopper_id", shopperID), zap.Error(err))
		return nil, fmt.Errorf("save session: %w", err)
	}

	return &session, nil
}

func (s *CartService) Logout(ctx context.Context, shopperID string) error {
	if err := s.store.Delete(ctx, sessionKey(shopperID)); err != nil {
		s.log.Error("logout failed", zap.String("shopper_id", shopperID), zap.Error(err))
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CurrentUser returns nil when no readable session is stored.
func (s *CartService) CurrentUser(ctx context.Context, shopperID string) *domain.Session {
	data, err := s.store.Get(ctx, sessionKey(shopperID))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.Warn("session read failed", zap.String("shopper_id", shopperID), zap.Error(err))
		}
		return nil
	}

	var session *domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		s.log.Warn("discarding unparsable session", zap.String("shopper_id", shopperID), zap.Error(err))
		return nil
	}
	return session
}

func (s *CartService) IsLoggedIn(ctx context.Context, shopperID string) bool {
	return s.CurrentUser(ctx, shopperID) != nil
}
