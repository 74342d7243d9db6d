package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ikkim/bizmarket-backend/internal/app/model"
	"github.com/ikkim/bizmarket-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// CartStore is the session-scoped key-value storage holding quote carts. A
// cart is addressed by (session id, business id).
type CartStore interface {
	Get(ctx context.Context, sessionID string, businessID uint) ([]model.CartLine, error)
	Save(ctx context.Context, sessionID string, businessID uint, lines []model.CartLine) error
	Clear(ctx context.Context, sessionID string, businessID uint) error
}

type redisCartStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCartStore stores each cart as a JSON array under
// session:{sid}:quote_cart_{business_id}. Every save refreshes the TTL so a
// cart lives as long as its session stays active.
func NewRedisCartStore(client *redis.Client, ttl time.Duration) CartStore {
	return &redisCartStore{client: client, ttl: ttl}
}

func cartStoreKey(sessionID string, businessID uint) string {
	return fmt.Sprintf("session:%s:%s", sessionID, model.CartKey(businessID))
}

func (s *redisCartStore) Get(ctx context.Context, sessionID string, businessID uint) ([]model.CartLine, error) {
	key := cartStoreKey(sessionID, businessID)
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []model.CartLine{}, nil
	}
	if err != nil {
		logger.Error("Failed to read cart from session store", err, map[string]interface{}{
			"business_id": businessID,
		})
		return nil, err
	}

	var lines []model.CartLine
	if err := json.Unmarshal(raw, &lines); err != nil {
		// Corrupt carts read as empty.
		logger.Warn("Discarding unreadable cart", map[string]interface{}{
			"business_id": businessID,
			"error":       err.Error(),
		})
		return []model.CartLine{}, nil
	}
	if lines == nil {
		lines = []model.CartLine{}
	}
	return lines, nil
}

func (s *redisCartStore) Save(ctx context.Context, sessionID string, businessID uint, lines []model.CartLine) error {
	if lines == nil {
		lines = []model.CartLine{}
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, cartStoreKey(sessionID, businessID), raw, s.ttl).Err(); err != nil {
		logger.Error("Failed to save cart to session store", err, map[string]interface{}{
			"business_id": businessID,
			"lines":       len(lines),
		})
		return err
	}

	logger.Debug("Cart saved", map[string]interface{}{
		"business_id": businessID,
		"lines":       len(lines),
	})
	return nil
}

func (s *redisCartStore) Clear(ctx context.Context, sessionID string, businessID uint) error {
	if err := s.client.Del(ctx, cartStoreKey(sessionID, businessID)).Err(); err != nil {
		logger.Error("Failed to clear cart in session store", err, map[string]interface{}{
			"business_id": businessID,
		})
		return err
	}
	return nil
}
