package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/case-fetcher/internal/models"
)

// Keys the last search outcome is stored under
const (
	KeyResultData = "result_data"
	KeyErrorData  = "error_data"
)

const sessionKeyPrefix = "casefetch:session:"

// SessionStore is a per-visitor key-value store backed by Redis, with an
// in-memory fallback when Redis is not available. Last write wins.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger

	memCache map[string]memItem
	memMutex sync.RWMutex
}

type memItem struct {
	value     string
	expiresAt time.Time
}

// NewSessionStore creates a new session store. client may be nil.
func NewSessionStore(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *SessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		logger:   logger,
		memCache: make(map[string]memItem),
	}
}

func storeKey(sessionID, key string) string {
	return sessionKeyPrefix + sessionID + ":" + key
}

// Get retrieves a value
func (s *SessionStore) Get(ctx context.Context, sessionID, key string) (string, bool, error) {
	k := storeKey(sessionID, key)

	if s.client != nil {
		val, err := s.client.Get(ctx, k).Result()
		if err == nil {
			return val, true, nil
		}
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		s.logger.WithFields(logrus.Fields{
			"key":   k,
			"error": err.Error(),
		}).Warn("Redis get error, falling back to memory store")
	}

	s.memMutex.RLock()
	item, exists := s.memCache[k]
	s.memMutex.RUnlock()

	if !exists {
		return "", false, nil
	}
	if time.Now().After(item.expiresAt) {
		s.memMutex.Lock()
		delete(s.memCache, k)
		s.memMutex.Unlock()
		return "", false, nil
	}
	return item.value, true, nil
}

// Put stores a value with the session TTL
func (s *SessionStore) Put(ctx context.Context, sessionID, key, value string) error {
	k := storeKey(sessionID, key)

	if s.client != nil {
		err := s.client.Set(ctx, k, value, s.ttl).Err()
		if err == nil {
			s.logger.WithField("key", k).Debug("Session value set (Redis)")
			return nil
		}
		s.logger.WithFields(logrus.Fields{
			"key":   k,
			"error": err.Error(),
		}).Warn("Redis set error, falling back to memory store")
	}

	s.memMutex.Lock()
	s.memCache[k] = memItem{
		value:     value,
		expiresAt: time.Now().Add(s.ttl),
	}
	s.memMutex.Unlock()

	s.logger.WithField("key", k).Debug("Session value set (memory)")
	return nil
}

// Delete removes a value
func (s *SessionStore) Delete(ctx context.Context, sessionID, key string) error {
	k := storeKey(sessionID, key)

	if s.client != nil {
		if err := s.client.Del(ctx, k).Err(); err != nil {
			s.logger.WithFields(logrus.Fields{
				"key":   k,
				"error": err.Error(),
			}).Warn("Redis delete error")
		}
	}

	s.memMutex.Lock()
	delete(s.memCache, k)
	s.memMutex.Unlock()
	return nil
}

// PutOutcome stores a search outcome: the result as JSON under result_data
// (removed on failure) and the failure text under error_data ("" on success).
func (s *SessionStore) PutOutcome(ctx context.Context, sessionID string, outcome models.SearchOutcome) error {
	if outcome.OK() {
		data, err := json.Marshal(outcome.Result())
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		if err := s.Put(ctx, sessionID, KeyResultData, string(data)); err != nil {
			return err
		}
	} else if err := s.Delete(ctx, sessionID, KeyResultData); err != nil {
		return err
	}

	return s.Put(ctx, sessionID, KeyErrorData, outcome.Reason())
}

// GetOutcome returns the stored result (nil when absent) and error text
func (s *SessionStore) GetOutcome(ctx context.Context, sessionID string) (*models.CaseResult, string, error) {
	errText, _, err := s.Get(ctx, sessionID, KeyErrorData)
	if err != nil {
		return nil, "", err
	}

	raw, ok, err := s.Get(ctx, sessionID, KeyResultData)
	if err != nil || !ok {
		return nil, errText, err
	}

	var result models.CaseResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, errText, fmt.Errorf("decode stored result: %w", err)
	}
	return &result, errText, nil
}

// Health returns session store health status
func (s *SessionStore) Health() map[string]interface{} {
	health := make(map[string]interface{})

	if s.client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.client.Ping(ctx).Err(); err != nil {
			health["redis"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
		} else {
			health["redis"] = map[string]interface{}{
				"status": "healthy",
			}
		}
	} else {
		health["redis"] = map[string]interface{}{
			"status": "disabled",
		}
	}

	s.memMutex.RLock()
	size := len(s.memCache)
	s.memMutex.RUnlock()

	health["memory"] = map[string]interface{}{
		"status": "healthy",
		"size":   size,
		"ttl":    s.ttl.String(),
	}

	// the memory fallback keeps sessions working while redis is down
	health["status"] = "healthy"
	if r, ok := health["redis"].(map[string]interface{}); ok && r["status"] == "unhealthy" {
		health["status"] = "degraded"
	}

	return health
}

// cleanupExpired removes expired items from the memory store
func (s *SessionStore) cleanupExpired() {
	s.memMutex.Lock()
	defer s.memMutex.Unlock()

	now := time.Now()
	for key, item := range s.memCache {
		if now.After(item.expiresAt) {
			delete(s.memCache, key)
		}
	}
}

// StartCleanupRoutine periodically drops expired memory entries until ctx ends
func (s *SessionStore) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired()
			}
		}
	}()
}
