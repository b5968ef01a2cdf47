package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"visionchat/pkg/domain"
)

const redisOpTimeout = 3 * time.Second

// RedisStore keeps the session record under a single Redis key.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore builds a Redis-backed session store.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = "visionchat:session"
	}
	return &RedisStore{client: client, key: key}
}

// Load reads the record. A missing key is a fresh empty session.
func (s *RedisStore) Load(ctx context.Context) (domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return domain.NewSession(), nil
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("read session: %w", err)
	}
	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return domain.Session{}, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	if sess.Messages == nil {
		sess.Messages = []domain.Message{}
	}
	return sess, nil
}

// Save replaces the record with a single SET.
func (s *RedisStore) Save(ctx context.Context, sess domain.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Reset overwrites the record with an empty session.
func (s *RedisStore) Reset(ctx context.Context) error {
	return s.Save(ctx, domain.NewSession())
}
