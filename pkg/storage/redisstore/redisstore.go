package redisstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/phongkham/phongkham-backend/config"
)

// Collection keys. One JSON document per key; the whole collection is read
// and written as a unit, there is a single logical writer.
const (
	KeyPatients  = "clinic-patients"
	KeyDrugs     = "clinic-drugs"
	KeyDiagnoses = "clinic-diagnoses"
	KeyRevenue   = "clinic-revenue"
	KeyReception = "clinic-reception-list"
	KeySettings  = "clinic-settings"
)

// Store wraps the Redis connection used as the clinic's document store.
type Store struct {
	client *redis.Client
}

func New(client *redis.Client) *Store {
	return &Store{client: client}
}

// Connect opens the Redis connection using settings from config.
func Connect(ctx context.Context, cfg *config.Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// GetJSON unmarshals the document at key into dest. The second return value
// is false when the key does not exist; dest is left untouched in that case.
func (s *Store) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v as the document at key.
func (s *Store) SetJSON(ctx context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, raw, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// SetMulti writes several documents in one transaction pipeline so related
// collections (patients, revenue, reception queue) never land half-updated.
func (s *Store) SetMulti(ctx context.Context, docs map[string]interface{}) error {
	pipe := s.client.TxPipeline()
	for key, v := range docs {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		pipe.Set(ctx, key, raw, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("pipeline exec: %w", err)
	}
	return nil
}
