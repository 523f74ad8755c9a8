package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tradiesite/tradiesite/internal/config"
	"github.com/tradiesite/tradiesite/internal/domain"
)

const keyPrefix = "site:"

// RedisStore keeps sites in Redis as JSON values with a native TTL, so the
// registry survives process restarts and no sweep is needed.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store and verifies connectivity.
func NewRedisStore(ctx context.Context, cfg config.RegistryConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &RedisStore{client: client, ttl: cfg.TTL}, nil
}

// Save stores the site JSON under its id with the retention TTL.
func (s *RedisStore) Save(ctx context.Context, site *domain.GeneratedSite) error {
	data, err := json.Marshal(site)
	if err != nil {
		return fmt.Errorf("marshaling site: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+site.ID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("saving site: %w", err)
	}
	return nil
}

// Get fetches and decodes the site, or ErrNotFound once the TTL has lapsed.
func (s *RedisStore) Get(ctx context.Context, id string) (*domain.GeneratedSite, error) {
	data, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching site: %w", err)
	}

	var site domain.GeneratedSite
	if err := json.Unmarshal(data, &site); err != nil {
		return nil, fmt.Errorf("decoding site: %w", err)
	}
	return &site, nil
}

// UpdateStatus rewrites the stored value with the new status, preserving the
// remaining TTL. A missing id is silently ignored, and so is a backwards
// status transition.
func (s *RedisStore) UpdateStatus(ctx context.Context, id string, status domain.SiteStatus, deployedURL string) error {
	site, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if site.Status.CanTransitionTo(status) {
		site.Status = status
	}
	if deployedURL != "" {
		site.DeployedURL = deployedURL
	}

	data, err := json.Marshal(site)
	if err != nil {
		return fmt.Errorf("marshaling site: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+id, data, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("saving site: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
