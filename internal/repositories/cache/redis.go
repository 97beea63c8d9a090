// Package cache provides the redis-backed cache used for merchant
// balance reads and payment link lookups.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mourinha112/zucropay-sub000/internal/models"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func NewRedisClient(cfg *RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// CacheService wraps the redis client with entity-aware helpers.
// The cache is strictly read-through: every balance mutation
// invalidates the merchant entry so reads never serve stale funds.
type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, ttl time.Duration) *CacheService {
	return &CacheService{client: client, ttl: ttl}
}

func merchantKey(id uint) string     { return fmt.Sprintf("merchant:%d", id) }
func paymentLinkKey(s string) string { return fmt.Sprintf("paymentlink:%s", s) }

func (c *CacheService) GetMerchant(ctx context.Context, id uint) (*models.Merchant, error) {
	val, err := c.client.Get(ctx, merchantKey(id)).Result()
	if err != nil {
		return nil, err
	}
	var m models.Merchant
	if err := json.Unmarshal([]byte(val), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *CacheService) SetMerchant(ctx context.Context, m *models.Merchant) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, merchantKey(m.ID), data, c.ttl).Err()
}

func (c *CacheService) InvalidateMerchant(ctx context.Context, id uint) error {
	return c.client.Del(ctx, merchantKey(id)).Err()
}

func (c *CacheService) GetPaymentLink(ctx context.Context, slug string) (*models.PaymentLink, error) {
	val, err := c.client.Get(ctx, paymentLinkKey(slug)).Result()
	if err != nil {
		return nil, err
	}
	var link models.PaymentLink
	if err := json.Unmarshal([]byte(val), &link); err != nil {
		return nil, err
	}
	return &link, nil
}

func (c *CacheService) SetPaymentLink(ctx context.Context, link *models.PaymentLink) error {
	data, err := json.Marshal(link)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, paymentLinkKey(link.Slug), data, c.ttl).Err()
}

func (c *CacheService) InvalidatePaymentLink(ctx context.Context, slug string) error {
	return c.client.Del(ctx, paymentLinkKey(slug)).Err()
}

func (c *CacheService) Get(ctx context.Context, key string) (string, error) {
	return c.client.Get(ctx, key).Result()
}

func (c *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *CacheService) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *CacheService) FlushAll(ctx context.Context) error {
	return c.client.FlushAll(ctx).Err()
}

func (c *CacheService) Close() error {
	return c.client.Close()
}
