package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"netshop/pkg/logger"
	"netshop/pkg/metrics"
	"netshop/shop-service/internal/app/shop/entity"

	"github.com/redis/go-redis/v9"
)

const (
	serviceName         = "shop-service"
	collectionsCacheKey = "collections:all"
	collectionsPrefix   = "collections"

	// Версия не имеет TTL и растет при каждой инвалидации
	collectionsVersionKey = "collections:version"
)

var errStaleVersion = errors.New("collections version changed")

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// NewRedisCacheFromClient оборачивает готовый клиент
func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// SetCollections кладет список, только если с момента чтения version
// не было инвалидации. Устаревшая запись молча пропускается.
func (r *RedisCache) SetCollections(ctx context.Context, collections []entity.Collection, version int64, ttl time.Duration) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	defer timer.ObserveDuration()

	if collections == nil {
		collections = []entity.Collection{}
	}
	data, err := json.Marshal(collections)
	if err != nil {
		return fmt.Errorf("failed to marshal collections: %w", err)
	}

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readVersion(tx.Get(ctx, collectionsVersionKey))
		if err != nil {
			return err
		}
		if current != version {
			return errStaleVersion
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, collectionsCacheKey, data, ttl)
			return nil
		})
		return err
	}, collectionsVersionKey)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, errStaleVersion), errors.Is(err, redis.TxFailedErr):
		logger.Debug().Int64("version", version).Msg("Collections changed while loading, cache not filled")
		return nil
	default:
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return fmt.Errorf("failed to set collections in cache: %w", err)
	}
}

// GetCollections при промахе возвращает nil и текущую версию списка,
// которую нужно передать в SetCollections
func (r *RedisCache) GetCollections(ctx context.Context) ([]entity.Collection, int64, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	defer timer.ObserveDuration()

	values, err := r.client.MGet(ctx, collectionsCacheKey, collectionsVersionKey).Result()
	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return nil, 0, fmt.Errorf("failed to get collections from cache: %w", err)
	}

	raw, ok := values[0].(string)
	if !ok {
		version, err := parseVersion(values[1])
		if err != nil {
			return nil, 0, err
		}
		metrics.RecordCacheMiss(serviceName, collectionsPrefix)
		return nil, version, nil
	}

	var collections []entity.Collection
	if err := json.Unmarshal([]byte(raw), &collections); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal collections: %w", err)
	}

	metrics.RecordCacheHit(serviceName, collectionsPrefix)
	return collections, 0, nil
}

// InvalidateCollections удаляет список и увеличивает версию
func (r *RedisCache) InvalidateCollections(ctx context.Context) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpDel)
	defer timer.ObserveDuration()

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, collectionsVersionKey)
		pipe.Del(ctx, collectionsCacheKey)
		return nil
	})
	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpDel)
		return fmt.Errorf("failed to delete collections from cache: %w", err)
	}
	return nil
}

func readVersion(cmd *redis.StringCmd) (int64, error) {
	v, err := cmd.Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read collections version: %w", err)
	}
	return v, nil
}

func parseVersion(v any) (int64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, nil
	}
	version, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid collections version %q: %w", s, err)
	}
	return version, nil
}

// Ping используется проверкой здоровья
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
