package cache

import (
	"context"
	"testing"
	"time"

	"netshop/shop-service/internal/app/shop/entity"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	c, err := NewRedisCache(mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	return c, mr
}

func TestRedisCache_Miss(t *testing.T) {
	c, _ := setupCache(t)

	collections, version, err := c.GetCollections(context.Background())

	assert.NoError(t, err)
	assert.Nil(t, collections)
	assert.Zero(t, version)
}

func TestRedisCache_SetAndGet(t *testing.T) {
	// Arrange
	c, _ := setupCache(t)
	ctx := context.Background()
	product := entity.Product{ID: uuid.New(), Name: "Чай", Price: decimal.RequireFromString("3.50")}
	in := []entity.Collection{{ID: uuid.New(), Title: "Осень", Products: []entity.Product{product}}}

	// Act
	require.NoError(t, c.SetCollections(ctx, in, 0, time.Minute))
	out, _, err := c.GetCollections(ctx)

	// Assert
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, in[0].ID, out[0].ID)
	require.Len(t, out[0].Products, 1)
	assert.True(t, product.Price.Equal(out[0].Products[0].Price))
}

func TestRedisCache_EmptyListIsAHit(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetCollections(ctx, nil, 0, time.Minute))
	out, _, err := c.GetCollections(ctx)

	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestRedisCache_TTL(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetCollections(ctx, []entity.Collection{{ID: uuid.New()}}, 0, time.Minute))
	mr.FastForward(2 * time.Minute)

	out, _, err := c.GetCollections(ctx)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestRedisCache_Invalidate(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetCollections(ctx, []entity.Collection{{ID: uuid.New()}}, 0, time.Hour))
	require.NoError(t, c.InvalidateCollections(ctx))

	assert.False(t, mr.Exists(collectionsCacheKey))
	_, version, err := c.GetCollections(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, version)
}

func TestRedisCache_StaleFillIsDropped(t *testing.T) {
	// Arrange: читатель получил промах и версию, затем запись инвалидировала кеш
	c, mr := setupCache(t)
	ctx := context.Background()

	_, version, err := c.GetCollections(ctx)
	require.NoError(t, err)
	require.NoError(t, c.InvalidateCollections(ctx))

	// Act: читатель кладет то, что успел прочитать до записи
	err = c.SetCollections(ctx, []entity.Collection{{ID: uuid.New(), Title: "старое"}}, version, time.Hour)

	// Assert
	require.NoError(t, err)
	assert.False(t, mr.Exists(collectionsCacheKey))

	_, fresh, err := c.GetCollections(ctx)
	require.NoError(t, err)
	require.NoError(t, c.SetCollections(ctx, []entity.Collection{{ID: uuid.New(), Title: "новое"}}, fresh, time.Hour))
	out, _, err := c.GetCollections(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "новое", out[0].Title)
}

func TestRedisCache_CorruptedVersion(t *testing.T) {
	c, mr := setupCache(t)
	require.NoError(t, mr.Set(collectionsVersionKey, "abc"))

	_, _, err := c.GetCollections(context.Background())

	assert.ErrorContains(t, err, "invalid collections version")
}

func TestRedisCache_CorruptedValue(t *testing.T) {
	c, mr := setupCache(t)
	require.NoError(t, mr.Set(collectionsCacheKey, "not json"))

	_, _, err := c.GetCollections(context.Background())

	assert.ErrorContains(t, err, "failed to unmarshal collections")
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisCache(addr, "", 0)

	assert.ErrorContains(t, err, "failed to connect to redis")
}

func TestNewRedisCacheFromClient(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer c.Close()

	assert.NoError(t, c.InvalidateCollections(context.Background()))
}

func TestRedisCache_Ping(t *testing.T) {
	c, mr := setupCache(t)

	assert.NoError(t, c.Ping(context.Background()))

	mr.Close()
	assert.Error(t, c.Ping(context.Background()))
}
