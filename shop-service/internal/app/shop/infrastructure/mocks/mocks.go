package mocks

import (
	"context"
	"time"

	"netshop/shop-service/internal/app/shop/entity"

	"github.com/stretchr/testify/mock"
)

// MockMessagePublisher мок для MessagePublisher
type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) PublishMessage(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockCollectionCache мок для CollectionCache
type MockCollectionCache struct {
	mock.Mock
}

func (m *MockCollectionCache) GetCollections(ctx context.Context) ([]entity.Collection, int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]entity.Collection), args.Get(1).(int64), args.Error(2)
}

func (m *MockCollectionCache) SetCollections(ctx context.Context, collections []entity.Collection, version int64, ttl time.Duration) error {
	args := m.Called(ctx, collections, version, ttl)
	return args.Error(0)
}

func (m *MockCollectionCache) InvalidateCollections(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCollectionCache) Close() error {
	args := m.Called()
	return args.Error(0)
}
