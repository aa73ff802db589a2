package infrastructure

import (
	"context"
	"time"

	"netshop/shop-service/internal/app/shop/entity"
)

// MessagePublisher отправляет доменные события в брокер
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}

// CollectionCache хранит полный (без фильтров) список подборок.
// При промахе GetCollections возвращает nil и версию списка. SetCollections
// с этой версией ничего не пишет, если между чтением и записью была
// инвалидация, поэтому кеш не отстает от базы дольше одного запроса.
type CollectionCache interface {
	GetCollections(ctx context.Context) ([]entity.Collection, int64, error)
	SetCollections(ctx context.Context, collections []entity.Collection, version int64, ttl time.Duration) error
	InvalidateCollections(ctx context.Context) error
	Close() error
}
