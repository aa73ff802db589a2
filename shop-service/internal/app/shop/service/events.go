package service

import (
	"context"
	"encoding/json"

	"netshop/pkg/logger"
	"netshop/shop-service/internal/app/shop/infrastructure"
)

// publishEvent отправляет событие в Kafka. Ошибка только логируется:
// изменение уже сохранено, брокер не должен его откатывать.
func publishEvent(ctx context.Context, publisher infrastructure.MessagePublisher, key, eventType string, event any) {
	if publisher == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Warn().Err(err).Str("event_type", eventType).Msg("Failed to marshal event")
		return
	}

	if err := publisher.PublishMessage(ctx, key, data); err != nil {
		logger.Warn().Err(err).
			Str("event_type", eventType).
			Str("key", key).
			Msg("Failed to publish event")
	}
}
