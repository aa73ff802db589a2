package processor

import (
	"context"
	"time"

	"netshop/pkg/logger"
	"netshop/pkg/metrics"
	"netshop/shop-service/internal/app/shop/entity"

	"github.com/robfig/cron/v3"
)

const refreshTimeout = 10 * time.Second

// StatusCounter - источник количества заказов по статусам
type StatusCounter interface {
	CountByStatus(ctx context.Context) (map[entity.OrderStatus]int64, error)
}

// StatusReporter по расписанию обновляет метрику orders_by_status
type StatusReporter struct {
	cron    *cron.Cron
	counter StatusCounter
}

func NewStatusReporter(counter StatusCounter) *StatusReporter {
	cronLogger := logger.With().Str("component", "cron").Logger()
	c := cron.New(
		cron.WithLogger(cron.PrintfLogger(&cronLogger)),
		cron.WithChain(cron.Recover(cron.PrintfLogger(&cronLogger)), cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	return &StatusReporter{
		cron:    c,
		counter: counter,
	}
}

func (r *StatusReporter) Start(ctx context.Context, schedule string) error {
	logger.Info().Str("schedule", schedule).Msg("Starting order status reporter")

	_, err := r.cron.AddFunc(schedule, func() {
		if err := r.Refresh(ctx); err != nil {
			logger.Error().Err(err).Msg("Failed to refresh orders_by_status")
		}
	})
	if err != nil {
		return err
	}

	r.cron.Start()

	// Первое значение метрики сразу, не дожидаясь расписания
	if err := r.Refresh(ctx); err != nil {
		logger.Warn().Err(err).Msg("Initial orders_by_status refresh failed")
	}
	return nil
}

// Refresh перечитывает счетчики и выставляет gauge по каждому статусу
func (r *StatusReporter) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	counts, err := r.counter.CountByStatus(ctx)
	if err != nil {
		return err
	}

	for _, status := range entity.OrderStatuses() {
		metrics.OrdersByStatus.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
	logger.Debug().Interface("counts", counts).Msg("orders_by_status refreshed")
	return nil
}

func (r *StatusReporter) Stop() {
	logger.Info().Msg("Stopping order status reporter...")
	<-r.cron.Stop().Done()
	logger.Info().Msg("Order status reporter stopped")
}

func (r *StatusReporter) Entries() []cron.Entry {
	return r.cron.Entries()
}
