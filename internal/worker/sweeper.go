package worker

import (
	"context"
	"time"

	"fulfillment-service/internal/service"
	"fulfillment-service/internal/util"

	"go.uber.org/zap"
)

// Sweeper periodically cancels orders stuck in pending past the
// reservation timeout, restoring their stock through the same cancel
// transition the admin API uses.
type Sweeper struct {
	orders   *service.OrderService
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

// NewSweeper creates a new expiry sweeper
func NewSweeper(orders *service.OrderService, interval, timeout time.Duration) *Sweeper {
	return &Sweeper{
		orders:   orders,
		interval: interval,
		timeout:  timeout,
		logger:   util.GetLogger(),
	}
}

// Start runs sweep passes until ctx is done.
func (sw *Sweeper) Start(ctx context.Context) error {
	sw.logger.Info("Starting expiry sweeper",
		zap.Duration("interval", sw.interval),
		zap.Duration("timeout", sw.timeout))

	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			sw.logger.Info("Expiry sweeper stopping")
			return ctx.Err()
		case <-ticker.C:
			canceled, err := sw.orders.SweepExpired(ctx, sw.timeout)
			if err != nil {
				sw.logger.Error("Sweep pass failed", zap.Error(err))
				continue
			}
			if canceled > 0 {
				sw.logger.Info("Sweep pass canceled expired orders",
					zap.Int("count", canceled))
			}
		}
	}
}
