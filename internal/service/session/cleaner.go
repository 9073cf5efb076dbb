// internal/service/session/cleaner.go
package session

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Cleaner runs the cleanup sweep on a fixed interval until its context is
// cancelled.
type Cleaner struct {
	service  *Service
	interval time.Duration
	logger   *zap.Logger
}

func NewCleaner(service *Service, interval time.Duration, logger *zap.Logger) *Cleaner {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Cleaner{
		service:  service,
		interval: interval,
		logger:   logger,
	}
}

func (c *Cleaner) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			result, err := c.service.CleanupExpired(ctx)
			if err != nil {
				c.logger.Error("session cleanup sweep failed", zap.Error(err))
				continue
			}
			if result.DeletedCount > 0 {
				c.logger.Info("session cleanup sweep finished",
					zap.Int64("deleted", result.DeletedCount))
			}
		}
	}
}
