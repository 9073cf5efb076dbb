// internal/pkg/events/zap_sink.go
package events

import (
	"context"

	"go.uber.org/zap"
)

// ZapSink writes security events to the structured log.
type ZapSink struct {
	logger *zap.Logger
}

func NewZapSink(logger *zap.Logger) *ZapSink {
	return &ZapSink{logger: logger}
}

func (s *ZapSink) Emit(_ context.Context, ev *Event) {
	fields := []zap.Field{
		zap.String("event_type", string(ev.Type)),
		zap.Int64("account_id", ev.AccountID),
		zap.Time("at", ev.Timestamp),
	}
	if ev.SessionID != "" {
		fields = append(fields, zap.String("session_id", ev.SessionID))
	}
	if len(ev.Data) > 0 {
		fields = append(fields, zap.Any("data", ev.Data))
	}

	s.logger.Info("security event", fields...)
}
