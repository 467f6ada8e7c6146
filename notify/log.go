package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogChannel 日志通道：把每条通知写入结构化日志，便于排查投递问题
type LogChannel struct {
	log *zap.Logger
}

func NewLogChannel(log *zap.Logger) *LogChannel {
	return &LogChannel{log: log}
}

func (c *LogChannel) Send(_ context.Context, ev Event) error {
	c.log.Info("order notification",
		zap.Int64("uid", ev.UserID),
		zap.String("exchange", ev.Exchange),
		zap.String("order_id", ev.OrderID),
		zap.String("pair", ev.Pair),
		zap.String("state", ev.State),
		zap.String("cycle_id", ev.CycleID))
	return nil
}

func (c *LogChannel) Name() string { return "log" }
