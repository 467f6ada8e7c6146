package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"order-notifier-go/metrics"
)

// Notifier 通知管理器，将事件广播到所有通道
type Notifier struct {
	channels []Channel
	log      *zap.Logger
	mu       sync.RWMutex
}

func NewNotifier(log *zap.Logger, channels ...Channel) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{channels: channels, log: log}
}

// AddChannel 添加通知通道
func (n *Notifier) AddChannel(ch Channel) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.channels = append(n.channels, ch)
}

// Deliver is fire-and-forget: channel failures are logged and counted,
// never returned — a broken channel must not block the reconciliation
// cycle.
func (n *Notifier) Deliver(ctx context.Context, ev Event) {
	n.mu.RLock()
	channels := n.channels
	n.mu.RUnlock()

	for _, ch := range channels {
		if err := ch.Send(ctx, ev); err != nil {
			metrics.NotifyFailures.WithLabelValues(ch.Name()).Inc()
			n.log.Error("notification delivery failed",
				zap.String("channel", ch.Name()),
				zap.Int64("uid", ev.UserID),
				zap.String("exchange", ev.Exchange),
				zap.String("order_id", ev.OrderID),
				zap.Error(err))
		}
	}
}
