// Package notify fans order notifications out to delivery channels.
package notify

import (
	"context"
	"time"
)

// Event is one order notification bound for a user.
type Event struct {
	UserID     int64     `json:"user_id"`
	Exchange   string    `json:"exchange"`
	ExchangeID int       `json:"exchange_id"`
	OrderID    string    `json:"order_id"`
	Pair       string    `json:"pair"`
	State      string    `json:"state"`
	Text       string    `json:"text"` // rendered Markdown body
	CycleID    string    `json:"cycle_id"`
	At         time.Time `json:"at"`
}

// Channel 通知通道接口
type Channel interface {
	Send(ctx context.Context, ev Event) error
	Name() string
}
