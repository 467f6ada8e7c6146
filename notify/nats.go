package notify

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
)

const DefaultSubject = "orders.closed"

// NatsChannel publishes notification events as JSON to a NATS subject so
// downstream consumers (audit, analytics) see the same stream the user
// does.
type NatsChannel struct {
	conn    *nats.Conn
	subject string
}

func NewNatsChannel(url, subject string) (*NatsChannel, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1))
	if err != nil {
		return nil, err
	}
	if subject == "" {
		subject = DefaultSubject
	}
	return &NatsChannel{conn: conn, subject: subject}, nil
}

func (c *NatsChannel) Send(_ context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return c.conn.Publish(c.subject, data)
}

func (c *NatsChannel) Name() string { return "nats" }

// Close drains the connection.
func (c *NatsChannel) Close() {
	c.conn.Close()
}
