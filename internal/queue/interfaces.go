// Package queue holds the broker-facing contracts; internal/queue/rabbitmq
// implements them with noop fallbacks when no broker is configured.
package queue

import "context"

// Consumer runs until ctx is done.
type Consumer interface {
	Start(ctx context.Context) error
}

// Publisher sends a JSON payload under a routing key such as
// "worry.submitted" or "reply.<access code>".
type Publisher interface {
	Publish(ctx context.Context, payload []byte, routingKey string) error
}
