package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"worry_solver/internal/config"
	"worry_solver/internal/domain"
	"worry_solver/internal/queue"
	"worry_solver/internal/service/worry"
)

const (
	prefetchCount   = 10
	addReplyTimeout = 5 * time.Second
)

type noopConsumer struct{}

func (n *noopConsumer) Start(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

// Consumer appends replies that helpers send through the broker.
type Consumer struct {
	url         string
	svc         *worry.Service
	logger      *zap.Logger
	exchange    string
	queue       string
	routingKey  string
	consumerTag string
	replyPrefix string
}

func NewConsumer(cfg *config.Config, svc *worry.Service, logger *zap.Logger) queue.Consumer {
	if cfg.RabbitMQURL == "" {
		return &noopConsumer{}
	}
	return &Consumer{
		url:         cfg.RabbitMQURL,
		svc:         svc,
		logger:      logger,
		exchange:    cfg.RabbitExchange,
		queue:       cfg.RabbitQueue,
		routingKey:  cfg.RabbitRoutingKey,
		consumerTag: cfg.RabbitConsumerTag,
		replyPrefix: cfg.RabbitReplyPrefix,
	}
}

// Start blocks until ctx is done or the broker closes the delivery channel.
func (r *Consumer) Start(ctx context.Context) error {
	ctx, span := otel.Tracer("rabbitmq").Start(ctx, "rabbitmq.consume_replies")
	span.SetAttributes(messagingAttributes(r.exchange, r.routingKey)...)
	defer span.End()

	conn, err := amqp.Dial(r.url)
	if err != nil {
		return fail(span, fmt.Errorf("rabbitmq dial: %w", err), "dial failed")
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fail(span, fmt.Errorf("rabbitmq channel: %w", err), "channel failed")
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(prefetchCount, 0, false); err != nil {
		return fail(span, fmt.Errorf("rabbitmq qos: %w", err), "qos failed")
	}

	queueName, err := declareReplyQueue(ch, r.exchange, r.queue, r.routingKey)
	if err != nil {
		return fail(span, err, "topology failed")
	}

	deliveries, err := ch.Consume(queueName, r.consumerTag, false, false, false, false, nil)
	if err != nil {
		return fail(span, fmt.Errorf("rabbitmq consume: %w", err), "consume failed")
	}

	r.logger.Info("RabbitMQ reply consumer started",
		zap.String("exchange", r.exchange),
		zap.String("queue", queueName),
		zap.String("routing_key", r.routingKey),
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-deliveries:
			if !ok {
				return fail(span, errors.New("rabbitmq deliveries closed"), "deliveries closed")
			}
			if err := r.handleMessage(ctx, msg); err != nil {
				return fail(span, err, "ack failed")
			}
		}
	}
}

type replyMessage struct {
	AccessCode  string `json:"accessCode"`
	ReplyText   string `json:"replyText"`
	ReplierName string `json:"replierName"`
}

// handleMessage acks everything that can never succeed and nacks with
// requeue only when the store failed. The returned error is an ack failure.
func (r *Consumer) handleMessage(ctx context.Context, msg amqp.Delivery) error {
	ctx = otel.GetTextMapPropagator().Extract(ctx, amqpHeaderCarrier(msg.Headers))
	ctx, span := otel.Tracer("rabbitmq").Start(ctx, "rabbitmq.handle_reply")
	span.SetAttributes(messagingAttributes(r.exchange, msg.RoutingKey)...)
	defer span.End()

	var m replyMessage
	if err := json.Unmarshal(msg.Body, &m); err != nil {
		_ = fail(span, err, "invalid json")
		r.logger.Error("rabbitmq invalid reply json", zap.Error(err))
		return msg.Ack(false)
	}
	if m.AccessCode == "" {
		m.AccessCode = r.codeFromRoutingKey(msg.RoutingKey)
	}
	span.SetAttributes(attribute.String("worry.access_code", m.AccessCode))
	if m.AccessCode == "" || m.ReplyText == "" {
		span.SetStatus(codes.Error, "missing required fields")
		r.logger.Warn("rabbitmq reply missing required fields",
			zap.String("access_code", m.AccessCode),
			zap.String("routing_key", msg.RoutingKey),
		)
		return msg.Ack(false)
	}

	addCtx, cancel := context.WithTimeout(ctx, addReplyTimeout)
	defer cancel()
	_, err := r.svc.AddReply(addCtx, m.AccessCode, worry.ReplyInput{
		ReplyText:   m.ReplyText,
		ReplierName: m.ReplierName,
	}, worry.SourceQueue)
	switch {
	case err == nil:
		return msg.Ack(false)
	case errors.Is(err, domain.ErrInvalidAccessCode),
		errors.Is(err, domain.ErrEmptyReply),
		errors.Is(err, domain.ErrRecordNotFound):
		_ = fail(span, err, "reply rejected")
		r.logger.Warn("rabbitmq reply rejected", zap.String("access_code", m.AccessCode), zap.Error(err))
		return msg.Ack(false)
	default:
		_ = fail(span, err, "add reply failed")
		r.logger.Error("rabbitmq add reply failed", zap.String("access_code", m.AccessCode), zap.Error(err))
		if nackErr := msg.Nack(false, true); nackErr != nil {
			r.logger.Error("rabbitmq nack failed", zap.Error(nackErr))
		}
		return nil
	}
}

// codeFromRoutingKey reads the code out of "<prefix>.<code>" keys.
func (r *Consumer) codeFromRoutingKey(key string) string {
	prefix := r.replyPrefix
	if prefix == "" {
		prefix = "reply"
	}
	code, ok := strings.CutPrefix(key, prefix+".")
	if !ok {
		return ""
	}
	return code
}
