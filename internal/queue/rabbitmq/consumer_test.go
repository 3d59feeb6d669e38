package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"worry_solver/internal/config"
	"worry_solver/internal/metrics"
	"worry_solver/internal/model"
	"worry_solver/internal/service/worry"
	"worry_solver/internal/sse"
)

type storeMock struct {
	mock.Mock
}

func (m *storeMock) Store(ctx context.Context, code string, record model.Record) bool {
	return m.Called(ctx, code, record).Bool(0)
}

func (m *storeMock) Retrieve(ctx context.Context, code string) (model.Record, bool) {
	args := m.Called(ctx, code)
	return args.Get(0).(model.Record), args.Bool(1)
}

func (m *storeMock) Exists(ctx context.Context, code string) bool {
	return m.Called(ctx, code).Bool(0)
}

func (m *storeMock) Update(ctx context.Context, code string, fn func(record *model.Record) bool) (model.Record, bool) {
	args := m.Called(ctx, code, fn)
	return args.Get(0).(model.Record), args.Bool(1)
}

func (m *storeMock) ClearAll(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

func (m *storeMock) SetCurrentCode(ctx context.Context, code string) bool {
	return m.Called(ctx, code).Bool(0)
}

func (m *storeMock) CurrentCode(ctx context.Context) (string, bool) {
	args := m.Called(ctx)
	return args.String(0), args.Bool(1)
}

type ackMock struct {
	acked   int
	nacked  int
	requeue bool
}

func (a *ackMock) Ack(_ uint64, _ bool) error {
	a.acked++
	return nil
}

func (a *ackMock) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked++
	a.requeue = requeue
	return nil
}

func (a *ackMock) Reject(_ uint64, _ bool) error {
	return nil
}

func newTestConsumer(store *storeMock) *Consumer {
	svc := worry.NewService(&config.Config{}, store, nil, sse.NewHub(), &noopPublisher{}, metrics.New(), zap.NewNop())
	return &Consumer{svc: svc, logger: zap.NewNop()}
}

func TestConsumerHandleMessage(t *testing.T) {
	t.Run("invalid json", func(t *testing.T) {
		store := &storeMock{}
		consumer := newTestConsumer(store)
		ack := &ackMock{}

		msg := amqp.Delivery{
			Body:         []byte("{bad json"),
			Acknowledger: ack,
		}

		err := consumer.handleMessage(context.Background(), msg)
		require.NoError(t, err)
		require.Equal(t, 1, ack.acked)
		require.Equal(t, 0, ack.nacked)
		store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing fields", func(t *testing.T) {
		store := &storeMock{}
		consumer := newTestConsumer(store)
		ack := &ackMock{}

		msg := amqp.Delivery{
			Body:         []byte(`{"accessCode":"TSZT-VVSM-8F8Y"}`),
			Acknowledger: ack,
		}

		err := consumer.handleMessage(context.Background(), msg)
		require.NoError(t, err)
		require.Equal(t, 1, ack.acked)
		require.Equal(t, 0, ack.nacked)
		store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("malformed code", func(t *testing.T) {
		store := &storeMock{}
		consumer := newTestConsumer(store)
		ack := &ackMock{}

		msg := amqp.Delivery{
			Body:         []byte(`{"accessCode":"NOPE","replyText":"hi"}`),
			Acknowledger: ack,
		}

		err := consumer.handleMessage(context.Background(), msg)
		require.NoError(t, err)
		require.Equal(t, 1, ack.acked)
		store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown code -> ack", func(t *testing.T) {
		store := &storeMock{}
		store.On("Update", mock.Anything, "TSZT-VVSM-8F8Y", mock.Anything).Return(model.Record{}, false).Once()
		store.On("Exists", mock.Anything, "TSZT-VVSM-8F8Y").Return(false).Once()
		consumer := newTestConsumer(store)
		ack := &ackMock{}

		msg := amqp.Delivery{
			Body:         []byte(`{"accessCode":"TSZT-VVSM-8F8Y","replyText":"hi"}`),
			Acknowledger: ack,
		}

		err := consumer.handleMessage(context.Background(), msg)
		require.NoError(t, err)
		require.Equal(t, 1, ack.acked)
		require.Equal(t, 0, ack.nacked)
		store.AssertExpectations(t)
	})

	t.Run("store error -> nack", func(t *testing.T) {
		store := &storeMock{}
		store.On("Update", mock.Anything, "TSZT-VVSM-8F8Y", mock.Anything).Return(model.Record{}, false).Once()
		store.On("Exists", mock.Anything, "TSZT-VVSM-8F8Y").Return(true).Once()
		consumer := newTestConsumer(store)
		ack := &ackMock{}

		msg := amqp.Delivery{
			Body:         []byte(`{"accessCode":"TSZT-VVSM-8F8Y","replyText":"hi"}`),
			Acknowledger: ack,
		}

		err := consumer.handleMessage(context.Background(), msg)
		require.NoError(t, err)
		require.Equal(t, 0, ack.acked)
		require.Equal(t, 1, ack.nacked)
		require.True(t, ack.requeue)
		store.AssertExpectations(t)
	})

	t.Run("code taken from routing key", func(t *testing.T) {
		store := &storeMock{}
		store.On("Update", mock.Anything, "TSZT-VVSM-8F8Y", mock.Anything).Return(model.Record{
			AccessCode: "TSZT-VVSM-8F8Y",
			Replies:    []model.Reply{{ReplyText: "hi"}},
		}, true).Once()
		consumer := newTestConsumer(store)
		ack := &ackMock{}

		msg := amqp.Delivery{
			RoutingKey:   "reply.TSZT-VVSM-8F8Y",
			Body:         []byte(`{"replyText":"hi"}`),
			Acknowledger: ack,
		}

		err := consumer.handleMessage(context.Background(), msg)
		require.NoError(t, err)
		require.Equal(t, 1, ack.acked)
		store.AssertExpectations(t)
	})

	t.Run("success -> ack", func(t *testing.T) {
		store := &storeMock{}
		store.On("Update", mock.Anything, "TSZT-VVSM-8F8Y", mock.Anything).Return(model.Record{
			AccessCode: "TSZT-VVSM-8F8Y",
			Replies:    []model.Reply{{ReplyText: "hi", ReplierName: "Sam"}},
		}, true).Once()
		consumer := newTestConsumer(store)
		ack := &ackMock{}

		payload, err := json.Marshal(map[string]string{
			"accessCode":  "tszt-vvsm-8f8y",
			"replyText":   "hi",
			"replierName": "Sam",
		})
		require.NoError(t, err)

		msg := amqp.Delivery{
			Body:         payload,
			Acknowledger: ack,
		}

		err = consumer.handleMessage(context.Background(), msg)
		require.NoError(t, err)
		require.Equal(t, 1, ack.acked)
		require.Equal(t, 0, ack.nacked)
		store.AssertExpectations(t)
	})
}

func TestNoopFallbacks(t *testing.T) {
	cfg := &config.Config{}
	pub := NewPublisher(cfg, zap.NewNop())
	require.NoError(t, pub.Publish(context.Background(), []byte("{}"), "worry.submitted"))

	consumer := NewConsumer(cfg, nil, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.True(t, errors.Is(consumer.Start(ctx), context.Canceled))
}

func TestHeaderCarrier(t *testing.T) {
	headers := amqp.Table{}
	carrier := amqpHeaderCarrier(headers)
	carrier.Set("traceparent", "00-abc-def-01")

	require.Equal(t, "00-abc-def-01", carrier.Get("traceparent"))
	require.Equal(t, "", carrier.Get("missing"))
	require.Equal(t, []string{"traceparent"}, carrier.Keys())
	require.Equal(t, "00-abc-def-01", headers["traceparent"])
}

func TestHeaderCarrierBytes(t *testing.T) {
	carrier := amqpHeaderCarrier(amqp.Table{"traceparent": []byte("00-abc-def-01"), "n": int32(3)})
	require.Equal(t, "00-abc-def-01", carrier.Get("traceparent"))
	require.Equal(t, "3", carrier.Get("n"))
}

func TestCodeFromRoutingKey(t *testing.T) {
	consumer := &Consumer{replyPrefix: "answers"}
	require.Equal(t, "TSZT-VVSM-8F8Y", consumer.codeFromRoutingKey("answers.TSZT-VVSM-8F8Y"))
	require.Equal(t, "", consumer.codeFromRoutingKey("reply.TSZT-VVSM-8F8Y"))
	require.Equal(t, "ABCD-EFGH-JKLM", (&Consumer{}).codeFromRoutingKey("reply.ABCD-EFGH-JKLM"))
}
