package broker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enrichsync/internal/config"
	"enrichsync/internal/logger"
	"enrichsync/pkg/logging"
)

func testLaneConfig() config.AMQPConfig {
	return config.AMQPConfig{
		Lane:        "enrichment.lookup",
		Prefetch:    1,
		ConsumerTag: "test-worker",
		Publish: config.RetryConfig{
			MaxAttempts:     3,
			InitialInterval: time.Millisecond,
			MaxInterval:     2 * time.Millisecond,
			Multiplier:      2,
		},
	}
}

func TestNewLane_DeclaresDurableQueue(t *testing.T) {
	ch := newMockChannel()

	lane, err := NewLane(ch, testLaneConfig(), logger.NopLogger())
	require.NoError(t, err)

	assert.Equal(t, "enrichment.lookup", lane.Name())
	assert.Equal(t, []string{"enrichment.lookup"}, ch.declared)
}

func TestLane_Publish(t *testing.T) {
	ch := newMockChannel()
	lane, err := NewLane(ch, testLaneConfig(), logger.NopLogger())
	require.NoError(t, err)

	err = lane.Publish(context.Background(), []byte(`{"lookup_url":"x"}`), "corr-1")
	require.NoError(t, err)

	published := ch.publishedMessages()
	require.Len(t, published, 1)
	msg := published[0]
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, "corr-1", msg.CorrelationId)
	assert.NotEmpty(t, msg.MessageId)
	assert.NotNil(t, msg.Headers)
	assert.JSONEq(t, `{"lookup_url":"x"}`, string(msg.Body))
}

func TestLane_Publish_UniqueMessageIDs(t *testing.T) {
	ch := newMockChannel()
	lane, err := NewLane(ch, testLaneConfig(), logger.NopLogger())
	require.NoError(t, err)

	require.NoError(t, lane.Publish(context.Background(), []byte(`{}`), ""))
	require.NoError(t, lane.Publish(context.Background(), []byte(`{}`), ""))

	published := ch.publishedMessages()
	require.Len(t, published, 2)
	assert.NotEqual(t, published[0].MessageId, published[1].MessageId)
}

func TestLane_Publish_RetriesTransientFailure(t *testing.T) {
	ch := newMockChannel()
	ch.publishErrs = []error{errors.New("channel busy")}
	lane, err := NewLane(ch, testLaneConfig(), logger.NopLogger())
	require.NoError(t, err)

	err = lane.Publish(context.Background(), []byte(`{}`), "")
	require.NoError(t, err)
	assert.Len(t, ch.publishedMessages(), 1)
}

func TestLane_Publish_GivesUp(t *testing.T) {
	ch := newMockChannel()
	boom := errors.New("connection lost")
	ch.publishErrs = []error{boom, boom, boom}
	lane, err := NewLane(ch, testLaneConfig(), logger.NopLogger())
	require.NoError(t, err)

	err = lane.Publish(context.Background(), []byte(`{}`), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enrichment.lookup")
	assert.Empty(t, ch.publishedMessages())
}

func TestLane_Consume_DispatchesAndSettles(t *testing.T) {
	ch := newMockChannel()
	lane, err := NewLane(ch, testLaneConfig(), logger.NopLogger())
	require.NoError(t, err)

	ack := newRecordingAcknowledger()
	ch.deliveries <- amqp.Delivery{
		Acknowledger:  ack,
		DeliveryTag:   1,
		MessageId:     "msg-1",
		CorrelationId: "corr-1",
		Body:          []byte(`{"a":1}`),
	}
	ch.deliveries <- amqp.Delivery{
		Acknowledger: ack,
		DeliveryTag:  2,
		MessageId:    "msg-2",
		Redelivered:  true,
		Body:         []byte(`{"a":2}`),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu       sync.Mutex
		received []string
		corrKeys []string
	)
	done := make(chan error, 1)
	go func() {
		done <- lane.Consume(ctx, func(ctx context.Context, d Delivery) error {
			mu.Lock()
			received = append(received, d.MessageID())
			corrKeys = append(corrKeys, logging.GetCorrelationKey(ctx))
			mu.Unlock()

			if d.Redelivered() {
				return d.Reject(false)
			}
			return d.Ack()
		})
	}()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, 1, ch.qos)
	assert.Equal(t, []string{"msg-1", "msg-2"}, received)
	assert.Equal(t, []string{"corr-1", ""}, corrKeys)
	assert.Equal(t, []uint64{1}, ack.acked)
	assert.Equal(t, map[uint64]bool{2: false}, ack.rejected)
}

func TestLane_Consume_ChannelClosed(t *testing.T) {
	ch := newMockChannel()
	lane, err := NewLane(ch, testLaneConfig(), logger.NopLogger())
	require.NoError(t, err)

	close(ch.deliveries)

	err = lane.Consume(context.Background(), func(context.Context, Delivery) error { return nil })
	assert.ErrorIs(t, err, ErrLaneClosed)
}

func TestLane_Consume_ConsumeError(t *testing.T) {
	ch := newMockChannel()
	ch.consumeErr = errors.New("access refused")
	lane, err := NewLane(ch, testLaneConfig(), logger.NopLogger())
	require.NoError(t, err)

	err = lane.Consume(context.Background(), func(context.Context, Delivery) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access refused")
}

func TestLane_MessageCount(t *testing.T) {
	ch := newMockChannel()
	ch.inspectQueue = amqp.Queue{Name: "enrichment.lookup", Messages: 42}
	lane, err := NewLane(ch, testLaneConfig(), logger.NopLogger())
	require.NoError(t, err)

	count, err := lane.MessageCount()
	require.NoError(t, err)
	assert.Equal(t, 42, count)

	ch.inspectErr = errors.New("not found")
	_, err = lane.MessageCount()
	assert.Error(t, err)
}
