package broker

import (
	"context"
	"errors"
	"sync"

	"github.com/segmentio/kafka-go"
	"github.com/streadway/amqp"
)

type mockChannel struct {
	mu sync.Mutex

	declared     []string
	published    []amqp.Publishing
	publishErrs  []error
	qos          int
	deliveries   chan amqp.Delivery
	consumeErr   error
	inspectQueue amqp.Queue
	inspectErr   error
	closed       bool
}

func newMockChannel() *mockChannel {
	return &mockChannel{deliveries: make(chan amqp.Delivery, 8)}
}

func (m *mockChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.declared = append(m.declared, name)
	return amqp.Queue{Name: name}, nil
}

func (m *mockChannel) QueueInspect(name string) (amqp.Queue, error) {
	return m.inspectQueue, m.inspectErr
}

func (m *mockChannel) Qos(prefetchCount, prefetchSize int, global bool) error {
	m.qos = prefetchCount
	return nil
}

func (m *mockChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.publishErrs) > 0 {
		err := m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
		if err != nil {
			return err
		}
	}
	m.published = append(m.published, msg)
	return nil
}

func (m *mockChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	if m.consumeErr != nil {
		return nil, m.consumeErr
	}
	return m.deliveries, nil
}

func (m *mockChannel) Close() error {
	m.closed = true
	return nil
}

func (m *mockChannel) publishedMessages() []amqp.Publishing {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]amqp.Publishing(nil), m.published...)
}

// recordingAcknowledger captures how deliveries were settled.
type recordingAcknowledger struct {
	mu       sync.Mutex
	acked    []uint64
	rejected map[uint64]bool
}

func newRecordingAcknowledger() *recordingAcknowledger {
	return &recordingAcknowledger{rejected: map[uint64]bool{}}
}

func (r *recordingAcknowledger) Ack(tag uint64, multiple bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.acked = append(r.acked, tag)
	return nil
}

func (r *recordingAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	return errors.New("nack not expected")
}

func (r *recordingAcknowledger) Reject(tag uint64, requeue bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected[tag] = requeue
	return nil
}

type mockWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *mockWriter) Close() error {
	w.closed = true
	return nil
}
