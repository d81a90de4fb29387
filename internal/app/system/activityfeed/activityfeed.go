// Package activityfeed streams activity log entries to downstream consumers.
package activityfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/dalemusser/clubbera/internal/domain/models"
	"go.uber.org/zap"
)

// Publisher sends committed activity entries somewhere. Publishing is best
// effort: implementations log failures and never return them to callers.
type Publisher interface {
	Publish(ctx context.Context, entry models.ActivityLog)
	Close() error
}

// Nop discards every entry. Used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, models.ActivityLog) {}
func (Nop) Close() error                                { return nil }

// Kafka publishes entries as JSON to a topic, keyed by group id so one
// group's activity stays ordered within a partition. Sends are asynchronous:
// Publish only enqueues, and delivery errors are logged by a drain goroutine.
type Kafka struct {
	producer sarama.AsyncProducer
	topic    string
	log      *zap.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewKafka dials brokers and returns a publisher for topic.
func NewKafka(brokers []string, topic string, log *zap.Logger) (*Kafka, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Return.Successes = false
	cfg.Producer.Return.Errors = true
	cfg.Producer.Flush.Frequency = 500 * time.Millisecond
	cfg.Producer.Timeout = 5 * time.Second
	cfg.ClientID = "clubbera"

	p, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return NewKafkaWithProducer(p, topic, log), nil
}

// NewKafkaWithProducer wraps an existing producer and starts draining its
// error channel. The producer must have Return.Successes off.
func NewKafkaWithProducer(p sarama.AsyncProducer, topic string, log *zap.Logger) *Kafka {
	if log == nil {
		log = zap.NewNop()
	}
	k := &Kafka{producer: p, topic: topic, log: log, done: make(chan struct{})}
	go k.drainErrors()
	return k
}

func (k *Kafka) drainErrors() {
	defer close(k.done)
	for perr := range k.producer.Errors() {
		fields := []zap.Field{zap.Error(perr.Err)}
		if perr.Msg != nil {
			if key, ok := perr.Msg.Key.(sarama.StringEncoder); ok {
				fields = append(fields, zap.String("group_id", string(key)))
			}
		}
		k.log.Warn("activity feed publish failed", fields...)
	}
}

// message is the wire shape consumers read.
type message struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"groupId"`
	UserID    string    `json:"userId"`
	CommentID string    `json:"commentId,omitempty"`
	MeetingID string    `json:"meetingId,omitempty"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func toMessage(e models.ActivityLog) message {
	m := message{
		ID:        e.ID.Hex(),
		GroupID:   e.GroupID.Hex(),
		UserID:    e.UserID.Hex(),
		Action:    string(e.Action),
		Timestamp: e.Timestamp,
	}
	if e.CommentID != nil {
		m.CommentID = e.CommentID.Hex()
	}
	if e.MeetingID != nil {
		m.MeetingID = e.MeetingID.Hex()
	}
	return m
}

// Publish enqueues entry without waiting for the broker. When the producer
// buffer is full the entry is dropped and logged.
func (k *Kafka) Publish(_ context.Context, entry models.ActivityLog) {
	body, err := json.Marshal(toMessage(entry))
	if err != nil {
		k.log.Error("activity feed encode failed", zap.Error(err))
		return
	}
	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(entry.GroupID.Hex()),
		Value: sarama.ByteEncoder(body),
	}

	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.closed {
		return
	}
	select {
	case k.producer.Input() <- msg:
	default:
		k.log.Warn("activity feed buffer full, entry dropped",
			zap.String("group_id", entry.GroupID.Hex()),
			zap.String("action", string(entry.Action)))
	}
}

// Close flushes buffered entries and waits for the error drain to finish.
func (k *Kafka) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	k.mu.Unlock()

	k.producer.AsyncClose()
	<-k.done
	return nil
}
