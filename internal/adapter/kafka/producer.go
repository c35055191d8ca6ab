package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/neomorfeo/partnerflow/internal/domain"
)

// Compile-time check: Producer implements domain.EventPublisher.
var _ domain.EventPublisher = (*Producer)(nil)

var jsonMarshal = json.Marshal

const (
	defaultBuffer = 1000
	writeTimeout  = 10 * time.Second
)

// KafkaWriter is the subset of *kafka.Writer the producer uses.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// message is the JSON value written for each notification.
type message struct {
	Event      string    `json:"event"`
	EntityKind string    `json:"entity_kind"`
	EntityID   string    `json:"entity_id"`
	Actor      string    `json:"actor"`
	Success    bool      `json:"success"`
	Detail     string    `json:"detail,omitempty"`
	At         time.Time `json:"at"`
}

// Producer publishes notifications to a Kafka topic. Publish never blocks:
// notifications go through a buffered channel and are dropped when it is full.
type Producer struct {
	writer    KafkaWriter
	events    chan domain.Notification
	logger    *zap.Logger
	closeChan chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewProducer creates a producer writing to topic on the given brokers.
func NewProducer(brokers []string, topic string, logger *zap.Logger) *Producer {
	return newProducer(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		Topic:                  topic,
		AllowAutoTopicCreation: true,
	}, logger, defaultBuffer)
}

func newProducer(writer KafkaWriter, logger *zap.Logger, buffer int) *Producer {
	p := &Producer{
		writer:    writer,
		events:    make(chan domain.Notification, buffer),
		logger:    logger.Named("kafka_producer"),
		closeChan: make(chan struct{}),
	}

	p.wg.Add(1)
	go p.eventLoop()
	return p
}

// TopicCreator is the subset of *kafka.Conn EnsureTopic uses.
type TopicCreator interface {
	CreateTopics(topics ...kafka.TopicConfig) error
}

// EnsureTopic creates topic if it does not exist yet.
func EnsureTopic(brokers []string, topic string, partitions int) error {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return fmt.Errorf("dialing %s: %w", brokers[0], err)
	}
	defer conn.Close()

	return ensureTopic(conn, topic, partitions)
}

func ensureTopic(c TopicCreator, topic string, partitions int) error {
	err := c.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: 1,
	})
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("creating topic %s: %w", topic, err)
	}
	return nil
}

// Publish queues a notification for delivery.
func (p *Producer) Publish(_ context.Context, n domain.Notification) error {
	select {
	case p.events <- n:
	default:
		p.logger.Warn("Kafka producer queue full, dropping notification",
			zap.String("event", string(n.Event)),
			zap.String("entity_id", n.EntityID),
		)
	}
	return nil
}

func (p *Producer) eventLoop() {
	defer p.wg.Done()
	for {
		select {
		case n := <-p.events:
			p.send(n)
		case <-p.closeChan:
			// Flush what is already queued.
			for {
				select {
				case n := <-p.events:
					p.send(n)
				default:
					return
				}
			}
		}
	}
}

func (p *Producer) send(n domain.Notification) {
	value, err := jsonMarshal(message{
		Event:      string(n.Event),
		EntityKind: n.EntityKind,
		EntityID:   n.EntityID,
		Actor:      n.Actor,
		Success:    n.Success,
		Detail:     n.Detail,
		At:         n.At,
	})
	if err != nil {
		p.logger.Error("Failed to serialize notification",
			zap.Error(err),
			zap.String("entity_id", n.EntityID),
		)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(n.EntityKind + "/" + n.EntityID),
		Value:   value,
		Headers: []kafka.Header{{Key: "event", Value: []byte(n.Event)}},
		Time:    n.At,
	})
	if err != nil {
		p.logger.Error("Failed to produce notification",
			zap.Error(err),
			zap.String("event", string(n.Event)),
			zap.String("entity_id", n.EntityID),
		)
	}
}

// Close flushes queued notifications and closes the writer.
func (p *Producer) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.closeChan)
		p.wg.Wait()
		if err = p.writer.Close(); err != nil {
			p.logger.Error("Failed to close Kafka writer", zap.Error(err))
		}
	})
	return err
}
