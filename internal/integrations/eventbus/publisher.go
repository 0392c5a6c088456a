package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
}

// messageWriter часть kafka.Writer, нужная публикатору
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher публикует события бронирований в Kafka
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger Logger
}

// KafkaConfig параметры публикатора
type KafkaConfig struct {
	Brokers      string // через запятую
	Topic        string
	WriteTimeout time.Duration
}

// NewKafkaPublisher создает публикатор. Пустой список брокеров недопустим.
func NewKafkaPublisher(cfg KafkaConfig, logger Logger) (*KafkaPublisher, error) {
	brokers := SplitBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, fmt.Errorf("%w: no kafka brokers configured", ErrPublish)
	}
	if cfg.Topic == "" {
		cfg.Topic = "bookings"
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      brokers,
		Balancer:     &kafka.Hash{},
		WriteTimeout: cfg.WriteTimeout,
	})

	return newKafkaPublisher(writer, cfg.Topic, logger), nil
}

func newKafkaPublisher(writer messageWriter, topic string, logger Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, topic: topic, logger: logger}
}

// Publish записывает событие; ключ сообщения - ID салона
func (p *KafkaPublisher) Publish(ctx context.Context, event BookingEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMarshalEvent, err)
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   event.key(),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%w: %s booking=%d: %w", ErrPublish, event.EventType, event.BookingID, err)
	}

	p.logger.Info("KafkaPublisher: published %s booking=%d", event.EventType, event.BookingID)
	return nil
}

// Close закрывает writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher используется, когда Kafka выключена
type NoopPublisher struct{}

// Publish ничего не делает
func (NoopPublisher) Publish(context.Context, BookingEvent) error { return nil }

// Close ничего не делает
func (NoopPublisher) Close() error { return nil }

// SplitBrokers разбирает список брокеров "host:port,host:port"
func SplitBrokers(raw string) []string {
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
