package orderevents

import (
	"fmt"
	"log"
	"time"

	"github.com/IBM/sarama"
)

// Forwarder ships events to an external log.
type Forwarder interface {
	Forward(eventType, key string, payload []byte) error
	Close() error
}

// KafkaForwarder publishes events to a Kafka topic.
type KafkaForwarder struct {
	producer sarama.SyncProducer
	topic    string
}

var _ Forwarder = (*KafkaForwarder)(nil)

// NewKafkaForwarder connects a sync producer to brokers.
func NewKafkaForwarder(brokers []string, topic string) (*KafkaForwarder, error) {
	producer, err := sarama.NewSyncProducer(brokers, producerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to start Sarama producer: %w", err)
	}
	log.Printf("[orderevents] Kafka producer connected to %v", brokers)
	return NewKafkaForwarderWithProducer(producer, topic), nil
}

// NewKafkaForwarderWithProducer wraps an existing producer.
func NewKafkaForwarderWithProducer(producer sarama.SyncProducer, topic string) *KafkaForwarder {
	return &KafkaForwarder{producer: producer, topic: topic}
}

func producerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Timeout = 5 * time.Second
	return config
}

// Forward sends payload keyed by key so that events for one entity stay ordered.
func (f *KafkaForwarder) Forward(eventType, key string, payload []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: f.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-type"), Value: []byte(eventType)},
		},
	}

	partition, offset, err := f.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send %s to topic %q: %w", eventType, f.topic, err)
	}
	log.Printf("[orderevents] %s sent to topic '%s', partition %d, offset %d", eventType, f.topic, partition, offset)
	return nil
}

// Close closes the producer.
func (f *KafkaForwarder) Close() error {
	return f.producer.Close()
}
