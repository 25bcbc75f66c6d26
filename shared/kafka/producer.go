package kafka

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/IBM/sarama"

	"clipsmith/types"
)

// JobPublisher enqueues processing jobs. Both the submission API and the
// worker's retry path publish through this interface.
type JobPublisher interface {
	// PublishJob enqueues one processing attempt for a video.
	PublishJob(msg types.JobMessage) error
}

// Producer publishes job messages to a Kafka topic, keyed by video ID so all
// attempts for one video land on the same partition in order.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// ProducerConfig holds Kafka producer configuration.
type ProducerConfig struct {
	Brokers []string
	Topic   string
}

// NewProducer creates a new synchronous Kafka producer.
func NewProducer(config ProducerConfig) (*Producer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_6_0_0
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 5
	saramaConfig.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &Producer{producer: producer, topic: config.Topic}, nil
}

// PublishJob implements JobPublisher.
func (p *Producer) PublishJob(msg types.JobMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal job message: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(msg.VideoID),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("failed to publish job message: %w", err)
	}

	log.Printf("📤 Published job: video=%s attempt=%d partition=%d offset=%d",
		msg.VideoID, msg.Attempt, partition, offset)
	return nil
}

// Close shuts down the producer.
func (p *Producer) Close() error {
	return p.producer.Close()
}
