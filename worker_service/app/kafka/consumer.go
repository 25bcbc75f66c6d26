package kafka

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	sharedKafka "clipsmith/shared/kafka"
	"clipsmith/types"
	"clipsmith/worker_service/app/services"
)

// ConsumerConfig holds Kafka consumer configuration for the clip worker.
type ConsumerConfig struct {
	Brokers   []string
	Topic     string
	GroupID   string
	Processor *services.VideoProcessor
}

// NewConsumer creates a worker consumer using the shared consumer
// implementation.
func NewConsumer(config ConsumerConfig) (*sharedKafka.Consumer, error) {
	handler := &sharedKafka.TypedMessageHandler[types.JobMessage]{
		Validate: func(msg *types.JobMessage) bool {
			if msg.VideoID == "" {
				log.Printf("❌ Message missing video_id, skipping")
				return false
			}
			if msg.SourceURL == "" {
				log.Printf("❌ Message %s missing source_url, skipping", msg.VideoID)
				return false
			}
			return true
		},
		Process: func(ctx context.Context, msg *types.JobMessage) error {
			return config.Processor.ProcessJob(ctx, msg)
		},
		// Malformed submissions are skipped; only unrecordable attempts
		// (datastore down) stay unmarked for redelivery.
		AlwaysMark: true,
	}

	return sharedKafka.NewConsumer(sharedKafka.ConsumerConfig{
		Brokers: config.Brokers,
		Topic:   config.Topic,
		GroupID: config.GroupID,
		Handler: handler,
	})
}

// StartConsumerWithGracefulShutdown starts the consumer and blocks until
// SIGINT/SIGTERM.
func StartConsumerWithGracefulShutdown(config ConsumerConfig) error {
	consumer, err := NewConsumer(config)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := consumer.Start(ctx); err != nil {
		return err
	}

	sigterm := make(chan os.Signal, 1)
	signal.Notify(sigterm, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigterm:
		log.Println("Received termination signal")
	case <-ctx.Done():
		log.Println("Context canceled")
	}

	cancel()

	// Give some time for in-flight processing to complete
	time.Sleep(2 * time.Second)

	return consumer.Close()
}

// GetKafkaBrokers parses the Kafka broker list from the environment.
func GetKafkaBrokers() []string {
	brokers := os.Getenv("KAFKA_BOOTSTRAP_SERVERS")
	if brokers == "" {
		brokers = "localhost:9093"
	}
	return strings.Split(brokers, ",")
}

// GetKafkaTopic returns the job topic name from the environment.
func GetKafkaTopic() string {
	topic := os.Getenv("KAFKA_TOPIC_VIDEO_JOBS")
	if topic == "" {
		topic = "video-processing-jobs"
	}
	return topic
}

// GetKafkaGroupID returns the worker consumer group ID.
func GetKafkaGroupID() string {
	groupID := os.Getenv("KAFKA_CONSUMER_GROUP_ID")
	if groupID == "" {
		groupID = "clip-worker-consumer-group"
	}
	return groupID
}
