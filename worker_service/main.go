package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"clipsmith/common"
	sharedKafka "clipsmith/shared/kafka"
	"clipsmith/store"
	"clipsmith/worker_service/app/config"
	"clipsmith/worker_service/app/kafka"
	"clipsmith/worker_service/app/services"
)

func main() {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	log.Println("🎬 Clip Worker Service - Starting...")

	ctx := context.Background()

	// Required settings first; a worker without storage credentials must not
	// start at all.
	bucket := strings.TrimSpace(os.Getenv("S3_BUCKET"))
	if bucket == "" {
		log.Fatalf("❌ %v", &services.ConfigurationError{Setting: "S3_BUCKET"})
	}
	region := strings.TrimSpace(os.Getenv("S3_REGION"))
	if region == "" {
		region = "us-west-1"
	}

	s3Client, err := common.NewS3(ctx, common.S3Config{
		Region:       region,
		Profile:      strings.TrimSpace(os.Getenv("S3_PROFILE")),
		UsePathStyle: strings.EqualFold(strings.TrimSpace(os.Getenv("S3_USE_PATH_STYLE")), "true"),
	})
	if err != nil {
		log.Fatalf("❌ Failed to init S3 client: %v", err)
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "clipsmith.db"
	}
	db, err := store.Open(dbPath)
	if err != nil {
		log.Fatalf("❌ Failed to open database %s: %v", dbPath, err)
	}
	defer db.Close()

	videos, err := store.NewSQLiteVideoRepository(db)
	if err != nil {
		log.Fatalf("❌ Failed to init video repository: %v", err)
	}
	clips, err := store.NewSQLiteClipRepository(db)
	if err != nil {
		log.Fatalf("❌ Failed to init clip repository: %v", err)
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer redisClient.Close()

	producer, err := sharedKafka.NewProducer(sharedKafka.ProducerConfig{
		Brokers: kafka.GetKafkaBrokers(),
		Topic:   kafka.GetKafkaTopic(),
	})
	if err != nil {
		log.Fatalf("❌ Failed to init Kafka producer: %v", err)
	}
	defer producer.Close()

	// Metadata is optional; without an API key the pipeline degrades to
	// probing the downloaded file.
	var metadata services.MetadataProvider
	if apiKey := strings.TrimSpace(os.Getenv("YOUTUBE_API_KEY")); apiKey != "" {
		provider, err := services.NewYouTubeMetadataProvider(ctx, apiKey)
		if err != nil {
			log.Printf("⚠️  YouTube metadata provider not initialized: %v", err)
		} else {
			metadata = provider
			log.Println("YouTube metadata client initialized")
		}
	} else {
		log.Println("No YOUTUBE_API_KEY set; running without the metadata provider")
	}

	publisher := services.NewS3Publisher(s3Client, bucket, region)
	processor := services.NewVideoProcessor(services.ProcessorConfig{
		Fetcher:     services.NewYtDlpFetcher(),
		Segmenter:   services.NewFFmpegSegmenter(),
		Prober:      services.FFprobeDurationProber{},
		Metadata:    metadata,
		Clips:       services.NewExtractPublishProducer(services.FFmpegExtractor{}, publisher),
		Videos:      videos,
		ClipRecords: clips,
		Queue:       producer,
		Locker:      services.NewRedisLocker(redisClient, config.JobLockTTL),
	})

	kafkaConfig := kafka.ConsumerConfig{
		Brokers:   kafka.GetKafkaBrokers(),
		Topic:     kafka.GetKafkaTopic(),
		GroupID:   kafka.GetKafkaGroupID(),
		Processor: processor,
	}

	log.Printf("🔗 Kafka Brokers: %v", kafkaConfig.Brokers)
	log.Printf("📋 Topic: %s", kafkaConfig.Topic)
	log.Printf("👥 Consumer Group: %s", kafkaConfig.GroupID)

	if err := kafka.StartConsumerWithGracefulShutdown(kafkaConfig); err != nil {
		log.Fatalf("❌ Kafka consumer failed: %v", err)
	}
}
