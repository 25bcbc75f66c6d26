package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	sharedKafka "clipsmith/shared/kafka"
	"clipsmith/store"
	"clipsmith/types"
	workerKafka "clipsmith/worker_service/app/kafka"
)

// Operational helper: submit one video for processing without going through
// the HTTP API.
func main() {
	_ = godotenv.Load()

	sourceURL := flag.String("url", "", "source video URL (required)")
	ownerID := flag.String("owner", "", "owner identifier (required)")
	flag.Parse()

	if *sourceURL == "" || *ownerID == "" {
		flag.Usage()
		os.Exit(2)
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "clipsmith.db"
	}
	db, err := store.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database %s: %v", dbPath, err)
	}
	defer db.Close()

	videos, err := store.NewSQLiteVideoRepository(db)
	if err != nil {
		log.Fatalf("failed to init video repository: %v", err)
	}

	producer, err := sharedKafka.NewProducer(sharedKafka.ProducerConfig{
		Brokers: workerKafka.GetKafkaBrokers(),
		Topic:   workerKafka.GetKafkaTopic(),
	})
	if err != nil {
		log.Fatalf("failed to init Kafka producer: %v", err)
	}
	defer producer.Close()

	now := time.Now().UTC()
	video := &types.Video{
		ID:        uuid.New().String(),
		SourceURL: *sourceURL,
		OwnerID:   *ownerID,
		Status:    types.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := videos.Add(context.Background(), video); err != nil {
		log.Fatalf("failed to create video record: %v", err)
	}

	if err := producer.PublishJob(types.JobMessage{
		VideoID:   video.ID,
		SourceURL: video.SourceURL,
		OwnerID:   video.OwnerID,
		Attempt:   1,
	}); err != nil {
		log.Fatalf("failed to enqueue job: %v", err)
	}

	log.Printf("Submitted video %s", video.ID)
}
