package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"clipsmith/api"
	sharedKafka "clipsmith/shared/kafka"
	"clipsmith/store"
	workerKafka "clipsmith/worker_service/app/kafka"
)

func main() {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
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
	clips, err := store.NewSQLiteClipRepository(db)
	if err != nil {
		log.Fatalf("failed to init clip repository: %v", err)
	}

	producer, err := sharedKafka.NewProducer(sharedKafka.ProducerConfig{
		Brokers: workerKafka.GetKafkaBrokers(),
		Topic:   workerKafka.GetKafkaTopic(),
	})
	if err != nil {
		log.Fatalf("failed to init Kafka producer: %v", err)
	}
	defer producer.Close()

	r := api.NewRouter(videos, clips, producer)
	log.Printf("Starting API server on %s", addr)
	log.Println("API endpoints available:")
	log.Println("  POST /api/videos")
	log.Println("  GET  /api/videos")
	log.Println("  GET  /api/videos/:id")
	log.Println("  GET  /api/videos/:id/clips")
	log.Println("  GET  /health")

	if err := r.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
