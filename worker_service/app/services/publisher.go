package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"clipsmith/types"
	"clipsmith/worker_service/app/config"
)

// ObjectStore is the narrow object-storage surface the publisher needs.
// *common.S3 satisfies it.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, body io.Reader, contentType string) error
	Exists(ctx context.Context, bucket, key string) (bool, error)
}

// ArtifactPublisher uploads a local clip file under a destination key and
// returns its publicly resolvable URL. Re-publishing the same key overwrites
// rather than duplicates.
type ArtifactPublisher interface {
	Publish(ctx context.Context, localPath, key string) (string, error)
}

// S3Publisher publishes clip artifacts to an S3 bucket.
type S3Publisher struct {
	store  ObjectStore
	bucket string
	region string
}

// NewS3Publisher creates a publisher for the given bucket and region.
func NewS3Publisher(store ObjectStore, bucket, region string) *S3Publisher {
	return &S3Publisher{store: store, bucket: bucket, region: region}
}

// Publish implements ArtifactPublisher. A key already present in the bucket
// was uploaded whole by an earlier attempt (S3 puts are atomic), so it is
// not transferred again.
func (p *S3Publisher) Publish(ctx context.Context, localPath, key string) (string, error) {
	uctx, cancel := context.WithTimeout(ctx, config.UploadTimeout)
	defer cancel()

	if exists, err := p.store.Exists(uctx, p.bucket, key); err == nil && exists {
		log.Printf("⏭️  Artifact %s already published, skipping upload", key)
		return p.objectURL(key), nil
	}

	file, err := os.Open(localPath)
	if err != nil {
		return "", &PublishError{Key: key, Err: err}
	}
	defer file.Close()

	if err := p.store.Put(uctx, p.bucket, key, file, config.ClipMimeType); err != nil {
		return "", &PublishError{Key: key, Err: err}
	}

	return p.objectURL(key), nil
}

func (p *S3Publisher) objectURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.bucket, p.region, key)
}

// ClipKey derives the storage key for one segment's clip. It is a pure
// function of the owning video and the segment boundaries, so republishing
// after a retry lands on the same object.
func ClipKey(videoID string, index int, segment types.Segment) string {
	return fmt.Sprintf("clips/%s/clip_%d_%s-%s.mp4",
		videoID, index, formatSeconds(segment.Start), formatSeconds(segment.End))
}

// formatSeconds renders a boundary without trailing zeros (10, 10.5).
func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
