package config

import "time"

const (
	// Transcode configuration
	VideoCodec   = "libx264"
	AudioCodec   = "aac"
	VideoPreset  = "veryfast"
	ClipMimeType = "video/mp4"

	// Scene detection
	SceneThreshold = 0.3

	// Segment planning fallbacks
	FallbackSliceSeconds = 15
	MaxFallbackSegments  = 4

	// Processing configuration
	MaxConcurrentClips = 4

	// Retry policy: bounded attempts with exponential backoff, base doubling
	MaxAttempts    = 3
	RetryBaseDelay = 2 * time.Second

	// Stage timeouts. Media stages get the lesser of the ceiling and a
	// multiple of the video duration; metadata and upload calls get a flat
	// bound.
	StageTimeoutCeiling  = 10 * time.Minute
	StageDurationsFactor = 4
	UploadTimeout        = 2 * time.Minute
	MetadataTimeout      = 30 * time.Second

	// Job lock TTL; longer than any single attempt can run
	JobLockTTL = 15 * time.Minute
)

// StageTimeout returns the timeout bound for a media stage working on a
// video of the given duration (seconds). Unknown durations get the ceiling.
func StageTimeout(durationSeconds float64) time.Duration {
	if durationSeconds <= 0 {
		return StageTimeoutCeiling
	}
	scaled := time.Duration(durationSeconds*StageDurationsFactor) * time.Second
	if scaled < StageTimeoutCeiling {
		return scaled
	}
	return StageTimeoutCeiling
}
