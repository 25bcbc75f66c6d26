package services

import (
	"encoding/json"
	"fmt"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// DurationProber reports the duration of a local media file in seconds.
type DurationProber interface {
	ProbeDuration(videoPath string) (float64, error)
}

// FFprobeDurationProber reads the container duration via ffprobe.
type FFprobeDurationProber struct{}

// ProbeDuration implements DurationProber.
func (FFprobeDurationProber) ProbeDuration(videoPath string) (float64, error) {
	raw, err := ffmpeg.Probe(videoPath)
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed for %s: %w", videoPath, err)
	}

	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	d, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable duration %q: %w", probe.Format.Duration, err)
	}
	return d, nil
}
