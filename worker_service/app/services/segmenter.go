package services

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"clipsmith/worker_service/app/config"
)

// SceneSegmenter analyzes a downloaded media file and produces the ordered
// timestamps (seconds) of detected visual scene changes. An empty result is
// a valid outcome, not an error.
type SceneSegmenter interface {
	DetectScenes(ctx context.Context, videoPath string, durationSeconds float64) ([]float64, error)
}

// FFmpegSegmenter runs ffmpeg's scene filter over the decoded stream and
// collects the frame timestamps that cross the change threshold.
type FFmpegSegmenter struct {
	Threshold float64
}

// NewFFmpegSegmenter creates a segmenter with the default scene threshold.
func NewFFmpegSegmenter() *FFmpegSegmenter {
	return &FFmpegSegmenter{Threshold: config.SceneThreshold}
}

// DetectScenes implements SceneSegmenter.
func (s *FFmpegSegmenter) DetectScenes(ctx context.Context, videoPath string, durationSeconds float64) ([]float64, error) {
	var stderr bytes.Buffer

	stream := ffmpeg.Input(videoPath).
		Output("pipe:", ffmpeg.KwArgs{
			"vf": fmt.Sprintf("select='gt(scene,%g)',showinfo", s.Threshold),
			"f":  "null",
		}).
		WithErrorOutput(&stderr)
	stream.Context = ctx

	err := stream.WithTimeout(config.StageTimeout(durationSeconds)).Run()
	if err != nil {
		return nil, &SegmentationError{VideoPath: videoPath, Err: fmt.Errorf("%w: %s", err, tail(stderr.String(), 4096))}
	}

	return parseSceneTimes(stderr.String()), nil
}

var ptsTimeRe = regexp.MustCompile(`pts_time:(\d+\.?\d*)`)

// parseSceneTimes extracts the selected frames' timestamps from ffmpeg's
// showinfo log output, deduplicated and ascending.
func parseSceneTimes(ffmpegLog string) []float64 {
	matches := ptsTimeRe.FindAllStringSubmatch(ffmpegLog, -1)

	seen := make(map[float64]bool, len(matches))
	var times []float64
	for _, m := range matches {
		t, err := strconv.ParseFloat(m[1], 64)
		if err != nil || t <= 0 || seen[t] {
			continue
		}
		seen[t] = true
		times = append(times, t)
	}

	sort.Float64s(times)
	return times
}

// tail returns at most the last n bytes of s; ffmpeg stderr can be huge and
// only the end carries the failure reason.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
