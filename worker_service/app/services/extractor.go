package services

import (
	"bytes"
	"context"
	"fmt"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"clipsmith/types"
	"clipsmith/worker_service/app/config"
)

// ClipExtractor re-encodes one planned segment of the source file into a
// standalone output file.
type ClipExtractor interface {
	Extract(ctx context.Context, sourcePath string, segment types.Segment, outputPath string) error
}

// FFmpegExtractor produces independently playable clips with a full
// re-encode. A byte-range slice would not carry valid container headers.
type FFmpegExtractor struct{}

// Extract implements ClipExtractor. Seeking past the end of the media is
// tolerated: ffmpeg clamps the read and emits whatever frames exist, which
// is what the planner's fixed fallback plan relies on.
func (FFmpegExtractor) Extract(ctx context.Context, sourcePath string, segment types.Segment, outputPath string) error {
	var stderr bytes.Buffer

	stream := ffmpeg.Input(sourcePath).
		Output(outputPath, ffmpeg.KwArgs{
			"ss":     segment.Start,
			"t":      segment.Duration(),
			"c:v":    config.VideoCodec,
			"c:a":    config.AudioCodec,
			"preset": config.VideoPreset,
		}).
		OverWriteOutput().
		WithErrorOutput(&stderr)
	stream.Context = ctx

	err := stream.WithTimeout(config.StageTimeout(segment.Duration())).Run()
	if err != nil {
		return &ExtractionError{
			SegmentTitle: segment.Title,
			Err:          fmt.Errorf("%w: %s", err, tail(stderr.String(), 4096)),
		}
	}
	return nil
}
