package services

import (
	"context"

	"clipsmith/types"
)

// ClipProducer turns one planned segment into a published clip and returns
// its durable URL. The orchestrator only depends on this interface, so a
// per-segment retrying implementation can be swapped in without touching the
// orchestrator contract.
type ClipProducer interface {
	Produce(ctx context.Context, videoID string, ws *Workspace, index int, segment types.Segment) (url string, err error)
}

// ExtractPublishProducer extracts the segment into the workspace and uploads
// the result. Each step failure fails the produce call, and with it the
// whole job.
type ExtractPublishProducer struct {
	extractor ClipExtractor
	publisher ArtifactPublisher
}

// NewExtractPublishProducer wires an extractor and a publisher together.
func NewExtractPublishProducer(extractor ClipExtractor, publisher ArtifactPublisher) *ExtractPublishProducer {
	return &ExtractPublishProducer{extractor: extractor, publisher: publisher}
}

// Produce implements ClipProducer.
func (p *ExtractPublishProducer) Produce(ctx context.Context, videoID string, ws *Workspace, index int, segment types.Segment) (string, error) {
	clipPath := ws.ClipPath(index)
	if err := p.extractor.Extract(ctx, ws.SourcePath(), segment, clipPath); err != nil {
		return "", err
	}
	return p.publisher.Publish(ctx, clipPath, ClipKey(videoID, index, segment))
}
