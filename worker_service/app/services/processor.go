package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"clipsmith/shared/kafka"
	"clipsmith/store"
	"clipsmith/types"
	"clipsmith/worker_service/app/config"
)

// PlaceholderTitle stands in when the metadata provider is unavailable.
const PlaceholderTitle = "YouTube Short"

// ProcessorConfig carries the explicitly constructed collaborators of the
// video processor. No ambient clients: everything the pipeline touches is
// injected here.
type ProcessorConfig struct {
	Fetcher     SourceFetcher
	Segmenter   SceneSegmenter
	Prober      DurationProber
	Metadata    MetadataProvider // optional; nil degrades to fallbacks
	Clips       ClipProducer
	Videos      store.VideoRepository
	ClipRecords store.ClipRepository
	Queue       kafka.JobPublisher
	Locker      JobLocker

	// Zero values take the defaults from the config package.
	MaxAttempts    int
	RetryBaseDelay time.Duration
	Concurrency    int
}

// VideoProcessor runs the clip pipeline for one job at a time: fetch,
// segment, plan, extract+publish per segment concurrently, synthesize the
// script, then commit one terminal status write.
type VideoProcessor struct {
	fetcher     SourceFetcher
	segmenter   SceneSegmenter
	prober      DurationProber
	metadata    MetadataProvider
	clips       ClipProducer
	videos      store.VideoRepository
	clipRecords store.ClipRepository
	queue       kafka.JobPublisher
	locker      JobLocker

	maxAttempts    int
	retryBaseDelay time.Duration
	concurrency    int

	// replaced in tests to run retries synchronously
	scheduleRetry func(delay time.Duration, msg types.JobMessage)
}

// NewVideoProcessor initializes a new video processor.
func NewVideoProcessor(cfg ProcessorConfig) *VideoProcessor {
	p := &VideoProcessor{
		fetcher:        cfg.Fetcher,
		segmenter:      cfg.Segmenter,
		prober:         cfg.Prober,
		metadata:       cfg.Metadata,
		clips:          cfg.Clips,
		videos:         cfg.Videos,
		clipRecords:    cfg.ClipRecords,
		queue:          cfg.Queue,
		locker:         cfg.Locker,
		maxAttempts:    cfg.MaxAttempts,
		retryBaseDelay: cfg.RetryBaseDelay,
		concurrency:    cfg.Concurrency,
	}
	if p.maxAttempts <= 0 {
		p.maxAttempts = config.MaxAttempts
	}
	if p.retryBaseDelay <= 0 {
		p.retryBaseDelay = config.RetryBaseDelay
	}
	if p.concurrency <= 0 {
		p.concurrency = config.MaxConcurrentClips
	}
	// The backoff timer is in-process only: the original offset is already
	// marked, so a worker crash inside the delay window drops the remaining
	// attempts and the video stays in error until resubmitted.
	// TODO: persist the next-attempt deadline on the videos row and sweep it
	// at startup so restarts resume pending retries.
	p.scheduleRetry = func(delay time.Duration, msg types.JobMessage) {
		time.AfterFunc(delay, func() {
			if err := p.queue.PublishJob(msg); err != nil {
				log.Printf("❌ Failed to republish job %s: %v", msg.VideoID, err)
			}
		})
	}
	return p
}

// ProcessJob handles one queued processing attempt. A returned error means
// the attempt could not even be recorded; the queue message stays unmarked
// and is redelivered. All pipeline failures are absorbed here: the error
// status is written and, within the attempt budget, a follow-up message is
// scheduled after exponential backoff.
func (p *VideoProcessor) ProcessJob(ctx context.Context, msg *types.JobMessage) error {
	attempt := msg.Attempt
	if attempt < 1 {
		attempt = 1
	}

	release, ok, err := p.locker.Acquire(ctx, msg.VideoID)
	if err != nil {
		return err
	}
	if !ok {
		log.Printf("⏭️  Video %s is locked by another worker, skipping", msg.VideoID)
		return nil
	}
	defer release()

	claimed, err := p.videos.Claim(ctx, msg.VideoID)
	if err != nil {
		return &PersistenceError{Op: "claim", Err: err}
	}
	if !claimed {
		log.Printf("⏭️  Video %s is not claimable (completed or in flight), skipping", msg.VideoID)
		return nil
	}

	log.Printf("🎬 Processing video %s (attempt %d/%d)", msg.VideoID, attempt, p.maxAttempts)

	if err := p.runPipeline(ctx, msg); err != nil {
		return p.failJob(ctx, msg, attempt, err)
	}

	log.Printf("✅ Video %s completed", msg.VideoID)
	return nil
}

// runPipeline executes the stages for one attempt. The workspace is removed
// on every exit path.
func (p *VideoProcessor) runPipeline(ctx context.Context, msg *types.JobMessage) error {
	ws, err := NewWorkspace(msg.VideoID)
	if err != nil {
		return err
	}
	defer ws.Remove()

	meta := p.lookupMetadata(ctx, msg.SourceURL)

	fetchCtx, cancel := context.WithTimeout(ctx, config.StageTimeout(meta.DurationSeconds))
	err = p.fetcher.Fetch(fetchCtx, msg.SourceURL, ws.SourcePath())
	cancel()
	if err != nil {
		return err
	}

	duration := meta.DurationSeconds
	if duration <= 0 {
		if probed, perr := p.prober.ProbeDuration(ws.SourcePath()); perr == nil {
			duration = probed
		} else {
			log.Printf("⚠️  Could not probe duration for %s: %v", msg.VideoID, perr)
		}
	}

	cutPoints, err := p.segmenter.DetectScenes(ctx, ws.SourcePath(), duration)
	if err != nil {
		return err
	}

	segments := PlanSegments(cutPoints, duration)
	log.Printf("📋 Video %s: %d scene changes, %d segments planned", msg.VideoID, len(cutPoints), len(segments))

	urls, err := p.produceClips(ctx, msg.VideoID, ws, segments)
	if err != nil {
		return err
	}

	title := meta.Title
	if title == "" {
		title = PlaceholderTitle
	}

	// Clip rows are committed only after the fan-in barrier, so a failed job
	// leaves zero clips rather than a partial set.
	if err := p.clipRecords.DeleteByVideoID(ctx, msg.VideoID); err != nil {
		return &PersistenceError{Op: "delete clips", Err: err}
	}
	now := time.Now().UTC()
	for i, seg := range segments {
		clip := &types.Clip{
			ID:        uuid.New().String(),
			VideoID:   msg.VideoID,
			URL:       urls[i],
			Title:     seg.Title,
			StartTime: seg.Start,
			EndTime:   seg.End,
			SceneType: seg.Type,
			CreatedAt: now,
		}
		if err := p.clipRecords.Add(ctx, clip); err != nil {
			return &PersistenceError{Op: "add clip", Err: err}
		}
	}

	script := SynthesizeScript(title, segments)
	if err := p.videos.MarkCompleted(ctx, msg.VideoID, title, script); err != nil {
		return &PersistenceError{Op: "complete", Err: err}
	}
	return nil
}

// produceClips fans out one goroutine per segment, bounded by the configured
// concurrency, and waits for all of them before reporting the first failure.
func (p *VideoProcessor) produceClips(ctx context.Context, videoID string, ws *Workspace, segments []types.Segment) ([]string, error) {
	urls := make([]string, len(segments))
	errs := make([]error, len(segments))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, p.concurrency)

	for i, seg := range segments {
		wg.Add(1)
		go func(idx int, segment types.Segment) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			urls[idx], errs[idx] = p.clips.Produce(ctx, videoID, ws, idx, segment)
		}(i, seg)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return urls, nil
}

// lookupMetadata queries the provider when configured. Missing metadata is
// never fatal; the pipeline falls back to probing and fixed plans.
func (p *VideoProcessor) lookupMetadata(ctx context.Context, sourceURL string) types.VideoMetadata {
	if p.metadata == nil {
		return types.VideoMetadata{}
	}

	mctx, cancel := context.WithTimeout(ctx, config.MetadataTimeout)
	defer cancel()

	meta, err := p.metadata.Lookup(mctx, sourceURL)
	if err != nil || meta == nil {
		log.Printf("⚠️  Metadata lookup failed for %s: %v", sourceURL, err)
		return types.VideoMetadata{}
	}
	return *meta
}

// failJob records the failure and schedules the next attempt while the
// budget lasts.
func (p *VideoProcessor) failJob(ctx context.Context, msg *types.JobMessage, attempt int, cause error) error {
	log.Printf("❌ Video %s attempt %d failed: %v", msg.VideoID, attempt, cause)

	if err := p.videos.MarkError(ctx, msg.VideoID, cause.Error()); err != nil {
		// the failure could not be recorded; leave the message for redelivery
		return &PersistenceError{Op: "mark error", Err: err}
	}

	if attempt >= p.maxAttempts {
		log.Printf("🛑 Video %s exhausted %d attempts, giving up", msg.VideoID, p.maxAttempts)
		return nil
	}

	delay := p.retryBaseDelay << (attempt - 1)
	next := *msg
	next.Attempt = attempt + 1
	log.Printf("🔁 Scheduling attempt %d for video %s in %s", next.Attempt, msg.VideoID, delay)
	p.scheduleRetry(delay, next)
	return nil
}
