package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"clipsmith/store"
	"clipsmith/types"
)

type fakeFetcher struct {
	mu       sync.Mutex
	workDirs []string
	calls    int
	fail     bool
}

func (f *fakeFetcher) Fetch(ctx context.Context, sourceURL, destPath string) error {
	f.mu.Lock()
	f.calls++
	f.workDirs = append(f.workDirs, filepath.Dir(destPath))
	f.mu.Unlock()

	if f.fail {
		return &FetchError{SourceURL: sourceURL, Err: errors.New("no compatible stream variant")}
	}
	return os.WriteFile(destPath, []byte("source-bytes"), 0o644)
}

type fakeSegmenter struct {
	cuts []float64
	err  error
}

func (f *fakeSegmenter) DetectScenes(ctx context.Context, videoPath string, durationSeconds float64) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.cuts, nil
}

type fakeProber struct {
	duration float64
	err      error
}

func (f *fakeProber) ProbeDuration(videoPath string) (float64, error) {
	return f.duration, f.err
}

type fakeMetadata struct {
	meta *types.VideoMetadata
	err  error
}

func (f *fakeMetadata) Lookup(ctx context.Context, sourceURL string) (*types.VideoMetadata, error) {
	return f.meta, f.err
}

type fakeClipProducer struct {
	mu        sync.Mutex
	produced  []int
	failIndex int // -1 disables
}

func (f *fakeClipProducer) Produce(ctx context.Context, videoID string, ws *Workspace, index int, segment types.Segment) (string, error) {
	f.mu.Lock()
	f.produced = append(f.produced, index)
	f.mu.Unlock()

	if index == f.failIndex {
		return "", &ExtractionError{SegmentTitle: segment.Title, Err: errors.New("exit status 1")}
	}
	return "https://cdn.example.com/" + ClipKey(videoID, index, segment), nil
}

type fakeLocker struct {
	busy bool
}

func (f *fakeLocker) Acquire(ctx context.Context, videoID string) (func(), bool, error) {
	if f.busy {
		return nil, false, nil
	}
	return func() {}, true, nil
}

type fakeQueue struct {
	mu   sync.Mutex
	msgs []types.JobMessage
}

func (f *fakeQueue) PublishJob(msg types.JobMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	return nil
}

type processorEnv struct {
	processor *VideoProcessor
	fetcher   *fakeFetcher
	producer  *fakeClipProducer
	queue     *fakeQueue
	videos    *store.SQLiteVideoRepository
	clips     *store.SQLiteClipRepository
	retries   *[]types.JobMessage
}

func newProcessorEnv(t *testing.T, cfg ProcessorConfig) *processorEnv {
	t.Helper()

	db, err := store.NewInMemoryDB()
	if err != nil {
		t.Fatalf("failed to create in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	videos, err := store.NewSQLiteVideoRepository(db)
	if err != nil {
		t.Fatalf("failed to create video repository: %v", err)
	}
	clips, err := store.NewSQLiteClipRepository(db)
	if err != nil {
		t.Fatalf("failed to create clip repository: %v", err)
	}

	env := &processorEnv{videos: videos, clips: clips}

	if cfg.Fetcher == nil {
		env.fetcher = &fakeFetcher{}
		cfg.Fetcher = env.fetcher
	} else if f, ok := cfg.Fetcher.(*fakeFetcher); ok {
		env.fetcher = f
	}
	if cfg.Segmenter == nil {
		cfg.Segmenter = &fakeSegmenter{}
	}
	if cfg.Prober == nil {
		cfg.Prober = &fakeProber{err: errors.New("no probe")}
	}
	if cfg.Clips == nil {
		env.producer = &fakeClipProducer{failIndex: -1}
		cfg.Clips = env.producer
	} else if p, ok := cfg.Clips.(*fakeClipProducer); ok {
		env.producer = p
	}
	if cfg.Locker == nil {
		cfg.Locker = &fakeLocker{}
	}
	env.queue = &fakeQueue{}
	cfg.Queue = env.queue
	cfg.Videos = videos
	cfg.ClipRecords = clips

	env.processor = NewVideoProcessor(cfg)

	// record retries synchronously instead of republishing after a delay
	env.retries = &[]types.JobMessage{}
	env.processor.scheduleRetry = func(delay time.Duration, msg types.JobMessage) {
		*env.retries = append(*env.retries, msg)
	}
	return env
}

func (env *processorEnv) submit(t *testing.T, id string) *types.JobMessage {
	t.Helper()
	now := time.Now().UTC()
	video := &types.Video{
		ID:        id,
		SourceURL: "https://www.youtube.com/shorts/abc123",
		OwnerID:   "owner-1",
		Status:    types.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := env.videos.Add(context.Background(), video); err != nil {
		t.Fatalf("failed to add video: %v", err)
	}
	return &types.JobMessage{VideoID: id, SourceURL: video.SourceURL, OwnerID: video.OwnerID, Attempt: 1}
}

func (env *processorEnv) mustGetVideo(t *testing.T, id string) *types.Video {
	t.Helper()
	video, err := env.videos.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if video == nil {
		t.Fatalf("video %s not found", id)
	}
	return video
}

func assertWorkspacesRemoved(t *testing.T, fetcher *fakeFetcher) {
	t.Helper()
	for _, dir := range fetcher.workDirs {
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Fatalf("workspace %s still exists after job end", dir)
		}
	}
}

func TestProcessJob_EndToEnd(t *testing.T) {
	env := newProcessorEnv(t, ProcessorConfig{
		Segmenter: &fakeSegmenter{cuts: []float64{10, 25}},
		Metadata:  &fakeMetadata{meta: &types.VideoMetadata{Title: "My Short", DurationSeconds: 42}},
	})
	msg := env.submit(t, "video-1")

	if err := env.processor.ProcessJob(context.Background(), msg); err != nil {
		t.Fatalf("ProcessJob failed: %v", err)
	}

	video := env.mustGetVideo(t, "video-1")
	if video.Status != types.StatusCompleted {
		t.Fatalf("status = %s; want completed", video.Status)
	}
	if video.Title != "My Short" {
		t.Fatalf("title = %q; want %q", video.Title, "My Short")
	}
	for _, section := range []string{
		"# My Short",
		"## Clip 1 (0s - 10s)",
		"## Clip 2 (10s - 25s)",
		"## Clip 3 (25s - 42s)",
	} {
		if !strings.Contains(video.Script, section) {
			t.Fatalf("script missing %q:\n%s", section, video.Script)
		}
	}

	clips, err := env.clips.GetByVideoID(context.Background(), "video-1")
	if err != nil {
		t.Fatalf("GetByVideoID failed: %v", err)
	}
	if len(clips) != 3 {
		t.Fatalf("got %d clips; want 3", len(clips))
	}
	want := []struct {
		start, end float64
		sceneType  types.SceneType
	}{
		{0, 10, types.SceneIntro},
		{10, 25, types.SceneMain},
		{25, 42, types.SceneOutro},
	}
	for i, w := range want {
		if clips[i].StartTime != w.start || clips[i].EndTime != w.end || clips[i].SceneType != w.sceneType {
			t.Fatalf("clip %d = [%v, %v, %s]; want [%v, %v, %s]",
				i, clips[i].StartTime, clips[i].EndTime, clips[i].SceneType, w.start, w.end, w.sceneType)
		}
		if clips[i].URL == "" || clips[i].VideoID != "video-1" {
			t.Fatalf("clip %d incomplete: %+v", i, clips[i])
		}
	}

	if len(*env.retries) != 0 {
		t.Fatalf("successful job scheduled %d retries", len(*env.retries))
	}
	assertWorkspacesRemoved(t, env.fetcher)
}

func TestProcessJob_SegmentFailureFailsWholeJob(t *testing.T) {
	env := newProcessorEnv(t, ProcessorConfig{
		Segmenter: &fakeSegmenter{cuts: []float64{10, 25}},
		Metadata:  &fakeMetadata{meta: &types.VideoMetadata{Title: "My Short", DurationSeconds: 42}},
		Clips:     &fakeClipProducer{failIndex: 1},
	})
	msg := env.submit(t, "video-1")

	if err := env.processor.ProcessJob(context.Background(), msg); err != nil {
		t.Fatalf("ProcessJob returned error (failure should be absorbed): %v", err)
	}

	video := env.mustGetVideo(t, "video-1")
	if video.Status != types.StatusError {
		t.Fatalf("status = %s; want error", video.Status)
	}
	if video.ErrorMessage == "" {
		t.Fatal("error message not recorded")
	}

	// all-or-nothing: the failed job must hold zero clips
	clips, err := env.clips.GetByVideoID(context.Background(), "video-1")
	if err != nil {
		t.Fatalf("GetByVideoID failed: %v", err)
	}
	if len(clips) != 0 {
		t.Fatalf("failed job recorded %d clips; want 0", len(clips))
	}

	// every segment's producer call resolved before the terminal write
	if len(env.producer.produced) != 3 {
		t.Fatalf("produced %d segments; want 3 (fan-in barrier)", len(env.producer.produced))
	}

	if len(*env.retries) != 1 {
		t.Fatalf("scheduled %d retries; want 1", len(*env.retries))
	}
	if (*env.retries)[0].Attempt != 2 {
		t.Fatalf("retry attempt = %d; want 2", (*env.retries)[0].Attempt)
	}
	assertWorkspacesRemoved(t, env.fetcher)
}

func TestProcessJob_AttemptsExhausted(t *testing.T) {
	env := newProcessorEnv(t, ProcessorConfig{
		Fetcher: &fakeFetcher{fail: true},
	})
	msg := env.submit(t, "video-1")
	msg.Attempt = 3

	if err := env.processor.ProcessJob(context.Background(), msg); err != nil {
		t.Fatalf("ProcessJob returned error: %v", err)
	}

	video := env.mustGetVideo(t, "video-1")
	if video.Status != types.StatusError {
		t.Fatalf("status = %s; want error", video.Status)
	}
	if len(*env.retries) != 0 {
		t.Fatalf("final attempt scheduled %d retries; want 0", len(*env.retries))
	}
	assertWorkspacesRemoved(t, env.fetcher)
}

func TestProcessJob_FetchFailureRecorded(t *testing.T) {
	env := newProcessorEnv(t, ProcessorConfig{
		Fetcher: &fakeFetcher{fail: true},
	})
	msg := env.submit(t, "video-1")

	if err := env.processor.ProcessJob(context.Background(), msg); err != nil {
		t.Fatalf("ProcessJob returned error: %v", err)
	}

	video := env.mustGetVideo(t, "video-1")
	if video.Status != types.StatusError {
		t.Fatalf("status = %s; want error", video.Status)
	}
	if !strings.Contains(video.ErrorMessage, "no compatible stream variant") {
		t.Fatalf("error message = %q", video.ErrorMessage)
	}
	if len(*env.retries) != 1 || (*env.retries)[0].Attempt != 2 {
		t.Fatalf("retries = %+v; want one attempt-2 message", *env.retries)
	}
	assertWorkspacesRemoved(t, env.fetcher)
}

func TestProcessJob_LockedVideoSkipped(t *testing.T) {
	env := newProcessorEnv(t, ProcessorConfig{
		Locker: &fakeLocker{busy: true},
	})
	msg := env.submit(t, "video-1")

	if err := env.processor.ProcessJob(context.Background(), msg); err != nil {
		t.Fatalf("ProcessJob returned error: %v", err)
	}

	video := env.mustGetVideo(t, "video-1")
	if video.Status != types.StatusPending {
		t.Fatalf("status = %s; want pending (untouched)", video.Status)
	}
	if env.fetcher.calls != 0 {
		t.Fatalf("fetcher called %d times for a locked video", env.fetcher.calls)
	}
}

func TestProcessJob_CompletedVideoNotReprocessed(t *testing.T) {
	env := newProcessorEnv(t, ProcessorConfig{})
	msg := env.submit(t, "video-1")

	ctx := context.Background()
	if _, err := env.videos.Claim(ctx, "video-1"); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if err := env.videos.MarkCompleted(ctx, "video-1", "Done", "# Done"); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}

	// duplicate delivery after completion must be a no-op
	if err := env.processor.ProcessJob(ctx, msg); err != nil {
		t.Fatalf("ProcessJob returned error: %v", err)
	}

	video := env.mustGetVideo(t, "video-1")
	if video.Status != types.StatusCompleted {
		t.Fatalf("status = %s; want completed", video.Status)
	}
	if env.fetcher.calls != 0 {
		t.Fatalf("fetcher called %d times for a completed video", env.fetcher.calls)
	}
}

func TestProcessJob_NoMetadataFallsBackToProbe(t *testing.T) {
	env := newProcessorEnv(t, ProcessorConfig{
		Segmenter: &fakeSegmenter{cuts: []float64{10, 25}},
		Metadata:  &fakeMetadata{err: errors.New("quota exceeded")},
		Prober:    &fakeProber{duration: 42},
	})
	msg := env.submit(t, "video-1")

	if err := env.processor.ProcessJob(context.Background(), msg); err != nil {
		t.Fatalf("ProcessJob failed: %v", err)
	}

	video := env.mustGetVideo(t, "video-1")
	if video.Status != types.StatusCompleted {
		t.Fatalf("status = %s; want completed (metadata loss is not fatal)", video.Status)
	}
	if video.Title != PlaceholderTitle {
		t.Fatalf("title = %q; want placeholder %q", video.Title, PlaceholderTitle)
	}

	clips, err := env.clips.GetByVideoID(context.Background(), "video-1")
	if err != nil {
		t.Fatalf("GetByVideoID failed: %v", err)
	}
	if len(clips) != 3 || clips[2].EndTime != 42 {
		t.Fatalf("clips = %+v; want 3 ending at probed duration 42", clips)
	}
}

func TestProcessJob_ZeroCutsUniformPlan(t *testing.T) {
	env := newProcessorEnv(t, ProcessorConfig{
		Segmenter: &fakeSegmenter{},
		Metadata:  &fakeMetadata{meta: &types.VideoMetadata{DurationSeconds: 40}},
	})
	msg := env.submit(t, "video-1")

	if err := env.processor.ProcessJob(context.Background(), msg); err != nil {
		t.Fatalf("ProcessJob failed: %v", err)
	}

	clips, err := env.clips.GetByVideoID(context.Background(), "video-1")
	if err != nil {
		t.Fatalf("GetByVideoID failed: %v", err)
	}
	if len(clips) != 3 {
		t.Fatalf("got %d clips; want 3", len(clips))
	}
	wantEnds := []float64{14, 28, 40}
	for i, end := range wantEnds {
		if clips[i].EndTime != end {
			t.Fatalf("clip %d ends at %v; want %v", i, clips[i].EndTime, end)
		}
	}
}

func TestProcessJob_SegmentationErrorFailsJob(t *testing.T) {
	env := newProcessorEnv(t, ProcessorConfig{
		Segmenter: &fakeSegmenter{err: &SegmentationError{VideoPath: "video.mp4", Err: errors.New("decode failure")}},
		Metadata:  &fakeMetadata{meta: &types.VideoMetadata{DurationSeconds: 42}},
	})
	msg := env.submit(t, "video-1")

	if err := env.processor.ProcessJob(context.Background(), msg); err != nil {
		t.Fatalf("ProcessJob returned error: %v", err)
	}

	video := env.mustGetVideo(t, "video-1")
	if video.Status != types.StatusError {
		t.Fatalf("status = %s; want error", video.Status)
	}
	if !strings.Contains(video.ErrorMessage, "decode failure") {
		t.Fatalf("error message = %q", video.ErrorMessage)
	}
	assertWorkspacesRemoved(t, env.fetcher)
}

func TestProcessJob_RetryDelayDoubles(t *testing.T) {
	env := newProcessorEnv(t, ProcessorConfig{
		Fetcher:        &fakeFetcher{fail: true},
		RetryBaseDelay: 2 * time.Second,
	})

	var delays []time.Duration
	env.processor.scheduleRetry = func(delay time.Duration, msg types.JobMessage) {
		delays = append(delays, delay)
	}

	for attempt := 1; attempt <= 2; attempt++ {
		msg := env.submit(t, fmt.Sprintf("video-%d", attempt))
		msg.Attempt = attempt
		if err := env.processor.ProcessJob(context.Background(), msg); err != nil {
			t.Fatalf("ProcessJob returned error: %v", err)
		}
	}

	if len(delays) != 2 {
		t.Fatalf("recorded %d delays; want 2", len(delays))
	}
	if delays[0] != 2*time.Second || delays[1] != 4*time.Second {
		t.Fatalf("delays = %v; want [2s 4s]", delays)
	}
}
