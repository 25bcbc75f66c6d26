package types

import "time"

// VideoStatus is the lifecycle state of a submitted video job.
type VideoStatus string

const (
	StatusPending    VideoStatus = "pending"
	StatusProcessing VideoStatus = "processing"
	StatusCompleted  VideoStatus = "completed"
	StatusError      VideoStatus = "error"
)

// Video is one end-to-end request to segment and script a single source video.
// Created in pending by a submission path; mutated only by the worker.
type Video struct {
	ID           string      `json:"id"`
	SourceURL    string      `json:"source_url"`
	OwnerID      string      `json:"owner_id"`
	Status       VideoStatus `json:"status"`
	Title        string      `json:"title,omitempty"`
	Script       string      `json:"script,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// SceneType labels a segment's position within the plan.
type SceneType string

const (
	SceneIntro SceneType = "intro"
	SceneMain  SceneType = "main"
	SceneOutro SceneType = "outro"
)

// Segment is a time-bounded portion of the source video planned for
// extraction. Segments for a job are contiguous and gapless: each segment's
// End equals the next segment's Start, the first starts at 0 and the last
// ends at the total duration.
type Segment struct {
	Start float64   `json:"start"`
	End   float64   `json:"end"`
	Title string    `json:"title"`
	Type  SceneType `json:"type"`
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Clip is the published artifact produced from one segment. Immutable once
// recorded.
type Clip struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"video_id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	StartTime float64   `json:"start_time"`
	EndTime   float64   `json:"end_time"`
	SceneType SceneType `json:"scene_type"`
	CreatedAt time.Time `json:"created_at"`
}

// JobMessage is the queue payload for one processing attempt.
type JobMessage struct {
	VideoID   string `json:"video_id"`
	SourceURL string `json:"source_url"`
	OwnerID   string `json:"owner_id"`
	Attempt   int    `json:"attempt"`
}

// VideoMetadata is what the metadata provider knows about a source video.
// Any field may be zero when the provider is unavailable.
type VideoMetadata struct {
	Title           string
	Description     string
	DurationSeconds float64
}
