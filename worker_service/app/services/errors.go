package services

import (
	"errors"
	"fmt"
)

// FetchError indicates the source video could not be resolved or downloaded.
type FetchError struct {
	SourceURL string
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch source %s: %v", e.SourceURL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// SegmentationError indicates the scene-detection pass crashed or could not
// decode the media. Finding zero scene changes is not an error.
type SegmentationError struct {
	VideoPath string
	Err       error
}

func (e *SegmentationError) Error() string {
	return fmt.Sprintf("scene detection failed for %s: %v", e.VideoPath, e.Err)
}

func (e *SegmentationError) Unwrap() error { return e.Err }

func IsSegmentationError(err error) bool {
	var se *SegmentationError
	return errors.As(err, &se)
}

// ExtractionError indicates the transcode of one segment exited nonzero.
type ExtractionError struct {
	SegmentTitle string
	Err          error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract %s: %v", e.SegmentTitle, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func IsExtractionError(err error) bool {
	var ee *ExtractionError
	return errors.As(err, &ee)
}

// PublishError indicates the upload of a clip artifact failed.
type PublishError struct {
	Key string
	Err error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("failed to publish artifact %s: %v", e.Key, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

func IsPublishError(err error) bool {
	var pe *PublishError
	return errors.As(err, &pe)
}

// PersistenceError indicates a datastore read or write failed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("datastore %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// ConfigurationError indicates a required external credential or identifier
// is missing. Detected at startup and fatal to the worker process, never
// job-scoped.
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", e.Setting)
}

func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
