package services

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Workspace is the job-scoped temporary directory holding the downloaded
// source file and intermediate clip files. It belongs to exactly one job
// execution and is removed when that execution ends, success or failure.
type Workspace struct {
	Dir string
}

// NewWorkspace creates a fresh temporary directory for one job execution.
func NewWorkspace(videoID string) (*Workspace, error) {
	dir, err := os.MkdirTemp("", "clipsmith-"+videoID+"-")
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return &Workspace{Dir: dir}, nil
}

// SourcePath is where the downloaded source video lives.
func (w *Workspace) SourcePath() string {
	return filepath.Join(w.Dir, "video.mp4")
}

// ClipPath is where the extracted clip for the given segment index lives.
func (w *Workspace) ClipPath(index int) string {
	return filepath.Join(w.Dir, fmt.Sprintf("clip_%d.mp4", index))
}

// Remove deletes the workspace. Failures are logged, never propagated: a
// cleanup error must not override the job's primary outcome.
func (w *Workspace) Remove() {
	if err := os.RemoveAll(w.Dir); err != nil {
		log.Printf("⚠️  Failed to remove workspace %s: %v", w.Dir, err)
	}
}
