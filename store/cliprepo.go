package store

import (
	"context"
	"database/sql"
	"fmt"

	"clipsmith/types"

	_ "github.com/mattn/go-sqlite3"
)

// ClipRepository defines the persistence operations on published clips.
type ClipRepository interface {
	// GetByID retrieves a clip by its ID, or nil when absent.
	GetByID(ctx context.Context, id string) (*types.Clip, error)

	// GetByVideoID retrieves all clips for a video ordered by start time.
	GetByVideoID(ctx context.Context, videoID string) ([]*types.Clip, error)

	// Add stores a new clip record.
	Add(ctx context.Context, clip *types.Clip) error

	// DeleteByVideoID removes all clips for a video. Used before a retry
	// attempt re-publishes the full set, keeping the clip table consistent
	// with "zero or all clips for a non-completed job".
	DeleteByVideoID(ctx context.Context, videoID string) error
}

// SQLiteClipRepository implements ClipRepository using SQLite.
type SQLiteClipRepository struct {
	db *sql.DB
}

// NewSQLiteClipRepository creates a new SQLite-based ClipRepository.
func NewSQLiteClipRepository(db *sql.DB) (*SQLiteClipRepository, error) {
	repo := &SQLiteClipRepository{db: db}
	if err := repo.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return repo, nil
}

func (r *SQLiteClipRepository) createTables() error {
	createClipsTable := `
	CREATE TABLE IF NOT EXISTS clips (
		id TEXT PRIMARY KEY,
		video_id TEXT NOT NULL,
		url TEXT NOT NULL,
		title TEXT NOT NULL,
		start_time REAL NOT NULL,
		end_time REAL NOT NULL,
		scene_type TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_clips_video_id ON clips(video_id);`

	_, err := r.db.Exec(createClipsTable)
	return err
}

// GetByID retrieves a clip by its ID.
func (r *SQLiteClipRepository) GetByID(ctx context.Context, id string) (*types.Clip, error) {
	query := `
	SELECT id, video_id, url, title, start_time, end_time, scene_type, created_at
	FROM clips WHERE id = ?`

	clip, err := scanClip(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get clip by ID: %w", err)
	}
	return clip, nil
}

// GetByVideoID retrieves all clips for a video ordered by start time.
func (r *SQLiteClipRepository) GetByVideoID(ctx context.Context, videoID string) ([]*types.Clip, error) {
	query := `
	SELECT id, video_id, url, title, start_time, end_time, scene_type, created_at
	FROM clips WHERE video_id = ? ORDER BY start_time ASC`

	rows, err := r.db.QueryContext(ctx, query, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to query clips: %w", err)
	}
	defer rows.Close()

	var clips []*types.Clip
	for rows.Next() {
		clip, err := scanClip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clip: %w", err)
		}
		clips = append(clips, clip)
	}
	return clips, rows.Err()
}

// Add stores a new clip record.
func (r *SQLiteClipRepository) Add(ctx context.Context, clip *types.Clip) error {
	query := `
	INSERT INTO clips (id, video_id, url, title, start_time, end_time, scene_type, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		clip.ID, clip.VideoID, clip.URL, clip.Title,
		clip.StartTime, clip.EndTime, string(clip.SceneType),
		timeToString(clip.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to add clip: %w", err)
	}
	return nil
}

// DeleteByVideoID removes all clips for a video.
func (r *SQLiteClipRepository) DeleteByVideoID(ctx context.Context, videoID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM clips WHERE video_id = ?`, videoID)
	if err != nil {
		return fmt.Errorf("failed to delete clips: %w", err)
	}
	return nil
}

func scanClip(row rowScanner) (*types.Clip, error) {
	clip := &types.Clip{}
	var sceneType, createdAt string
	err := row.Scan(
		&clip.ID, &clip.VideoID, &clip.URL, &clip.Title,
		&clip.StartTime, &clip.EndTime, &sceneType, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	clip.SceneType = types.SceneType(sceneType)
	if clip.CreatedAt, err = stringToTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return clip, nil
}
