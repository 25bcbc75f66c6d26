package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"clipsmith/types"

	_ "github.com/mattn/go-sqlite3"
)

// VideoRepository defines the persistence operations the pipeline needs on
// video jobs. Only the worker mutates status; readers treat any non-completed
// job as still in progress regardless of how many clips exist for it.
type VideoRepository interface {
	// GetByID retrieves a video by its ID, or nil when absent.
	GetByID(ctx context.Context, id string) (*types.Video, error)

	// GetByStatusAndOwner retrieves videos filtered by status and owner.
	GetByStatusAndOwner(ctx context.Context, status types.VideoStatus, ownerID string) ([]*types.Video, error)

	// Add stores a new video record.
	Add(ctx context.Context, video *types.Video) error

	// Claim transitions a video into processing. A video is claimable from
	// pending (first attempt) or error (retry attempt); claiming a video
	// already in processing or completed returns false, which gives
	// at-most-one-worker semantics on the row itself.
	Claim(ctx context.Context, id string) (bool, error)

	// MarkCompleted writes the terminal completed state with title and script.
	MarkCompleted(ctx context.Context, id, title, script string) error

	// MarkError writes the error state with the causing failure's message.
	MarkError(ctx context.Context, id, errorMessage string) error
}

// SQLiteVideoRepository implements VideoRepository using SQLite.
type SQLiteVideoRepository struct {
	db *sql.DB
}

// NewSQLiteVideoRepository creates a new SQLite-based VideoRepository.
func NewSQLiteVideoRepository(db *sql.DB) (*SQLiteVideoRepository, error) {
	repo := &SQLiteVideoRepository{db: db}
	if err := repo.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return repo, nil
}

func (r *SQLiteVideoRepository) createTables() error {
	createVideosTable := `
	CREATE TABLE IF NOT EXISTS videos (
		id TEXT PRIMARY KEY,
		source_url TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		status TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		script TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_videos_status_owner ON videos(status, owner_id);`

	_, err := r.db.Exec(createVideosTable)
	return err
}

// GetByID retrieves a video by its ID.
func (r *SQLiteVideoRepository) GetByID(ctx context.Context, id string) (*types.Video, error) {
	query := `
	SELECT id, source_url, owner_id, status, title, script, error_message, created_at, updated_at
	FROM videos WHERE id = ?`

	video, err := scanVideo(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get video by ID: %w", err)
	}
	return video, nil
}

// GetByStatusAndOwner retrieves videos filtered by status and owner,
// oldest first.
func (r *SQLiteVideoRepository) GetByStatusAndOwner(ctx context.Context, status types.VideoStatus, ownerID string) ([]*types.Video, error) {
	query := `
	SELECT id, source_url, owner_id, status, title, script, error_message, created_at, updated_at
	FROM videos WHERE status = ? AND owner_id = ? ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, string(status), ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}
	defer rows.Close()

	var videos []*types.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, video)
	}
	return videos, rows.Err()
}

// Add stores a new video record.
func (r *SQLiteVideoRepository) Add(ctx context.Context, video *types.Video) error {
	query := `
	INSERT INTO videos (id, source_url, owner_id, status, title, script, error_message, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		video.ID, video.SourceURL, video.OwnerID, string(video.Status),
		video.Title, video.Script, video.ErrorMessage,
		timeToString(video.CreatedAt), timeToString(video.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to add video: %w", err)
	}
	return nil
}

// Claim transitions pending|error -> processing. The conditional update is
// the mutual-exclusion point: only one caller observes RowsAffected == 1.
func (r *SQLiteVideoRepository) Claim(ctx context.Context, id string) (bool, error) {
	query := `UPDATE videos SET status = ?, updated_at = ? WHERE id = ? AND status IN (?, ?)`

	res, err := r.db.ExecContext(ctx, query,
		string(types.StatusProcessing), timeToString(time.Now().UTC()),
		id, string(types.StatusPending), string(types.StatusError),
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim video: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read claim result: %w", err)
	}
	return n == 1, nil
}

// MarkCompleted finalizes a processed video. Completed is terminal: the
// update is guarded on the processing state so a stale retry cannot
// overwrite a finished job.
func (r *SQLiteVideoRepository) MarkCompleted(ctx context.Context, id, title, script string) error {
	query := `
	UPDATE videos SET status = ?, title = ?, script = ?, error_message = '', updated_at = ?
	WHERE id = ? AND status = ?`

	res, err := r.db.ExecContext(ctx, query,
		string(types.StatusCompleted), title, script,
		timeToString(time.Now().UTC()), id, string(types.StatusProcessing),
	)
	if err != nil {
		return fmt.Errorf("failed to mark video completed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read completion result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("video %s not in processing state", id)
	}
	return nil
}

// MarkError records a failed attempt.
func (r *SQLiteVideoRepository) MarkError(ctx context.Context, id, errorMessage string) error {
	query := `
	UPDATE videos SET status = ?, error_message = ?, updated_at = ?
	WHERE id = ? AND status != ?`

	_, err := r.db.ExecContext(ctx, query,
		string(types.StatusError), errorMessage,
		timeToString(time.Now().UTC()), id, string(types.StatusCompleted),
	)
	if err != nil {
		return fmt.Errorf("failed to mark video errored: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (*types.Video, error) {
	video := &types.Video{}
	var status, createdAt, updatedAt string
	err := row.Scan(
		&video.ID, &video.SourceURL, &video.OwnerID, &status,
		&video.Title, &video.Script, &video.ErrorMessage,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	video.Status = types.VideoStatus(status)
	if video.CreatedAt, err = stringToTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if video.UpdatedAt, err = stringToTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return video, nil
}
