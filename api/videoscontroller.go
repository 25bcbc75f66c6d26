package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"clipsmith/shared/kafka"
	"clipsmith/store"
	"clipsmith/types"
)

// videoController is the single submission/status surface over video jobs.
type videoController struct {
	videos store.VideoRepository
	clips  store.ClipRepository
	queue  kafka.JobPublisher
}

// RegisterVideoRoutes registers video submission and status routes.
func RegisterVideoRoutes(r *gin.Engine, videos store.VideoRepository, clips store.ClipRepository, queue kafka.JobPublisher) {
	ctrl := &videoController{videos: videos, clips: clips, queue: queue}

	g := r.Group("/api/videos")
	g.POST("", ctrl.handleSubmit)
	g.GET("", ctrl.handleList)
	g.GET("/:id", ctrl.handleGet)
	g.GET("/:id/clips", ctrl.handleGetClips)
}

// SubmitVideoRequest is the submission payload.
type SubmitVideoRequest struct {
	SourceURL string `json:"source_url" binding:"required"`
	OwnerID   string `json:"owner_id" binding:"required"`
}

// handleSubmit creates the job record in pending and enqueues the first
// processing attempt.
// POST /api/videos
func (ctrl *videoController) handleSubmit(c *gin.Context) {
	var req SubmitVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now().UTC()
	video := &types.Video{
		ID:        uuid.New().String(),
		SourceURL: req.SourceURL,
		OwnerID:   req.OwnerID,
		Status:    types.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := ctrl.videos.Add(c.Request.Context(), video); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	msg := types.JobMessage{
		VideoID:   video.ID,
		SourceURL: video.SourceURL,
		OwnerID:   video.OwnerID,
		Attempt:   1,
	}
	if err := ctrl.queue.PublishJob(msg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"id": video.ID, "status": video.Status})
}

// handleList returns an owner's videos filtered by status.
// GET /api/videos?owner_id=...&status=pending
func (ctrl *videoController) handleList(c *gin.Context) {
	ownerID := c.Query("owner_id")
	if ownerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner_id is required"})
		return
	}
	status := types.VideoStatus(c.DefaultQuery("status", string(types.StatusPending)))

	videos, err := ctrl.videos.GetByStatusAndOwner(c.Request.Context(), status, ownerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"videos": videos})
}

// handleGet returns one video record. Callers poll this for status
// transitions; partial progress is not exposed.
// GET /api/videos/:id
func (ctrl *videoController) handleGet(c *gin.Context) {
	video, err := ctrl.videos.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if video == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
		return
	}
	c.JSON(http.StatusOK, video)
}

// handleGetClips returns the published clip set for a video, ordered by
// start time. A non-completed video may legitimately report zero clips.
// GET /api/videos/:id/clips
func (ctrl *videoController) handleGetClips(c *gin.Context) {
	id := c.Param("id")

	video, err := ctrl.videos.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if video == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
		return
	}

	clips, err := ctrl.clips.GetByVideoID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"video_id": id, "status": video.Status, "clips": clips})
}
