package api

import (
	"github.com/gin-gonic/gin"

	"clipsmith/shared/kafka"
	"clipsmith/store"
)

// NewRouter constructs a Gin engine with registered routes. All
// collaborators are injected; controllers hold no ambient clients.
func NewRouter(videos store.VideoRepository, clips store.ClipRepository, queue kafka.JobPublisher) *gin.Engine {
	r := gin.New()
	// Minimal middleware: recovery; logger optional to reduce verbosity
	r.Use(gin.Recovery())

	RegisterVideoRoutes(r, videos, clips, queue)
	RegisterHealthRoutes(r)
	return r
}
