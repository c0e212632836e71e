package api

import (
	"github.com/dmitrijs2005/sparkdrive/internal/logging"
	"github.com/dmitrijs2005/sparkdrive/internal/server/metadata"
	"github.com/dmitrijs2005/sparkdrive/internal/server/metrics"
	"github.com/dmitrijs2005/sparkdrive/internal/server/services"
	"github.com/gin-gonic/gin"
)

type Deps struct {
	Namespace *services.NamespaceService
	Cascade   *services.CascadeEngine
	Uploads   *services.UploadCoordinator
	Shares    *services.ShareService
	Meta      metadata.Store
	Metrics   *metrics.Metrics
	Logger    logging.Logger
	JWTSecret []byte
}

type handlers struct {
	Deps
	logger logging.Logger
}

// NewRouter registers every route on a fresh gin engine.
func NewRouter(d Deps) *gin.Engine {
	h := &handlers{Deps: d, logger: d.Logger.With("module", "api")}

	r := gin.New()
	r.Use(gin.Recovery(), observe(d.Metrics, h.logger))

	r.GET("/healthz", h.health)
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	v1 := r.Group("/api/v1")
	v1.GET("/shares/:token", h.redeemShare)

	authed := v1.Group("", requireUser(d.JWTSecret))
	authed.GET("/folders", h.listFolder)
	authed.GET("/folders/exists", h.folderExists)
	authed.POST("/folders", h.createFolder)
	authed.DELETE("/folders", h.deleteFolder)

	authed.POST("/files", h.uploadFile)
	authed.DELETE("/files/:id", h.deleteFile)
	authed.POST("/files/:id/shares", h.issueShare)
	authed.POST("/files/:id/download", h.download)

	return r
}
