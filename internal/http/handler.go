package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	xwebdav "golang.org/x/net/webdav"

	"magnet-cast/internal/metrics"
	"magnet-cast/internal/service"
	"magnet-cast/internal/webdav"
)

const (
	webdavPrefix    = "/webdav"
	artworkName     = "favorite-atv.png"
	artworkMimeType = "image/png"
)

var artworkModified = time.Date(2024, 10, 23, 0, 0, 0, 0, time.UTC)

// Handler wires HTTP routes to domain services.
type Handler struct {
	ingest    service.IngestionService
	files     service.FilesystemService
	redirect  service.RedirectService
	auth      service.AuthService
	locks     xwebdav.LockSystem
	artwork   webdav.StaticFile
	log       *logrus.Logger
	startedAt time.Time
}

func NewHandler(
	ingest service.IngestionService,
	files service.FilesystemService,
	redirect service.RedirectService,
	auth service.AuthService,
	log *logrus.Logger,
) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		ingest:   ingest,
		files:    files,
		redirect: redirect,
		auth:     auth,
		locks:    xwebdav.NewMemLS(),
		artwork: webdav.StaticFile{
			Name:        artworkName,
			Data:        mustAsset(artworkName),
			Modified:    artworkModified,
			ContentType: artworkMimeType,
		},
		log:       log,
		startedAt: time.Now(),
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.SetHTMLTemplate(templates)
	router.Use(requestID(), requestLogger(h.log), metrics.Middleware())

	router.GET("/health", h.health)
	router.GET("/style.css", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/css; charset=utf-8", mustAsset("style.css"))
	})
	router.GET("/Infuse/"+artworkName, func(c *gin.Context) {
		c.Data(http.StatusOK, artworkMimeType, h.artwork.Data)
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authed := router.Group("/", basicAuth(h.auth, h.log))
	{
		authed.GET("/", h.home)
		authed.GET("/add", h.addPage)
		authed.POST("/add", h.addSubmit)
		authed.POST("/add/select", h.addSelect)
		authed.GET("/add/*magnet", h.addFromPath)

		authed.GET("/stream/:linkId", h.stream)
		authed.HEAD("/stream/:linkId", h.stream)
	}

	// preflights never carry credentials
	cors := router.Group("/api", corsMiddleware())
	cors.OPTIONS("/*path", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	api := cors.Group("", basicAuth(h.auth, h.log))
	{
		api.POST("/casts", h.createCast)
		api.POST("/casts/select", h.selectCast)
		api.GET("/files", h.listFiles)
	}

	authed.Any(webdavPrefix, h.webdavRedirect)
	authed.Handle("PROPFIND", webdavPrefix, h.webdavRedirect)
	authed.GET(webdavPrefix+"/", h.webdavIndex)
	for _, method := range []string{http.MethodHead, http.MethodOptions, "PROPFIND"} {
		authed.Handle(method, webdavPrefix+"/", h.serveWebDAV)
	}
	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions, "PROPFIND"} {
		authed.Handle(method, webdavPrefix+"/:name", h.serveWebDAV)
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"uptime":    time.Since(h.startedAt).Seconds(),
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}
