package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"magnet-cast/internal/domain"
	"magnet-cast/internal/service"
)

type pageData struct {
	Title     string
	Error     string
	Downloads []domain.Download
	Casts     []domain.ResolvedLink
	Cast      *domain.Cast
	Selection *domain.SelectionRequired
	Files     []domain.VirtualFile
}

func (h *Handler) home(c *gin.Context) {
	if magnet := c.Query("add"); magnet != "" {
		h.ingestAndRender(c, magnet)
		return
	}

	ctx := c.Request.Context()
	data := pageData{Title: "Home"}

	downloads, err := h.files.RecentDownloads(ctx)
	if err != nil {
		h.log.WithError(err).Warn("home: recent downloads")
		data.Error = err.Error()
	}
	data.Downloads = downloads

	casts, err := h.files.RecentCasts(ctx)
	if err != nil {
		h.log.WithError(err).Warn("home: recent casts")
	}
	if len(casts) > service.DefaultMaxEntries {
		casts = casts[:service.DefaultMaxEntries]
	}
	data.Casts = casts

	c.HTML(http.StatusOK, "home", data)
}

func (h *Handler) addPage(c *gin.Context) {
	c.HTML(http.StatusOK, "add", pageData{Title: "Add Magnet Link"})
}

func (h *Handler) addSubmit(c *gin.Context) {
	h.ingestAndRender(c, c.PostForm("magnet"))
}

// addFromPath accepts /add/<infohash> and /add/magnet:?xt=... where the
// magnet's own query string arrives as the request query.
func (h *Handler) addFromPath(c *gin.Context) {
	magnet := strings.TrimPrefix(c.Param("magnet"), "/")
	if c.Request.URL.RawQuery != "" {
		magnet += "?" + c.Request.URL.RawQuery
	}
	h.ingestAndRender(c, magnet)
}

func (h *Handler) addSelect(c *gin.Context) {
	torrentID := strings.TrimSpace(c.PostForm("torrentId"))
	fileID, err := strconv.Atoi(c.PostForm("fileId"))
	if torrentID == "" || err != nil {
		c.HTML(http.StatusBadRequest, "result", pageData{Title: "Error", Error: "torrentId and a numeric fileId are required"})
		return
	}

	res, err := h.ingest.Select(c.Request.Context(), torrentID, fileID, clientIPHint(c))
	h.renderIngest(c, res, err)
}

func (h *Handler) ingestAndRender(c *gin.Context, magnet string) {
	res, err := h.ingest.Add(c.Request.Context(), magnet, clientIPHint(c))
	h.renderIngest(c, res, err)
}

func (h *Handler) renderIngest(c *gin.Context, res *service.IngestResult, err error) {
	if err != nil {
		c.HTML(ingestStatus(err), "result", pageData{Title: "Error", Error: err.Error()})
		return
	}
	if res.Selection != nil {
		c.HTML(http.StatusOK, "select", pageData{Title: "Select File", Selection: res.Selection})
		return
	}
	c.HTML(http.StatusOK, "result", pageData{Title: "Added", Cast: res.Cast})
}

func ingestStatus(err error) int {
	var ingestErr *service.IngestionError
	if errors.As(err, &ingestErr) && ingestErr.Op == "read input" {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}
