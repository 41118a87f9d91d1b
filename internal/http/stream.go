package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"magnet-cast/internal/repository"
	"magnet-cast/internal/webdav"
)

func (h *Handler) stream(c *gin.Context) {
	linkID := c.Param("linkId")
	target, err := h.redirect.Resolve(c.Request.Context(), linkID, clientIPHint(c))
	if errors.Is(err, repository.ErrLinkNotFound) {
		c.String(http.StatusNotFound, "Link not found")
		return
	}
	if err != nil {
		h.log.WithError(err).WithField("link_id", linkID).Error("resolve stream")
		c.String(http.StatusInternalServerError, "Failed to resolve link")
		return
	}
	c.Redirect(http.StatusFound, target.URL)
}

func (h *Handler) webdavRedirect(c *gin.Context) {
	c.Redirect(http.StatusMovedPermanently, webdavPrefix+"/")
}

var hiddenFromIndex = map[string]bool{
	"favorite.png":     true,
	"favorite-atv.png": true,
	"folder.png":       true,
}

func (h *Handler) webdavIndex(c *gin.Context) {
	data := pageData{Title: "WebDAV"}
	files, err := h.files.ListFiles(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Warn("webdav index")
		data.Error = err.Error()
	}
	for _, f := range files {
		if !hiddenFromIndex[f.Name] {
			data.Files = append(data.Files, f)
		}
	}
	c.HTML(http.StatusOK, "webdav", data)
}

// serveWebDAV answers from a snapshot of the listing taken for this request.
func (h *Handler) serveWebDAV(c *gin.Context) {
	files, err := h.files.ListFiles(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Warn("webdav listing")
		files = nil
	}
	fsys := webdav.NewFS(files, h.artwork)
	webdav.NewHandler(webdavPrefix, fsys, h.locks, h.log).ServeHTTP(c.Writer, c.Request)
}
