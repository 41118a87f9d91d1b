package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"magnet-cast/internal/domain"
	"magnet-cast/internal/service"
)

type createCastRequest struct {
	Magnet string `json:"magnet" binding:"required"`
}

type selectCastRequest struct {
	TorrentID string `json:"torrentId" binding:"required"`
	FileID    *int   `json:"fileId" binding:"required"`
}

type CastResponse struct {
	Status    string         `json:"status"`
	Hash      string         `json:"hash,omitempty"`
	Filename  string         `json:"filename,omitempty"`
	Bytes     int64          `json:"bytes,omitempty"`
	LinkID    string         `json:"linkId,omitempty"`
	StreamURL string         `json:"streamUrl,omitempty"`
	TorrentID string         `json:"torrentId,omitempty"`
	Title     string         `json:"title,omitempty"`
	Files     []FileResponse `json:"files,omitempty"`
}

type FileResponse struct {
	ID       int    `json:"id"`
	Path     string `json:"path"`
	Bytes    int64  `json:"bytes"`
	Selected bool   `json:"selected"`
}

type VirtualFileResponse struct {
	Name             string    `json:"name"`
	Size             int64     `json:"size"`
	MediaSize        int64     `json:"mediaSize"`
	Modified         time.Time `json:"modified"`
	ContentType      string    `json:"contentType"`
	OriginalFilename string    `json:"originalFilename"`
	Source           string    `json:"source"`
}

func (h *Handler) createCast(c *gin.Context) {
	var req createCastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.ingest.Add(c.Request.Context(), req.Magnet, clientIPHint(c))
	if err != nil {
		c.JSON(ingestStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ingestToResponse(res))
}

func (h *Handler) selectCast(c *gin.Context) {
	var req selectCastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.ingest.Select(c.Request.Context(), req.TorrentID, *req.FileID, clientIPHint(c))
	if err != nil {
		c.JSON(ingestStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ingestToResponse(res))
}

func (h *Handler) listFiles(c *gin.Context) {
	files, err := h.files.ListFiles(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	resp := make([]VirtualFileResponse, len(files))
	for i, f := range files {
		resp[i] = VirtualFileResponse{
			Name:             f.Name,
			Size:             f.Size,
			MediaSize:        f.MediaSize,
			Modified:         f.Modified,
			ContentType:      f.ContentType,
			OriginalFilename: f.OriginalFilename,
			Source:           string(f.Source),
		}
	}
	c.JSON(http.StatusOK, resp)
}

func ingestToResponse(res *service.IngestResult) CastResponse {
	if res.Selection != nil {
		return CastResponse{
			Status:    "selection_required",
			TorrentID: res.Selection.TorrentID,
			Title:     res.Selection.Title,
			Files:     filesToResponse(res.Selection.Files),
		}
	}
	cast := res.Cast
	return CastResponse{
		Status:    "resolved",
		Hash:      cast.Hash,
		Filename:  cast.Filename,
		Bytes:     cast.Bytes,
		LinkID:    cast.LinkID,
		StreamURL: cast.StreamURL,
	}
}

func filesToResponse(files []domain.TorrentFile) []FileResponse {
	resp := make([]FileResponse, len(files))
	for i, f := range files {
		resp[i] = FileResponse{ID: f.ID, Path: f.Path, Bytes: f.Bytes, Selected: f.Selected}
	}
	return resp
}
