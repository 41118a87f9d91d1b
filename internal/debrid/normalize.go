package debrid

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"magnet-cast/internal/domain"
)

type rdTorrentInfo struct {
	ID       string   `json:"id"`
	Filename string   `json:"filename"`
	Hash     string   `json:"hash"`
	Bytes    int64    `json:"bytes"`
	Status   string   `json:"status"`
	Files    []rdFile `json:"files"`
	Links    []string `json:"links"`
}

// rdFile tolerates both the documented shape (id/path/bytes/selected 0|1)
// and the variants some endpoints return (name, size, boolean selected).
type rdFile struct {
	ID       flexInt  `json:"id"`
	Path     string   `json:"path"`
	Name     string   `json:"name"`
	Bytes    int64    `json:"bytes"`
	Size     int64    `json:"size"`
	Selected flexBool `json:"selected"`
}

type rdDownload struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	MimeType  string `json:"mimeType"`
	Filesize  int64  `json:"filesize"`
	Link      string `json:"link"`
	Host      string `json:"host"`
	Download  string `json:"download"`
	Generated string `json:"generated"`
}

func (t rdTorrentInfo) toDomain() *domain.Torrent {
	files := make([]domain.TorrentFile, len(t.Files))
	for i, f := range t.Files {
		files[i] = f.toDomain()
	}
	return &domain.Torrent{
		ID:       t.ID,
		Filename: t.Filename,
		Hash:     t.Hash,
		Bytes:    t.Bytes,
		Status:   domain.TorrentStatus(t.Status),
		Files:    files,
		Links:    t.Links,
	}
}

func (f rdFile) toDomain() domain.TorrentFile {
	path := f.Path
	if path == "" {
		path = f.Name
	}
	size := f.Bytes
	if size == 0 {
		size = f.Size
	}
	return domain.TorrentFile{
		ID:       int(f.ID),
		Path:     path,
		Bytes:    size,
		Selected: bool(f.Selected),
	}
}

func (d rdDownload) toDomain() domain.Download {
	return domain.Download{
		ID:        d.ID,
		Filename:  d.Filename,
		Filesize:  d.Filesize,
		MimeType:  d.MimeType,
		Host:      d.Host,
		Link:      d.Link,
		Download:  d.Download,
		Generated: parseTime(d.Generated),
	}
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z0700", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

type flexInt int

func (v *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || string(data) == "null" {
		*v = 0
		return nil
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("parse int %q: %w", data, err)
	}
	*v = flexInt(n)
	return nil
}

type flexBool bool

func (v *flexBool) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case bool:
		*v = flexBool(x)
	case float64:
		*v = x != 0
	case string:
		*v = flexBool(x == "1" || strings.EqualFold(x, "true"))
	default:
		*v = false
	}
	return nil
}
