package domain

import "time"

const (
	StrmSuffix      = ".strm"
	StrmContentType = "text/plain; charset=utf-8"
)

// VirtualFile is a synthesized directory entry. Size is the length of
// Content; MediaSize is the size of the media it points at.
type VirtualFile struct {
	Name             string
	Content          string
	Size             int64
	Modified         time.Time
	ContentType      string
	OriginalFilename string
	MediaSize        int64
	Source           LinkSource
}
