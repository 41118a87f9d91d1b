package domain

import "time"

type LinkSource string

const (
	// LinkSourceProvider marks records surfaced by the provider's downloads list.
	LinkSourceProvider LinkSource = "provider"
	// LinkSourceIngest marks records produced by our own ingestion.
	LinkSourceIngest LinkSource = "ingest"
)

// ResolvedLink is the cached resolution of a restricted provider link.
type ResolvedLink struct {
	LinkID          string     `json:"-"`
	OriginalLink    string     `json:"originalLink"`
	UnrestrictedURL string     `json:"unrestrictedUrl"`
	Filename        string     `json:"filename"`
	Size            int64      `json:"size"`
	GeneratedAt     time.Time  `json:"generatedAt"`
	Source          LinkSource `json:"source,omitempty"`
}

// Cast is what a successful ingestion hands back to the caller.
type Cast struct {
	Hash      string
	Filename  string
	Bytes     int64
	LinkID    string
	StreamURL string
}

// SelectionRequired asks the caller to pick one file of a multi-file torrent.
type SelectionRequired struct {
	TorrentID string
	Title     string
	Files     []TorrentFile
}
