package domain

import "time"

type TorrentStatus string

const (
	TorrentStatusMagnetError      TorrentStatus = "magnet_error"
	TorrentStatusMagnetConversion TorrentStatus = "magnet_conversion"
	TorrentStatusWaitingSelection TorrentStatus = "waiting_files_selection"
	TorrentStatusQueued           TorrentStatus = "queued"
	TorrentStatusDownloading      TorrentStatus = "downloading"
	TorrentStatusDownloaded       TorrentStatus = "downloaded"
	TorrentStatusError            TorrentStatus = "error"
	TorrentStatusVirus            TorrentStatus = "virus"
	TorrentStatusCompressing      TorrentStatus = "compressing"
	TorrentStatusUploading        TorrentStatus = "uploading"
	TorrentStatusDead             TorrentStatus = "dead"
)

// Torrent mirrors a torrent held by the debrid provider for the duration of
// one ingestion. It is never persisted.
type Torrent struct {
	ID       string
	Filename string
	Hash     string
	Bytes    int64
	Status   TorrentStatus
	Files    []TorrentFile
	Links    []string
}

// TorrentFile is the canonical file record, whatever shape the provider used.
type TorrentFile struct {
	ID       int
	Path     string
	Bytes    int64
	Selected bool
}

// SelectedFile returns the first file flagged as selected.
func (t *Torrent) SelectedFile() (TorrentFile, bool) {
	for _, f := range t.Files {
		if f.Selected {
			return f, true
		}
	}
	return TorrentFile{}, false
}

// Download is one entry of the provider's recent downloads list.
type Download struct {
	ID        string
	Filename  string
	Filesize  int64
	MimeType  string
	Host      string
	Link      string
	Download  string
	Generated time.Time
}
