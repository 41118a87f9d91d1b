package debrid

import (
	"context"
	"fmt"

	"magnet-cast/internal/domain"
)

// Gateway is the subset of the debrid provider API the service consumes.
// Implementations hold no state between calls.
type Gateway interface {
	AddMagnet(ctx context.Context, magnet string) (string, error)
	TorrentInfo(ctx context.Context, id string) (*domain.Torrent, error)
	SelectFiles(ctx context.Context, id string, fileIDs ...int) error
	UnrestrictLink(ctx context.Context, link, ipHint string) (*domain.Download, error)
	DeleteTorrent(ctx context.Context, id string) error
	RecentDownloads(ctx context.Context, limit int) ([]domain.Download, error)
}

// APIError is any non-2xx answer from the provider.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("real-debrid: %s (code %d, status %d)", e.Message, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("real-debrid: %s (status %d)", e.Message, e.StatusCode)
}
