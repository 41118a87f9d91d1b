package repository

import (
	"context"
	"errors"
	"time"

	"magnet-cast/internal/domain"
)

// ErrLinkNotFound is returned by Get and UpdateURL for unknown link ids.
var ErrLinkNotFound = errors.New("link not found")

// LinkRepository is the link cache: a flat link id -> ResolvedLink map.
// Writes are last-writer-wins; records are superseded, never expired.
type LinkRepository interface {
	Init(ctx context.Context) error
	Get(ctx context.Context, linkID string) (*domain.ResolvedLink, error)
	Put(ctx context.Context, link *domain.ResolvedLink) error
	UpdateURL(ctx context.Context, linkID, url string, generatedAt time.Time) error
	List(ctx context.Context) ([]domain.ResolvedLink, error)
}
