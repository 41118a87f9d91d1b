package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"magnet-cast/internal/domain"
	"magnet-cast/internal/repository"
)

// LinkRepository keeps the link cache in process memory.
type LinkRepository struct {
	mu    sync.RWMutex
	links map[string]domain.ResolvedLink
}

func NewLinkRepository() *LinkRepository {
	return &LinkRepository{links: make(map[string]domain.ResolvedLink)}
}

func (r *LinkRepository) Init(context.Context) error { return nil }

func (r *LinkRepository) Get(_ context.Context, linkID string) (*domain.ResolvedLink, error) {
	r.mu.RLock()
	link, ok := r.links[linkID]
	r.mu.RUnlock()
	if !ok {
		return nil, repository.ErrLinkNotFound
	}
	return &link, nil
}

func (r *LinkRepository) Put(_ context.Context, link *domain.ResolvedLink) error {
	if link == nil || link.LinkID == "" {
		return fmt.Errorf("link id is required")
	}
	r.mu.Lock()
	r.links[link.LinkID] = *link
	r.mu.Unlock()
	return nil
}

func (r *LinkRepository) UpdateURL(_ context.Context, linkID, url string, generatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	link, ok := r.links[linkID]
	if !ok {
		return repository.ErrLinkNotFound
	}
	link.UnrestrictedURL = url
	link.GeneratedAt = generatedAt
	r.links[linkID] = link
	return nil
}

func (r *LinkRepository) List(context.Context) ([]domain.ResolvedLink, error) {
	r.mu.RLock()
	links := make([]domain.ResolvedLink, 0, len(r.links))
	for _, link := range r.links {
		links = append(links, link)
	}
	r.mu.RUnlock()

	sort.Slice(links, func(i, j int) bool {
		return links[i].GeneratedAt.After(links[j].GeneratedAt)
	})
	return links, nil
}

var _ repository.LinkRepository = (*LinkRepository)(nil)
