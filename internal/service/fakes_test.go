package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"magnet-cast/internal/debrid"
	"magnet-cast/internal/domain"
	"magnet-cast/internal/repository"
)

type selectCall struct {
	torrentID string
	fileIDs   []int
}

type unrestrictCall struct {
	link   string
	ipHint string
}

// fakeGateway answers from canned torrents. SelectFiles marks the chosen
// file selected and exposes selectedLinks, like the provider does.
type fakeGateway struct {
	mu sync.Mutex

	addID         string
	addErr        error
	torrents      map[string]*domain.Torrent
	infoErr       error
	selectedLinks []string
	unrestrictURL string
	unrestrictErr error
	generated     time.Time
	downloads     []domain.Download
	downloadsErr  error
	deleteErr     error

	added       []string
	selects     []selectCall
	unrestricts []unrestrictCall
	deleted     []string
}

func (g *fakeGateway) AddMagnet(_ context.Context, magnet string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.added = append(g.added, magnet)
	return g.addID, g.addErr
}

func (g *fakeGateway) TorrentInfo(_ context.Context, id string) (*domain.Torrent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.infoErr != nil {
		return nil, g.infoErr
	}
	t, ok := g.torrents[id]
	if !ok {
		return nil, &debrid.APIError{StatusCode: 404, Code: 7, Message: "unknown_ressource"}
	}
	cp := *t
	cp.Files = append([]domain.TorrentFile(nil), t.Files...)
	cp.Links = append([]string(nil), t.Links...)
	return &cp, nil
}

func (g *fakeGateway) SelectFiles(_ context.Context, id string, fileIDs ...int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.selects = append(g.selects, selectCall{torrentID: id, fileIDs: fileIDs})
	t, ok := g.torrents[id]
	if !ok {
		return &debrid.APIError{StatusCode: 404, Message: "unknown_ressource"}
	}
	for i := range t.Files {
		for _, fid := range fileIDs {
			if t.Files[i].ID == fid {
				t.Files[i].Selected = true
			}
		}
	}
	t.Status = domain.TorrentStatusDownloaded
	t.Links = g.selectedLinks
	return nil
}

func (g *fakeGateway) UnrestrictLink(_ context.Context, link, ipHint string) (*domain.Download, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.unrestricts = append(g.unrestricts, unrestrictCall{link: link, ipHint: ipHint})
	if g.unrestrictErr != nil {
		return nil, g.unrestrictErr
	}
	return &domain.Download{Link: link, Download: g.unrestrictURL, Generated: g.generated}, nil
}

func (g *fakeGateway) DeleteTorrent(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleted = append(g.deleted, id)
	return g.deleteErr
}

func (g *fakeGateway) RecentDownloads(_ context.Context, limit int) ([]domain.Download, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.downloadsErr != nil {
		return nil, g.downloadsErr
	}
	if len(g.downloads) > limit {
		return g.downloads[:limit], nil
	}
	return g.downloads, nil
}

var _ debrid.Gateway = (*fakeGateway)(nil)

// failingCache wraps a repository and fails selected operations.
type failingCache struct {
	repository.LinkRepository
	putErr  error
	listErr error
}

func (c *failingCache) Put(ctx context.Context, link *domain.ResolvedLink) error {
	if c.putErr != nil {
		return c.putErr
	}
	return c.LinkRepository.Put(ctx, link)
}

func (c *failingCache) List(ctx context.Context) ([]domain.ResolvedLink, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	return c.LinkRepository.List(ctx)
}

var errBoom = errors.New("boom")

func noSleep(context.Context, time.Duration) error { return nil }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

const mib = 1 << 20
