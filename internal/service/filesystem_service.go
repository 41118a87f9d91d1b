package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"magnet-cast/internal/debrid"
	"magnet-cast/internal/domain"
	"magnet-cast/internal/repository"
)

// Listing modes.
const (
	ModeRedirect = "redirect"
	ModeDirect   = "direct"
)

const (
	DefaultRecentLimit = 20
	DefaultMaxEntries  = 5
	DefaultCacheWindow = 7 * 24 * time.Hour
)

var ErrFileNotFound = errors.New("file not found")

// FilesystemService builds the virtual .strm directory.
type FilesystemService interface {
	ListFiles(ctx context.Context) ([]domain.VirtualFile, error)
	Find(ctx context.Context, name string) (*domain.VirtualFile, error)
	RecentDownloads(ctx context.Context) ([]domain.Download, error)
	RecentCasts(ctx context.Context) ([]domain.ResolvedLink, error)
}

type FilesystemConfig struct {
	// PublicURL is the externally reachable base used for /stream links.
	PublicURL   string
	Username    string
	Password    string
	Mode        string
	RecentLimit int
	MaxEntries  int
	CacheWindow time.Duration
	Logger      *logrus.Logger
	Now         func() time.Time
}

type filesystemService struct {
	gateway debrid.Gateway
	cache   repository.LinkRepository
	cfg     FilesystemConfig
	log     *logrus.Logger
}

func NewFilesystemService(gateway debrid.Gateway, cache repository.LinkRepository, cfg FilesystemConfig) FilesystemService {
	if cfg.Mode == "" {
		cfg.Mode = ModeRedirect
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = DefaultRecentLimit
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.CacheWindow <= 0 {
		cfg.CacheWindow = DefaultCacheWindow
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &filesystemService{gateway: gateway, cache: cache, cfg: cfg, log: log}
}

// RecentDownloads returns the newest provider downloads, one per provider id.
func (s *filesystemService) RecentDownloads(ctx context.Context) ([]domain.Download, error) {
	downloads, err := s.gateway.RecentDownloads(ctx, s.cfg.RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("list recent downloads: %w", err)
	}

	sorted := make([]domain.Download, len(downloads))
	copy(sorted, downloads)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Generated.After(sorted[j].Generated)
	})

	seen := make(map[string]struct{}, len(sorted))
	unique := make([]domain.Download, 0, s.cfg.MaxEntries)
	for _, d := range sorted {
		if _, ok := seen[d.ID]; ok {
			continue
		}
		seen[d.ID] = struct{}{}
		unique = append(unique, d)
		if len(unique) >= s.cfg.MaxEntries {
			break
		}
	}
	return unique, nil
}

// RecentCasts returns links this service resolved itself within the cache window.
func (s *filesystemService) RecentCasts(ctx context.Context) ([]domain.ResolvedLink, error) {
	links, err := s.cache.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cached links: %w", err)
	}

	cutoff := s.cfg.Now().Add(-s.cfg.CacheWindow)
	casts := make([]domain.ResolvedLink, 0, len(links))
	for _, link := range links {
		if link.Source != domain.LinkSourceIngest || link.LinkID == "" {
			continue
		}
		if link.GeneratedAt.Before(cutoff) {
			continue
		}
		casts = append(casts, link)
	}
	return casts, nil
}

func (s *filesystemService) ListFiles(ctx context.Context) ([]domain.VirtualFile, error) {
	downloads, providerErr := s.RecentDownloads(ctx)
	if providerErr != nil {
		s.log.WithError(providerErr).Warn("provider listing unavailable; serving cached entries only")
	}

	files := make([]domain.VirtualFile, 0, len(downloads))
	for _, d := range downloads {
		linkID := LinkID(d.Link)
		playable := d.Download
		if linkID != "" {
			playable = s.recordProviderLink(ctx, linkID, d)
		}
		files = append(files, s.virtualFile(linkID, d.Filename, playable, d.Filesize, d.Generated, domain.LinkSourceProvider))
	}

	casts, cacheErr := s.RecentCasts(ctx)
	if cacheErr != nil {
		if providerErr != nil {
			return nil, providerErr
		}
		s.log.WithError(cacheErr).Warn("cached casts unavailable")
	}
	for _, c := range casts {
		files = append(files, s.virtualFile(c.LinkID, c.Filename, c.UnrestrictedURL, c.Size, c.GeneratedAt, domain.LinkSourceIngest))
	}

	return MergeFiles(files), nil
}

func (s *filesystemService) Find(ctx context.Context, name string) (*domain.VirtualFile, error) {
	files, err := s.ListFiles(ctx)
	if err != nil {
		return nil, err
	}
	for i := range files {
		if files[i].Name == name {
			return &files[i], nil
		}
	}
	return nil, ErrFileNotFound
}

// recordProviderLink upserts the cache record for a provider-surfaced
// download and returns the playable URL to advertise. A record generated
// later than the download (a refreshed one) is left alone.
func (s *filesystemService) recordProviderLink(ctx context.Context, linkID string, d domain.Download) string {
	log := s.log.WithField("link_id", linkID)

	source := domain.LinkSourceProvider
	existing, err := s.cache.Get(ctx, linkID)
	switch {
	case err == nil:
		if existing.GeneratedAt.After(d.Generated) {
			return existing.UnrestrictedURL
		}
		if existing.Source != "" {
			source = existing.Source
		}
	case !errors.Is(err, repository.ErrLinkNotFound):
		log.WithError(err).Warn("read cached link")
	}

	err = s.cache.Put(ctx, &domain.ResolvedLink{
		LinkID:          linkID,
		OriginalLink:    d.Link,
		UnrestrictedURL: d.Download,
		Filename:        d.Filename,
		Size:            d.Filesize,
		GeneratedAt:     d.Generated,
		Source:          source,
	})
	if err != nil {
		log.WithError(err).Warn("cache provider link")
	}
	return d.Download
}

func (s *filesystemService) virtualFile(linkID, filename, playable string, size int64, modified time.Time, source domain.LinkSource) domain.VirtualFile {
	if filename == "" {
		filename = filenameFromURL(playable)
	}

	content := playable
	if s.cfg.Mode == ModeRedirect && linkID != "" {
		content = s.streamURL(linkID)
	}

	return domain.VirtualFile{
		Name:             filename + domain.StrmSuffix,
		Content:          content,
		Size:             int64(len(content)),
		Modified:         modified,
		ContentType:      domain.StrmContentType,
		OriginalFilename: filename,
		MediaSize:        size,
		Source:           source,
	}
}

// streamURL is <public>/stream/<linkID> with the shared credentials as
// userinfo, so players that cannot prompt for auth still get through.
func (s *filesystemService) streamURL(linkID string) string {
	u, err := url.Parse(strings.TrimRight(s.cfg.PublicURL, "/"))
	if err != nil {
		u = &url.URL{}
	}
	if s.cfg.Username != "" && s.cfg.Password != "" {
		u.User = url.UserPassword(s.cfg.Username, s.cfg.Password)
	}
	u.Path = u.Path + "/stream/" + linkID
	return u.String()
}

// MergeFiles keeps one entry per name, the one with the newer Modified time
// (the first seen on a tie), ordered newest first then by name.
func MergeFiles(files []domain.VirtualFile) []domain.VirtualFile {
	index := make(map[string]int, len(files))
	merged := make([]domain.VirtualFile, 0, len(files))
	for _, f := range files {
		i, ok := index[f.Name]
		if !ok {
			index[f.Name] = len(merged)
			merged = append(merged, f)
			continue
		}
		if f.Modified.After(merged[i].Modified) {
			merged[i] = f
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if !merged[i].Modified.Equal(merged[j].Modified) {
			return merged[i].Modified.After(merged[j].Modified)
		}
		return merged[i].Name < merged[j].Name
	})
	return merged
}

func baseName(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	return path.Base(p)
}

func filenameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "Unknown"
	}
	name, err := url.PathUnescape(path.Base(u.Path))
	if err != nil || name == "" || name == "." || name == "/" {
		return "Unknown"
	}
	return name
}

var _ FilesystemService = (*filesystemService)(nil)
