package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"magnet-cast/internal/debrid"
	"magnet-cast/internal/metrics"
	"magnet-cast/internal/repository"
)

// DefaultFreshness is how long an unrestricted URL is trusted before the
// redirector asks the provider for a new one.
const DefaultFreshness = 48 * time.Hour

// RedirectTarget is where a /stream request should be sent.
type RedirectTarget struct {
	LinkID    string
	URL       string
	Refreshed bool
	// Stale is set when a refresh was due but failed.
	Stale bool
}

type RedirectService interface {
	Resolve(ctx context.Context, linkID, ipHint string) (*RedirectTarget, error)
}

type RedirectConfig struct {
	Freshness time.Duration
	Logger    *logrus.Logger
	Now       func() time.Time
}

type redirectService struct {
	gateway   debrid.Gateway
	cache     repository.LinkRepository
	freshness time.Duration
	now       func() time.Time
	log       *logrus.Logger
}

func NewRedirectService(gateway debrid.Gateway, cache repository.LinkRepository, cfg RedirectConfig) RedirectService {
	s := &redirectService{
		gateway:   gateway,
		cache:     cache,
		freshness: cfg.Freshness,
		now:       cfg.Now,
		log:       cfg.Logger,
	}
	if s.freshness <= 0 {
		s.freshness = DefaultFreshness
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	return s
}

// Resolve returns repository.ErrLinkNotFound for unknown ids. Refresh
// failures are never returned; the cached URL is served instead.
func (s *redirectService) Resolve(ctx context.Context, linkID, ipHint string) (*RedirectTarget, error) {
	link, err := s.cache.Get(ctx, linkID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if now.Sub(link.GeneratedAt) < s.freshness {
		metrics.ObserveRefresh(metrics.RefreshFresh)
		return &RedirectTarget{LinkID: linkID, URL: link.UnrestrictedURL}, nil
	}

	log := s.log.WithFields(logrus.Fields{"link_id": linkID, "age": now.Sub(link.GeneratedAt).Round(time.Minute)})
	download, err := s.gateway.UnrestrictLink(ctx, link.OriginalLink, ipHint)
	if err != nil {
		log.WithError(err).Warn("refresh failed; serving stale url")
		metrics.ObserveRefresh(metrics.RefreshFailed)
		return &RedirectTarget{LinkID: linkID, URL: link.UnrestrictedURL, Stale: true}, nil
	}

	if err := s.cache.UpdateURL(ctx, linkID, download.Download, now.UTC()); err != nil {
		log.WithError(err).Warn("store refreshed url")
	}
	log.Info("link refreshed")
	metrics.ObserveRefresh(metrics.RefreshRefreshed)
	return &RedirectTarget{LinkID: linkID, URL: download.Download, Refreshed: true}, nil
}

var _ RedirectService = (*redirectService)(nil)
