package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"magnet-cast/internal/debrid"
	"magnet-cast/internal/domain"
	"magnet-cast/internal/metrics"
	"magnet-cast/internal/repository"
)

// DefaultSettleDelay is how long the provider gets to fetch metadata before
// the torrent status is read.
const DefaultSettleDelay = 2 * time.Second

// ErrNoLinks means the provider has nothing to unrestrict for the torrent.
var ErrNoLinks = errors.New("no links available")

// IngestionError is the single failure surfaced to the caller of Add/Select.
type IngestionError struct {
	Op  string
	Err error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// IngestResult carries either a resolved cast or a request to pick a file.
type IngestResult struct {
	Cast      *domain.Cast
	Selection *domain.SelectionRequired
}

// IngestionService drives one magnet from submission to a playable link.
type IngestionService interface {
	Add(ctx context.Context, input, ipHint string) (*IngestResult, error)
	Select(ctx context.Context, torrentID string, fileID int, ipHint string) (*IngestResult, error)
}

type IngestionConfig struct {
	SettleDelay time.Duration
	Logger      *logrus.Logger
	// Sleep and Now are replaced in tests.
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

type ingestionService struct {
	gateway debrid.Gateway
	cache   repository.LinkRepository
	settle  time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
	now     func() time.Time
	log     *logrus.Logger
}

func NewIngestionService(gateway debrid.Gateway, cache repository.LinkRepository, cfg IngestionConfig) IngestionService {
	s := &ingestionService{
		gateway: gateway,
		cache:   cache,
		settle:  cfg.SettleDelay,
		sleep:   cfg.Sleep,
		now:     cfg.Now,
		log:     cfg.Logger,
	}
	if s.sleep == nil {
		s.sleep = sleepContext
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	return s
}

func (s *ingestionService) Add(ctx context.Context, input, ipHint string) (*IngestResult, error) {
	magnet, hash, err := NormalizeMagnet(input)
	if err != nil {
		return nil, s.fail("read input", err)
	}
	log := s.log.WithField("hash", hash)

	torrentID, err := s.gateway.AddMagnet(ctx, magnet)
	if err != nil {
		return nil, s.fail("add magnet", err)
	}
	log = log.WithField("torrent_id", torrentID)
	log.Info("magnet added")

	if err := s.sleep(ctx, s.settle); err != nil {
		return nil, s.fail("wait for metadata", err)
	}
	torrent, err := s.gateway.TorrentInfo(ctx, torrentID)
	if err != nil {
		return nil, s.fail("get torrent info", err)
	}
	if torrent.Hash == "" {
		torrent.Hash = hash
	}

	if torrent.Status == domain.TorrentStatusWaitingSelection {
		file, ok := SelectFile(torrent.Files)
		if !ok {
			log.WithField("files", len(torrent.Files)).Info("file selection required")
			metrics.ObserveIngestion(metrics.OutcomeSelectionRequired)
			return &IngestResult{Selection: &domain.SelectionRequired{
				TorrentID: torrentID,
				Title:     torrent.Filename,
				Files:     torrent.Files,
			}}, nil
		}
		log.WithFields(logrus.Fields{"file_id": file.ID, "path": file.Path}).Info("file auto-selected")
		return s.Select(ctx, torrentID, file.ID, ipHint)
	}

	return s.finish(ctx, torrentID, torrent, nil, ipHint)
}

func (s *ingestionService) Select(ctx context.Context, torrentID string, fileID int, ipHint string) (*IngestResult, error) {
	if torrentID == "" {
		return nil, s.fail("select files", fmt.Errorf("torrent id is required"))
	}
	if err := s.gateway.SelectFiles(ctx, torrentID, fileID); err != nil {
		return nil, s.fail("select files", err)
	}
	if err := s.sleep(ctx, s.settle); err != nil {
		return nil, s.fail("wait for selection", err)
	}
	torrent, err := s.gateway.TorrentInfo(ctx, torrentID)
	if err != nil {
		return nil, s.fail("get torrent info", err)
	}
	return s.finish(ctx, torrentID, torrent, &fileID, ipHint)
}

// finish unrestricts the first link, records it and removes the remote torrent.
// torrentID is the id returned by AddMagnet; info responses may omit it.
func (s *ingestionService) finish(ctx context.Context, torrentID string, torrent *domain.Torrent, fileID *int, ipHint string) (*IngestResult, error) {
	log := s.log.WithField("torrent_id", torrentID)

	if len(torrent.Links) == 0 {
		return nil, s.fail("resolve links", fmt.Errorf("%w (status %s)", ErrNoLinks, torrent.Status))
	}
	restricted := torrent.Links[0]

	download, err := s.gateway.UnrestrictLink(ctx, restricted, ipHint)
	if err != nil {
		return nil, s.fail("unrestrict link", err)
	}

	filename, size := torrent.Filename, torrent.Bytes
	if file, ok := chosenFile(torrent, fileID); ok {
		filename, size = baseName(file.Path), file.Bytes
	}

	linkID := LinkID(restricted)
	if linkID != "" {
		generated := download.Generated
		if generated.IsZero() {
			generated = s.now().UTC()
		}
		err := s.cache.Put(ctx, &domain.ResolvedLink{
			LinkID:          linkID,
			OriginalLink:    restricted,
			UnrestrictedURL: download.Download,
			Filename:        filename,
			Size:            size,
			GeneratedAt:     generated,
			Source:          domain.LinkSourceIngest,
		})
		if err != nil {
			log.WithError(err).WithField("link_id", linkID).Warn("cache resolved link")
		}
	} else {
		log.WithField("link", restricted).Warn("no link id in restricted link; not cached")
	}

	if err := s.gateway.DeleteTorrent(ctx, torrentID); err != nil {
		return nil, s.fail("delete torrent", err)
	}

	log.WithFields(logrus.Fields{"link_id": linkID, "filename": filename}).Info("cast resolved")
	metrics.ObserveIngestion(metrics.OutcomeResolved)
	return &IngestResult{Cast: &domain.Cast{
		Hash:      torrent.Hash,
		Filename:  filename,
		Bytes:     size,
		LinkID:    linkID,
		StreamURL: download.Download,
	}}, nil
}

func (s *ingestionService) fail(op string, err error) error {
	s.log.WithError(err).WithField("op", op).Warn("ingestion failed")
	metrics.ObserveIngestion(metrics.OutcomeFailed)
	return &IngestionError{Op: op, Err: err}
}

// chosenFile prefers the file the caller picked, then any selected file.
func chosenFile(torrent *domain.Torrent, fileID *int) (domain.TorrentFile, bool) {
	if fileID != nil {
		for _, f := range torrent.Files {
			if f.ID == *fileID && f.Selected {
				return f, true
			}
		}
	}
	return torrent.SelectedFile()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ IngestionService = (*ingestionService)(nil)
