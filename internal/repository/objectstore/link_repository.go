package objectstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"magnet-cast/internal/domain"
	"magnet-cast/internal/repository"
	"magnet-cast/internal/storage"
)

const (
	DefaultKeyPrefix = "castmagnet/links"
	objectSuffix     = ".json"
)

// LinkRepository stores one JSON object per link id at {prefix}/{linkId}.json.
type LinkRepository struct {
	store  storage.Service
	bucket string
	prefix string
}

func NewLinkRepository(store storage.Service, bucket, prefix string) *LinkRepository {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &LinkRepository{store: store, bucket: bucket, prefix: prefix}
}

// Init checks the bucket is reachable.
func (r *LinkRepository) Init(ctx context.Context) error {
	if r.bucket == "" {
		return fmt.Errorf("storage bucket is required")
	}
	if _, err := r.store.ListObjects(ctx, r.bucket, r.prefix+"/"); err != nil {
		return fmt.Errorf("probe bucket: %w", err)
	}
	return nil
}

func (r *LinkRepository) Get(ctx context.Context, linkID string) (*domain.ResolvedLink, error) {
	data, err := r.store.GetObject(ctx, r.bucket, r.key(linkID))
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, repository.ErrLinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get link: %w", err)
	}
	var link domain.ResolvedLink
	if err := json.Unmarshal(data, &link); err != nil {
		return nil, fmt.Errorf("decode link %s: %w", linkID, err)
	}
	link.LinkID = linkID
	return &link, nil
}

func (r *LinkRepository) Put(ctx context.Context, link *domain.ResolvedLink) error {
	if link == nil || link.LinkID == "" {
		return fmt.Errorf("link id is required")
	}
	data, err := json.Marshal(link)
	if err != nil {
		return fmt.Errorf("encode link: %w", err)
	}
	if err := r.store.PutObject(ctx, r.bucket, r.key(link.LinkID), data, "application/json"); err != nil {
		return fmt.Errorf("put link: %w", err)
	}
	return nil
}

func (r *LinkRepository) UpdateURL(ctx context.Context, linkID, url string, generatedAt time.Time) error {
	link, err := r.Get(ctx, linkID)
	if err != nil {
		return err
	}
	link.UnrestrictedURL = url
	link.GeneratedAt = generatedAt
	return r.Put(ctx, link)
}

func (r *LinkRepository) List(ctx context.Context) ([]domain.ResolvedLink, error) {
	objects, err := r.store.ListObjects(ctx, r.bucket, r.prefix+"/")
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}

	links := make([]domain.ResolvedLink, 0, len(objects))
	for _, obj := range objects {
		name := path.Base(obj.Key)
		if !strings.HasSuffix(name, objectSuffix) {
			continue
		}
		link, err := r.Get(ctx, strings.TrimSuffix(name, objectSuffix))
		if errors.Is(err, repository.ErrLinkNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		links = append(links, *link)
	}
	sort.Slice(links, func(i, j int) bool {
		return links[i].GeneratedAt.After(links[j].GeneratedAt)
	})
	return links, nil
}

func (r *LinkRepository) key(linkID string) string {
	return r.prefix + "/" + linkID + objectSuffix
}

var _ repository.LinkRepository = (*LinkRepository)(nil)
