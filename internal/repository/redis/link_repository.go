package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"magnet-cast/internal/domain"
	"magnet-cast/internal/repository"
)

const DefaultKeyPrefix = "castmagnet:link:"

// LinkRepository stores each cache record as a JSON string under prefix+linkID.
type LinkRepository struct {
	client *goredis.Client
	prefix string
}

func NewLinkRepository(client *goredis.Client, prefix string) *LinkRepository {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &LinkRepository{client: client, prefix: prefix}
}

func (r *LinkRepository) Init(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

func (r *LinkRepository) Get(ctx context.Context, linkID string) (*domain.ResolvedLink, error) {
	val, err := r.client.Get(ctx, r.key(linkID)).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, repository.ErrLinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get link: %w", err)
	}
	return decodeLink(linkID, val)
}

func (r *LinkRepository) Put(ctx context.Context, link *domain.ResolvedLink) error {
	if link == nil || link.LinkID == "" {
		return fmt.Errorf("link id is required")
	}
	data, err := json.Marshal(link)
	if err != nil {
		return fmt.Errorf("encode link: %w", err)
	}
	if err := r.client.Set(ctx, r.key(link.LinkID), data, 0).Err(); err != nil {
		return fmt.Errorf("set link: %w", err)
	}
	return nil
}

// UpdateURL is a read-modify-write without WATCH; concurrent writers race
// and the last one wins.
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
	var keys []string
	var cursor uint64
	for {
		batch, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scan links: %w", err)
		}
		keys = append(keys, batch...)
		if next == 0 {
			break
		}
		cursor = next
	}
	if len(keys) == 0 {
		return nil, nil
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget links: %w", err)
	}

	links := make([]domain.ResolvedLink, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue // deleted between SCAN and MGET
		}
		link, err := decodeLink(strings.TrimPrefix(keys[i], r.prefix), raw)
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
	return r.prefix + linkID
}

func decodeLink(linkID, raw string) (*domain.ResolvedLink, error) {
	var link domain.ResolvedLink
	if err := json.Unmarshal([]byte(raw), &link); err != nil {
		return nil, fmt.Errorf("decode link %s: %w", linkID, err)
	}
	link.LinkID = linkID
	return &link, nil
}

var _ repository.LinkRepository = (*LinkRepository)(nil)
