package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"magnet-cast/internal/domain"
	"magnet-cast/internal/repository"
)

func newTestRepo(t *testing.T, prefix string) (*LinkRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := NewLinkRepository(client, prefix)
	require.NoError(t, repo.Init(context.Background()))
	return repo, mr
}

func TestLinkRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, mr := newTestRepo(t, "")

	generated := time.Date(2024, 10, 22, 8, 30, 0, 0, time.UTC)
	require.NoError(t, repo.Put(ctx, &domain.ResolvedLink{
		LinkID:          "QWERTY12",
		OriginalLink:    "https://real-debrid.com/d/QWERTY12",
		UnrestrictedURL: "https://cdn.example/movie.mkv",
		Filename:        "movie.mkv",
		Size:            1 << 30,
		GeneratedAt:     generated,
		Source:          domain.LinkSourceIngest,
	}))

	raw, err := mr.Get(DefaultKeyPrefix + "QWERTY12")
	require.NoError(t, err)
	var stored map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, "https://real-debrid.com/d/QWERTY12", stored["originalLink"])
	assert.Equal(t, "https://cdn.example/movie.mkv", stored["unrestrictedUrl"])
	assert.Equal(t, "movie.mkv", stored["filename"])
	assert.Equal(t, float64(1<<30), stored["size"])
	assert.Equal(t, "2024-10-22T08:30:00Z", stored["generatedAt"])
	assert.NotContains(t, stored, "LinkID")

	got, err := repo.Get(ctx, "QWERTY12")
	require.NoError(t, err)
	assert.Equal(t, "QWERTY12", got.LinkID)
	assert.Equal(t, "movie.mkv", got.Filename)
	assert.Equal(t, int64(1<<30), got.Size)
	assert.True(t, generated.Equal(got.GeneratedAt))
	assert.Equal(t, domain.LinkSourceIngest, got.Source)
}

func TestLinkRepositoryUpdateURLAndList(t *testing.T) {
	ctx := context.Background()
	repo, mr := newTestRepo(t, "cast:")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Put(ctx, &domain.ResolvedLink{LinkID: "A", OriginalLink: "oa", UnrestrictedURL: "ua", Filename: "a.mkv", GeneratedAt: base}))
	require.NoError(t, repo.Put(ctx, &domain.ResolvedLink{LinkID: "B", OriginalLink: "ob", UnrestrictedURL: "ub", GeneratedAt: base.Add(time.Hour)}))
	// keys outside the prefix are not listed
	require.NoError(t, mr.Set("other:C", `{"originalLink":"oc"}`))

	require.NoError(t, repo.UpdateURL(ctx, "A", "ua2", base.Add(2*time.Hour)))

	links, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "A", links[0].LinkID)
	assert.Equal(t, "ua2", links[0].UnrestrictedURL)
	assert.Equal(t, "oa", links[0].OriginalLink)
	assert.Equal(t, "a.mkv", links[0].Filename)
	assert.Equal(t, "B", links[1].LinkID)
}

func TestLinkRepositoryListPagesThroughScan(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t, "")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 250; i++ {
		require.NoError(t, repo.Put(ctx, &domain.ResolvedLink{
			LinkID:      fmt.Sprintf("L%03d", i),
			GeneratedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	links, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, links, 250)
	assert.Equal(t, "L249", links[0].LinkID)
	assert.Equal(t, "L000", links[249].LinkID)
}

func TestLinkRepositoryListEmpty(t *testing.T) {
	repo, _ := newTestRepo(t, "")
	links, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestLinkRepositoryMissing(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t, "")

	_, err := repo.Get(ctx, "nope")
	assert.True(t, errors.Is(err, repository.ErrLinkNotFound))
	assert.True(t, errors.Is(repo.UpdateURL(ctx, "nope", "u", time.Now()), repository.ErrLinkNotFound))
}

func TestLinkRepositoryPutRequiresID(t *testing.T) {
	repo, _ := newTestRepo(t, "")
	assert.Error(t, repo.Put(context.Background(), &domain.ResolvedLink{}))
}

func TestLinkRepositoryInitFailsWhenUnreachable(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })

	assert.Error(t, NewLinkRepository(client, "").Init(context.Background()))
}

func TestLinkRepositoryCorruptValue(t *testing.T) {
	repo, mr := newTestRepo(t, "")
	require.NoError(t, mr.Set(DefaultKeyPrefix+"BAD", "not json"))

	_, err := repo.Get(context.Background(), "BAD")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, repository.ErrLinkNotFound))
}
