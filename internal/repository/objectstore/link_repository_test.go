package objectstore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"magnet-cast/internal/domain"
	"magnet-cast/internal/repository"
	"magnet-cast/internal/storage"
)

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeStore) PutObject(_ context.Context, bucket, key string, body []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[bucket+"/"+key] = append([]byte(nil), body...)
	f.types[bucket+"/"+key] = contentType
	return nil
}

func (f *fakeStore) GetObject(_ context.Context, bucket, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return data, nil
}

func (f *fakeStore) ListObjects(_ context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.ObjectInfo
	for k, v := range f.objects {
		key := strings.TrimPrefix(k, bucket+"/")
		if key == k || !strings.HasPrefix(key, prefix) {
			continue
		}
		out = append(out, storage.ObjectInfo{Key: key, Size: int64(len(v))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func TestLinkRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	repo := NewLinkRepository(store, "media", "/casts/")
	require.NoError(t, repo.Init(ctx))

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

	assert.Contains(t, store.objects, "media/casts/QWERTY12.json")
	assert.Equal(t, "application/json", store.types["media/casts/QWERTY12.json"])
	assert.Contains(t, string(store.objects["media/casts/QWERTY12.json"]), `"unrestrictedUrl":"https://cdn.example/movie.mkv"`)

	got, err := repo.Get(ctx, "QWERTY12")
	require.NoError(t, err)
	assert.Equal(t, "QWERTY12", got.LinkID)
	assert.Equal(t, "movie.mkv", got.Filename)
	assert.True(t, generated.Equal(got.GeneratedAt))
	assert.Equal(t, domain.LinkSourceIngest, got.Source)
}

func TestLinkRepositoryUpdateURLAndList(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	repo := NewLinkRepository(store, "media", "")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Put(ctx, &domain.ResolvedLink{LinkID: "A", OriginalLink: "oa", UnrestrictedURL: "ua", GeneratedAt: base}))
	require.NoError(t, repo.Put(ctx, &domain.ResolvedLink{LinkID: "B", OriginalLink: "ob", UnrestrictedURL: "ub", GeneratedAt: base.Add(time.Hour)}))
	// unrelated object under the same prefix is ignored
	require.NoError(t, store.PutObject(ctx, "media", DefaultKeyPrefix+"/README.txt", []byte("x"), ""))

	require.NoError(t, repo.UpdateURL(ctx, "A", "ua2", base.Add(2*time.Hour)))

	links, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "A", links[0].LinkID)
	assert.Equal(t, "ua2", links[0].UnrestrictedURL)
	assert.Equal(t, "oa", links[0].OriginalLink)
	assert.Equal(t, "B", links[1].LinkID)
}

func TestLinkRepositoryMissing(t *testing.T) {
	ctx := context.Background()
	repo := NewLinkRepository(newFakeStore(), "media", "")

	_, err := repo.Get(ctx, "nope")
	assert.True(t, errors.Is(err, repository.ErrLinkNotFound))
	assert.True(t, errors.Is(repo.UpdateURL(ctx, "nope", "u", time.Now()), repository.ErrLinkNotFound))
}

func TestLinkRepositoryInitRequiresBucket(t *testing.T) {
	repo := NewLinkRepository(newFakeStore(), "", "")
	assert.Error(t, repo.Init(context.Background()))
}
