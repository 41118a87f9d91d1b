package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"magnet-cast/internal/domain"
	"magnet-cast/internal/repository/memory"
)

func TestLinkID(t *testing.T) {
	tests := map[string]string{
		"https://real-debrid.com/d/ABCDEF123":       "ABCDEF123",
		"https://real-debrid.com/d/AbC123/":         "AbC123",
		"https://real-debrid.com/d/ABC123?x=1":      "ABC123",
		"http://rdeb.io/d/Z9/extra":                 "Z9",
		"https://real-debrid.com/streaming/ABC":     "",
		"https://real-debrid.com/d/":                "",
		"https://real-debrid.com/d/abc-def":         "",
		"not a url":                                 "",
		"":                                          "",
		"https://download.real-debrid.com/d/QW12/x": "QW12",
	}
	for in, want := range tests {
		assert.Equal(t, want, LinkID(in), in)
	}
}

func TestLinkIDIsStable(t *testing.T) {
	link := "https://real-debrid.com/d/STABLE42"
	first := LinkID(link)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, LinkID(link))
	}
}

// The ingestion path and the listing path must key the same restricted link
// to the same cache record.
func TestLinkIDSharedAcrossProvenance(t *testing.T) {
	ctx := context.Background()
	restricted := "https://real-debrid.com/d/SHARED99"
	generated := time.Date(2024, 10, 22, 10, 0, 0, 0, time.UTC)

	gw := &fakeGateway{
		addID: "T1",
		torrents: map[string]*domain.Torrent{
			"T1": {ID: "T1", Hash: "h", Filename: "movie.mkv", Bytes: 10, Status: domain.TorrentStatusDownloaded, Links: []string{restricted}},
		},
		unrestrictURL: "https://cdn.example/movie.mkv",
		generated:     generated,
		downloads: []domain.Download{
			{ID: "D1", Filename: "movie.mkv", Link: restricted, Download: "https://cdn.example/movie2.mkv", Generated: generated.Add(time.Minute)},
		},
	}
	cache := memory.NewLinkRepository()

	ingest := NewIngestionService(gw, cache, IngestionConfig{Sleep: noSleep})
	res, err := ingest.Add(ctx, "0123456789abcdef0123456789abcdef01234567", "")
	require.NoError(t, err)
	require.NotNil(t, res.Cast)

	fs := NewFilesystemService(gw, cache, FilesystemConfig{PublicURL: "https://cast.example", Now: fixedClock(generated.Add(time.Hour))})
	_, err = fs.ListFiles(ctx)
	require.NoError(t, err)

	links, err := cache.List(ctx)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "SHARED99", links[0].LinkID)
	assert.Equal(t, res.Cast.LinkID, links[0].LinkID)
	assert.Equal(t, "https://cdn.example/movie2.mkv", links[0].UnrestrictedURL)
	assert.Equal(t, domain.LinkSourceIngest, links[0].Source)
}
