package webdav

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xwebdav "golang.org/x/net/webdav"

	"magnet-cast/internal/domain"
)

var modified = time.Date(2024, 10, 22, 12, 0, 0, 0, time.UTC)

func testFS() *FS {
	return NewFS([]domain.VirtualFile{
		{Name: "movie.mkv.strm", Content: "https://u:p@cast.example/stream/ABC", Modified: modified, ContentType: domain.StrmContentType},
		{Name: "show.mkv.strm", Content: "https://cdn.example/show.mkv", Modified: modified.Add(-time.Hour), ContentType: domain.StrmContentType},
	}, StaticFile{
		Name:        "favorite-atv.png",
		Data:        []byte("\x89PNG\r\n\x1a\nfake"),
		Modified:    time.Date(2024, 10, 23, 0, 0, 0, 0, time.UTC),
		ContentType: "image/png",
	})
}

func TestFSReadOnly(t *testing.T) {
	ctx := context.Background()
	fsys := testFS()

	assert.ErrorIs(t, fsys.Mkdir(ctx, "/x", 0o755), os.ErrPermission)
	assert.ErrorIs(t, fsys.RemoveAll(ctx, "/movie.mkv.strm"), os.ErrPermission)
	assert.ErrorIs(t, fsys.Rename(ctx, "/movie.mkv.strm", "/y"), os.ErrPermission)
	_, err := fsys.OpenFile(ctx, "/new.strm", os.O_RDWR|os.O_CREATE, 0o644)
	assert.ErrorIs(t, err, os.ErrPermission)

	f, err := fsys.OpenFile(ctx, "/movie.mkv.strm", os.O_RDONLY, 0)
	require.NoError(t, err)
	_, err = f.Write([]byte("x"))
	assert.ErrorIs(t, err, os.ErrPermission)
}

func TestFSStatAndRead(t *testing.T) {
	ctx := context.Background()
	fsys := testFS()

	fi, err := fsys.Stat(ctx, "/movie.mkv.strm")
	require.NoError(t, err)
	assert.Equal(t, int64(len("https://u:p@cast.example/stream/ABC")), fi.Size())
	assert.True(t, modified.Equal(fi.ModTime()))
	assert.False(t, fi.IsDir())

	ct, err := fi.(xwebdav.ContentTyper).ContentType(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StrmContentType, ct)

	_, err = fsys.Stat(ctx, "/missing.strm")
	assert.ErrorIs(t, err, os.ErrNotExist)

	root, err := fsys.Stat(ctx, "/")
	require.NoError(t, err)
	assert.True(t, root.IsDir())

	f, err := fsys.OpenFile(ctx, "/show.mkv.strm", os.O_RDONLY, 0)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/show.mkv", string(data))
}

func TestFSReaddirPaging(t *testing.T) {
	f, err := testFS().OpenFile(context.Background(), "/", os.O_RDONLY, 0)
	require.NoError(t, err)

	first, err := f.Readdir(2)
	require.NoError(t, err)
	assert.Len(t, first, 2)
	second, err := f.Readdir(2)
	require.NoError(t, err)
	assert.Len(t, second, 1)
	_, err = f.Readdir(2)
	assert.ErrorIs(t, err, io.EOF)
}

func TestHandlerPropfind(t *testing.T) {
	h := NewHandler("/webdav", testFS(), xwebdav.NewMemLS(), nil)

	req := httptest.NewRequest("PROPFIND", "/webdav/", nil)
	req.Header.Set("Depth", "1")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusMultiStatus, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "/webdav/movie.mkv.strm")
	assert.Contains(t, body, "/webdav/show.mkv.strm")
	assert.Contains(t, body, "/webdav/favorite-atv.png")
	assert.Contains(t, body, "image/png")
	assert.Contains(t, body, "collection")
	assert.Equal(t, 4, strings.Count(body, "<D:response>"))
}

func TestHandlerGetStrm(t *testing.T) {
	h := NewHandler("/webdav", testFS(), xwebdav.NewMemLS(), nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/webdav/movie.mkv.strm", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://u:p@cast.example/stream/ABC", w.Body.String())
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/webdav/nope.strm", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
