// Package webdav serves a listing snapshot as a read-only WebDAV tree.
package webdav

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	xwebdav "golang.org/x/net/webdav"

	"magnet-cast/internal/domain"
)

// StaticFile is a fixed file served next to the .strm entries, such as the
// artwork media-center clients look for.
type StaticFile struct {
	Name        string
	Data        []byte
	Modified    time.Time
	ContentType string
}

// FS is an immutable single-directory filesystem. Every write operation
// fails with os.ErrPermission.
type FS struct {
	entries map[string]*fileInfo
	names   []string
	root    *fileInfo
}

func NewFS(files []domain.VirtualFile, static ...StaticFile) *FS {
	fsys := &FS{
		entries: make(map[string]*fileInfo, len(files)+len(static)),
		root:    &fileInfo{name: "/", modTime: time.Now().UTC(), dir: true},
	}
	add := func(fi *fileInfo) {
		if fi.name == "" || strings.Contains(fi.name, "/") {
			return
		}
		if _, ok := fsys.entries[fi.name]; ok {
			return
		}
		fsys.entries[fi.name] = fi
		fsys.names = append(fsys.names, fi.name)
	}
	for _, f := range files {
		add(&fileInfo{
			name:        f.Name,
			data:        []byte(f.Content),
			modTime:     f.Modified,
			contentType: f.ContentType,
		})
	}
	for _, s := range static {
		add(&fileInfo{
			name:        s.Name,
			data:        s.Data,
			modTime:     s.Modified,
			contentType: s.ContentType,
		})
	}
	sort.Strings(fsys.names)
	return fsys
}

func (f *FS) lookup(name string) (*fileInfo, bool) {
	clean := path.Clean("/" + name)
	if clean == "/" {
		return f.root, true
	}
	fi, ok := f.entries[strings.TrimPrefix(clean, "/")]
	return fi, ok
}

func (f *FS) Mkdir(context.Context, string, os.FileMode) error { return os.ErrPermission }

func (f *FS) RemoveAll(context.Context, string) error { return os.ErrPermission }

func (f *FS) Rename(context.Context, string, string) error { return os.ErrPermission }

func (f *FS) Stat(_ context.Context, name string) (os.FileInfo, error) {
	fi, ok := f.lookup(name)
	if !ok {
		return nil, os.ErrNotExist
	}
	return fi, nil
}

func (f *FS) OpenFile(_ context.Context, name string, flag int, _ os.FileMode) (xwebdav.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_APPEND|os.O_CREATE|os.O_TRUNC) != 0 {
		return nil, os.ErrPermission
	}
	fi, ok := f.lookup(name)
	if !ok {
		return nil, os.ErrNotExist
	}
	if fi.dir {
		children := make([]fs.FileInfo, 0, len(f.names))
		for _, n := range f.names {
			children = append(children, f.entries[n])
		}
		return &dirFile{info: fi, children: children}, nil
	}
	return &memFile{info: fi, Reader: bytes.NewReader(fi.data)}, nil
}

// NewHandler wraps fsys in an x/net/webdav handler mounted at prefix.
func NewHandler(prefix string, fsys xwebdav.FileSystem, locks xwebdav.LockSystem, log *logrus.Logger) *xwebdav.Handler {
	return &xwebdav.Handler{
		Prefix:     prefix,
		FileSystem: fsys,
		LockSystem: locks,
		Logger: func(r *http.Request, err error) {
			if err != nil && log != nil {
				log.WithError(err).WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path}).Debug("webdav request failed")
			}
		},
	}
}

var _ xwebdav.FileSystem = (*FS)(nil)

type fileInfo struct {
	name        string
	data        []byte
	modTime     time.Time
	contentType string
	dir         bool
}

func (fi *fileInfo) Name() string { return fi.name }
func (fi *fileInfo) Size() int64  { return int64(len(fi.data)) }
func (fi *fileInfo) Mode() fs.FileMode {
	if fi.dir {
		return fs.ModeDir | 0o555
	}
	return 0o444
}
func (fi *fileInfo) ModTime() time.Time { return fi.modTime }
func (fi *fileInfo) IsDir() bool        { return fi.dir }
func (fi *fileInfo) Sys() any           { return nil }

// ContentType implements webdav.ContentTyper so PROPFIND reports the
// declared type without sniffing.
func (fi *fileInfo) ContentType(context.Context) (string, error) {
	if fi.dir || fi.contentType == "" {
		return "", xwebdav.ErrNotImplemented
	}
	return fi.contentType, nil
}

type memFile struct {
	*bytes.Reader
	info *fileInfo
}

func (f *memFile) Close() error                       { return nil }
func (f *memFile) Write([]byte) (int, error)          { return 0, os.ErrPermission }
func (f *memFile) Readdir(int) ([]fs.FileInfo, error) { return nil, os.ErrInvalid }
func (f *memFile) Stat() (fs.FileInfo, error)         { return f.info, nil }

type dirFile struct {
	info     *fileInfo
	children []fs.FileInfo
	pos      int
}

func (d *dirFile) Close() error                   { return nil }
func (d *dirFile) Read([]byte) (int, error)       { return 0, os.ErrInvalid }
func (d *dirFile) Write([]byte) (int, error)      { return 0, os.ErrPermission }
func (d *dirFile) Seek(int64, int) (int64, error) { return 0, os.ErrInvalid }
func (d *dirFile) Stat() (fs.FileInfo, error)     { return d.info, nil }

func (d *dirFile) Readdir(count int) ([]fs.FileInfo, error) {
	rest := d.children[d.pos:]
	if count <= 0 {
		d.pos = len(d.children)
		return rest, nil
	}
	if len(rest) == 0 {
		return nil, io.EOF
	}
	if count > len(rest) {
		count = len(rest)
	}
	d.pos += count
	return rest[:count], nil
}
