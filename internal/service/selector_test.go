package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"magnet-cast/internal/domain"
)

func TestSelectFile(t *testing.T) {
	tests := []struct {
		name   string
		sizes  []int64
		wantID int
		wantOK bool
	}{
		{name: "no files", sizes: nil, wantOK: false},
		{name: "single small file", sizes: []int64{100}, wantID: 1, wantOK: true},
		{name: "one large among samples", sizes: []int64{1 * mib, 1 * mib, 500 * mib}, wantID: 3, wantOK: true},
		{name: "two large files", sizes: []int64{300 * mib, 400 * mib}, wantOK: false},
		{name: "no large files", sizes: []int64{1 * mib, 2 * mib}, wantOK: false},
		{name: "exactly threshold is not large", sizes: []int64{2 * mib, 2*mib + 1}, wantID: 2, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := make([]domain.TorrentFile, len(tt.sizes))
			for i, size := range tt.sizes {
				files[i] = domain.TorrentFile{ID: i + 1, Path: "/f", Bytes: size}
			}

			got, ok := SelectFile(files)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, got.ID)
			}
		})
	}
}
