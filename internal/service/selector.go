package service

import "magnet-cast/internal/domain"

// LargeFileThreshold separates media from samples, subtitles and nfo files.
const LargeFileThreshold = 2 << 20

// SelectFile picks the file to stream without asking the user. It returns
// false when there is nothing to pick or the choice is ambiguous.
func SelectFile(files []domain.TorrentFile) (domain.TorrentFile, bool) {
	switch len(files) {
	case 0:
		return domain.TorrentFile{}, false
	case 1:
		return files[0], true
	}

	var (
		large domain.TorrentFile
		count int
	)
	for _, f := range files {
		if f.Bytes > LargeFileThreshold {
			large = f
			count++
		}
	}
	if count != 1 {
		return domain.TorrentFile{}, false
	}
	return large, true
}
