package service

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/anacrolix/torrent/metainfo"
)

const magnetPrefix = "magnet:"

// NormalizeMagnet turns user input (a magnet URI, a 40 char hex infohash or
// a 32 char base32 infohash) into a magnet URI the provider accepts, and
// returns the lowercase hex infohash alongside it.
func NormalizeMagnet(input string) (magnet, hash string, err error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", "", fmt.Errorf("magnet link or infohash is required")
	}

	if strings.HasPrefix(strings.ToLower(input), magnetPrefix) {
		m, err := metainfo.ParseMagnetUri(input)
		if err != nil {
			return "", "", fmt.Errorf("parse magnet: %w", err)
		}
		return input, m.InfoHash.HexString(), nil
	}

	var h metainfo.Hash
	switch len(input) {
	case 40:
		if err := h.FromHexString(input); err != nil {
			return "", "", fmt.Errorf("parse infohash: %w", err)
		}
	case 32:
		decoded, err := base32.StdEncoding.DecodeString(strings.ToUpper(input))
		if err != nil {
			return "", "", fmt.Errorf("parse infohash: %w", err)
		}
		copy(h[:], decoded)
	default:
		return "", "", fmt.Errorf("invalid infohash %q", input)
	}

	hash = h.HexString()
	return "magnet:?xt=urn:btih:" + hash, hash, nil
}
