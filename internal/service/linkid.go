package service

import (
	"net/url"
	"strings"
)

// LinkID extracts the stable identifier from a provider restricted link,
// e.g. https://real-debrid.com/d/ABCDEF123 -> ABCDEF123. It returns "" when
// the link has no such segment.
func LinkID(restricted string) string {
	u, err := url.Parse(strings.TrimSpace(restricted))
	if err != nil || u.Host == "" {
		return ""
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(segments); i++ {
		if segments[i] == "d" {
			if id := segments[i+1]; isAlphanumeric(id) {
				return id
			}
			return ""
		}
	}
	return ""
}

func isAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}
