package http

import (
	"net/netip"
	"strings"

	"github.com/gin-gonic/gin"
)

// clientIPHint returns the caller's address when it is worth passing to the
// provider for geolocation: a public unicast address, otherwise "".
func clientIPHint(c *gin.Context) string {
	for _, candidate := range []string{c.GetHeader("CF-Connecting-IP"), c.ClientIP()} {
		addr, err := netip.ParseAddr(strings.TrimSpace(candidate))
		if err != nil {
			continue
		}
		addr = addr.Unmap()
		if isPublic(addr) {
			return addr.String()
		}
	}
	return ""
}

func isPublic(addr netip.Addr) bool {
	return addr.IsGlobalUnicast() && !addr.IsPrivate()
}
