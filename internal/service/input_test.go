package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMagnet(t *testing.T) {
	const hex = "0123456789abcdef0123456789abcdef01234567"

	t.Run("magnet uri kept verbatim", func(t *testing.T) {
		in := "magnet:?xt=urn:btih:" + hex + "&dn=Some+Movie&tr=udp%3A%2F%2Ftracker.example%3A80"
		magnet, hash, err := NormalizeMagnet("  " + in + "\n")
		require.NoError(t, err)
		assert.Equal(t, in, magnet)
		assert.Equal(t, hex, hash)
	})

	t.Run("hex infohash", func(t *testing.T) {
		magnet, hash, err := NormalizeMagnet("0123456789ABCDEF0123456789ABCDEF01234567")
		require.NoError(t, err)
		assert.Equal(t, "magnet:?xt=urn:btih:"+hex, magnet)
		assert.Equal(t, hex, hash)
	})

	t.Run("base32 infohash", func(t *testing.T) {
		// base32 of 0x0123...4567
		magnet, hash, err := NormalizeMagnet("aerukz4jvpg66ajdivtytk6n54asgrlh")
		require.NoError(t, err)
		assert.Equal(t, hex, hash)
		assert.Equal(t, "magnet:?xt=urn:btih:"+hex, magnet)
	})

	for _, bad := range []string{"", "   ", "not-a-hash", "zz23456789abcdef0123456789abcdef01234567", "magnet:?dn=nohash"} {
		t.Run("rejects "+bad, func(t *testing.T) {
			_, _, err := NormalizeMagnet(bad)
			assert.Error(t, err)
		})
	}
}
