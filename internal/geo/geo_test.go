package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetgrid/backend/internal/status"
)

func TestLookupRejectsEmpty(t *testing.T) {
	s := NewService("")
	_, err := s.Lookup("")
	require.Error(t, err)
	assert.Equal(t, status.CodeInvalidArgument, status.CodeOf(err))
}

func TestLookupRejectsGarbage(t *testing.T) {
	s := NewService("")
	_, err := s.Lookup("not-an-ip")
	require.Error(t, err)
	assert.Equal(t, status.CodeInvalidArgument, status.CodeOf(err))
}

func TestLookupPrivateRanges(t *testing.T) {
	s := NewService("")
	for _, ip := range []string{
		"10.1.2.3",
		"172.16.0.1",
		"172.31.255.255",
		"192.168.1.1",
		"127.0.0.1",
		"::1",
		"fe80::1",
		"fc00::1",
		"fd12:3456::1",
	} {
		info, err := s.Lookup(ip)
		require.NoError(t, err, ip)
		assert.True(t, info.IsPrivate, ip)
	}
}

func TestLookupPublicRangesNotPrivate(t *testing.T) {
	for _, ip := range []string{
		"8.8.8.8",
		"172.15.0.1",
		"172.32.0.1",
		"192.167.1.1",
		"2001:4860:4860::8888",
	} {
		s := NewService("")
		_, err := s.Lookup(ip)
		// Without a database, public addresses report Unavailable rather
		// than IsPrivate.
		require.Error(t, err, ip)
		assert.Equal(t, status.CodeUnavailable, status.CodeOf(err), ip)
	}
}

func TestLookupMissingDatabase(t *testing.T) {
	s := NewService("/nonexistent/GeoLite2-City.mmdb")
	_, err := s.Lookup("8.8.8.8")
	require.Error(t, err)
	assert.Equal(t, status.CodeUnavailable, status.CodeOf(err))
}
