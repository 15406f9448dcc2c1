// Package geo resolves client IPs to coarse locations through a MaxMind
// database so join requests can be steered to a nearby media node.
package geo

import (
	"log/slog"
	"net"

	"github.com/oschwald/geoip2-golang"

	"github.com/meetgrid/backend/internal/status"
)

// Info is the lookup result. IsPrivate short-circuits scheduling; the other
// fields are best effort and empty when the database has no record of them.
type Info struct {
	Country   string
	ISOCode   string
	Region    string
	City      string
	Timezone  string
	Latitude  float64
	Longitude float64
	IsPrivate bool
}

// Service wraps the memory-mapped database. A missing database file leaves
// the service running; lookups then report Unavailable.
type Service struct {
	db *geoip2.Reader
}

func NewService(dbPath string) *Service {
	if dbPath == "" {
		return &Service{}
	}
	db, err := geoip2.Open(dbPath)
	if err != nil {
		slog.Warn("geoip database unavailable", "path", dbPath, "err", err)
		return &Service{}
	}
	return &Service{db: db}
}

func (s *Service) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

// Lookup resolves ip. Private and loopback addresses return IsPrivate
// without touching the database.
func (s *Service) Lookup(ip string) (Info, error) {
	if ip == "" {
		return Info{}, status.InvalidArgument("ip is empty").Err()
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return Info{}, status.InvalidArgument("invalid ip").Err()
	}
	if isPrivate(parsed) {
		return Info{IsPrivate: true}, nil
	}
	if s.db == nil {
		return Info{}, status.Unavailable("GeoIP database not available").Err()
	}

	rec, err := s.db.City(parsed)
	if err != nil {
		return Info{}, status.Unavailable(err.Error()).Err()
	}

	info := Info{
		Country:   rec.Country.Names["en"],
		ISOCode:   rec.Country.IsoCode,
		City:      rec.City.Names["en"],
		Timezone:  rec.Location.TimeZone,
		Latitude:  rec.Location.Latitude,
		Longitude: rec.Location.Longitude,
	}
	if len(rec.Subdivisions) > 0 {
		info.Region = rec.Subdivisions[0].Names["en"]
	}
	return info, nil
}

// isPrivate covers RFC1918 and loopback for IPv4 plus loopback, link-local
// and ULA for IPv6.
func isPrivate(ip net.IP) bool {
	if ip4 := ip.To4(); ip4 != nil {
		switch {
		case ip4[0] == 10:
			return true
		case ip4[0] == 172 && ip4[1] >= 16 && ip4[1] <= 31:
			return true
		case ip4[0] == 192 && ip4[1] == 168:
			return true
		case ip4[0] == 127:
			return true
		}
		return false
	}
	if ip.Equal(net.IPv6loopback) {
		return true
	}
	// fe80::/10 link-local, fc00::/7 ULA.
	return (ip[0] == 0xfe && ip[1]&0xc0 == 0x80) || ip[0]&0xfe == 0xfc
}
