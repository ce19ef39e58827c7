package classifier

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// GeoIP locates addresses with a local MaxMind GeoLite2/GeoIP2 City database.
type GeoIP struct {
	reader *geoip2.Reader
}

// OpenGeoIP opens the mmdb file at path.
func OpenGeoIP(path string) (*GeoIP, error) {
	const op = "classifier.OpenGeoIP"

	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open geoip database: %w", op, err)
	}

	return &GeoIP{reader: reader}, nil
}

// Locate returns the ISO country code and English city name of ip.
func (g *GeoIP) Locate(ip net.IP) (Location, bool) {
	record, err := g.reader.City(ip)
	if err != nil || record.Country.IsoCode == "" {
		return Location{}, false
	}

	return Location{
		Country: record.Country.IsoCode,
		City:    record.City.Names["en"],
	}, true
}

func (g *GeoIP) Close() error {
	return g.reader.Close()
}
