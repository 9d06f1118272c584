package wms

import (
	"fmt"
	"strconv"
	"strings"
)

// CoordinateSystem 空间参考
type CoordinateSystem struct {
	Name          string
	Authority     string
	AuthorityCode int
}

// Predefined coordinate systems
var (
	WGS84          = CoordinateSystem{Name: "WGS 84", Authority: "EPSG", AuthorityCode: 4326}
	WebMercator    = CoordinateSystem{Name: "WGS 84 / Pseudo-Mercator", Authority: "EPSG", AuthorityCode: 3857}
	GoogleMercator = CoordinateSystem{Name: "Google Maps Global Mercator", Authority: "EPSG", AuthorityCode: 900913}
)

var knownSystems = []CoordinateSystem{WGS84, WebMercator, GoogleMercator}

// SRSName formats the system as "<authority>:<code>"
func (cs CoordinateSystem) SRSName() string {
	return cs.Authority + ":" + strconv.Itoa(cs.AuthorityCode)
}

func (cs CoordinateSystem) String() string {
	return cs.SRSName()
}

// ParseSRS parses an identifier like "EPSG:3857".
// Known codes get their well known name.
func ParseSRS(s string) (CoordinateSystem, error) {
	authority, code, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found || authority == "" {
		return CoordinateSystem{}, fmt.Errorf("invalid srs %q: expected <authority>:<code>", s)
	}
	n, err := strconv.Atoi(code)
	if err != nil {
		return CoordinateSystem{}, fmt.Errorf("invalid srs %q: %w", s, err)
	}
	authority = strings.ToUpper(authority)
	for _, cs := range knownSystems {
		if cs.Authority == authority && cs.AuthorityCode == n {
			return cs, nil
		}
	}
	return CoordinateSystem{Authority: authority, AuthorityCode: n}, nil
}
