package geo

import (
	"math"
	"regexp"
	"strings"
)

// EarthRadiusKm is the mean earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Fence is a circular service area.
type Fence struct {
	Center   Point
	RadiusKm float64
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// DistanceKm is the great-circle distance between two points. NaN input
// yields +Inf.
func DistanceKm(lat, lng, centerLat, centerLng float64) float64 {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsNaN(centerLat) || math.IsNaN(centerLng) {
		return math.Inf(1)
	}
	dLat := toRadians(centerLat - lat)
	dLng := toRadians(centerLng - lng)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat))*math.Cos(toRadians(centerLat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// IsWithinRadius fails closed on NaN input.
func IsWithinRadius(lat, lng, centerLat, centerLng, radiusKm float64) bool {
	if math.IsNaN(radiusKm) {
		return false
	}
	d := DistanceKm(lat, lng, centerLat, centerLng)
	if math.IsInf(d, 1) {
		return false
	}
	return d <= radiusKm
}

// Valid reports whether p is a real coordinate: latitude in [-90, 90] and
// longitude in [-180, 180].
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

func (f Fence) Distance(p Point) float64 {
	return DistanceKm(p.Lat, p.Lng, f.Center.Lat, f.Center.Lng)
}

// Contains rejects out-of-range points, which haversine would otherwise wrap
// back onto the globe.
func (f Fence) Contains(p Point) bool {
	return p.Valid() && IsWithinRadius(p.Lat, p.Lng, f.Center.Lat, f.Center.Lng, f.RadiusKm)
}

var (
	postalCodeRe    = regexp.MustCompile(`(?i)[A-Z]\d[A-Z]\s?\d[A-Z]\d`)
	spaceCommaRe    = regexp.MustCompile(`\s+,`)
	commaGapRe      = regexp.MustCompile(`,\s*,`)
	trailingCommaRe = regexp.MustCompile(`,\s*$`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
)

// StripPostalCode removes Canadian postal codes from a formatted address and
// tidies the punctuation left behind.
func StripPostalCode(address string) string {
	if !postalCodeRe.MatchString(address) {
		return address
	}
	s := postalCodeRe.ReplaceAllString(address, "")
	s = spaceCommaRe.ReplaceAllString(s, ",")
	for commaGapRe.MatchString(s) {
		s = commaGapRe.ReplaceAllString(s, ",")
	}
	s = trailingCommaRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
