package geo

import "math"

// kmPerDegree is the approximate length of one degree of latitude.
const kmPerDegree = 111.0

// Box is a latitude/longitude window around a center point.
type Box struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// NewBox builds the bounding box covering radiusKm around (lat, lng).
// Longitude degrees shrink with latitude, so the delta is widened by
// 1/cos(lat). This over-selects near the corners relative to a true
// great-circle filter, which is fine for a candidate pre-pass.
func NewBox(lat, lng, radiusKm float64) Box {
	latDelta := radiusKm / kmPerDegree
	lngDelta := radiusKm / (kmPerDegree * math.Cos(lat*math.Pi/180))

	return Box{
		MinLat: lat - latDelta,
		MaxLat: lat + latDelta,
		MinLng: lng - lngDelta,
		MaxLng: lng + lngDelta,
	}
}

// Contains reports whether the point falls inside the box.
func (b Box) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat &&
		lng >= b.MinLng && lng <= b.MaxLng
}

// ValidCoordinates reports whether lat/lng are plausible WGS84 degrees.
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
