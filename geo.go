package nearby

import (
	"math"

	"tidbyt.dev/nearby/model"
)

const (
	EarthRadiusMeters = 6371000

	// Straight line distance underestimates the path actually
	// walked.
	PathInefficiency = 1.3

	// Meters per minute.
	WalkingSpeed = 80
)

// Great-circle distance in meters between a and b.
func DistanceMeters(a, b model.Location) float64 {
	aLatRad := a.Latitude * math.Pi / 180
	bLatRad := b.Latitude * math.Pi / 180
	deltaLat := (b.Latitude - a.Latitude) * math.Pi / 180
	deltaLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Pow(math.Sin(deltaLat/2), 2) + math.Cos(aLatRad)*math.Cos(bLatRad)*math.Pow(math.Sin(deltaLon/2), 2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return c * EarthRadiusMeters
}

// Estimated minutes needed to walk a straight line distance. The
// result is truncated, so 7.99 minutes is reported as 7.
func WalkMinutes(distanceMeters float64) int {
	return int(distanceMeters * PathInefficiency / WalkingSpeed)
}

// Radius in meters to search for stations within walking distance.
func SearchRadius(maxWalkMinutes int) int {
	return maxWalkMinutes * WalkingSpeed
}

// Walk time and distance from home to a station. Stations without
// coordinates can't be reached, and ok is false.
func StationWalk(home model.Location, station model.Station) (walk int, distance float64, ok bool) {
	loc := station.Location
	if loc == nil || loc.Latitude == 0 || loc.Longitude == 0 {
		return 0, 0, false
	}
	distance = DistanceMeters(home, *loc)
	return WalkMinutes(distance), distance, true
}
