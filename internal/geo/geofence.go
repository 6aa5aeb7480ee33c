// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

// Package geo implements the geofence membership test used for on-site
// status. Distances use the haversine formula rather than a planar
// approximation: site radii fall in the 50-2000m range, where the planar
// error at mid latitudes is not negligible at this precision.
package geo

import "math"

// earthRadiusM is the mean Earth radius in meters.
const earthRadiusM = 6371000.0

// boundaryEpsilonM absorbs floating-point error in the inclusive boundary
// comparison. A point constructed at exactly the radius distance can come
// back from the haversine round trip a few nanometers long; direct float
// comparison would flip its membership.
const boundaryEpsilonM = 1e-6

// Distance returns the great-circle distance in meters between two
// WGS84 coordinates, computed with the haversine formula.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180.0
	lon1Rad := lon1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0
	lon2Rad := lon2 * math.Pi / 180.0

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusM * c
}

// Fence is a circular geofence around a work site's coordinates.
type Fence struct {
	Lat     float64
	Lon     float64
	RadiusM float64
}

// Contains reports whether the point lies within the fence.
// The boundary is inclusive: a point at exactly RadiusM meters counts
// as on-site.
func (f Fence) Contains(lat, lon float64) bool {
	return Distance(f.Lat, f.Lon, lat, lon) <= f.RadiusM+boundaryEpsilonM
}

// DestinationPoint returns the coordinate reached by traveling distanceM
// meters from (lat, lon) along the given initial bearing in degrees.
// Used by tests and by the mock-data seeder to construct points at exact
// distances from a site center.
func DestinationPoint(lat, lon, distanceM, bearingDeg float64) (float64, float64) {
	latRad := lat * math.Pi / 180.0
	lonRad := lon * math.Pi / 180.0
	bearing := bearingDeg * math.Pi / 180.0
	angular := distanceM / earthRadiusM

	destLat := math.Asin(math.Sin(latRad)*math.Cos(angular) +
		math.Cos(latRad)*math.Sin(angular)*math.Cos(bearing))
	destLon := lonRad + math.Atan2(
		math.Sin(bearing)*math.Sin(angular)*math.Cos(latRad),
		math.Cos(angular)-math.Sin(latRad)*math.Sin(destLat))

	return destLat * 180.0 / math.Pi, destLon * 180.0 / math.Pi
}
