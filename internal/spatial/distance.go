package spatial

import "github.com/golang/geo/s2"

// EarthRadiusMeters is the mean earth radius used for distance conversion
const EarthRadiusMeters = 6371000.0

// HaversineDistance calculates the great-circle distance between two points
// in meters
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// PathDistance sums the consecutive-point distances of a movement path
// given as [lat, lon] pairs, in meters
func PathDistance(path [][2]float64) float64 {
	var total float64
	for i := 1; i < len(path); i++ {
		total += HaversineDistance(path[i-1][0], path[i-1][1], path[i][0], path[i][1])
	}
	return total
}
