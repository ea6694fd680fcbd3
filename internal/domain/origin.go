package domain

// ResolveOrigin returns the origin closest to (lat, lng) by squared Euclidean
// distance in degree space. No great-circle correction is applied; origins are
// few and regional, so planar ranking is close enough. Ties go to the
// lexicographically lowest city name. ErrNotFound means no origins were seeded.
func ResolveOrigin(lat, lng float64, origins []Origin) (Origin, error) {
	if len(origins) == 0 {
		return Origin{}, ErrNotFound
	}

	best := origins[0]
	bestDist := squaredDistance(lat, lng, best)
	for _, o := range origins[1:] {
		d := squaredDistance(lat, lng, o)
		if d < bestDist || (d == bestDist && o.City < best.City) {
			best, bestDist = o, d
		}
	}
	return best, nil
}

func squaredDistance(lat, lng float64, o Origin) float64 {
	dLat := lat - o.Lat
	dLng := lng - o.Lng
	return dLat*dLat + dLng*dLng
}
