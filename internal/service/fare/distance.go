package fare

import (
	"math"

	"github.com/Temutjin2k/taximeter/internal/domain/models"
)

const earthRadiusM = 6371000.0

// DistanceMeters is the great-circle distance between two fixes (haversine).
func DistanceMeters(p1, p2 models.Position) float64 {
	// градусы в радианы
	lat1Rad := p1.Latitude * math.Pi / 180
	lat2Rad := p2.Latitude * math.Pi / 180
	diffLat := (p2.Latitude - p1.Latitude) * math.Pi / 180
	diffLon := (p2.Longitude - p1.Longitude) * math.Pi / 180

	a := math.Pow(math.Sin(diffLat/2), 2) + math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Pow(math.Sin(diffLon/2), 2)
	angle := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusM * angle
}
