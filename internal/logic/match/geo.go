package match

import (
	"fmt"
	"math"
	"strings"

	"github.com/adlytic/addecision/internal/models"
)

// earthRadiusKM is the mean Earth radius used for haversine distance.
const earthRadiusKM = 6371.0

// Distance tiers for coordinate targeting. A user far outside every tier
// still scores 0.2: distant is a poor match, not an impossible one.
const (
	geoNearKM    = 50.0
	geoMidKM     = 100.0
	geoFarKM     = 200.0
	geoNearScore = 1.0
	geoMidScore  = 0.8
	geoFarScore  = 0.6
	geoDistant   = 0.2
)

// Geo scores geographic proximity between an ad's geo target and the user's
// observed location. Country, region and city compare by case-insensitive
// equality; when both sides carry coordinates the haversine distance
// contributes a graded sub-score. The final score averages only the checks
// actually performed.
func Geo(target, user *models.GeoCriteria) models.DimensionResult {
	if target == nil || user == nil {
		return neutral("no geo targeting or no user location")
	}

	details := make(map[string]string)
	var sum float64
	checks := 0

	if target.Country != "" && user.Country != "" {
		checks++
		if strings.EqualFold(target.Country, user.Country) {
			sum++
			details["country"] = "match"
		} else {
			details["country"] = "mismatch"
		}
	}
	if target.Region != "" && user.Region != "" {
		checks++
		if strings.EqualFold(target.Region, user.Region) {
			sum++
			details["region"] = "match"
		} else {
			details["region"] = "mismatch"
		}
	}
	if target.City != "" && user.City != "" {
		checks++
		if strings.EqualFold(target.City, user.City) {
			sum++
			details["city"] = "match"
		} else {
			details["city"] = "mismatch"
		}
	}
	if target.Lat != nil && target.Lon != nil && user.Lat != nil && user.Lon != nil {
		checks++
		km := HaversineKM(*target.Lat, *target.Lon, *user.Lat, *user.Lon)
		sum += distanceScore(km)
		details["distance_km"] = fmt.Sprintf("%.1f", km)
	}

	if checks == 0 {
		return neutral("no comparable geo fields")
	}

	score := sum / float64(checks)
	return models.DimensionResult{
		Matches: score >= defaultThreshold,
		Score:   score,
		Details: details,
	}
}

func distanceScore(km float64) float64 {
	switch {
	case km <= geoNearKM:
		return geoNearScore
	case km <= geoMidKM:
		return geoMidScore
	case km <= geoFarKM:
		return geoFarScore
	default:
		return geoDistant
	}
}

// HaversineKM returns the great-circle distance in kilometers between two
// latitude/longitude points.
func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
