package match

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adlytic/addecision/internal/models"
)

func fptr(f float64) *float64 { return &f }

func TestGeoNeutralWhenEitherSideAbsent(t *testing.T) {
	target := &models.GeoCriteria{Country: "US"}
	user := &models.GeoCriteria{Country: "US"}

	tests := []struct {
		name   string
		target *models.GeoCriteria
		user   *models.GeoCriteria
	}{
		{"no targeting", nil, user},
		{"no user location", target, nil},
		{"both absent", nil, nil},
		{"no comparable fields", &models.GeoCriteria{Country: "US"}, &models.GeoCriteria{City: "Austin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Geo(tt.target, tt.user)
			assert.True(t, result.Matches)
			assert.Equal(t, 0.5, result.Score)
		})
	}
}

func TestGeoCountryRegionCity(t *testing.T) {
	tests := []struct {
		name      string
		target    models.GeoCriteria
		user      models.GeoCriteria
		wantScore float64
		wantMatch bool
	}{
		{
			name:      "full match case-insensitive",
			target:    models.GeoCriteria{Country: "us", Region: "ca", City: "san francisco"},
			user:      models.GeoCriteria{Country: "US", Region: "CA", City: "San Francisco"},
			wantScore: 1.0,
			wantMatch: true,
		},
		{
			name:      "country only",
			target:    models.GeoCriteria{Country: "US"},
			user:      models.GeoCriteria{Country: "US", Region: "NY", City: "New York"},
			wantScore: 1.0,
			wantMatch: true,
		},
		{
			name:      "two of three",
			target:    models.GeoCriteria{Country: "US", Region: "CA", City: "San Francisco"},
			user:      models.GeoCriteria{Country: "US", Region: "CA", City: "Los Angeles"},
			wantScore: 2.0 / 3.0,
			wantMatch: false, // 0.667 < 0.7
		},
		{
			name:      "country mismatch",
			target:    models.GeoCriteria{Country: "US"},
			user:      models.GeoCriteria{Country: "CA"},
			wantScore: 0.0,
			wantMatch: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Geo(&tt.target, &tt.user)
			assert.InDelta(t, tt.wantScore, result.Score, 1e-9)
			assert.Equal(t, tt.wantMatch, result.Matches)
		})
	}
}

func TestGeoDistanceTiers(t *testing.T) {
	// Target fixed at the origin; users placed along a meridian so distance
	// is a pure function of the latitude delta (1 degree is about 111 km).
	target := &models.GeoCriteria{Lat: fptr(0), Lon: fptr(0)}

	tests := []struct {
		name     string
		userLat  float64
		expected float64
	}{
		{"same point", 0, 1.0},
		{"within 50km", 0.4, 1.0},
		{"within 100km", 0.8, 0.8},
		{"within 200km", 1.5, 0.6},
		{"beyond 200km", 10, 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &models.GeoCriteria{Lat: fptr(tt.userLat), Lon: fptr(0)}
			result := Geo(target, user)
			assert.Equal(t, tt.expected, result.Score)
		})
	}
}

func TestHaversineKM(t *testing.T) {
	// Identical coordinates give zero distance.
	assert.Equal(t, 0.0, HaversineKM(37.7749, -122.4194, 37.7749, -122.4194))

	// San Francisco to Los Angeles is roughly 559 km.
	km := HaversineKM(37.7749, -122.4194, 34.0522, -118.2437)
	assert.InDelta(t, 559, km, 5)

	// Symmetry.
	back := HaversineKM(34.0522, -118.2437, 37.7749, -122.4194)
	assert.True(t, math.Abs(km-back) < 1e-9)
}

func TestGeoCombinesFieldAndDistanceChecks(t *testing.T) {
	target := &models.GeoCriteria{Country: "US", Lat: fptr(0), Lon: fptr(0)}
	user := &models.GeoCriteria{Country: "US", Lat: fptr(10), Lon: fptr(0)}

	// (1.0 country + 0.2 distance) / 2
	result := Geo(target, user)
	assert.InDelta(t, 0.6, result.Score, 1e-9)
	assert.False(t, result.Matches)
}
