package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adlytic/addecision/internal/models"
)

func TestDemographicsNeutral(t *testing.T) {
	result := Demographics(nil, &models.UserDemographics{Age: 30})
	assert.True(t, result.Matches)
	assert.Equal(t, 0.5, result.Score)

	result = Demographics(&models.DemographicCriteria{AgeRange: "18-34"}, nil)
	assert.Equal(t, 0.5, result.Score)

	// Age zero means unknown, so nothing is comparable.
	result = Demographics(&models.DemographicCriteria{AgeRange: "18-34"}, &models.UserDemographics{})
	assert.Equal(t, 0.5, result.Score)
}

func TestAgeInRange(t *testing.T) {
	tests := []struct {
		name     string
		age      int
		ageRange string
		want     bool
	}{
		{"inside range", 25, "18-34", true},
		{"lower bound", 18, "18-34", true},
		{"upper bound", 34, "18-34", true},
		{"below range", 17, "18-34", false},
		{"above range", 35, "18-34", false},
		{"open ended match", 70, "65+", true},
		{"open ended bound", 65, "65+", true},
		{"open ended below", 64, "65+", false},
		{"malformed never matches", 25, "young", false},
		{"malformed bounds", 25, "a-b", false},
		{"whitespace tolerated", 25, " 18-34 ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ageInRange(tt.age, tt.ageRange))
		})
	}
}

func TestDemographicsScoring(t *testing.T) {
	target := &models.DemographicCriteria{AgeRange: "18-34", Gender: "female", Income: "50k-100k"}
	user := &models.UserDemographics{Age: 28, Gender: "Female", Income: "100k+"}

	// Age and gender match, income bracket differs: 2/3.
	result := Demographics(target, user)
	assert.InDelta(t, 2.0/3.0, result.Score, 1e-9)
	assert.False(t, result.Matches)

	user.Income = "50k-100k"
	result = Demographics(target, user)
	assert.Equal(t, 1.0, result.Score)
	assert.True(t, result.Matches)
}
