package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adlytic/addecision/internal/models"
)

func TestDeviceNeutral(t *testing.T) {
	result := Device(nil, &models.DeviceCriteria{Type: "mobile"})
	assert.True(t, result.Matches)
	assert.Equal(t, 0.5, result.Score)

	result = Device(&models.DeviceCriteria{Type: "mobile"}, nil)
	assert.Equal(t, 0.5, result.Score)

	// Populated structs with no overlapping fields.
	result = Device(&models.DeviceCriteria{Type: "mobile"}, &models.DeviceCriteria{OS: "iOS"})
	assert.Equal(t, 0.5, result.Score)
}

func TestDeviceFieldMatching(t *testing.T) {
	tests := []struct {
		name      string
		target    models.DeviceCriteria
		user      models.DeviceCriteria
		wantScore float64
		wantMatch bool
	}{
		{
			name:      "all match case-insensitive",
			target:    models.DeviceCriteria{Type: "Mobile", Browser: "chrome", OS: "android"},
			user:      models.DeviceCriteria{Type: "mobile", Browser: "Chrome", OS: "Android"},
			wantScore: 1.0,
			wantMatch: true,
		},
		{
			name:      "type mismatch",
			target:    models.DeviceCriteria{Type: "desktop", OS: "Windows"},
			user:      models.DeviceCriteria{Type: "mobile", OS: "Windows"},
			wantScore: 0.5,
			wantMatch: false,
		},
		{
			name:      "two of three",
			target:    models.DeviceCriteria{Type: "mobile", Browser: "Chrome", OS: "iOS"},
			user:      models.DeviceCriteria{Type: "mobile", Browser: "Chrome", OS: "Android"},
			wantScore: 2.0 / 3.0,
			wantMatch: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Device(&tt.target, &tt.user)
			assert.InDelta(t, tt.wantScore, result.Score, 1e-9)
			assert.Equal(t, tt.wantMatch, result.Matches)
		})
	}
}

func TestScreenFits(t *testing.T) {
	tests := []struct {
		name      string
		requested string
		actual    string
		want      bool
	}{
		{"exact fit", "300x250", "300x250", true},
		{"smaller than screen", "300x250", "1920x1080", true},
		{"too wide", "2000x250", "1920x1080", false},
		{"too tall", "300x1200", "1920x1080", false},
		{"malformed requested", "300by250", "1920x1080", false},
		{"malformed actual", "300x250", "huge", false},
		{"zero dimension", "0x250", "1920x1080", false},
		{"uppercase separator", "300X250", "1920X1080", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, screenFits(tt.requested, tt.actual))
		})
	}
}

func TestDeviceMalformedScreenSizeFailsOnlyThatCheck(t *testing.T) {
	target := &models.DeviceCriteria{Type: "mobile", ScreenSize: "garbage"}
	user := &models.DeviceCriteria{Type: "mobile", ScreenSize: "390x844"}

	result := Device(target, user)
	// Type matched, screen check failed: 1/2.
	assert.InDelta(t, 0.5, result.Score, 1e-9)
	assert.Equal(t, "incompatible", result.Details["screen_size"])
}
