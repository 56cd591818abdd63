package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterestsNeutral(t *testing.T) {
	result := Interests(nil, []string{"sports"})
	assert.True(t, result.Matches)
	assert.Equal(t, 0.5, result.Score)

	result = Interests([]string{"sports"}, nil)
	assert.Equal(t, 0.5, result.Score)
}

func TestInterestsJaccard(t *testing.T) {
	tests := []struct {
		name      string
		target    []string
		user      []string
		wantScore float64
		wantMatch bool
	}{
		{
			name:      "identical sets",
			target:    []string{"sports", "tech"},
			user:      []string{"tech", "sports"},
			wantScore: 1.0,
			wantMatch: true,
		},
		{
			name:      "one of three",
			target:    []string{"sports", "tech"},
			user:      []string{"tech", "music"},
			wantScore: 1.0 / 3.0,
			wantMatch: true, // 0.333 >= 0.3
		},
		{
			name:      "no overlap",
			target:    []string{"sports"},
			user:      []string{"cooking"},
			wantScore: 0.0,
			wantMatch: false,
		},
		{
			name:      "case-insensitive with duplicates",
			target:    []string{"Sports", "SPORTS"},
			user:      []string{"sports"},
			wantScore: 1.0,
			wantMatch: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Interests(tt.target, tt.user)
			assert.InDelta(t, tt.wantScore, result.Score, 1e-9)
			assert.Equal(t, tt.wantMatch, result.Matches)
		})
	}
}

func TestInterestsSymmetric(t *testing.T) {
	a := []string{"sports", "tech", "travel"}
	b := []string{"tech", "cooking"}

	assert.Equal(t, Interests(a, b).Score, Interests(b, a).Score)
}
