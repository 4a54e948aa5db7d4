package posts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchesSkills(t *testing.T) {
	tests := []struct {
		name     string
		required []string
		user     []string
		want     bool
	}{
		{
			name:     "overlap on one skill",
			required: []string{"Go", "PostgreSQL"},
			user:     []string{"PostgreSQL", "Docker"},
			want:     true,
		},
		{
			name:     "no overlap",
			required: []string{"Rust", "Embedded"},
			user:     []string{"Go", "React"},
			want:     false,
		},
		{
			name:     "case insensitive",
			required: []string{"machine learning"},
			user:     []string{"Machine Learning"},
			want:     true,
		},
		{
			name:     "whitespace tolerant",
			required: []string{"  Go "},
			user:     []string{"go"},
			want:     true,
		},
		{
			name:     "no required skills matches everyone",
			required: nil,
			user:     nil,
			want:     true,
		},
		{
			name:     "required skills but user has none",
			required: []string{"Go"},
			user:     nil,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesSkills(tt.required, tt.user))
		})
	}
}
