package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantPage  int
		wantLimit int
	}{
		{"defaults", "", 1, 10},
		{"explicit values", "page=3&limit=25", 3, 25},
		{"limit clamped to max", "limit=500", 1, 100},
		{"zero page ignored", "page=0", 1, 10},
		{"negative limit ignored", "limit=-5", 1, 10},
		{"non-numeric ignored", "page=abc&limit=xyz", 1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/?"+tt.query, nil)
			params := FromRequest(r)
			assert.Equal(t, tt.wantPage, params.Page)
			assert.Equal(t, tt.wantLimit, params.Limit)
		})
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Params{Page: 1, Limit: 10}.Offset())
	assert.Equal(t, 10, Params{Page: 2, Limit: 10}.Offset())
	assert.Equal(t, 50, Params{Page: 11, Limit: 5}.Offset())
}

func TestNewMeta(t *testing.T) {
	meta := NewMeta(Params{Page: 2, Limit: 10}, 25)
	require.Equal(t, Meta{Page: 2, Limit: 10, Total: 25, Pages: 3}, meta)

	// Exact multiple does not add a trailing page.
	meta = NewMeta(Params{Page: 1, Limit: 10}, 20)
	assert.Equal(t, 2, meta.Pages)

	// Empty result set has zero pages.
	meta = NewMeta(Params{Page: 1, Limit: 10}, 0)
	assert.Equal(t, 0, meta.Pages)

	meta = NewMeta(Params{Page: 1, Limit: 10}, 1)
	assert.Equal(t, 1, meta.Pages)
}
