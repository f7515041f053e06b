package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Params
	}{
		{"defaults", "", Params{Page: 1, PerPage: 20, Offset: 0}},
		{"explicit", "?page=3&per_page=10", Params{Page: 3, PerPage: 10, Offset: 20}},
		{"clamped", "?page=2&per_page=500", Params{Page: 2, PerPage: 100, Offset: 100}},
		{"garbage", "?page=abc&per_page=-4", Params{Page: 1, PerPage: 20, Offset: 0}},
		{"zero page", "?page=0", Params{Page: 1, PerPage: 20, Offset: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/v1/search"+tt.query, nil)
			assert.Equal(t, tt.want, FromRequest(r))
		})
	}
}

func TestTotalPagesAndHasNext(t *testing.T) {
	p := New(1, 20)
	assert.Equal(t, 0, p.TotalPages(0))
	assert.Equal(t, 1, p.TotalPages(20))
	assert.Equal(t, 2, p.TotalPages(21))
	assert.True(t, p.HasNext(21))
	assert.False(t, New(2, 20).HasNext(21))
}

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{1, 2}, Slice(items, New(1, 2)))
	assert.Equal(t, []int{5}, Slice(items, New(3, 2)))
	assert.Equal(t, []int{}, Slice(items, New(4, 2)))
}

func TestNew_ClampsOverflowingPage(t *testing.T) {
	p := New(922337203685477581, 20)

	assert.GreaterOrEqual(t, p.Offset, 0)
	assert.Equal(t, []int{}, Slice([]int{1, 2, 3}, p))
	assert.False(t, p.HasNext(3))
}

func TestSlice_NegativeOffsetIsEmpty(t *testing.T) {
	assert.Equal(t, []int{}, Slice([]int{1, 2, 3}, Params{Page: 1, PerPage: 20, Offset: -16}))
}
