package mcpserver

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	items := []int{0, 1, 2, 3, 4}

	tests := []struct {
		name   string
		offset int
		limit  int
		want   []int
	}{
		{name: "default limit returns all", want: []int{0, 1, 2, 3, 4}},
		{name: "explicit limit", limit: 2, want: []int{0, 1}},
		{name: "offset only", offset: 2, want: []int{2, 3, 4}},
		{name: "offset and limit", offset: 1, limit: 2, want: []int{1, 2}},
		{name: "offset at end", offset: 5, want: nil},
		{name: "negative offset", offset: -1, want: nil},
		{name: "limit beyond end", offset: 3, limit: 10, want: []int{3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, paginate(items, tt.offset, tt.limit))
		})
	}
}

func TestPaginate_OverflowLimit(t *testing.T) {
	assert.Equal(t, []int{1, 2}, paginate([]int{0, 1, 2}, 1, math.MaxInt))
}

func TestPaginate_MaxLimitCap(t *testing.T) {
	saved := cfg.MaxLimit
	t.Cleanup(func() { cfg.MaxLimit = saved })
	cfg.MaxLimit = 2

	assert.Len(t, paginate([]int{0, 1, 2, 3}, 0, 100), 2)
}

func TestMakeSlice(t *testing.T) {
	assert.Nil(t, makeSlice[int](0))
	s := makeSlice[int](3)
	assert.Empty(t, s)
	assert.Equal(t, 3, cap(s))
}

func TestSanitizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"no path", errors.New("bad input"), "bad input"},
		{"home path", errors.New("open /home/dev/api/openapi.yaml: no such file"), "open <path>: no such file"},
		{"tmp path", errors.New("file:///tmp/x/openapi.yaml#/paths"), "file://<path>#/paths"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeError(tt.err))
		})
	}
}

func TestErrResult(t *testing.T) {
	r := errResult(errors.New("boom"))
	assert.True(t, r.IsError)
	assert.Len(t, r.Content, 1)
}
