package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDefaultsAndCaps(t *testing.T) {
	assert.Equal(t, Params{Page: 1, PerPage: 10}, Normalize(Params{}))
	assert.Equal(t, Params{Page: 3, PerPage: 100}, Normalize(Params{Page: 3, PerPage: 500}))
}

func TestOffsetAndLimit(t *testing.T) {
	p := Params{Page: 3, PerPage: 20}
	assert.Equal(t, 40, p.Offset())
	assert.Equal(t, 20, p.Limit())
	assert.Equal(t, 0, Params{}.Offset())
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 0, TotalPages(5, 0))
}

func TestOutOfRange(t *testing.T) {
	assert.False(t, OutOfRange(Params{Page: 1}, 0))
	assert.False(t, OutOfRange(Params{Page: 2, PerPage: 10}, 11))
	assert.True(t, OutOfRange(Params{Page: 3, PerPage: 10}, 11))
}
