package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocation(t *testing.T) {
	loc, err := NewLocation(48.2082, 16.3738)
	require.NoError(t, err)
	assert.Equal(t, 48.2082, loc.Latitude())
	assert.Equal(t, 16.3738, loc.Longitude())
}

func TestNewLocation_AcceptsBoundaryValues(t *testing.T) {
	for _, pair := range [][2]float64{
		{90, 180},
		{-90, -180},
		{0, 0},
	} {
		_, err := NewLocation(pair[0], pair[1])
		assert.NoError(t, err, "lat=%f lon=%f", pair[0], pair[1])
	}
}

func TestNewLocation_RejectsOutOfRange(t *testing.T) {
	for _, pair := range [][2]float64{
		{90.001, 0},
		{-90.001, 0},
		{0, 180.001},
		{0, -180.001},
	} {
		_, err := NewLocation(pair[0], pair[1])
		assert.Error(t, err, "lat=%f lon=%f", pair[0], pair[1])
	}
}

func TestLocation_Equals(t *testing.T) {
	a, err := NewLocation(48.2, 16.37)
	require.NoError(t, err)
	b, err := NewLocation(48.2, 16.37)
	require.NoError(t, err)
	c, err := NewLocation(48.2, 16.38)
	require.NoError(t, err)

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
}
