package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationUnmarshalText(t *testing.T) {
	var l Location
	require.NoError(t, l.UnmarshalText([]byte(`{"type":"Point","coordinates":[-122.3321,47.6062],"city":"Seattle"}`)))
	require.True(t, l.HasPoint())
	lng, lat := l.Point()
	assert.Equal(t, -122.3321, lng)
	assert.Equal(t, 47.6062, lat)
	assert.Equal(t, "Seattle", l.City)

	require.NoError(t, l.UnmarshalText(nil))
	assert.False(t, l.HasPoint())

	assert.ErrorIs(t, l.UnmarshalText([]byte(`{"coordinates":[1]}`)), ErrInvalidLocation)
}
