package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPgVectorRoundTrip(t *testing.T) {
	v := NewPgVector([]float64{0.1, -2, 3.5})
	assert.Equal(t, "[0.1,-2,3.5]", v.String())

	var scanned PgVector
	require.NoError(t, scanned.Scan(v.String()))
	assert.Equal(t, []float64{0.1, -2, 3.5}, scanned.Floats())
	assert.Equal(t, 3, scanned.Dimension())
}

func TestPgVectorScanBytes(t *testing.T) {
	var v PgVector
	require.NoError(t, v.Scan([]byte("[1,2]")))
	assert.Equal(t, []float64{1, 2}, v.Floats())
}

func TestPgVectorScanNil(t *testing.T) {
	var v PgVector
	require.NoError(t, v.Scan(nil))
	assert.Nil(t, v.Floats())
}

func TestPgVectorScanEmpty(t *testing.T) {
	var v PgVector
	require.NoError(t, v.Scan("[]"))
	assert.Empty(t, v.Floats())
	assert.NotNil(t, v.Floats())
}

func TestPgVectorScanInvalid(t *testing.T) {
	var v PgVector
	assert.Error(t, v.Scan("[a,b]"))
	assert.Error(t, v.Scan(42))
}

func TestPgVectorDefensiveCopy(t *testing.T) {
	src := []float64{1, 2, 3}
	v := NewPgVector(src)
	src[0] = 99
	assert.Equal(t, []float64{1, 2, 3}, v.Floats())
}
