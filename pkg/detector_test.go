package caf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectorEnumeration(t *testing.T) {
	assert.Equal(t, 6, NDetectors)
	assert.Equal(t, Detector(2), DetectorNDLAr)
	assert.Equal(t, "nd_lar", DetectorNDLAr.String())
	assert.Equal(t, "UNKNOWN", LastDetector.String())
	assert.False(t, LastDetector.Valid())
	assert.False(t, Detector(-1).Valid())

	for d := Detector(0); d < LastDetector; d++ {
		parsed, err := ParseDetector(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, parsed)
	}
	_, err := ParseDetector("icarus")
	assert.Error(t, err)
}

func TestDetectorSet(t *testing.T) {
	var s DetectorSet
	assert.True(t, s.None())
	assert.Equal(t, "000000", s.String())

	s.Set(DetectorNDLAr)
	s.Set(DetectorSAND)
	s.Set(LastDetector) // ignored
	assert.True(t, s.Test(DetectorNDLAr))
	assert.False(t, s.Test(DetectorFD))
	assert.Equal(t, 2, s.Count())
	assert.Equal(t, []Detector{DetectorNDLAr, DetectorSAND}, s.Detectors())
	assert.Equal(t, uint32(0b100100), s.Bits())
	assert.Equal(t, "100100", s.String())

	s.Clear(DetectorSAND)
	assert.Equal(t, uint32(0b100), s.Bits())
}

func TestDetectorSetFromBits(t *testing.T) {
	s, err := DetectorSetFromBits(0b111111)
	require.NoError(t, err)
	assert.Equal(t, NDetectors, s.Count())

	_, err = DetectorSetFromBits(1 << NDetectors)
	assert.Error(t, err)
}
