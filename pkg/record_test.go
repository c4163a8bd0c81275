package caf

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStandardRecordDefaults(t *testing.T) {
	rec := NewStandardRecord()

	assert.True(t, rec.ActiveDetectors.None())
	assert.Len(t, rec.Meta, NDetectors)
	for d := Detector(0); d < LastDetector; d++ {
		assert.True(t, rec.Meta[d].IsDefault(), "meta of %s", d)
		assert.True(t, math.IsNaN(float64(rec.Meta[d].Pot)))
	}
	assert.Empty(t, rec.MC.Nu)
	assert.Equal(t, uint64(0), rec.MC.NNu)
	assert.Equal(t, int32(0), rec.NwgtCrazyFlux)
	assert.Empty(t, rec.WgtCrazyFlux)
	assert.Empty(t, rec.XsSystWgt)
	assert.Empty(t, rec.CVWgt)

	d := rec.Deprecated
	for name, v := range map[string]float64{
		"perPOTWeight":     d.PerPOTWeight,
		"NDMassCorrWeight": d.NDMassCorrWeight,
		"SpecialRunWeight": d.SpecialRunWeight,
		"abspos_x":         d.AbsPosX,
		"EVisReco_ND":      d.EVisRecoND,
		"EVisReco_numu":    d.EVisRecoNumu,
		"EVisReco_nue":     d.EVisRecoNue,
		"HadEVisReco_ND":   d.HadEVisRecoND,
		"HadEVisReco_FD":   d.HadEVisRecoFD,
		"VisTrue_NDFD":     d.VisTrueNDFD,
		"ProxyRecoLepE":    d.ProxyRecoLepE,
		"eRecProxy":        d.ERecProxy,
		"HadE":             d.HadE,
		"ePipm":            d.EPipm,
		"eTotalPi0":        d.ETotalPi0,
	} {
		assert.Equal(t, -1.0, v, name)
	}
	assert.Equal(t, int32(-1), d.SpecialHCRunID)
	assert.Equal(t, int32(-1), d.OffAxisFluxBin)
	assert.Equal(t, int32(-1), d.OffAxisFluxConfig)

	assert.NoError(t, rec.Validate())
}

func TestSingleActiveDetectorIsValid(t *testing.T) {
	rec := NewStandardRecord()
	meta := NewDetectorMeta()
	meta.Enabled = true
	meta.Run = 1234
	meta.Subrun = 5
	meta.Event = 42
	meta.Pot = 7.5e13
	require.NoError(t, rec.SetDetector(DetectorNDLAr, meta))

	assert.Equal(t, uint32(1<<2), rec.ActiveDetectors.Bits())
	assert.False(t, rec.Meta[DetectorNDLAr].IsDefault())
	for d := Detector(0); d < LastDetector; d++ {
		if d != DetectorNDLAr {
			assert.True(t, rec.Meta[d].IsDefault(), "meta of %s", d)
		}
	}
	assert.NoError(t, rec.Validate())

	// Active detector with default meta is allowed too
	rec.ActiveDetectors.Set(DetectorSAND)
	assert.NoError(t, rec.Validate())

	assert.Error(t, rec.SetDetector(LastDetector, meta))
	assert.Same(t, &rec.Meta[DetectorNDLAr], rec.Meta.At(DetectorNDLAr))
	assert.Equal(t, uint32(42), rec.Meta.At(DetectorNDLAr).Event)
	assert.Nil(t, rec.Meta.At(LastDetector))
	assert.Nil(t, rec.Meta.At(Detector(-1)))
}

func TestValidateReportsCountMismatch(t *testing.T) {
	rec := NewStandardRecord()
	rec.MC.AddInteraction(NewTrueInteraction())
	rec.MC.Nu = append(rec.MC.Nu, NewTrueInteraction()) // NNu not updated
	rec.WgtCrazyFlux = []float32{1, 2}

	err := rec.Validate()
	require.Error(t, err)
	var mismatch *CountMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "mc.nnu", mismatch.Field)
	assert.Equal(t, uint64(1), mismatch.Count)
	assert.Equal(t, 2, mismatch.Length)
	assert.Contains(t, err.Error(), "nwgt_CrazyFlux")

	rec.RepairCounts()
	assert.NoError(t, rec.Validate())
	assert.Equal(t, uint64(2), rec.MC.NNu)
	assert.Equal(t, int32(2), rec.NwgtCrazyFlux)
}

func TestValidateInteractionCounts(t *testing.T) {
	rec := NewStandardRecord()
	ixn := NewTrueInteraction()
	ixn.ID = 3
	p := NewTrueParticle()
	p.ID.Type = ParticlePrimary
	_, err := ixn.AddParticle(p)
	require.NoError(t, err)
	ixn.NPrim = 4
	rec.MC.AddInteraction(ixn)

	err = rec.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mc.nu[0].nprim")

	require.NoError(t, rec.Common.Ixn.AddInteraction(AlgoDLP, NewRecoInteraction()))
	rec.Common.Ixn.DLP[0].Truth = []int64{3}
	rec.RepairCounts()
	err = rec.Validate()
	require.Error(t, err, "truth and overlap lengths differ")
	rec.Common.Ixn.DLP[0].TruthOverlap = []float32{1}
	assert.NoError(t, rec.Validate())
}
