package caf

import "math"

// UnsetID marks run/subrun/event numbers that were never filled.
const UnsetID = math.MaxUint32

// DetectorMeta is the per-detector metadata of one record. Detectors that did
// not contribute keep the defaults, which compress to almost nothing on disk.
type DetectorMeta struct {
	Enabled      bool
	Run          uint32
	Subrun       uint32
	Event        uint32
	Subevt       uint32
	StartTime    float64 // seconds since the epoch
	EndTime      float64
	Pot          float32
	LifetimeCorr float32
}

func NewDetectorMeta() DetectorMeta {
	return DetectorMeta{
		Run:          UnsetID,
		Subrun:       UnsetID,
		Event:        UnsetID,
		Subevt:       UnsetID,
		StartTime:    math.NaN(),
		EndTime:      math.NaN(),
		Pot:          float32(math.NaN()),
		LifetimeCorr: float32(math.NaN()),
	}
}

// IsDefault reports whether every field still holds its sentinel value.
func (m DetectorMeta) IsDefault() bool {
	return !m.Enabled &&
		m.Run == UnsetID && m.Subrun == UnsetID &&
		m.Event == UnsetID && m.Subevt == UnsetID &&
		math.IsNaN(m.StartTime) && math.IsNaN(m.EndTime) &&
		isNaN32(m.Pot) && isNaN32(m.LifetimeCorr)
}

// MetaArray has exactly one slot per detector, indexed by Detector.
type MetaArray [NDetectors]DetectorMeta

func NewMetaArray() MetaArray {
	var a MetaArray
	for i := range a {
		a[i] = NewDetectorMeta()
	}
	return a
}

// At returns the slot for d, or nil if d is not a detector.
func (a *MetaArray) At(d Detector) *DetectorMeta {
	if !d.Valid() {
		return nil
	}
	return &a[d]
}

func isNaN32(f float32) bool {
	return f != f
}
