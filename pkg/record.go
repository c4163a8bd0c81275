package caf

import (
	"errors"
	"fmt"
)

// StandardRecord is the primary top level object of the Common Analysis
// Files: one entry per event.
type StandardRecord struct {
	// Which detectors this record has info from. Test with
	// ActiveDetectors.Test(DetectorNDLAr) before reading Meta.
	ActiveDetectors DetectorSet

	// Per-detector metadata. There is always one entry for each detector;
	// detectors that aren't represented keep default (NaN) values.
	Meta MetaArray

	MC     TruthBranch
	Common CommonRecoBranch
	ND     NDBranch

	NwgtCrazyFlux int32
	WgtCrazyFlux  []float32

	// First index is systematic ID, second is universe
	XsSystWgt [][]float32

	TotalXsSystCVWgt float32
	CVWgt            []float32

	Deprecated DeprecatedPRISM
}

// DeprecatedPRISM holds placeholders that only exist so older PRISM analysis
// code keeps compiling. Nothing fills them: producers must leave them at -1
// and consumers must not read them. They will be removed.
type DeprecatedPRISM struct {
	PerPOTWeight      float64
	NDMassCorrWeight  float64
	SpecialRunWeight  float64
	SpecialHCRunID    int32
	OffAxisFluxBin    int32
	OffAxisFluxConfig int32
	AbsPosX           float64
	EVisRecoND        float64
	EVisRecoNumu      float64
	EVisRecoNue       float64
	HadEVisRecoND     float64
	HadEVisRecoFD     float64
	VisTrueNDFD       float64
	ProxyRecoLepE     float64
	ERecProxy         float64
	HadE              float64
	EPipm             float64
	ETotalPi0         float64
}

func NewDeprecatedPRISM() DeprecatedPRISM {
	return DeprecatedPRISM{
		PerPOTWeight:      -1,
		NDMassCorrWeight:  -1,
		SpecialRunWeight:  -1,
		SpecialHCRunID:    -1,
		OffAxisFluxBin:    -1,
		OffAxisFluxConfig: -1,
		AbsPosX:           -1,
		EVisRecoND:        -1,
		EVisRecoNumu:      -1,
		EVisRecoNue:       -1,
		HadEVisRecoND:     -1,
		HadEVisRecoFD:     -1,
		VisTrueNDFD:       -1,
		ProxyRecoLepE:     -1,
		ERecProxy:         -1,
		HadE:              -1,
		EPipm:             -1,
		ETotalPi0:         -1,
	}
}

func NewStandardRecord() *StandardRecord {
	return &StandardRecord{
		Meta:       NewMetaArray(),
		Deprecated: NewDeprecatedPRISM(),
	}
}

// SetDetector marks d as active and stores its metadata.
func (r *StandardRecord) SetDetector(d Detector, meta DetectorMeta) error {
	slot := r.Meta.At(d)
	if slot == nil {
		return fmt.Errorf("invalid detector %d", d)
	}
	r.ActiveDetectors.Set(d)
	*slot = meta
	return nil
}

func (r *StandardRecord) AddCrazyFluxWeight(w float32) {
	r.WgtCrazyFlux = append(r.WgtCrazyFlux, w)
	r.NwgtCrazyFlux = int32(len(r.WgtCrazyFlux))
}

// Validate checks that every redundant count agrees with its vector. A
// detector bit without metadata, or metadata without its bit, is allowed.
func (r *StandardRecord) Validate() error {
	var errs []error
	if err := r.MC.CheckCounts(); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, r.Common.Ixn.CheckCounts()...)
	if r.ND.LAr.NDLP != uint64(len(r.ND.LAr.DLP)) {
		errs = append(errs, &CountMismatchError{Field: "nd.lar.ndlp", Count: r.ND.LAr.NDLP, Length: len(r.ND.LAr.DLP)})
	}
	if r.NwgtCrazyFlux < 0 || int(r.NwgtCrazyFlux) != len(r.WgtCrazyFlux) {
		errs = append(errs, &CountMismatchError{Field: "nwgt_CrazyFlux", Count: uint64(r.NwgtCrazyFlux), Length: len(r.WgtCrazyFlux)})
	}
	return errors.Join(errs...)
}

// RepairCounts rewrites every redundant count from the length of its vector.
func (r *StandardRecord) RepairCounts() {
	r.MC.RepairCounts()
	r.Common.Ixn.RepairCounts()
	r.ND.LAr.NDLP = uint64(len(r.ND.LAr.DLP))
	r.NwgtCrazyFlux = int32(len(r.WgtCrazyFlux))
}
