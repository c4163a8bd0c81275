package caf

import (
	"fmt"
	"math"
)

type RecoAlgorithm int32

const (
	AlgoDLP RecoAlgorithm = iota
	AlgoPandora
)

func (a RecoAlgorithm) String() string {
	switch a {
	case AlgoDLP:
		return "dlp"
	case AlgoPandora:
		return "pandora"
	default:
		return "unknown"
	}
}

// RecoInteraction is a reconstructed interaction candidate common to every
// detector. Truth holds the ids of the matching true interactions in
// mc.nu, TruthOverlap the fraction of energy shared with each.
type RecoInteraction struct {
	ID           int64
	Vtx          Vector3D
	DirHeuristic Vector3D
	DirLngTrk    Vector3D
	EnuCalo      float32
	EnuLepCalo   float32
	NPart        uint32
	Truth        []int64
	TruthOverlap []float32
}

func NewRecoInteraction() RecoInteraction {
	return RecoInteraction{
		ID:           -1,
		Vtx:          NewVector3D(),
		DirHeuristic: NewVector3D(),
		DirLngTrk:    NewVector3D(),
		EnuCalo:      float32(math.NaN()),
		EnuLepCalo:   float32(math.NaN()),
	}
}

type RecoInteractionBranch struct {
	DLP      []RecoInteraction
	NDLP     uint64
	Pandora  []RecoInteraction
	NPandora uint64
}

func (b *RecoInteractionBranch) Interactions(algo RecoAlgorithm) []RecoInteraction {
	switch algo {
	case AlgoDLP:
		return b.DLP
	case AlgoPandora:
		return b.Pandora
	}
	return nil
}

func (b *RecoInteractionBranch) AddInteraction(algo RecoAlgorithm, ixn RecoInteraction) error {
	switch algo {
	case AlgoDLP:
		b.DLP = append(b.DLP, ixn)
	case AlgoPandora:
		b.Pandora = append(b.Pandora, ixn)
	default:
		return fmt.Errorf("unknown reconstruction algorithm %d", algo)
	}
	b.RepairCounts()
	return nil
}

func (b *RecoInteractionBranch) RepairCounts() {
	b.NDLP = uint64(len(b.DLP))
	b.NPandora = uint64(len(b.Pandora))
}

func (b *RecoInteractionBranch) CheckCounts() []error {
	var errs []error
	if b.NDLP != uint64(len(b.DLP)) {
		errs = append(errs, &CountMismatchError{Field: "common.ixn.ndlp", Count: b.NDLP, Length: len(b.DLP)})
	}
	if b.NPandora != uint64(len(b.Pandora)) {
		errs = append(errs, &CountMismatchError{Field: "common.ixn.npandora", Count: b.NPandora, Length: len(b.Pandora)})
	}
	for i := range b.DLP {
		if len(b.DLP[i].Truth) != len(b.DLP[i].TruthOverlap) {
			errs = append(errs, fmt.Errorf("common.ixn.dlp[%d]: %d truth matches but %d overlaps",
				i, len(b.DLP[i].Truth), len(b.DLP[i].TruthOverlap)))
		}
	}
	for i := range b.Pandora {
		if len(b.Pandora[i].Truth) != len(b.Pandora[i].TruthOverlap) {
			errs = append(errs, fmt.Errorf("common.ixn.pandora[%d]: %d truth matches but %d overlaps",
				i, len(b.Pandora[i].Truth), len(b.Pandora[i].TruthOverlap)))
		}
	}
	return errs
}

// CommonRecoBranch holds reconstruction output shared by all detectors.
type CommonRecoBranch struct {
	Ixn RecoInteractionBranch
}

// NDLArTrack is a track reconstructed in ND-LAr.
type NDLArTrack struct {
	Start   Vector3D
	End     Vector3D
	Dir     Vector3D
	EndDir  Vector3D
	Enddeps float32
	E       float32
	Len     float32 // cm
}

func NewNDLArTrack() NDLArTrack {
	nan := float32(math.NaN())
	return NDLArTrack{
		Start:   NewVector3D(),
		End:     NewVector3D(),
		Dir:     NewVector3D(),
		EndDir:  NewVector3D(),
		Enddeps: nan,
		E:       nan,
		Len:     nan,
	}
}

type NDLArBranch struct {
	DLP  []NDLArTrack
	NDLP uint64
}

// NDBranch is the near detector specific reconstruction.
type NDBranch struct {
	LAr NDLArBranch
}

func (b *NDBranch) AddLArTrack(trk NDLArTrack) {
	b.LAr.DLP = append(b.LAr.DLP, trk)
	b.LAr.NDLP = uint64(len(b.LAr.DLP))
}
