package caf

import (
	"fmt"
	"math/bits"
	"strings"
)

type Detector int

const (
	DetectorUnknown Detector = iota
	DetectorFD
	DetectorNDLAr
	DetectorNDGAr
	DetectorMINERvA
	DetectorSAND
	// LastDetector is not a detector. Its value is the number of detectors
	// and sizes both the active detector bits and the meta array.
	LastDetector
)

const NDetectors = int(LastDetector)

// DetectorSet bits are stored in a uint32
var _ [32 - NDetectors]struct{}

var detectorStrings = [NDetectors]string{
	"unknown",
	"fd",
	"nd_lar",
	"nd_gar",
	"minerva",
	"sand",
}

func (d Detector) String() string {
	if !d.Valid() {
		return "UNKNOWN"
	}
	return detectorStrings[d]
}

func (d Detector) Valid() bool {
	return d >= 0 && d < LastDetector
}

func ParseDetector(s string) (Detector, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, v := range detectorStrings {
		if v == s {
			return Detector(i), nil
		}
	}
	return DetectorUnknown, fmt.Errorf("invalid detector: %s", s)
}

// DetectorSet holds one bit per detector telling whether the record has data
// from it. The zero value has every bit clear.
type DetectorSet struct {
	bits uint32
}

const detectorMask = uint32(1)<<NDetectors - 1

func (s *DetectorSet) Set(d Detector) {
	if d.Valid() {
		s.bits |= 1 << uint(d)
	}
}

func (s *DetectorSet) Clear(d Detector) {
	if d.Valid() {
		s.bits &^= 1 << uint(d)
	}
}

func (s DetectorSet) Test(d Detector) bool {
	return d.Valid() && s.bits&(1<<uint(d)) != 0
}

func (s DetectorSet) Count() int {
	return bits.OnesCount32(s.bits)
}

func (s DetectorSet) None() bool {
	return s.bits == 0
}

// Detectors returns the active detectors in ascending order.
func (s DetectorSet) Detectors() []Detector {
	detectors := make([]Detector, 0, s.Count())
	for d := Detector(0); d < LastDetector; d++ {
		if s.Test(d) {
			detectors = append(detectors, d)
		}
	}
	return detectors
}

func (s DetectorSet) Bits() uint32 {
	return s.bits
}

func DetectorSetFromBits(b uint32) (DetectorSet, error) {
	if b&^detectorMask != 0 {
		return DetectorSet{}, fmt.Errorf("detector bits 0x%x out of range for %d detectors", b, NDetectors)
	}
	return DetectorSet{bits: b}, nil
}

// String renders the set like a std::bitset, highest detector first.
func (s DetectorSet) String() string {
	var sb strings.Builder
	for d := LastDetector - 1; d >= 0; d-- {
		if s.Test(d) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
