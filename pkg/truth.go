package caf

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Vector3D struct {
	X float32
	Y float32
	Z float32
}

func NewVector3D() Vector3D {
	nan := float32(math.NaN())
	return Vector3D{X: nan, Y: nan, Z: nan}
}

type LorentzVector struct {
	Px float32
	Py float32
	Pz float32
	E  float32
}

func NewLorentzVector() LorentzVector {
	nan := float32(math.NaN())
	return LorentzVector{Px: nan, Py: nan, Pz: nan, E: nan}
}

// ParticleType says which list of an interaction a particle belongs to.
type ParticleType int32

const (
	ParticleUnknown ParticleType = iota
	ParticlePrimary
	ParticlePrimaryBeforeFSI
	ParticleSecondary
)

func (t ParticleType) String() string {
	switch t {
	case ParticlePrimary:
		return "primary"
	case ParticlePrimaryBeforeFSI:
		return "prefsi"
	case ParticleSecondary:
		return "secondary"
	default:
		return "unknown"
	}
}

func ParseParticleType(s string) (ParticleType, error) {
	for t := ParticleUnknown; t <= ParticleSecondary; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return ParticleUnknown, fmt.Errorf("invalid particle type: %s", s)
}

// ParticleID identifies a true particle within a truth branch: the
// interaction it belongs to, the list it is stored in and its slot there.
type ParticleID struct {
	Ixn  int64
	Type ParticleType
	Part int32
}

func (id ParticleID) String() string {
	return fmt.Sprintf("%d:%s:%d", id.Ixn, id.Type, id.Part)
}

// ParseParticleID reads the form produced by String, "ixn:type:part".
func ParseParticleID(s string) (ParticleID, error) {
	fields := strings.Split(s, ":")
	if len(fields) != 3 {
		return ParticleID{}, fmt.Errorf("invalid particle id %q, expected ixn:type:part", s)
	}
	ixn, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return ParticleID{}, fmt.Errorf("invalid interaction in particle id %q: %w", s, err)
	}
	t, err := ParseParticleType(fields[1])
	if err != nil {
		return ParticleID{}, err
	}
	part, err := strconv.ParseInt(fields[2], 10, 32)
	if err != nil {
		return ParticleID{}, fmt.Errorf("invalid slot in particle id %q: %w", s, err)
	}
	return ParticleID{Ixn: ixn, Type: t, Part: int32(part)}, nil
}

type TrueParticle struct {
	ID            ParticleID
	PDG           int32
	G4ID          int32
	InteractionID int64
	TimeStart     float32
	Parent        int32
	P             LorentzVector
	Start         Vector3D
	End           Vector3D
	StartProcess  int32
	EndProcess    int32
}

func NewTrueParticle() TrueParticle {
	return TrueParticle{
		G4ID:          -1,
		InteractionID: -1,
		TimeStart:     float32(math.NaN()),
		Parent:        -1,
		P:             NewLorentzVector(),
		Start:         NewVector3D(),
		End:           NewVector3D(),
		StartProcess:  -1,
		EndProcess:    -1,
	}
}

// TrueInteraction is one true neutrino (or cosmic, ...) interaction. The
// N* counts mirror the lengths of the slices next to them.
type TrueInteraction struct {
	ID        int64
	PDG       int32
	TargetPDG int32
	Mode      int32
	IsCC      bool
	E         float32
	Vtx       Vector3D
	XsecCVWgt float32

	Prim    []TrueParticle
	NPrim   uint32
	PrefSI  []TrueParticle
	NPrefSI uint32
	Sec     []TrueParticle
	NSec    uint32
}

func NewTrueInteraction() TrueInteraction {
	return TrueInteraction{
		ID:        -1,
		E:         float32(math.NaN()),
		Vtx:       NewVector3D(),
		XsecCVWgt: float32(math.NaN()),
	}
}

func (ixn *TrueInteraction) particles(t ParticleType) *[]TrueParticle {
	switch t {
	case ParticlePrimary:
		return &ixn.Prim
	case ParticlePrimaryBeforeFSI:
		return &ixn.PrefSI
	case ParticleSecondary:
		return &ixn.Sec
	}
	return nil
}

// AddParticle stores p in the list named by its ID type, assigns the slot,
// and keeps the matching count in step.
func (ixn *TrueInteraction) AddParticle(p TrueParticle) (ParticleID, error) {
	list := ixn.particles(p.ID.Type)
	if list == nil {
		return p.ID, fmt.Errorf("cannot add particle with type %s", p.ID.Type)
	}
	p.ID.Ixn = ixn.ID
	p.ID.Part = int32(len(*list))
	p.InteractionID = ixn.ID
	*list = append(*list, p)
	ixn.repairCounts()
	return p.ID, nil
}

func (ixn *TrueInteraction) repairCounts() {
	ixn.NPrim = uint32(len(ixn.Prim))
	ixn.NPrefSI = uint32(len(ixn.PrefSI))
	ixn.NSec = uint32(len(ixn.Sec))
}

func (ixn *TrueInteraction) checkCounts(idx int) []error {
	var errs []error
	check := func(field string, count uint64, length int) {
		if count != uint64(length) {
			errs = append(errs, &CountMismatchError{
				Field:  fmt.Sprintf("mc.nu[%d].%s", idx, field),
				Count:  count,
				Length: length,
			})
		}
	}
	check("nprim", uint64(ixn.NPrim), len(ixn.Prim))
	check("nprefsi", uint64(ixn.NPrefSI), len(ixn.PrefSI))
	check("nsec", uint64(ixn.NSec), len(ixn.Sec))
	return errs
}
