package caf

import "errors"

// TruthBranch is the top level truth info of a record.
type TruthBranch struct {
	// True nus, cosmics, etc. contributing to this reco interaction candidate
	Nu []TrueInteraction
	// Written alongside Nu by the file layer. Must equal len(Nu).
	NNu uint64
}

// AddInteraction appends ixn and keeps NNu in step. It returns the index of
// the new interaction in Nu.
func (b *TruthBranch) AddInteraction(ixn TrueInteraction) int {
	b.Nu = append(b.Nu, ixn)
	b.NNu = uint64(len(b.Nu))
	return len(b.Nu) - 1
}

// Particle finds the particle stored with the given id. The returned pointer
// aliases storage inside Nu; it is invalidated by anything that reallocates
// the interaction or particle slices.
//
// Exactly one particle must match: zero matches return ErrParticleNotFound and
// several return ErrAmbiguousParticle.
func (b *TruthBranch) Particle(id ParticleID) (*TrueParticle, error) {
	var found *TrueParticle
	matches := 0
	b.eachParticle(func(p *TrueParticle) {
		if p.ID == id {
			if found == nil {
				found = p
			}
			matches++
		}
	})
	switch matches {
	case 0:
		return nil, &ParticleLookupError{ID: id, Err: ErrParticleNotFound}
	case 1:
		return found, nil
	default:
		return nil, &ParticleLookupError{ID: id, Matches: matches, Err: ErrAmbiguousParticle}
	}
}

// NParticles counts particles over every list of every interaction.
func (b *TruthBranch) NParticles() int {
	n := 0
	for i := range b.Nu {
		n += len(b.Nu[i].Prim) + len(b.Nu[i].PrefSI) + len(b.Nu[i].Sec)
	}
	return n
}

func (b *TruthBranch) eachParticle(fn func(p *TrueParticle)) {
	for i := range b.Nu {
		ixn := &b.Nu[i]
		for j := range ixn.Prim {
			fn(&ixn.Prim[j])
		}
		for j := range ixn.PrefSI {
			fn(&ixn.PrefSI[j])
		}
		for j := range ixn.Sec {
			fn(&ixn.Sec[j])
		}
	}
}

// CheckCounts compares NNu and every per-interaction count with the length
// of the slice it describes. Mismatches are reported, never corrected.
func (b *TruthBranch) CheckCounts() error {
	var errs []error
	if b.NNu != uint64(len(b.Nu)) {
		errs = append(errs, &CountMismatchError{Field: "mc.nnu", Count: b.NNu, Length: len(b.Nu)})
	}
	for i := range b.Nu {
		errs = append(errs, b.Nu[i].checkCounts(i)...)
	}
	return errors.Join(errs...)
}

func (b *TruthBranch) RepairCounts() {
	b.NNu = uint64(len(b.Nu))
	for i := range b.Nu {
		b.Nu[i].repairCounts()
	}
}

// ParticleIndex maps ids to particles of one branch for repeated lookups.
// It holds pointers into the branch, so it must be rebuilt whenever the
// branch is modified.
type ParticleIndex struct {
	particles map[ParticleID]*TrueParticle
	ambiguous map[ParticleID]int
}

func NewParticleIndex(b *TruthBranch) *ParticleIndex {
	idx := &ParticleIndex{
		particles: make(map[ParticleID]*TrueParticle, b.NParticles()),
		ambiguous: make(map[ParticleID]int),
	}
	b.eachParticle(func(p *TrueParticle) {
		if _, ok := idx.particles[p.ID]; ok {
			if idx.ambiguous[p.ID] == 0 {
				idx.ambiguous[p.ID] = 1
			}
			idx.ambiguous[p.ID]++
			return
		}
		idx.particles[p.ID] = p
	})
	return idx
}

// Particle has the same contract as TruthBranch.Particle.
func (idx *ParticleIndex) Particle(id ParticleID) (*TrueParticle, error) {
	if n, ok := idx.ambiguous[id]; ok {
		return nil, &ParticleLookupError{ID: id, Matches: n, Err: ErrAmbiguousParticle}
	}
	p, ok := idx.particles[id]
	if !ok {
		return nil, &ParticleLookupError{ID: id, Err: ErrParticleNotFound}
	}
	return p, nil
}

func (idx *ParticleIndex) Len() int {
	return len(idx.particles)
}
