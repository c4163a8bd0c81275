package caf

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: after every AddInteraction, NNu == len(Nu) and the branch
// passes CheckCounts.
func TestCountConsistencyProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("nnu tracks len(nu) after each insertion", prop.ForAll(
		func(particlesPerIxn []int) bool {
			b := &TruthBranch{}
			for i, n := range particlesPerIxn {
				ixn := NewTrueInteraction()
				ixn.ID = int64(i)
				for j := 0; j < n; j++ {
					p := NewTrueParticle()
					p.ID.Type = ParticleType(1 + j%3)
					if _, err := ixn.AddParticle(p); err != nil {
						return false
					}
				}
				b.AddInteraction(ixn)
				if b.NNu != uint64(len(b.Nu)) || b.CheckCounts() != nil {
					return false
				}
			}
			return b.NNu == uint64(len(particlesPerIxn))
		},
		gen.SliceOf(gen.IntRange(0, 6)),
	))

	properties.TestingRun(t)
}

// Property: with pairwise unique ids, every id resolves to the particle that
// carries it, and an id outside the branch is not found.
func TestLookupCorrectnessProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("Particle resolves every stored id", prop.ForAll(
		func(particlesPerIxn []int) bool {
			b := &TruthBranch{}
			for i, n := range particlesPerIxn {
				ixn := NewTrueInteraction()
				ixn.ID = int64(i)
				for j := 0; j < n; j++ {
					p := NewTrueParticle()
					p.ID.Type = ParticleType(1 + j%3)
					p.G4ID = int32(i*100 + j)
					if _, err := ixn.AddParticle(p); err != nil {
						return false
					}
				}
				b.AddInteraction(ixn)
			}

			idx := NewParticleIndex(b)
			ok := true
			b.eachParticle(func(want *TrueParticle) {
				got, err := b.Particle(want.ID)
				if err != nil || got != want {
					ok = false
				}
				fromIdx, err := idx.Particle(want.ID)
				if err != nil || fromIdx != want {
					ok = false
				}
			})
			_, err := b.Particle(ParticleID{Ixn: int64(len(particlesPerIxn)), Type: ParticlePrimary})
			return ok && err != nil
		},
		gen.SliceOf(gen.IntRange(0, 8)),
	))

	properties.TestingRun(t)
}
