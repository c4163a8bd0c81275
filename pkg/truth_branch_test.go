package caf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestBranch builds a branch with nIxn interactions, each holding one
// particle in every list. PDG codes encode the position for checks.
func newTestBranch(t *testing.T, nIxn int) *TruthBranch {
	t.Helper()
	b := &TruthBranch{}
	for i := 0; i < nIxn; i++ {
		ixn := NewTrueInteraction()
		ixn.ID = int64(100 + i)
		for _, list := range []ParticleType{ParticlePrimary, ParticlePrimaryBeforeFSI, ParticleSecondary} {
			p := NewTrueParticle()
			p.ID.Type = list
			p.PDG = int32(1000*i) + int32(list)
			_, err := ixn.AddParticle(p)
			require.NoError(t, err)
		}
		b.AddInteraction(ixn)
	}
	return b
}

func TestParticleLookup(t *testing.T) {
	b := newTestBranch(t, 3)
	require.NoError(t, b.CheckCounts())
	assert.Equal(t, 9, b.NParticles())

	p, err := b.Particle(ParticleID{Ixn: 101, Type: ParticleSecondary, Part: 0})
	require.NoError(t, err)
	assert.Equal(t, int32(1000+int32(ParticleSecondary)), p.PDG)
	assert.Equal(t, int64(101), p.InteractionID)

	// The result aliases the branch storage
	p.PDG = 13
	assert.Equal(t, int32(13), b.Nu[1].Sec[0].PDG)
}

func TestParticleNotFound(t *testing.T) {
	b := newTestBranch(t, 2)

	for _, id := range []ParticleID{
		{Ixn: 999, Type: ParticlePrimary, Part: 0},
		{Ixn: 100, Type: ParticlePrimary, Part: 1},
		{Ixn: 100, Type: ParticleUnknown, Part: 0},
	} {
		p, err := b.Particle(id)
		assert.Nil(t, p)
		assert.True(t, errors.Is(err, ErrParticleNotFound), "id %s", id)
		assert.False(t, errors.Is(err, ErrAmbiguousParticle))
	}

	empty := &TruthBranch{}
	_, err := empty.Particle(ParticleID{})
	assert.ErrorIs(t, err, ErrParticleNotFound)
}

func TestParticleAmbiguous(t *testing.T) {
	b := newTestBranch(t, 2)
	// Malformed input: a particle of the second interaction claims the id
	// of one in the first
	dup := ParticleID{Ixn: 100, Type: ParticlePrimary, Part: 0}
	b.Nu[1].Prim[0].ID = dup

	p, err := b.Particle(dup)
	assert.Nil(t, p)
	require.ErrorIs(t, err, ErrAmbiguousParticle)
	var lookupErr *ParticleLookupError
	require.True(t, errors.As(err, &lookupErr))
	assert.Equal(t, 2, lookupErr.Matches)
	assert.Equal(t, dup, lookupErr.ID)

	idx := NewParticleIndex(b)
	_, err = idx.Particle(dup)
	require.ErrorIs(t, err, ErrAmbiguousParticle)
	require.True(t, errors.As(err, &lookupErr))
	assert.Equal(t, 2, lookupErr.Matches)
}

func TestParticleIndexMatchesScan(t *testing.T) {
	b := newTestBranch(t, 4)
	idx := NewParticleIndex(b)
	assert.Equal(t, b.NParticles(), idx.Len())

	b.eachParticle(func(want *TrueParticle) {
		got, err := idx.Particle(want.ID)
		require.NoError(t, err)
		assert.Same(t, want, got)

		scanned, err := b.Particle(want.ID)
		require.NoError(t, err)
		assert.Same(t, want, scanned)
	})

	_, err := idx.Particle(ParticleID{Ixn: -5})
	assert.ErrorIs(t, err, ErrParticleNotFound)
}

func TestAddParticleRejectsUnknownList(t *testing.T) {
	ixn := NewTrueInteraction()
	_, err := ixn.AddParticle(NewTrueParticle())
	assert.Error(t, err)
	assert.Empty(t, ixn.Prim)
	assert.Equal(t, uint32(0), ixn.NPrim)
}

func TestParticleIDString(t *testing.T) {
	id := ParticleID{Ixn: -3, Type: ParticlePrimaryBeforeFSI, Part: 7}
	assert.Equal(t, "-3:prefsi:7", id.String())

	parsed, err := ParseParticleID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	for _, bad := range []string{"", "1:primary", "x:primary:0", "1:tertiary:0", "1:primary:y"} {
		_, err := ParseParticleID(bad)
		assert.Error(t, err, bad)
	}
}
