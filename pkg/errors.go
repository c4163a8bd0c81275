package caf

import (
	"errors"
	"fmt"
)

var (
	ErrParticleNotFound  = errors.New("particle not found")
	ErrAmbiguousParticle = errors.New("particle id is not unique")
	ErrWriterBroken      = errors.New("writer failed on an earlier entry")
)

// ParticleLookupError is returned when a particle id does not resolve to
// exactly one particle. Use errors.Is with ErrParticleNotFound or
// ErrAmbiguousParticle to tell the cases apart.
type ParticleLookupError struct {
	ID      ParticleID
	Matches int
	Err     error
}

func (e *ParticleLookupError) Error() string {
	if e.Matches > 1 {
		return fmt.Sprintf("particle %s: %v (%d matches)", e.ID, e.Err, e.Matches)
	}
	return fmt.Sprintf("particle %s: %v", e.ID, e.Err)
}

func (e *ParticleLookupError) Unwrap() error {
	return e.Err
}

// CountMismatchError represents a stored count that disagrees with the length
// of the vector it describes.
type CountMismatchError struct {
	Field  string
	Count  uint64
	Length int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("%s is %d but vector holds %d entries", e.Field, e.Count, e.Length)
}

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error {
	return e.Err
}

// ErrCreateGroup represents an error when creating a group.
type ErrCreateGroup struct {
	GroupName string
	Err       error
}

func (e *ErrCreateGroup) Error() string {
	return fmt.Sprintf("error creating group %q: %v", e.GroupName, e.Err)
}

func (e *ErrCreateGroup) Unwrap() error {
	return e.Err
}

// ErrCreateTable represents an error when creating a table.
type ErrCreateTable struct {
	TableName string
	Err       error
}

func (e *ErrCreateTable) Error() string {
	return fmt.Sprintf("error creating table %q: %v", e.TableName, e.Err)
}

func (e *ErrCreateTable) Unwrap() error {
	return e.Err
}

// ErrReadTable represents an error when reading a table back.
type ErrReadTable struct {
	TableName string
	Err       error
}

func (e *ErrReadTable) Error() string {
	return fmt.Sprintf("error reading table %q: %v", e.TableName, e.Err)
}

func (e *ErrReadTable) Unwrap() error {
	return e.Err
}

// ErrSchemaMismatch is returned for files written with a different detector
// list or layout version.
type ErrSchemaMismatch struct {
	Filename   string
	NDetectors int32
	Version    int32
}

func (e *ErrSchemaMismatch) Error() string {
	return fmt.Sprintf("file %q has %d detectors and layout version %d, expected %d and %d",
		e.Filename, e.NDetectors, e.Version, NDetectors, SchemaVersion)
}
