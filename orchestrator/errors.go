package orchestrator

import "errors"

// Namespace prefixes every sentinel error this package defines, following
// the teacher lineage's convention of a package-scoped error namespace.
const Namespace = "clc"

var (
	// ErrNoLocations is returned by Synchronize when the supplied
	// definitions describe no locations to replay.
	ErrNoLocations = errors.New(Namespace + ": definitions describe no locations")

	// ErrInvalidConfig names an invalid configuration. New has no error
	// result and does not return it; the Options that check their
	// arguments panic on an invalid value instead.
	ErrInvalidConfig = errors.New(Namespace + ": invalid configuration")
)
