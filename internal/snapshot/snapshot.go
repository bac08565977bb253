// Package snapshot persists the whole application state as one serialized
// blob under a fixed key, mirroring the portal's original storage contract.
// Every committed mutation writes the full snapshot; startup reads it once.
package snapshot

import (
	"context"

	identitymodels "onestop/internal/identity/models"
	submissionmodels "onestop/internal/submission/models"
)

// Key is the fixed storage key the snapshot lives under. Reimplementations
// must preserve this (and the JSON shape) for state portability.
const Key = "one-stop-service-state"

// Snapshot is the serialized application state.
type Snapshot struct {
	Admins      []identitymodels.AdminAccount   `json:"admins"`
	Citizens    []identitymodels.CitizenSession `json:"citizens"`
	Submissions []submissionmodels.Submission   `json:"submissions"`
}

// Empty returns a snapshot with empty (non-nil) collections, the state of a
// fresh install.
func Empty() Snapshot {
	return Snapshot{
		Admins:      []identitymodels.AdminAccount{},
		Citizens:    []identitymodels.CitizenSession{},
		Submissions: []submissionmodels.Submission{},
	}
}

// Store reads and writes the snapshot blob.
//
// Error Contract:
// - Load returns Empty() and nil error when no snapshot exists yet
// - Save replaces the previous snapshot atomically from the caller's view
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
}
