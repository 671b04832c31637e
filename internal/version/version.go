// Package version resolves the asset version of a deployment run.
//
// Every artifact of a run is published under the same version folder, so
// the version is fixed once, before anything is uploaded.
package version

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Store persists the last deployed version.
type Store interface {
	// CurrentVersion returns the persisted version as a decimal string.
	CurrentVersion() string

	// SetVersion persists v immediately.
	SetVersion(v int) error
}

// ErrNegative is returned for an explicit version below zero.
var ErrNegative = errors.New("asset version must not be negative")

// PersistError wraps a failure to write the new version to the Store.
type PersistError struct {
	Version int
	Err     error
}

func (e *PersistError) Error() string {
	return "persist version " + strconv.Itoa(e.Version) + ": " + e.Err.Error()
}

func (e *PersistError) Unwrap() error { return e.Err }

// Manager decides the version of one run.
type Manager struct {
	Store Store

	// Explicit, when set, is used as is and never persisted.
	Explicit *int

	// Deferred postpones persisting the incremented version until Commit,
	// which the caller invokes once every artifact has been published.
	Deferred bool

	pending  int
	resolved bool
}

// Resolve returns the version of the run. Without an explicit version the
// last persisted value is incremented and, unless Deferred, persisted
// before Resolve returns. A missing or unparsable persisted value counts
// as 0.
func (m *Manager) Resolve() (int, error) {
	if m.Explicit != nil {
		if *m.Explicit < 0 {
			return 0, errors.WithStack(ErrNegative)
		}
		m.resolved = true
		return *m.Explicit, nil
	}

	next := Parse(m.Store.CurrentVersion()) + 1
	m.resolved = true
	if m.Deferred {
		m.pending = next
		return next, nil
	}

	if err := m.Store.SetVersion(next); err != nil {
		return 0, &PersistError{Version: next, Err: err}
	}
	return next, nil
}

// Commit persists a version held back by Deferred. It does nothing in any
// other mode.
func (m *Manager) Commit() error {
	if !m.resolved {
		return errors.New("version not resolved")
	}
	if m.pending == 0 {
		return nil
	}
	v := m.pending
	if err := m.Store.SetVersion(v); err != nil {
		return &PersistError{Version: v, Err: err}
	}
	m.pending = 0
	return nil
}

// Parse reads a persisted version, returning 0 when s is empty, not a
// number or negative.
func Parse(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 {
		return 0
	}
	return v
}
