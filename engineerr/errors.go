// Package engineerr defines the error kinds surfaced by the opinion-analysis
// engine's public boundary. Only ErrUnknownName ever escapes a public
// operation; every other internal failure is downgraded to "keep the
// previous value" by the caller that owns the relevant compute stage.
package engineerr

import "github.com/pkg/errors"

// ErrUnknownName is returned by lookup operations (GetRow, GetCol) when the
// caller passes a row or column name that is not present in the matrix.
// Callers are expected to check membership before calling; this is the one
// "Invalid input" error kind that is allowed to propagate.
var ErrUnknownName = errors.New("engineerr: unknown row or column name")

// WrapUnknownName annotates ErrUnknownName with the offending name so logs
// and tests can identify which lookup failed.
func WrapUnknownName(name string, kind string) error {
	return errors.Wrapf(ErrUnknownName, "%s name %q", kind, name)
}
