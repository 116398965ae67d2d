package internal

import (
	"fmt"
)

var (
	// ErrUnauthorized is returned for any failed authentication check. The
	// checks deliberately collapse to this single error so a response never
	// discloses which check rejected the request.
	ErrUnauthorized = fmt.Errorf("unauthorized")
	// ErrForbidden indicates the caller authenticated but is not allowed to
	// perform the operation.
	ErrForbidden = fmt.Errorf("forbidden")

	ErrBadRequest = fmt.Errorf("bad request")
	ErrNotFound   = fmt.Errorf("record not found")
	ErrDuplicate  = fmt.Errorf("duplicate record")

	// ErrUpstream indicates a backing store was unreachable or failed in a
	// way that is not the caller's fault. It must never be conflated with
	// ErrNotFound or ErrUnauthorized.
	ErrUpstream = fmt.Errorf("upstream failure")
)

var (
	Branch  = "main"
	Version = "0.4.0"
	Commit  = ""
	Date    = ""
)

// FullVersion returns the version string reported by the version endpoint and
// the CLI.
func FullVersion() string {
	if Commit != "" {
		return Version + "+" + Commit
	}
	return Version
}
