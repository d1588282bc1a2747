package probe

import (
	"github.com/go-faster/errors"
)

var (
	ErrInvalidArgumentCount = errors.New("invalid argument count")
	ErrInvalidByteCount     = errors.New("invalid byte count")
	ErrAllocationFailure    = errors.New("allocation failure")
)

// Exit codes reported by the probe binaries.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitUsage      = 2
	ExitAllocation = 3
)

// ExitCode maps an error returned by a probe to its process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrInvalidArgumentCount), errors.Is(err, ErrInvalidByteCount):
		return ExitUsage
	case errors.Is(err, ErrAllocationFailure):
		return ExitAllocation
	default:
		return ExitFailure
	}
}
