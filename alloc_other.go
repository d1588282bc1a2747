//go:build !unix

package probe

import (
	"math"
	"os"

	"github.com/go-faster/errors"
)

// Reservation is a block of memory held on behalf of a probe.
type Reservation struct {
	buf []byte
}

func (r *Reservation) Len() int {
	if r == nil {
		return 0
	}
	return len(r.buf)
}

func (r *Reservation) Release() error {
	if r != nil {
		r.buf = nil
	}
	return nil
}

// Allocate reserves n bytes on the Go heap. Only requests the runtime refuses
// up front are reported; exhausting memory is fatal.
func Allocate(n int64, touch bool) (res *Reservation, err error) {
	if n < 0 {
		return nil, errors.Wrapf(ErrAllocationFailure, "negative size %d", n)
	}
	if uint64(n) > math.MaxInt {
		return nil, errors.Wrapf(ErrAllocationFailure, "%d bytes exceeds address space", n)
	}
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = errors.Wrapf(ErrAllocationFailure, "%d bytes: %v", n, r)
		}
	}()
	buf := make([]byte, int(n))
	if touch {
		page := os.Getpagesize()
		for i := 0; i < len(buf); i += page {
			buf[i] = 1
		}
	}
	return &Reservation{buf: buf}, nil
}
