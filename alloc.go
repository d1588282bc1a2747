//go:build unix

package probe

import (
	"math"
	"os"

	"github.com/go-faster/errors"
	"golang.org/x/sys/unix"
)

// Reservation is a block of anonymous memory held on behalf of a probe.
type Reservation struct {
	buf []byte
}

// Len returns the size of the reservation in bytes.
func (r *Reservation) Len() int {
	if r == nil {
		return 0
	}
	return len(r.buf)
}

// Release unmaps the reservation. It is safe to call on a nil or already
// released reservation.
func (r *Reservation) Release() error {
	if r == nil || r.buf == nil {
		return nil
	}
	buf := r.buf
	r.buf = nil
	if len(buf) == 0 {
		return nil
	}
	return errors.Wrap(unix.Munmap(buf), "munmap")
}

// Allocate reserves n bytes of anonymous memory. If touch is set one byte per
// page is written so that the memory is resident rather than merely mapped.
//
// The mapping is subject to the kernel's overcommit accounting, so a request
// the host cannot back is refused with ErrAllocationFailure instead of
// aborting the process.
func Allocate(n int64, touch bool) (*Reservation, error) {
	if n < 0 {
		return nil, errors.Wrapf(ErrAllocationFailure, "negative size %d", n)
	}
	if uint64(n) > math.MaxInt {
		return nil, errors.Wrapf(ErrAllocationFailure, "%d bytes exceeds address space", n)
	}
	if n == 0 {
		return &Reservation{buf: []byte{}}, nil
	}
	buf, err := unix.Mmap(-1, 0, int(n), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, errors.Wrapf(ErrAllocationFailure, "%d bytes: %v", n, err)
	}
	if touch {
		page := os.Getpagesize()
		for i := 0; i < len(buf); i += page {
			buf[i] = 1
		}
	}
	return &Reservation{buf: buf}, nil
}
