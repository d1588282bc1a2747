package probe

import (
	"math"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
)

// ParseMode selects how a byte count argument is interpreted.
type ParseMode int

const (
	// ParseStrict accepts only non-negative base 10 integers.
	ParseStrict ParseMode = iota
	// ParseLegacy follows C atoi: the leading integer prefix is used,
	// anything unparseable is 0 and the result is truncated to 32 bits.
	ParseLegacy
)

func (m ParseMode) String() string {
	switch m {
	case ParseStrict:
		return "strict"
	case ParseLegacy:
		return "legacy"
	default:
		return "ParseMode(" + strconv.Itoa(int(m)) + ")"
	}
}

// ParseParseMode is the inverse of ParseMode.String.
func ParseParseMode(s string) (ParseMode, error) {
	switch strings.ToLower(s) {
	case "strict":
		return ParseStrict, nil
	case "legacy":
		return ParseLegacy, nil
	}
	return 0, errors.Errorf("unknown parse mode %q (want strict or legacy)", s)
}

// ParseByteCount parses s according to mode.
func ParseByteCount(s string, mode ParseMode) (int64, error) {
	if mode == ParseLegacy {
		return atoi(s), nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidByteCount, "%q is not an integer", s)
	}
	if n < 0 {
		return 0, errors.Wrapf(ErrInvalidByteCount, "%d is negative", n)
	}
	return n, nil
}

// atoi mirrors glibc, where atoi is (int)strtol: the value saturates at the
// 64-bit bounds and is then truncated to 32 bits.
func atoi(s string) int64 {
	s = strings.TrimLeft(s, " \t\n\v\f\r")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	const limit = uint64(1) << 63
	var acc uint64
	for i := 0; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		d := uint64(s[i] - '0')
		if acc >= limit || acc > (limit-d)/10 {
			acc = limit
			continue
		}
		acc = acc*10 + d
	}
	var v int64
	switch {
	case neg && acc == limit:
		v = math.MinInt64
	case neg:
		v = -int64(acc)
	case acc >= limit:
		v = math.MaxInt64
	default:
		v = int64(acc)
	}
	return int64(int32(v))
}
