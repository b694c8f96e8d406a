package snapshot

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Timestamp is a capture time as a Unix epoch value plus the fractional-second
// digits exactly as they arrived from the capture source. The fraction keeps
// its original width: an empty string means the source had no sub-second
// precision at all, which is not the same thing as ".0".
type Timestamp struct {
	sec  int64
	frac string
}

// NewTimestamp builds a Timestamp from epoch seconds and a fractional-second
// digit string (may be empty).
func NewTimestamp(sec int64, frac string) (Timestamp, error) {
	for i := 0; i < len(frac); i++ {
		if frac[i] < '0' || frac[i] > '9' {
			return Timestamp{}, fmt.Errorf("invalid fractional seconds %q", frac)
		}
	}
	return Timestamp{sec: sec, frac: frac}, nil
}

// ParseTimestamp parses a decimal epoch rendering such as "1000000000" or
// "1000000000.123456" into a Timestamp, preserving the fraction width.
func ParseTimestamp(s string) (Timestamp, error) {
	intPart := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart = s[:i]
		frac = s[i+1:]
	}

	sec, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Timestamp{}, fmt.Errorf("invalid epoch timestamp %q: %w", s, err)
	}

	return NewTimestamp(sec, frac)
}

// FromTime converts a wall-clock time into a Timestamp. Trailing zeros are
// trimmed from the nanosecond field so the fraction width reflects the
// actual precision of the clock reading, but never below millisecond width:
// shorter fractions cannot be rendered into a snapshot filename.
func FromTime(t time.Time) Timestamp {
	frac := ""
	if ns := t.Nanosecond(); ns != 0 {
		full := fmt.Sprintf("%09d", ns)
		frac = strings.TrimRight(full, "0")
		if len(frac) < 3 {
			frac = full[:3]
		}
	}
	return Timestamp{sec: t.Unix(), frac: frac}
}

// Unix returns the whole-second part of the epoch value.
func (t Timestamp) Unix() int64 {
	return t.sec
}

// Fraction returns the fractional-second digits as captured (may be empty).
func (t Timestamp) Fraction() string {
	return t.frac
}

// String renders the timestamp back to its decimal epoch form. This is the
// rendering embedded in snapshot keys, so ParseTimestamp(t.String()) must
// reproduce t exactly.
func (t Timestamp) String() string {
	if t.frac == "" {
		return strconv.FormatInt(t.sec, 10)
	}
	return strconv.FormatInt(t.sec, 10) + "." + t.frac
}

// Calendar expands the timestamp into UTC calendar fields.
func (t Timestamp) Calendar() Calendar {
	u := time.Unix(t.sec, 0).UTC()
	return Calendar{
		Year:     u.Year(),
		Month:    int(u.Month()),
		Day:      u.Day(),
		Hour:     u.Hour(),
		Minute:   u.Minute(),
		Second:   u.Second(),
		Fraction: t.frac,
	}
}

// Calendar is a Unix timestamp expanded into UTC date-time fields. It is the
// lookup key against the record store: unlike the on-disk filename, Format
// keeps the full fraction so the stored record matches the exact capture
// instant, not the millisecond-truncated one.
type Calendar struct {
	Year     int
	Month    int
	Day      int
	Hour     int
	Minute   int
	Second   int
	Fraction string
}

// Format renders the calendar fields as "YYYY-MM-DD hh:mm:ss[.fraction]".
func (c Calendar) Format() string {
	s := fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d",
		c.Year, c.Month, c.Day, c.Hour, c.Minute, c.Second)
	if c.Fraction != "" {
		s += "." + c.Fraction
	}
	return s
}
