// Package httprange parses Range request headers and formats
// Content-Range response headers for partial media responses.
package httprange

import (
	"fmt"
	"strconv"
	"strings"
)

// Range is one byte range requested by a client.
type Range struct {
	Start  int64
	Length int64
}

// End returns the inclusive last byte offset of the range.
func (r Range) End() int64 { return r.Start + r.Length - 1 }

// ContentRange formats the Content-Range header value for a 206 response.
func (r Range) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End(), size)
}

// Unsatisfiable formats the Content-Range header value for a 416 response.
func Unsatisfiable(size int64) string {
	return fmt.Sprintf("bytes */%d", size)
}

// ParseRange parses a Range header against a resource of the given size.
// A missing header yields (nil, nil). Suffix ranges ("-500") and open
// ranges ("500-") are supported; ends past the resource are clamped.
func ParseRange(s string, size int64) ([]Range, error) {
	if s == "" {
		return nil, nil
	}
	const prefix = "bytes="
	if !strings.HasPrefix(s, prefix) {
		return nil, fmt.Errorf("invalid range header %q", s)
	}
	var ranges []Range
	for _, spec := range strings.Split(s[len(prefix):], ",") {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}
		dash := strings.Index(spec, "-")
		if dash < 0 {
			return nil, fmt.Errorf("invalid range header %q", s)
		}
		start, end := strings.TrimSpace(spec[:dash]), strings.TrimSpace(spec[dash+1:])

		var r Range
		if start == "" {
			// Suffix range: last N bytes. A zero suffix length selects
			// nothing and is unsatisfiable.
			n, err := strconv.ParseInt(end, 10, 64)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("invalid range header %q", s)
			}
			if n > size {
				n = size
			}
			r.Start = size - n
			r.Length = n
		} else {
			from, err := strconv.ParseInt(start, 10, 64)
			if err != nil || from < 0 || from >= size {
				return nil, fmt.Errorf("invalid range header %q", s)
			}
			r.Start = from
			if end == "" {
				r.Length = size - from
			} else {
				until, err := strconv.ParseInt(end, 10, 64)
				if err != nil || from > until {
					return nil, fmt.Errorf("invalid range header %q", s)
				}
				if until >= size {
					until = size - 1
				}
				r.Length = until - from + 1
			}
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}
