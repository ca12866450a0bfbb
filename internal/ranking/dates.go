package ranking

import (
	"strconv"
	"strings"
	"time"
)

const dateOnlyLayout = "2006-01-02"

// minEpochMillisDigits keeps compact dates such as 20240310 from reading as
// 1970 timestamps. Eleven digits starts in March 1973.
const minEpochMillisDigits = 11

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// ParseDate parses a stored or user-supplied date. It accepts RFC 3339 timestamps,
// a few local date-time forms (read as UTC), plain dates and epoch milliseconds
// of at least eleven digits.
// dateOnly is true when s carried no time of day.
func ParseDate(s string) (t time.Time, dateOnly bool, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, false
	}
	if t, err := time.Parse(dateOnlyLayout, s); err == nil {
		return t, true, true
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, false, true
		}
	}
	if len(s) >= minEpochMillisDigits {
		if ms, err := strconv.ParseUint(s, 10, 63); err == nil {
			return time.UnixMilli(int64(ms)).UTC(), false, true
		}
	}
	return time.Time{}, false, false
}
