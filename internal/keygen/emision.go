package keygen

import (
	"regexp"
	"time"
)

// isoPrefix matches the leading YYYY-MM-DDThh:mm:ss of an ISO-8601 timestamp.
// Fractional seconds and timezone suffixes are ignored.
var isoPrefix = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})T(\d{2}):(\d{2}):(\d{2})`)

// EncodeEmision converts an ISO-8601 timestamp to the 12-digit YYMMDDhhmmss
// emission code. Inputs that do not match the pattern encode to "".
func EncodeEmision(iso string) string {
	m := isoPrefix.FindStringSubmatch(iso)
	if m == nil {
		return ""
	}
	return m[1][2:] + m[2] + m[3] + m[4] + m[5] + m[6]
}

// DecodeEmision reinterprets a 12-digit emission code as a point in time for
// sorting. Years are assumed to lie in 2000-2099, a known limitation of the
// two-digit year in the code.
func DecodeEmision(code string) (time.Time, bool) {
	if len(code) != 12 {
		return time.Time{}, false
	}
	t, err := time.Parse("20060102150405", "20"+code)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
