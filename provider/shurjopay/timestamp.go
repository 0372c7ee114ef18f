package shurjopay

import (
	"strings"
	"time"
)

// tokenTimeLayout is the layout of token_create_time once the am/pm marker
// has been cut off, e.g. "2022-10-13 01:08:17pm".
const tokenTimeLayout = "2006-01-02 15:04:05"

// ParseTokenTime parses the gateway's token_create_time. The result is a
// naive wall clock labelled UTC. ok is false when the text does not parse.
//
// The gateway writes a 24-hour-looking clock followed by a meridiem marker;
// "pm" adds twelve hours unless the hour is already 12, "am" changes nothing.
func ParseTokenTime(raw string) (t time.Time, ok bool) {
	value, meridiem := raw, ""
	if i := strings.Index(raw, "pm"); i >= 0 {
		value, meridiem = raw[:i], "pm"
	} else if i := strings.Index(raw, "am"); i >= 0 {
		value, meridiem = raw[:i], "am"
	}

	parsed, err := time.Parse(tokenTimeLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, false
	}
	if meridiem == "pm" && parsed.Hour() != 12 {
		parsed = parsed.Add(12 * time.Hour)
	}
	return parsed, true
}

// TokenExpiry computes the expiry instant of a credential. ok is false when
// the creation time is unparseable or expiresIn is zero; such a credential
// has no usable expiry and is never reused.
func TokenExpiry(createdAt string, expiresIn int64) (time.Time, bool) {
	if expiresIn == 0 {
		return time.Time{}, false
	}
	created, ok := ParseTokenTime(createdAt)
	if !ok {
		return time.Time{}, false
	}
	return created.Add(time.Duration(expiresIn) * time.Second), true
}
