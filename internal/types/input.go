package types

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	leadingNumberRegex = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)`)
	firstIntegerRegex  = regexp.MustCompile(`(\d+)`)
)

// LeadingNumber parses the number a free-form string starts with,
// e.g. "2小时" or "1.5 hours".
func LeadingNumber(s string) (float64, bool) {
	m := leadingNumberRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FirstInteger returns the first run of digits anywhere in s
func FirstInteger(s string) (int, bool) {
	m := firstIntegerRegex.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return v, true
}

// DailyMinutes interprets dailyTimeAvailable as a number of minutes per day.
// The number is taken as hours unless the text says minutes.
func (in *GoalInput) DailyMinutes() (int, bool) {
	v, ok := LeadingNumber(in.DailyTimeAvailable)
	if !ok || v <= 0 {
		return 0, false
	}
	lower := strings.ToLower(in.DailyTimeAvailable)
	if strings.Contains(lower, "分钟") || strings.Contains(lower, "min") {
		return int(v), true
	}
	return int(v * 60), true
}
