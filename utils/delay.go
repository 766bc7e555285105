package utils

import (
	"fmt"
	"math"
)

// RoundedDelay is a delay rounded to the unit it is displayed in.
type RoundedDelay struct {
	Seconds float64
	Text    string
}

// RoundDelay rounds a delay in seconds: hours above one hour, minutes above
// 59 seconds, whole seconds otherwise. Zero, negative and NaN delays read "0".
func RoundDelay(secs float64) RoundedDelay {
	switch {
	case secs > 3600:
		h := math.Round(secs / 3600)
		return RoundedDelay{Seconds: h * 3600, Text: fmt.Sprintf("%dh", int64(h))}
	case secs > 59:
		m := math.Round(secs / 60)
		return RoundedDelay{Seconds: m * 60, Text: fmt.Sprintf("%dm", int64(m))}
	case secs > 0:
		s := math.Round(secs)
		return RoundedDelay{Seconds: s, Text: fmt.Sprintf("%ds", int64(s))}
	}
	return RoundedDelay{Seconds: 0, Text: "0"}
}

// PresentableDelay formats a delay for display next to a vehicle marker
func PresentableDelay(secs float64) string {
	return RoundDelay(secs).Text
}
