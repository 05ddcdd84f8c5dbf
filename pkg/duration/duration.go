// Package duration normalizes recipe time values into whole minutes and
// humanizes them for display.
//
// Two grammars are accepted, tried in order: the strict structured form
// P[nD][T[nH][nM][nS]] and a loose fallback (bare integer, H:MM[:SS], or
// free text containing <number><unit> tokens). The accepted grammars are
// deliberately frozen: widening them would change how already-stored
// documents render.
package duration

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	strictPattern = regexp.MustCompile(`(?i)^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)
	barePattern   = regexp.MustCompile(`^\d+$`)
	colonPattern  = regexp.MustCompile(`^(\d+)\s*:\s*(\d{1,2})(?::\d{1,2})?$`)
	unitPattern   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(days?|day|d|hours?|hrs?|hr|h|minutes?|mins?|min|m|seconds?|secs?|sec|s)`)
	digitPattern  = regexp.MustCompile(`\d+`)
)

// ParseMinutes converts a duration text into whole minutes. The second
// return value is false when no recognizable construct is found or the
// computed total is not strictly positive. Parsing never fails loudly;
// absence is the only failure signal.
func ParseMinutes(value string) (int, bool) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return 0, false
	}
	normalized := strings.ToLower(raw)

	m := strictPattern.FindStringSubmatch(normalized)
	if m == nil {
		return parseLooseMinutes(normalized)
	}

	days := groupInt(m[1])
	hours := groupInt(m[2])
	minutes := groupInt(m[3])
	seconds := groupInt(m[4])

	total := days*24*60 + hours*60 + minutes
	if total > 0 {
		return total, true
	}
	if seconds > 0 {
		return int(math.Ceil(float64(seconds) / 60)), true
	}
	return 0, false
}

// ParseMinutesNumber treats an already-numeric value as minutes, rounded to
// the nearest whole minute. Non-positive values are absent.
func ParseMinutesNumber(n float64) (int, bool) {
	if n <= 0 {
		return 0, false
	}
	return int(math.Round(n)), true
}

// parseLooseMinutes handles the non-structured grammars: a bare integer,
// H:MM[:SS], and free text with <number><unit> tokens summed in any order.
func parseLooseMinutes(raw string) (int, bool) {
	if raw == "" {
		return 0, false
	}

	if barePattern.MatchString(raw) {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes <= 0 {
			return 0, false
		}
		return minutes, true
	}

	if m := colonPattern.FindStringSubmatch(raw); m != nil {
		hours, _ := strconv.Atoi(m[1])
		minutes, _ := strconv.Atoi(m[2])
		total := hours*60 + minutes
		if total <= 0 {
			return 0, false
		}
		return total, true
	}

	matches := unitPattern.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return 0, false
	}

	var total float64
	for _, m := range matches {
		amount, err := strconv.ParseFloat(m[1], 64)
		if err != nil || amount <= 0 {
			continue
		}
		switch m[2][0] {
		case 'd':
			total += amount * 24 * 60
		case 'h':
			total += amount * 60
		case 'm':
			total += amount
		case 's':
			total += amount / 60
		}
	}

	if total <= 0 {
		return 0, false
	}
	return int(math.Ceil(total)), true
}

// FormatMinutes renders a structured-duration string for display:
// "N hours M minutes" at an hour or more, "N minutes" below that, and
// "N seconds" when the duration is sub-minute. Input that is not
// structured-duration text passes through unchanged.
func FormatMinutes(value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return ""
	}

	m := strictPattern.FindStringSubmatch(raw)
	if m == nil {
		return raw
	}

	days := groupInt(m[1])
	hours := groupInt(m[2])
	minutes := groupInt(m[3])
	seconds := groupInt(m[4])

	total := days*24*60 + hours*60 + minutes
	if total > 0 {
		if total >= 60 {
			return fmt.Sprintf("%d %s %d %s", total/60, plural(total/60, "hour"), total%60, plural(total%60, "minute"))
		}
		return fmt.Sprintf("%d %s", total, plural(total, "minute"))
	}
	if seconds > 0 {
		return fmt.Sprintf("%d %s", seconds, plural(seconds, "second"))
	}
	return raw
}

// FormatServings renders the first integer found in a yield value as
// "N servings". Values without a number pass through unchanged.
func FormatServings(value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return ""
	}
	m := digitPattern.FindString(raw)
	if m == "" {
		return raw
	}
	count, err := strconv.Atoi(m)
	if err != nil {
		return raw
	}
	return fmt.Sprintf("%d servings", count)
}

func groupInt(group string) int {
	if group == "" {
		return 0
	}
	n, _ := strconv.Atoi(group)
	return n
}

func plural(n int, unit string) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}
