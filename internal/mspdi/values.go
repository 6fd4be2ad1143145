package mspdi

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/upf/internal/domain"
)

const dateLayout = "2006-01-02T15:04:05"

// Representable date range of the schema.
var (
	MinDate = time.Date(1984, 1, 1, 0, 0, 0, 0, time.UTC)
	MaxDate = time.Date(2049, 12, 31, 23, 59, 0, 0, time.UTC)
)

var dateLayouts = []string{
	dateLayout,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
	time.RFC3339,
}

var durationPattern = regexp.MustCompile(`^(-)?P(?:(\d+(?:\.\d+)?)D)?(?:T(?:(\d+(?:\.\d+)?)H)?(?:(\d+(?:\.\d+)?)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// FormatDate renders t in the schema's zone-less layout.
func FormatDate(t time.Time) (string, error) {
	t = t.UTC()
	if t.Before(MinDate) || t.After(MaxDate) {
		return "", fmt.Errorf("%w: date %s outside %s..%s", domain.ErrUnrepresentable,
			t.Format(dateLayout), MinDate.Format(dateLayout), MaxDate.Format(dateLayout))
	}
	return t.Format(dateLayout), nil
}

// ParseDate accepts the schema layout plus the shorter forms seen in the wild.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Truncate(time.Minute), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// FormatDuration renders minutes as PT{h}H{m}M0S. Readers hold durations
// as int32 tenths of a minute, so anything past that is refused.
func FormatDuration(minutes int) (string, error) {
	if minutes < 0 {
		return "", fmt.Errorf("%w: negative duration %d minutes", domain.ErrUnrepresentable, minutes)
	}
	if int64(minutes)*10 > math.MaxInt32 {
		return "", fmt.Errorf("%w: duration %d minutes overflows tenths", domain.ErrUnrepresentable, minutes)
	}
	return fmt.Sprintf("PT%dH%dM0S", minutes/60, minutes%60), nil
}

// ParseDuration reads an ISO-8601 duration (days, hours, minutes, seconds)
// and returns whole minutes. Days count as 24 hours.
func ParseDuration(s string) (int, error) {
	s = strings.TrimSpace(s)
	m := durationPattern.FindStringSubmatch(s)
	if m == nil || s == "P" || s == "PT" || strings.HasSuffix(s, "T") {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	var seconds float64
	scales := []float64{24 * 3600, 3600, 60, 1}
	for i, scale := range scales {
		if m[i+2] == "" {
			continue
		}
		v, err := strconv.ParseFloat(m[i+2], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		seconds += v * scale
	}
	minutes := int(math.Round(seconds / 60))
	if m[1] == "-" {
		minutes = -minutes
	}
	return minutes, nil
}

// FormatTimeOfDay renders a minute-of-day; 1440 becomes midnight.
func FormatTimeOfDay(minute int) string {
	minute %= domain.MinutesPerDayClock
	return fmt.Sprintf("%02d:%02d:00", minute/60, minute%60)
}

// ParseTimeOfDay reads HH:MM[:SS]. An end-of-interval midnight maps to 1440.
func ParseTimeOfDay(s string, end bool) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	mm, err := strconv.Atoi(parts[1])
	if err != nil || h < 0 || h > 24 || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	minute := h*60 + mm
	if minute > domain.MinutesPerDayClock {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	if end && minute == 0 {
		minute = domain.MinutesPerDayClock
	}
	return minute, nil
}

// FormatUnits renders a unit fraction with two decimals.
func FormatUnits(v float64) (string, error) {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return "", fmt.Errorf("%w: units %v", domain.ErrUnrepresentable, v)
	}
	return strconv.FormatFloat(v, 'f', 2, 64), nil
}

func ParseUnits(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid units %q", s)
	}
	return v, nil
}

var linkCodes = map[domain.LinkType]int{
	domain.LinkFinishToFinish: 0,
	domain.LinkFinishToStart:  1,
	domain.LinkStartToFinish:  2,
	domain.LinkStartToStart:   3,
}

// LinkTypeCode maps a link type to its schema code.
func LinkTypeCode(t domain.LinkType) (int, bool) {
	code, ok := linkCodes[t]
	return code, ok
}

// LinkTypeFromCode maps a schema code to a link type.
func LinkTypeFromCode(code int) (domain.LinkType, bool) {
	for t, c := range linkCodes {
		if c == code {
			return t, true
		}
	}
	return "", false
}

// Lag format codes.
const (
	LagFormatMinutes = 3
	LagFormatHours   = 5
	LagFormatDays    = 7
)

func lagFormat(lagMin, minutesPerDay int) int {
	switch {
	case lagMin == 0:
		return LagFormatMinutes
	case minutesPerDay > 0 && lagMin%minutesPerDay == 0:
		return LagFormatDays
	case lagMin%60 == 0:
		return LagFormatHours
	default:
		return LagFormatMinutes
	}
}
