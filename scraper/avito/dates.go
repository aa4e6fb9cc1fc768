package avito

import (
	"strconv"
	"strings"
	"time"
)

// ParseRelativeDate converts an Avito-style relative date phrase ("только
// что", "сегодня в 14:30", "вчера в 09:05", "5 минут назад") into an absolute
// timestamp anchored at now. The second return value is false when the phrase
// is not recognized or a numeric component is malformed; the caller decides
// the fallback.
func ParseRelativeDate(phrase string, now time.Time) (time.Time, bool) {
	phrase = strings.ToLower(strings.TrimSpace(phrase))
	if phrase == "" {
		return time.Time{}, false
	}

	if strings.Contains(phrase, "только что") {
		return now, true
	}

	if strings.Contains(phrase, "сегодня") {
		return atClock(phrase, now)
	}

	if strings.Contains(phrase, "вчера") {
		return atClock(phrase, now.AddDate(0, 0, -1))
	}

	parts := strings.Fields(phrase)
	if len(parts) == 3 && parts[2] == "назад" {
		value, err := strconv.Atoi(parts[0])
		if err != nil || value < 0 {
			return time.Time{}, false
		}
		unit := parts[1]
		switch {
		case strings.Contains(unit, "минут"):
			return now.Add(-time.Duration(value) * time.Minute), true
		case strings.Contains(unit, "час"):
			return now.Add(-time.Duration(value) * time.Hour), true
		case strings.Contains(unit, "ден") || strings.Contains(unit, "дн"):
			return now.AddDate(0, 0, -value), true
		}
	}

	return time.Time{}, false
}

// atClock resolves a "… в HH:MM" phrase against the given day.
func atClock(phrase string, day time.Time) (time.Time, bool) {
	_, clock, found := strings.Cut(phrase, " в ")
	if !found {
		return time.Time{}, false
	}

	hhmm := strings.SplitN(strings.TrimSpace(clock), ":", 2)
	if len(hhmm) != 2 {
		return time.Time{}, false
	}
	hour, err := strconv.Atoi(hhmm[0])
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, false
	}
	minute, err := strconv.Atoi(hhmm[1])
	if err != nil || minute < 0 || minute > 59 {
		return time.Time{}, false
	}

	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location()), true
}
