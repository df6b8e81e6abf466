package schedule

import (
	"strings"
	"time"
)

const clockLayout = "15:04"

// HourlySlots expands a doctor's working-hours specification into hourly
// "HH:MM" slot labels. The specification is a comma-separated list of
// "HH:MM-HH:MM" ranges; parsing is deliberately permissive: a segment
// without exactly one "-" or with an unparsable time is skipped, it never
// fails the whole expansion. Ranges are not checked for overlap, so
// overlapping ranges may emit duplicate labels. A range narrower than one
// hour emits nothing. Slots appear in specification order.
func HourlySlots(workingHours string) []string {
	out := []string{}
	if strings.TrimSpace(workingHours) == "" {
		return out
	}

	for _, part := range strings.Split(workingHours, ",") {
		seg := strings.TrimSpace(part)
		if !strings.Contains(seg, "-") {
			continue
		}
		bounds := strings.Split(seg, "-")
		if len(bounds) != 2 {
			continue
		}

		start, err := time.Parse(clockLayout, strings.TrimSpace(bounds[0]))
		if err != nil {
			continue
		}
		end, err := time.Parse(clockLayout, strings.TrimSpace(bounds[1]))
		if err != nil {
			continue
		}

		for t := start; !t.Add(time.Hour).After(end); t = t.Add(time.Hour) {
			out = append(out, t.Format(clockLayout))
		}
	}
	return out
}

// StartOfWeek returns the Monday of the week containing d.
func StartOfWeek(d time.Time) time.Time {
	diff := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -diff)
}

// EndOfWeek returns the Sunday of the week containing d.
func EndOfWeek(d time.Time) time.Time {
	return StartOfWeek(d).AddDate(0, 0, 6)
}
