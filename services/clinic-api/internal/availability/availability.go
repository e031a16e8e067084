// Package availability computes free appointment slots for a doctor from
// their weekly windows and the day's booked intervals.
package availability

import (
	"fmt"
	"strings"
	"time"

	"github.com/medplanner/medplanner/services/clinic-api/internal/model"
	"github.com/medplanner/medplanner/services/clinic-api/internal/validate"
)

// Interval is a half-open [Start, End) span in minutes since midnight.
type Interval struct {
	Start int
	End   int
}

// Slot is one offerable appointment span in HH:MM form.
type Slot struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// Overlaps reports whether two half-open intervals intersect. Touching
// endpoints (a.End == b.Start) do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start < b.End && b.Start < a.End
}

func overlapsAny(candidate Interval, busy []Interval) bool {
	for _, b := range busy {
		if Overlaps(candidate, b) {
			return true
		}
	}
	return false
}

// FreeSlots returns the open slots of the given duration on day, stepping
// through each availability window in step-minute increments and skipping
// anything that collides with a busy interval. Duration and step are in
// minutes; step defaults to duration when zero.
func FreeSlots(windows []model.AvailabilityWindow, day time.Weekday, busy []Interval, duration, step int) ([]Slot, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %d", duration)
	}
	if step <= 0 {
		step = duration
	}

	var slots []Slot
	for _, w := range windows {
		if !sameWeekday(w.Day, day) {
			continue
		}
		start, err := validate.Minutes(validate.NormalizeHHMM(w.StartTime))
		if err != nil {
			return nil, fmt.Errorf("window start: %w", err)
		}
		end, err := validate.Minutes(validate.NormalizeHHMM(w.EndTime))
		if err != nil {
			return nil, fmt.Errorf("window end: %w", err)
		}
		for t := start; t+duration <= end; t += step {
			candidate := Interval{Start: t, End: t + duration}
			if overlapsAny(candidate, busy) {
				continue
			}
			slots = append(slots, Slot{
				StartTime: formatHHMM(candidate.Start),
				EndTime:   formatHHMM(candidate.End),
			})
		}
	}
	return slots, nil
}

func sameWeekday(name string, day time.Weekday) bool {
	return strings.EqualFold(strings.TrimSpace(name), day.String())
}

func formatHHMM(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
