package booking

import (
	"fmt"
	"sort"
	"time"

	"bookline/models"
)

// Interval is a half-open [Start, End) time range.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether the interval fully covers [start, end).
func (iv Interval) Contains(start, end time.Time) bool {
	return !start.Before(iv.Start) && !end.After(iv.End)
}

// Overlaps reports whether the interval intersects [start, end).
func (iv Interval) Overlaps(start, end time.Time) bool {
	return iv.Start.Before(end) && iv.End.After(start)
}

// DayWindow anchors an HH:MM opening range onto a calendar day in the
// given location. A range ending at or before its start is rejected.
func DayWindow(hours models.BusinessHours, day time.Time, loc *time.Location) (time.Time, time.Time, error) {
	startMin, endMin, err := hours.Minutes()
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid opening hours: %w", err)
	}
	if endMin <= startMin {
		return time.Time{}, time.Time{}, fmt.Errorf("opening hours %s-%s are empty", hours.Start, hours.End)
	}
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	return midnight.Add(time.Duration(startMin) * time.Minute),
		midnight.Add(time.Duration(endMin) * time.Minute), nil
}

// IsWorkingDay reports whether day falls on one of the ISO weekdays
// (1=Monday .. 7=Sunday). An empty list means every day.
func IsWorkingDay(workingDays []int, day time.Time) bool {
	if len(workingDays) == 0 {
		return true
	}
	iso := int(day.Weekday())
	if iso == 0 {
		iso = 7
	}
	for _, wd := range workingDays {
		if wd == iso {
			return true
		}
	}
	return false
}

// mergeBusy sorts and coalesces busy intervals so the slot walk only has
// to test against disjoint ranges.
func mergeBusy(busy []Interval) []Interval {
	if len(busy) <= 1 {
		return busy
	}
	sorted := make([]Interval, len(busy))
	copy(sorted, busy)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	merged := sorted[:1]
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// BuildSlots walks the window in slotDuration steps and returns every
// slot that fits entirely inside the window, does not intersect a busy
// interval, and has not already started relative to now. A trailing
// remainder shorter than slotDuration is dropped.
func BuildSlots(windowStart, windowEnd time.Time, slotDuration time.Duration, busy []Interval, now time.Time) []Interval {
	if slotDuration <= 0 || !windowStart.Before(windowEnd) {
		return nil
	}
	merged := mergeBusy(busy)

	var slots []Interval
	for start := windowStart; !start.Add(slotDuration).After(windowEnd); start = start.Add(slotDuration) {
		end := start.Add(slotDuration)
		if start.Before(now) {
			continue
		}
		blocked := false
		for _, iv := range merged {
			if iv.Overlaps(start, end) {
				blocked = true
				break
			}
			if !iv.Start.Before(end) {
				break
			}
		}
		if !blocked {
			slots = append(slots, Interval{Start: start, End: end})
		}
	}
	return slots
}

// SlotFree reports whether [start, end) lies inside the window and is
// clear of every busy interval. CreateBooking re-checks with this under
// the conversation lock before committing.
func SlotFree(windowStart, windowEnd time.Time, start, end time.Time, busy []Interval) bool {
	window := Interval{Start: windowStart, End: windowEnd}
	if !window.Contains(start, end) || !start.Before(end) {
		return false
	}
	for _, iv := range busy {
		if iv.Overlaps(start, end) {
			return false
		}
	}
	return true
}
