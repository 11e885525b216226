package booking

import (
	"testing"
	"time"

	"bookline/models"
)

func mustWindow(t *testing.T, hours models.BusinessHours, day time.Time) (time.Time, time.Time) {
	t.Helper()
	start, end, err := DayWindow(hours, day, time.UTC)
	if err != nil {
		t.Fatalf("DayWindow(%v): %v", hours, err)
	}
	return start, end
}

func TestBuildSlotsFullOpenDay(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	start, end := mustWindow(t, models.BusinessHours{Start: "09:00", End: "18:00"}, day)
	now := day // well before opening

	slots := BuildSlots(start, end, 30*time.Minute, nil, now)

	if len(slots) != 18 {
		t.Fatalf("expected 18 slots, got %d", len(slots))
	}
	if !slots[0].Start.Equal(day.Add(9 * time.Hour)) {
		t.Errorf("first slot starts at %v, want 09:00", slots[0].Start)
	}
	last := slots[len(slots)-1]
	if !last.Start.Equal(day.Add(17*time.Hour + 30*time.Minute)) {
		t.Errorf("last slot starts at %v, want 17:30", last.Start)
	}
	if !last.End.Equal(day.Add(18 * time.Hour)) {
		t.Errorf("last slot ends at %v, want 18:00", last.End)
	}
}

func TestBuildSlotsSkipsBusyDeliveryWindow(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	start, end := mustWindow(t, models.BusinessHours{Start: "10:00", End: "17:00"}, day)
	busy := []Interval{{Start: day.Add(10 * time.Hour), End: day.Add(11 * time.Hour)}}

	slots := BuildSlots(start, end, 60*time.Minute, busy, day)

	if len(slots) == 0 {
		t.Fatal("expected slots, got none")
	}
	if !slots[0].Start.Equal(day.Add(11 * time.Hour)) {
		t.Errorf("first slot starts at %v, want 11:00", slots[0].Start)
	}
}

func TestBuildSlotsStayInsideWindowAndDisjoint(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	start, end := mustWindow(t, models.BusinessHours{Start: "09:00", End: "17:45"}, day)
	busy := []Interval{
		{Start: day.Add(10 * time.Hour), End: day.Add(10*time.Hour + 45*time.Minute)},
		{Start: day.Add(13 * time.Hour), End: day.Add(14 * time.Hour)},
	}

	slots := BuildSlots(start, end, 30*time.Minute, busy, day)

	for i, slot := range slots {
		if slot.Start.Before(start) || slot.End.After(end) {
			t.Errorf("slot %d %v-%v leaves the window", i, slot.Start, slot.End)
		}
		for _, iv := range busy {
			if iv.Overlaps(slot.Start, slot.End) {
				t.Errorf("slot %d %v-%v intersects busy %v-%v", i, slot.Start, slot.End, iv.Start, iv.End)
			}
		}
		if i > 0 && slots[i-1].End.After(slot.Start) {
			t.Errorf("slot %d overlaps its predecessor", i)
		}
	}
	// 17:45 close leaves no room for a 30 minute slot after 17:30.
	if last := slots[len(slots)-1]; last.End.After(end) {
		t.Errorf("partial remainder was emitted: %v-%v", last.Start, last.End)
	}
}

func TestBuildSlotsSkipsPast(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	start, end := mustWindow(t, models.BusinessHours{Start: "09:00", End: "12:00"}, day)
	now := day.Add(10*time.Hour + 10*time.Minute)

	slots := BuildSlots(start, end, 30*time.Minute, nil, now)

	if len(slots) == 0 {
		t.Fatal("expected slots, got none")
	}
	if !slots[0].Start.Equal(day.Add(10*time.Hour + 30*time.Minute)) {
		t.Errorf("first slot starts at %v, want 10:30", slots[0].Start)
	}
}

func TestBuildSlotsIdempotent(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	start, end := mustWindow(t, models.BusinessHours{Start: "09:00", End: "18:00"}, day)
	busy := []Interval{{Start: day.Add(12 * time.Hour), End: day.Add(13 * time.Hour)}}

	first := BuildSlots(start, end, 30*time.Minute, busy, day)
	second := BuildSlots(start, end, 30*time.Minute, busy, day)

	if len(first) != len(second) {
		t.Fatalf("slot counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Start.Equal(second[i].Start) || !first[i].End.Equal(second[i].End) {
			t.Errorf("slot %d differs between runs", i)
		}
	}
}

func TestBuildSlotsMergesOverlappingBusy(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	start, end := mustWindow(t, models.BusinessHours{Start: "09:00", End: "12:00"}, day)
	busy := []Interval{
		{Start: day.Add(10 * time.Hour), End: day.Add(11 * time.Hour)},
		{Start: day.Add(10*time.Hour + 30*time.Minute), End: day.Add(11*time.Hour + 30*time.Minute)},
	}

	slots := BuildSlots(start, end, 30*time.Minute, busy, day)

	want := []time.Time{
		day.Add(9 * time.Hour),
		day.Add(9*time.Hour + 30*time.Minute),
		day.Add(11*time.Hour + 30*time.Minute),
	}
	if len(slots) != len(want) {
		t.Fatalf("expected %d slots, got %d", len(want), len(slots))
	}
	for i, w := range want {
		if !slots[i].Start.Equal(w) {
			t.Errorf("slot %d starts at %v, want %v", i, slots[i].Start, w)
		}
	}
}

func TestSlotFree(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	start, end := mustWindow(t, models.BusinessHours{Start: "09:00", End: "18:00"}, day)
	busy := []Interval{{Start: day.Add(14 * time.Hour), End: day.Add(15 * time.Hour)}}

	if !SlotFree(start, end, day.Add(10*time.Hour), day.Add(10*time.Hour+30*time.Minute), busy) {
		t.Error("10:00 should be free")
	}
	if SlotFree(start, end, day.Add(14*time.Hour+30*time.Minute), day.Add(15*time.Hour), busy) {
		t.Error("14:30 overlaps busy and should not be free")
	}
	if SlotFree(start, end, day.Add(17*time.Hour+45*time.Minute), day.Add(18*time.Hour+15*time.Minute), busy) {
		t.Error("slot crossing the close should not be free")
	}
	if SlotFree(start, end, day.Add(8*time.Hour), day.Add(8*time.Hour+30*time.Minute), busy) {
		t.Error("slot before opening should not be free")
	}
}

func TestIsWorkingDay(t *testing.T) {
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	weekdays := []int{1, 2, 3, 4, 5}
	if !IsWorkingDay(weekdays, monday) {
		t.Error("Monday should be a working day")
	}
	if IsWorkingDay(weekdays, sunday) {
		t.Error("Sunday should not be a working day")
	}
	if !IsWorkingDay(nil, sunday) {
		t.Error("empty working days means every day")
	}
}
