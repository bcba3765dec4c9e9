package sim

import (
	"testing"
	"time"
)

func TestHourWindow_ContainsWrapsMidnight(t *testing.T) {
	w := HourWindow{Start: 22, End: 6}

	for _, hour := range []int{22, 23, 0, 3, 5} {
		if !w.Contains(hour) {
			t.Fatalf("expected window 22-6 to contain hour %d", hour)
		}
	}
	for _, hour := range []int{6, 12, 21} {
		if w.Contains(hour) {
			t.Fatalf("expected window 22-6 to exclude hour %d", hour)
		}
	}
}

func TestHourWindow_EmptyWindowContainsNothing(t *testing.T) {
	w := HourWindow{Start: 8, End: 8}
	for hour := 0; hour < 24; hour++ {
		if w.Contains(hour) {
			t.Fatalf("empty window should not contain hour %d", hour)
		}
	}
}

func TestSchedule_RestWinsOverlap(t *testing.T) {
	s := Schedule{
		Work: []HourWindow{{Start: 5, End: 17}},
		Rest: []HourWindow{{Start: 5, End: 6}},
	}
	if got := s.PartAt(5); got != PartRest {
		t.Fatalf("expected rest at overlapping hour, got %s", got)
	}
	if got := s.PartAt(7); got != PartWork {
		t.Fatalf("expected work at 7, got %s", got)
	}
}

func TestSchedule_UnmappedHourIsLeisure(t *testing.T) {
	s := Schedule{Work: []HourWindow{{Start: 9, End: 17}}}
	if got := s.PartAt(20); got != PartLeisure {
		t.Fatalf("expected leisure for unmapped hour, got %s", got)
	}
}

func TestSchedule_NextDayStart(t *testing.T) {
	s := defaultSchedules()[ClassLaborer] // rest 22-5, day starts at 5

	night := time.Date(2026, 8, 29, 23, 30, 0, 0, time.UTC)
	got := s.NextDayStart(night)
	want := time.Date(2026, 8, 30, 5, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("next day start from %v: got %v want %v", night, got, want)
	}

	// Exactly at day start, the next occurrence is tomorrow.
	atStart := time.Date(2026, 8, 29, 5, 0, 0, 0, time.UTC)
	got = s.NextDayStart(atStart)
	if !got.Equal(time.Date(2026, 8, 30, 5, 0, 0, 0, time.UTC)) {
		t.Fatalf("next day start at the boundary: got %v", got)
	}
}

func TestDefaultSchedules_CoverEveryClass(t *testing.T) {
	schedules := defaultSchedules()
	for _, class := range []SocialClass{ClassLaborer, ClassArtisan, ClassMerchant, ClassPatrician, ClassVisitor} {
		s, ok := schedules[class]
		if !ok {
			t.Fatalf("no schedule for class %s", class)
		}
		if len(s.Rest) == 0 {
			t.Fatalf("class %s has no rest window", class)
		}
	}
}
