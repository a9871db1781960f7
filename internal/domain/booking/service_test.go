package booking

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestService() *Service {
	svc := NewService(NewMemoryRepo())
	// Pin "now" to a Monday morning so default ranges are stable.
	svc.now = func() time.Time { return mondayAt(7, 0) }
	return svc
}

func TestService_Book(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	a, err := svc.Book(ctx, mondayAt(9, 0), TypeMedium)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ID.String() == "" {
		t.Error("expected a generated appointment id")
	}
	if !a.EndTime().Equal(mondayAt(9, 30)) {
		t.Errorf("end time = %v, want 09:30", a.EndTime())
	}

	stored, err := svc.ListAppointments(ctx, mondayAt(8, 0), mondayAt(17, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected 1 stored appointment, got %d", len(stored))
	}
}

func TestService_Book_Overlap(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Book(ctx, mondayAt(9, 0), TypeMedium); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.Book(ctx, mondayAt(9, 15), TypeShort)
	if !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable, got %v", err)
	}

	var unavailable *SlotUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatal("expected a *SlotUnavailableError with context")
	}
	if !unavailable.Start.Equal(mondayAt(9, 15)) {
		t.Errorf("error start = %v, want 09:15", unavailable.Start)
	}
}

func TestService_Book_OutsideOpeningHours(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	cases := []struct {
		name  string
		start time.Time
		typ   AppointmentType
	}{
		{"before opening", mondayAt(7, 45), TypeShort},
		{"straddles lunch", mondayAt(11, 45), TypeMedium},
		{"runs past closing", mondayAt(16, 30), TypeLong},
		{"saturday", time.Date(2024, 2, 3, 9, 0, 0, 0, time.UTC), TypeShort},
	}
	for _, tc := range cases {
		if _, err := svc.Book(ctx, tc.start, tc.typ); !errors.Is(err, ErrSlotUnavailable) {
			t.Errorf("%s: expected ErrSlotUnavailable, got %v", tc.name, err)
		}
	}
}

func TestService_Book_UnalignedStart(t *testing.T) {
	svc := newTestService()
	if _, err := svc.Book(context.Background(), mondayAt(9, 10), TypeShort); !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable for an unaligned start, got %v", err)
	}
}

func TestService_Book_InvalidType(t *testing.T) {
	svc := newTestService()
	if _, err := svc.Book(context.Background(), mondayAt(9, 0), AppointmentType("house-call")); !errors.Is(err, ErrInvalidAppointmentType) {
		t.Fatalf("expected ErrInvalidAppointmentType, got %v", err)
	}
}

func TestService_FreeSlots_ReversedRange(t *testing.T) {
	svc := newTestService()
	_, err := svc.FreeSlots(context.Background(), mondayAt(17, 0), mondayAt(8, 0), TypeShort)
	if !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestService_FreeSlots_DefaultRange(t *testing.T) {
	svc := newTestService()

	// now is pinned to Monday 07:00; defaults run to Friday 17:00.
	slots, err := svc.FreeSlots(context.Background(), time.Time{}, time.Time{}, TypeShort)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 5*32 {
		t.Errorf("expected a full work week of slots (%d), got %d", 5*32, len(slots))
	}
}

func TestService_DefaultRangeOnWeekend(t *testing.T) {
	svc := newTestService()
	// Saturday, after the week's close of business has passed.
	svc.now = func() time.Time { return time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	slots, err := svc.FreeSlots(ctx, time.Time{}, time.Time{}, TypeShort)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("expected no slots for a defaulted weekend range, got %d", len(slots))
	}

	appointments, err := svc.ListAppointments(ctx, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(appointments) != 0 {
		t.Errorf("expected no appointments, got %d", len(appointments))
	}

	added, err := svc.FillRandom(ctx, time.Time{}, time.Time{}, TypeShort, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added != 0 {
		t.Errorf("expected nothing added, got %d", added)
	}
}

func TestService_FreeSlots_BookedSlotDisappears(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	before, err := svc.FreeSlots(ctx, mondayAt(8, 0), mondayAt(17, 0), TypeShort)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Book(ctx, mondayAt(10, 0), TypeShort); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after, err := svc.FreeSlots(ctx, mondayAt(8, 0), mondayAt(17, 0), TypeShort)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(after) != len(before)-1 {
		t.Errorf("expected one slot fewer after booking, got %d -> %d", len(before), len(after))
	}
	if containsTime(after, mondayAt(10, 0)) {
		t.Error("booked start must no longer be offered")
	}
}

func TestService_FreeSlotsOptimized_MatchesPureFunction(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Book(ctx, mondayAt(9, 0), TypeMedium); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.FreeSlotsOptimized(ctx, mondayAt(9, 0), mondayAt(10, 0), TypeShort)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || !got[0].Equal(mondayAt(9, 30)) {
		t.Fatalf("expected [09:30], got %v", got)
	}
}

func TestService_ListAppointments_Chronological(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	for _, start := range []time.Time{mondayAt(14, 0), mondayAt(8, 0), mondayAt(10, 30)} {
		if _, err := svc.Book(ctx, start, TypeShort); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	appointments, err := svc.ListAppointments(ctx, mondayAt(8, 0), mondayAt(17, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(appointments) != 3 {
		t.Fatalf("expected 3 appointments, got %d", len(appointments))
	}
	for i := 1; i < len(appointments); i++ {
		if appointments[i].StartTime.Before(appointments[i-1].StartTime) {
			t.Error("appointments are not chronological")
		}
	}
}

func TestService_FillRandom_ShortToHalf(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	// A Monday holds 32 business quanta; 50% is 16 short appointments.
	added, err := svc.FillRandom(ctx, mondayAt(8, 0), mondayAt(17, 0), TypeShort, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added != 16 {
		t.Errorf("expected 16 appointments added, got %d", added)
	}

	appointments, err := svc.ListAppointments(ctx, mondayAt(8, 0), mondayAt(17, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(appointments) != 16 {
		t.Errorf("expected 16 stored appointments, got %d", len(appointments))
	}
}

func TestService_FillRandom_CountsExistingBookings(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	// Pre-book 8 quanta; filling to 50% should add only 8 more.
	for i := 0; i < 8; i++ {
		if _, err := svc.Book(ctx, mondayAt(8, 0).Add(time.Duration(i)*15*time.Minute), TypeShort); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	added, err := svc.FillRandom(ctx, mondayAt(8, 0), mondayAt(17, 0), TypeShort, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added != 8 {
		t.Errorf("expected 8 appointments added, got %d", added)
	}
}

func TestService_FillRandom_StopsWhenFull(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	added, err := svc.FillRandom(ctx, mondayAt(8, 0), mondayAt(17, 0), TypeShort, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added != 32 {
		t.Errorf("expected 32 appointments on a fully packed day, got %d", added)
	}

	free, err := svc.FreeSlots(ctx, mondayAt(8, 0), mondayAt(17, 0), TypeShort)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(free) != 0 {
		t.Errorf("expected no free slots, got %d", len(free))
	}
}

func TestService_FillRandom_InvalidPercent(t *testing.T) {
	svc := newTestService()
	for _, pct := range []int{0, -5, 101} {
		if _, err := svc.FillRandom(context.Background(), mondayAt(8, 0), mondayAt(17, 0), TypeShort, pct); err == nil {
			t.Errorf("expected error for percent=%d", pct)
		}
	}
}

func TestService_FillRandom_ClosedRange(t *testing.T) {
	saturday := time.Date(2024, 2, 3, 8, 0, 0, 0, time.UTC)
	svc := newTestService()
	added, err := svc.FillRandom(context.Background(), saturday, saturday.Add(9*time.Hour), TypeShort, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added != 0 {
		t.Errorf("expected nothing added on a closed day, got %d", added)
	}
}
