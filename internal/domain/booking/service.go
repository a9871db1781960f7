package booking

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/praxis/praxis/internal/platform/calendar"
)

// Service implements the booking operations on top of an
// AppointmentRepository. The slot computations work on a snapshot of the
// stored appointments, so a booking must be re-validated by the repository
// at commit time (Create does this atomically).
type Service struct {
	repo AppointmentRepository
	now  func() time.Time
}

// NewService creates a Service backed by the given repository.
func NewService(repo AppointmentRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// resolveRange applies the default query bounds: from defaults to the next
// quantum boundary, to defaults to the close of business this Friday. On a
// weekend the defaulted end already lies behind now; that collapses to an
// empty range rather than an error, which is reserved for ranges the caller
// actually reversed.
func (s *Service) resolveRange(from, to time.Time) (time.Time, time.Time, error) {
	defaulted := from.IsZero() || to.IsZero()
	if from.IsZero() {
		from = calendar.Quantize(s.now())
	}
	if to.IsZero() {
		to = calendar.EndOfWorkWeek(s.now())
	}
	if to.Before(from) {
		if defaulted {
			return from, from, nil
		}
		return time.Time{}, time.Time{}, &InvalidDateError{From: from, To: to}
	}
	return from, to, nil
}

// snapshot loads every appointment on the days covered by [from, to). The
// optimizer inspects whole opening blocks, so the snapshot spans full days
// rather than the exact query bounds.
func (s *Service) snapshot(ctx context.Context, from, to time.Time) ([]*Appointment, error) {
	return s.repo.Between(ctx, calendar.DayStart(from), calendar.DayStart(to).AddDate(0, 0, 1))
}

// FreeSlots returns the bookable start times for the given type in
// [from, to). Zero bounds take the default range.
func (s *Service) FreeSlots(ctx context.Context, from, to time.Time, typ AppointmentType) ([]time.Time, error) {
	if !typ.Valid() {
		return nil, &InvalidAppointmentTypeError{Value: string(typ)}
	}
	from, to, err := s.resolveRange(from, to)
	if err != nil {
		return nil, err
	}
	booked, err := s.snapshot(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return FreeSlots(from, to, typ, booked), nil
}

// FreeSlotsOptimized returns the bookable start times thinned to at most
// one offering per hour window.
func (s *Service) FreeSlotsOptimized(ctx context.Context, from, to time.Time, typ AppointmentType) ([]time.Time, error) {
	if !typ.Valid() {
		return nil, &InvalidAppointmentTypeError{Value: string(typ)}
	}
	from, to, err := s.resolveRange(from, to)
	if err != nil {
		return nil, err
	}
	booked, err := s.snapshot(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return FreeSlotsOptimized(from, to, typ, booked), nil
}

// Book commits an appointment at the given start. The start must lie on a
// quantum boundary and the full duration must fall inside opening hours;
// the repository rejects overlaps atomically.
func (s *Service) Book(ctx context.Context, start time.Time, typ AppointmentType) (*Appointment, error) {
	if !typ.Valid() {
		return nil, &InvalidAppointmentTypeError{Value: string(typ)}
	}
	if !calendar.IsQuantized(start) {
		return nil, &SlotUnavailableError{Start: start, Type: typ, Reason: "start is not on a 15-minute boundary"}
	}

	a := &Appointment{StartTime: start, Type: typ}
	for q := start; q.Before(a.EndTime()); q = q.Add(calendar.Quantum) {
		if !calendar.IsBusinessTime(q) {
			return nil, &SlotUnavailableError{Start: start, Type: typ, Reason: "outside opening hours"}
		}
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ListAppointments returns the booked appointments intersecting [from, to),
// chronological. Zero bounds take the default range.
func (s *Service) ListAppointments(ctx context.Context, from, to time.Time) ([]*Appointment, error) {
	from, to, err := s.resolveRange(from, to)
	if err != nil {
		return nil, err
	}
	return s.repo.Between(ctx, from, to)
}

// FillRandom books random appointments of the given type until the business
// quanta in [from, to) are filled up to the target percentage, or no free
// slot remains. Existing appointments count towards the percentage. It
// returns the number of appointments added.
func (s *Service) FillRandom(ctx context.Context, from, to time.Time, typ AppointmentType, percent int) (int, error) {
	if !typ.Valid() {
		return 0, &InvalidAppointmentTypeError{Value: string(typ)}
	}
	if percent < 1 || percent > 100 {
		return 0, fmt.Errorf("percent must be between 1 and 100, got %d", percent)
	}
	from, to, err := s.resolveRange(from, to)
	if err != nil {
		return 0, err
	}

	total := businessQuanta(from, to)
	if total == 0 {
		return 0, nil
	}

	added := 0
	for {
		booked, err := s.snapshot(ctx, from, to)
		if err != nil {
			return added, err
		}

		reserved := reservedQuanta(booked, from, to)
		if (reserved+typ.Quanta())*100 > percent*total {
			break
		}

		free := FreeSlots(from, to, typ, booked)
		if len(free) == 0 {
			break
		}

		start := free[rand.Intn(len(free))]
		if _, err := s.Book(ctx, start, typ); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

// businessQuanta counts the quantum boundaries in [from, to) that fall
// inside opening hours.
func businessQuanta(from, to time.Time) int {
	count := 0
	for q := calendar.Quantize(from); q.Before(to); q = q.Add(calendar.Quantum) {
		if calendar.IsBusinessTime(q) {
			count++
		}
	}
	return count
}

// reservedQuanta counts the quanta in [from, to) occupied by booked
// appointments.
func reservedQuanta(booked []*Appointment, from, to time.Time) int {
	count := 0
	for _, a := range booked {
		for q := a.StartTime; q.Before(a.EndTime()); q = q.Add(calendar.Quantum) {
			if !q.Before(from) && q.Before(to) {
				count++
			}
		}
	}
	return count
}
