package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryRepo is an in-memory AppointmentRepository used by tests.
type memoryRepo struct {
	mu           sync.RWMutex
	appointments map[uuid.UUID]*Appointment
}

// NewMemoryRepo creates an empty in-memory repository.
func NewMemoryRepo() AppointmentRepository {
	return &memoryRepo{appointments: make(map[uuid.UUID]*Appointment)}
}

func (r *memoryRepo) Create(_ context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Conflict re-check under the write lock keeps check-then-act atomic.
	for _, existing := range r.appointments {
		if existing.OverlapsRange(a.StartTime, a.EndTime()) {
			return &SlotUnavailableError{
				Start:  a.StartTime,
				Type:   a.Type,
				Reason: "overlaps an existing appointment",
			}
		}
	}

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	stored := *a
	r.appointments[a.ID] = &stored
	return nil
}

func (r *memoryRepo) Between(_ context.Context, from, to time.Time) ([]*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*Appointment
	for _, a := range r.appointments {
		if a.OverlapsRange(from, to) {
			copied := *a
			results = append(results, &copied)
		}
	}
	sortByStart(results)
	return results, nil
}

func (r *memoryRepo) All(_ context.Context) ([]*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]*Appointment, 0, len(r.appointments))
	for _, a := range r.appointments {
		copied := *a
		results = append(results, &copied)
	}
	sortByStart(results)
	return results, nil
}

func (r *memoryRepo) Overlaps(_ context.Context, start, end time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.appointments {
		if a.OverlapsRange(start, end) {
			return true, nil
		}
	}
	return false, nil
}

func sortByStart(appointments []*Appointment) {
	sort.Slice(appointments, func(i, j int) bool {
		return appointments[i].StartTime.Before(appointments[j].StartTime)
	})
}
