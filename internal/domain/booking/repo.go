package booking

import (
	"context"
	"time"
)

// AppointmentRepository holds committed appointments. Create is the only
// mutator; it must reject an appointment that overlaps a stored one
// atomically, so that a slot computed as free cannot be double-booked by a
// concurrent caller between the check and the insert.
type AppointmentRepository interface {
	// Create inserts the appointment, failing with ErrSlotUnavailable when
	// it intersects a stored appointment.
	Create(ctx context.Context, a *Appointment) error
	// Between returns appointments intersecting [from, to), chronological.
	Between(ctx context.Context, from, to time.Time) ([]*Appointment, error)
	// All returns every stored appointment, chronological.
	All(ctx context.Context) ([]*Appointment, error)
	// Overlaps reports whether any stored appointment intersects [start, end).
	Overlaps(ctx context.Context, start, end time.Time) (bool, error)
}
