package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/praxis/praxis/internal/platform/calendar"
)

// AppointmentType is one of the fixed appointment durations the practice
// offers.
type AppointmentType string

const (
	// TypeShort is a 15-minute appointment (one quantum).
	TypeShort AppointmentType = "short"
	// TypeMedium is a 30-minute appointment.
	TypeMedium AppointmentType = "medium"
	// TypeLong is a 90-minute appointment.
	TypeLong AppointmentType = "long"
)

// appointmentDurations maps each type to its fixed duration.
var appointmentDurations = map[AppointmentType]time.Duration{
	TypeShort:  15 * time.Minute,
	TypeMedium: 30 * time.Minute,
	TypeLong:   90 * time.Minute,
}

// ParseAppointmentType validates a type received from the CLI or API.
func ParseAppointmentType(s string) (AppointmentType, error) {
	t := AppointmentType(s)
	if _, ok := appointmentDurations[t]; !ok {
		return "", &InvalidAppointmentTypeError{Value: s}
	}
	return t, nil
}

// Valid reports whether t is a known appointment type.
func (t AppointmentType) Valid() bool {
	_, ok := appointmentDurations[t]
	return ok
}

// Duration returns the fixed duration of the appointment type.
func (t AppointmentType) Duration() time.Duration {
	return appointmentDurations[t]
}

// Quanta returns the duration expressed in 15-minute quanta.
func (t AppointmentType) Quanta() int {
	return int(t.Duration() / calendar.Quantum)
}

// DisplayName returns the human-readable name used in listings.
func (t AppointmentType) DisplayName() string {
	switch t {
	case TypeShort:
		return "Short (15 min)"
	case TypeMedium:
		return "Medium (30 min)"
	case TypeLong:
		return "Long (90 min)"
	}
	return string(t)
}

// Appointment is a committed booking. It is immutable once created; the end
// instant is derived from the start and the type's duration.
type Appointment struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	StartTime time.Time       `db:"start_time" json:"start_time"`
	Type      AppointmentType `db:"appointment_type" json:"appointment_type"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// EndTime returns the derived end instant of the appointment.
func (a *Appointment) EndTime() time.Time {
	return a.StartTime.Add(a.Type.Duration())
}

// OverlapsRange reports whether the appointment intersects the half-open
// interval [start, end).
func (a *Appointment) OverlapsRange(start, end time.Time) bool {
	return a.StartTime.Before(end) && a.EndTime().After(start)
}
