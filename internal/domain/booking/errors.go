package booking

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for errors.Is dispatch. The typed errors below unwrap to
// these so callers can branch on the kind while the error itself carries the
// offending values.
var (
	ErrSlotUnavailable        = errors.New("slot unavailable")
	ErrInvalidDate            = errors.New("invalid date range")
	ErrInvalidAppointmentType = errors.New("invalid appointment type")
)

// SlotUnavailableError reports a booking attempt that overlaps an existing
// appointment or falls outside opening hours.
type SlotUnavailableError struct {
	Start  time.Time
	Type   AppointmentType
	Reason string
}

func (e *SlotUnavailableError) Error() string {
	return fmt.Sprintf("slot unavailable: %s appointment at %s: %s",
		e.Type, e.Start.Format("2006-01-02 15:04"), e.Reason)
}

func (e *SlotUnavailableError) Unwrap() error { return ErrSlotUnavailable }

// InvalidDateError reports a malformed or reversed query range.
type InvalidDateError struct {
	From time.Time
	To   time.Time
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date range: from %s to %s",
		e.From.Format("2006-01-02 15:04"), e.To.Format("2006-01-02 15:04"))
}

func (e *InvalidDateError) Unwrap() error { return ErrInvalidDate }

// InvalidAppointmentTypeError reports an unrecognized duration category.
type InvalidAppointmentTypeError struct {
	Value string
}

func (e *InvalidAppointmentTypeError) Error() string {
	return fmt.Sprintf("invalid appointment type %q (want short, medium or long)", e.Value)
}

func (e *InvalidAppointmentTypeError) Unwrap() error { return ErrInvalidAppointmentType }
