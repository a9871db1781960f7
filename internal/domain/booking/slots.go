package booking

import (
	"time"

	"github.com/praxis/praxis/internal/platform/calendar"
)

// FreeSlots returns every quantum-aligned start in [from, to) where an
// appointment of type typ fits inside a single opening block without
// overlapping a booked appointment. Candidates are tried at every quantum,
// not strided by the appointment duration, so the optimizer can pick
// sub-slot placement within an hour window. The result is chronological.
func FreeSlots(from, to time.Time, typ AppointmentType, booked []*Appointment) []time.Time {
	duration := typ.Duration()
	earliest := calendar.Quantize(from)

	var slots []time.Time
	for day := calendar.DayStart(from); day.Before(to); day = day.AddDate(0, 0, 1) {
		for _, block := range calendar.BusinessIntervals(day) {
			start := block.Start
			if earliest.After(start) {
				start = earliest
			}
			for ; !start.Add(duration).After(block.End) && start.Before(to); start = start.Add(calendar.Quantum) {
				if overlapsAny(booked, start, start.Add(duration)) {
					continue
				}
				slots = append(slots, start)
			}
		}
	}
	return slots
}

// FreeSlotsOptimized filters the FreeSlots result down to at most one start
// per 60-minute window. When a window holds several candidates, the one
// that preserves the most room for long appointments is kept; ties go to
// the earliest start, which keeps the output deterministic.
//
// The search never adds a start that FreeSlots did not return.
func FreeSlotsOptimized(from, to time.Time, typ AppointmentType, booked []*Appointment) []time.Time {
	free := FreeSlots(from, to, typ, booked)
	if typ == TypeLong {
		// An hour window cannot hold two non-overlapping 90-minute
		// appointments, so there is nothing to thin out.
		return free
	}

	var optimized []time.Time
	for i := 0; i < len(free); {
		window := calendar.WindowStart(free[i])
		j := i + 1
		for j < len(free) && calendar.WindowStart(free[j]).Equal(window) {
			j++
		}
		optimized = append(optimized, bestInWindow(free[i:j], typ, booked))
		i = j
	}
	return optimized
}

// bestInWindow selects the candidate that, once provisionally booked,
// leaves the highest number of long-appointment placements in its opening
// block. Candidates arrive chronological, so keeping the first maximum
// implements the earliest-start tie-break.
func bestInWindow(candidates []time.Time, typ AppointmentType, booked []*Appointment) time.Time {
	if len(candidates) == 1 {
		return candidates[0]
	}

	best := candidates[0]
	bestCount := longCapacity(booked, &Appointment{StartTime: candidates[0], Type: typ})
	for _, c := range candidates[1:] {
		if count := longCapacity(booked, &Appointment{StartTime: c, Type: typ}); count > bestCount {
			best, bestCount = c, count
		}
	}
	return best
}

// longCapacity counts the long-appointment starts that remain free in the
// opening block around the hypothetical appointment, assuming it is booked.
// The real store is never touched; the hypothetical is appended to a copy
// of the snapshot.
func longCapacity(booked []*Appointment, hypothetical *Appointment) int {
	block, ok := calendar.BusinessIntervalAt(hypothetical.StartTime)
	if !ok {
		return 0
	}
	occupied := make([]*Appointment, 0, len(booked)+1)
	occupied = append(occupied, booked...)
	occupied = append(occupied, hypothetical)
	return len(FreeSlots(block.Start, block.End, TypeLong, occupied))
}

func overlapsAny(booked []*Appointment, start, end time.Time) bool {
	for _, a := range booked {
		if a.OverlapsRange(start, end) {
			return true
		}
	}
	return false
}
