package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type appointmentRepoPG struct{ pool *pgxpool.Pool }

// NewAppointmentRepoPG creates a Postgres-backed AppointmentRepository.
func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

const apptCols = `id, start_time, appointment_type, created_at`

func scanAppointments(rows pgx.Rows) ([]*Appointment, error) {
	defer rows.Close()
	var results []*Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.StartTime, &a.Type, &a.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, &a)
	}
	return results, rows.Err()
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	// The overlap check and the insert run in one transaction so a
	// concurrent booking cannot slip in between them.
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var conflict bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointment
			WHERE start_time < $2 AND end_time > $1
		)`, a.StartTime, a.EndTime()).Scan(&conflict)
	if err != nil {
		return err
	}
	if conflict {
		return &SlotUnavailableError{
			Start:  a.StartTime,
			Type:   a.Type,
			Reason: "overlaps an existing appointment",
		}
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO appointment (id, start_time, end_time, appointment_type)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		a.ID, a.StartTime, a.EndTime(), a.Type).Scan(&a.CreatedAt)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *appointmentRepoPG) Between(ctx context.Context, from, to time.Time) ([]*Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+apptCols+` FROM appointment
		WHERE start_time < $2 AND end_time > $1
		ORDER BY start_time`, from, to)
	if err != nil {
		return nil, err
	}
	return scanAppointments(rows)
}

func (r *appointmentRepoPG) All(ctx context.Context) ([]*Appointment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+apptCols+` FROM appointment ORDER BY start_time`)
	if err != nil {
		return nil, err
	}
	return scanAppointments(rows)
}

func (r *appointmentRepoPG) Overlaps(ctx context.Context, start, end time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointment
			WHERE start_time < $2 AND end_time > $1
		)`, start, end).Scan(&exists)
	return exists, err
}
