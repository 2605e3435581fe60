package tanks

import (
	"context"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estacionsur/stationd/internal/domain/errs"
	"github.com/estacionsur/stationd/internal/domain/fuel"
	"github.com/estacionsur/stationd/internal/infra/metrics"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// EnsureDefaults provisions t1..t4. Stock is intentionally left out of the
// update list so re-provisioning never clobbers a running balance.
func (r *Repo) EnsureDefaults(ctx context.Context) error {
	for _, t := range DefaultTanks() {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO tanques (id, name, grade, capacity_litres, stock_litres)
			VALUES ($1,$2,$3,$4,0)
			ON CONFLICT (id)
			DO UPDATE SET name = EXCLUDED.name, grade = EXCLUDED.grade,
			              capacity_litres = EXCLUDED.capacity_litres
		`, t.ID, t.Name, string(t.Grade), t.CapacityLitres)
		if err != nil {
			return errs.Storage("provision tanks", err)
		}
	}
	return nil
}

const tankCols = `id, name, grade, capacity_litres, stock_litres, min_level_litres,
	last_stick_cm, last_telemetry_litres, last_reading_at`

func scanTank(row pgx.Row) (Tank, error) {
	var t Tank
	var grade string
	err := row.Scan(&t.ID, &t.Name, &grade, &t.CapacityLitres, &t.StockLitres,
		&t.MinLevelLitres, &t.LastStickCm, &t.LastTelemetryLitres, &t.LastReadingAt)
	t.Grade = fuel.Grade(grade)
	return t, err
}

func (r *Repo) List(ctx context.Context) ([]Tank, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+tankCols+` FROM tanques ORDER BY id`)
	if err != nil {
		return nil, errs.Storage("list tanks", err)
	}
	defer rows.Close()

	out := []Tank{}
	for rows.Next() {
		t, err := scanTank(rows)
		if err != nil {
			return nil, errs.Storage("scan tank", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id string) (*Tank, error) {
	t, err := scanTank(r.pool.QueryRow(ctx, `SELECT `+tankCols+` FROM tanques WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Storage("get tank", err)
	}
	return &t, nil
}

// RecordReading appends an observation and refreshes the tank's last-reading
// display fields. Stock is untouched. Rejected when neither stick nor
// telemetry is supplied.
func (r *Repo) RecordReading(ctx context.Context, in Reading) (int64, error) {
	if in.TankID == "" {
		return 0, errs.Validation("no tank selected")
	}
	if in.TakenByUID == "" {
		return 0, errs.Validation("caller identity required")
	}
	if in.StickCm == nil && in.TelemetryLitres == nil {
		return 0, errs.Validation("a reading needs a stick measurement, a telemetry value, or both")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, errs.Storage("record tank reading", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO tank_readings (shift_id, tank_id, stick_cm, telemetry_litres, taken_by_uid, taken_by_email)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id
	`, in.ShiftID, in.TankID, in.StickCm, in.TelemetryLitres, in.TakenByUID, in.TakenByEmail).Scan(&id)
	if err != nil {
		return 0, errs.Storage("record tank reading", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE tanques
		SET last_stick_cm = $2, last_telemetry_litres = $3, last_reading_at = NOW()
		WHERE id = $1
	`, in.TankID, in.StickCm, in.TelemetryLitres)
	if err != nil {
		return 0, errs.Storage("record tank reading", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, errs.Validation("unknown tank %q", in.TankID)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, errs.Storage("record tank reading", err)
	}
	metrics.TankReadingsRecorded.Inc()
	return id, nil
}

// ApplyDelivery increments the running stock in place. The single-row UPDATE
// is the atomicity boundary: concurrent mutations on the same tank serialize
// on the row.
func (r *Repo) ApplyDelivery(ctx context.Context, tankID string, litres float64) error {
	if tankID == "" {
		return errs.Validation("no tank selected")
	}
	if math.IsNaN(litres) || math.IsInf(litres, 0) || litres <= 0 {
		return errs.Validation("delivery litres must be > 0")
	}

	var stock float64
	err := r.pool.QueryRow(ctx, `
		UPDATE tanques
		SET stock_litres = stock_litres + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING stock_litres
	`, tankID, litres).Scan(&stock)
	if err == pgx.ErrNoRows {
		return errs.Validation("unknown tank %q", tankID)
	}
	if err != nil {
		return errs.Storage("apply delivery", err)
	}
	metrics.TankStockLitres.WithLabelValues(tankID).Set(stock)
	return nil
}

// ApplySalesDeduction subtracts a shift's sold litres from the mapped tanks.
// Idempotent per (shift, tank): the deduction ledger row and the stock
// decrement commit together, and a replay hits ON CONFLICT DO NOTHING, so a
// retried close never double-deducts. Stock may go negative.
func (r *Repo) ApplySalesDeduction(ctx context.Context, shiftID string, tankForGrade map[fuel.Grade]string, salesByGrade map[fuel.Grade]float64) error {
	if shiftID == "" {
		return errs.Validation("shift is required")
	}
	for _, g := range fuel.Grades() {
		litres := salesByGrade[g]
		tankID := tankForGrade[g]
		if litres <= 0 || tankID == "" {
			continue
		}
		if err := r.deductOnce(ctx, shiftID, tankID, litres); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) deductOnce(ctx context.Context, shiftID, tankID string, litres float64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errs.Storage("apply sales deduction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		INSERT INTO stock_deductions (shift_id, tank_id, litres)
		VALUES ($1,$2,$3)
		ON CONFLICT (shift_id, tank_id) DO NOTHING
	`, shiftID, tankID, litres)
	if err != nil {
		return errs.Storage("apply sales deduction", err)
	}
	if tag.RowsAffected() == 0 {
		// already applied for this shift
		return nil
	}

	var stock float64
	err = tx.QueryRow(ctx, `
		UPDATE tanques
		SET stock_litres = stock_litres - $2, updated_at = NOW()
		WHERE id = $1
		RETURNING stock_litres
	`, tankID, litres).Scan(&stock)
	if err == pgx.ErrNoRows {
		return errs.Validation("unknown tank %q", tankID)
	}
	if err != nil {
		return errs.Storage("apply sales deduction", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return errs.Storage("apply sales deduction", err)
	}
	metrics.TankStockLitres.WithLabelValues(tankID).Set(stock)
	return nil
}

// DeductionsForShift returns the deduction ledger rows already applied for a
// shift, the audit/read side of ApplySalesDeduction.
func (r *Repo) DeductionsForShift(ctx context.Context, shiftID string) ([]Deduction, error) {
	if shiftID == "" {
		return nil, errs.Validation("shift is required")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT shift_id, tank_id, litres, applied_at
		FROM stock_deductions
		WHERE shift_id = $1
		ORDER BY tank_id
	`, shiftID)
	if err != nil {
		return nil, errs.Storage("list stock deductions", err)
	}
	defer rows.Close()

	out := []Deduction{}
	for rows.Next() {
		var d Deduction
		if err := rows.Scan(&d.ShiftID, &d.TankID, &d.Litres, &d.AppliedAt); err != nil {
			return nil, errs.Storage("scan stock deduction", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// BelowMinimum lists tanks whose running stock sits under their configured
// minimum threshold.
func (r *Repo) BelowMinimum(ctx context.Context) ([]Tank, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+tankCols+` FROM tanques
		WHERE min_level_litres IS NOT NULL AND stock_litres < min_level_litres
		ORDER BY id
	`)
	if err != nil {
		return nil, errs.Storage("list low tanks", err)
	}
	defer rows.Close()

	out := []Tank{}
	for rows.Next() {
		t, err := scanTank(rows)
		if err != nil {
			return nil, errs.Storage("scan tank", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ReadingsBetween returns the append-only readings within [from, to].
func (r *Repo) ReadingsBetween(ctx context.Context, from, to time.Time) ([]Reading, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, shift_id, tank_id, stick_cm, telemetry_litres, taken_by_uid, taken_by_email, taken_at
		FROM tank_readings
		WHERE taken_at BETWEEN $1 AND $2
		ORDER BY taken_at
	`, from, to)
	if err != nil {
		return nil, errs.Storage("list tank readings", err)
	}
	defer rows.Close()

	out := []Reading{}
	for rows.Next() {
		var rd Reading
		if err := rows.Scan(&rd.ID, &rd.ShiftID, &rd.TankID, &rd.StickCm, &rd.TelemetryLitres,
			&rd.TakenByUID, &rd.TakenByEmail, &rd.TakenAt); err != nil {
			return nil, errs.Storage("scan tank reading", err)
		}
		out = append(out, rd)
	}
	return out, rows.Err()
}
