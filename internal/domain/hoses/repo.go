package hoses

import (
	"context"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estacionsur/stationd/internal/domain/errs"
	"github.com/estacionsur/stationd/internal/domain/fuel"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// EnsureDefaults provisions the 4x4 hose layout. Merge-upsert: re-running
// refreshes name/grade but never drops rows.
func (r *Repo) EnsureDefaults(ctx context.Context) error {
	for _, h := range DefaultHoses() {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO hoses (id, name, grade)
			VALUES ($1,$2,$3)
			ON CONFLICT (id)
			DO UPDATE SET name = EXCLUDED.name, grade = EXCLUDED.grade
		`, h.ID, h.Name, string(h.Grade))
		if err != nil {
			return errs.Storage("provision hoses", err)
		}
	}
	return nil
}

func (r *Repo) List(ctx context.Context) ([]Hose, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, grade FROM hoses ORDER BY id`)
	if err != nil {
		return nil, errs.Storage("list hoses", err)
	}
	defer rows.Close()

	out := []Hose{}
	for rows.Next() {
		var h Hose
		var grade string
		if err := rows.Scan(&h.ID, &h.Name, &grade); err != nil {
			return nil, errs.Storage("scan hose", err)
		}
		h.Grade = fuel.Grade(grade)
		out = append(out, h)
	}
	return out, rows.Err()
}

func validLitres(litres float64) bool {
	return !math.IsNaN(litres) && !math.IsInf(litres, 0) && litres >= 0
}

// RecordStart upserts the start meter value for (shift, hose). Rejected once
// the pair is complete.
func (r *Repo) RecordStart(ctx context.Context, shiftID, hoseID string, grade fuel.Grade, litres float64) error {
	if shiftID == "" || hoseID == "" {
		return errs.Validation("shift and hose are required")
	}
	if !grade.Valid() {
		return errs.Validation("unknown fuel grade %q", grade)
	}
	if !validLitres(litres) {
		return errs.Validation("start reading must be a non-negative number of litres")
	}

	tag, err := r.pool.Exec(ctx, `
		INSERT INTO hose_shift (shift_id, hose_id, grade, start_litres)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (shift_id, hose_id)
		DO UPDATE SET start_litres = EXCLUDED.start_litres, updated_at = NOW()
		WHERE hose_shift.start_litres IS NULL OR hose_shift.end_litres IS NULL
	`, shiftID, hoseID, string(grade), litres)
	if err != nil {
		return errs.Storage("record start reading", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.Conflict("reading pair for hose %s is already complete", hoseID)
	}
	return nil
}

// RecordEnd sets the end meter value. It only updates a row whose start is
// already present and whose end is still unset: an end without a start is a
// validation error, never a partial record.
func (r *Repo) RecordEnd(ctx context.Context, shiftID, hoseID string, litres float64) error {
	if shiftID == "" || hoseID == "" {
		return errs.Validation("shift and hose are required")
	}
	if !validLitres(litres) {
		return errs.Validation("end reading must be a non-negative number of litres")
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE hose_shift
		SET end_litres = $3, updated_at = NOW()
		WHERE shift_id = $1 AND hose_id = $2
		  AND start_litres IS NOT NULL AND end_litres IS NULL
	`, shiftID, hoseID, litres)
	if err != nil {
		return errs.Storage("record end reading", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var hasEnd bool
	err = r.pool.QueryRow(ctx, `
		SELECT end_litres IS NOT NULL FROM hose_shift
		WHERE shift_id = $1 AND hose_id = $2 AND start_litres IS NOT NULL
	`, shiftID, hoseID).Scan(&hasEnd)
	if err == pgx.ErrNoRows {
		return errs.Validation("no start reading for hose %s in this shift", hoseID)
	}
	if err != nil {
		return errs.Storage("record end reading", err)
	}
	return errs.Conflict("reading pair for hose %s is already complete", hoseID)
}

func (r *Repo) ListByShift(ctx context.Context, shiftID string) ([]ShiftReading, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT shift_id, hose_id, grade, start_litres, end_litres, created_at, updated_at
		FROM hose_shift
		WHERE shift_id = $1
		ORDER BY hose_id
	`, shiftID)
	if err != nil {
		return nil, errs.Storage("list shift readings", err)
	}
	defer rows.Close()

	out := []ShiftReading{}
	for rows.Next() {
		var sr ShiftReading
		var grade string
		if err := rows.Scan(&sr.ShiftID, &sr.HoseID, &grade, &sr.StartLitres, &sr.EndLitres, &sr.CreatedAt, &sr.UpdatedAt); err != nil {
			return nil, errs.Storage("scan shift reading", err)
		}
		sr.Grade = fuel.Grade(grade)
		out = append(out, sr)
	}
	return out, rows.Err()
}

// AggregateSales computes the per-grade litres sold for a shift from its
// recorded pairs.
func (r *Repo) AggregateSales(ctx context.Context, shiftID string) (SalesSummary, error) {
	rows, err := r.ListByShift(ctx, shiftID)
	if err != nil {
		return SalesSummary{}, err
	}
	return Aggregate(rows), nil
}
