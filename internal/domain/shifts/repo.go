package shifts

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estacionsur/stationd/internal/domain/errs"
)

// ErrOpenShiftExists reports that the conditional open-shift insert lost to
// an existing open shift. The service re-reads and returns the winner.
var ErrOpenShiftExists = errors.New("an open shift already exists")

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const shiftCols = `id, status, band, opened_at, opened_by_uid, opened_by_email,
	closed_at, closed_by_uid, date_str, payments, sales_by_grade, tank_for_grade, total_litres`

func scanShift(row pgx.Row) (*Shift, error) {
	var s Shift
	var status, band string
	var payments, sales, mapping []byte
	err := row.Scan(&s.ID, &status, &band, &s.OpenedAt, &s.OpenedByUID, &s.OpenedByEmail,
		&s.ClosedAt, &s.ClosedByUID, &s.DateStr, &payments, &sales, &mapping, &s.TotalLitres)
	if err != nil {
		return nil, err
	}
	s.Status = Status(status)
	s.Band = Band(band)
	if payments != nil {
		var p PaymentSummary
		if err := json.Unmarshal(payments, &p); err != nil {
			return nil, err
		}
		s.Payments = &p
	}
	if sales != nil {
		if err := json.Unmarshal(sales, &s.SalesByGrade); err != nil {
			return nil, err
		}
	}
	if mapping != nil {
		if err := json.Unmarshal(mapping, &s.TankForGrade); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// GetOpen returns the current open shift, or nil when none exists.
func (r *Repo) GetOpen(ctx context.Context) (*Shift, error) {
	s, err := scanShift(r.pool.QueryRow(ctx, `
		SELECT `+shiftCols+` FROM shifts
		WHERE status = 'open'
		ORDER BY opened_at DESC
		LIMIT 1
	`))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Storage("get open shift", err)
	}
	return s, nil
}

func (r *Repo) Get(ctx context.Context, id string) (*Shift, error) {
	s, err := scanShift(r.pool.QueryRow(ctx, `SELECT `+shiftCols+` FROM shifts WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Storage("get shift", err)
	}
	return s, nil
}

// Create inserts a new open shift. The partial unique index on
// status = 'open' makes this a conditional write: when another open shift
// already exists the insert fails with ErrOpenShiftExists instead of
// creating a duplicate.
func (r *Repo) Create(ctx context.Context, s *Shift) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO shifts (id, status, band, opened_at, opened_by_uid, opened_by_email)
		VALUES ($1,'open',$2,$3,$4,$5)
	`, s.ID, string(s.Band), s.OpenedAt, s.OpenedByUID, s.OpenedByEmail)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrOpenShiftExists
		}
		return errs.Storage("create shift", err)
	}
	return nil
}

// Close persists the full close-time state in one UPDATE, guarded by
// status = 'open' so the open->closed transition happens exactly once.
func (r *Repo) Close(ctx context.Context, id string, up CloseUpdate) error {
	payments, err := json.Marshal(up.Payments)
	if err != nil {
		return errs.Storage("close shift", err)
	}
	sales, err := json.Marshal(up.SalesByGrade)
	if err != nil {
		return errs.Storage("close shift", err)
	}
	mapping, err := json.Marshal(up.TankForGrade)
	if err != nil {
		return errs.Storage("close shift", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE shifts
		SET status = 'closed', closed_at = $2, closed_by_uid = $3, date_str = $4,
		    payments = $5, sales_by_grade = $6, tank_for_grade = $7, total_litres = $8
		WHERE id = $1 AND status = 'open'
	`, id, up.At, up.ByUID, up.DateStr, payments, sales, mapping, up.TotalLitres)
	if err != nil {
		return errs.Storage("close shift", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	cur, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if cur == nil {
		return errs.Validation("unknown shift %q", id)
	}
	return errs.Conflict("shift %s is already closed", id)
}

// ClosedByDate returns the shifts closed on the given yyyy-mm-dd date.
func (r *Repo) ClosedByDate(ctx context.Context, dateStr string) ([]Shift, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+shiftCols+` FROM shifts
		WHERE status = 'closed' AND date_str = $1
		ORDER BY closed_at
	`, dateStr)
	if err != nil {
		return nil, errs.Storage("list closed shifts", err)
	}
	defer rows.Close()

	out := []Shift{}
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, errs.Storage("scan shift", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}
