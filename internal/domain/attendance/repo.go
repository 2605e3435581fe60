package attendance

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estacionsur/stationd/internal/domain/errs"
)

type Repo struct {
	pool *pgxpool.Pool
	loc  *time.Location
}

func NewRepo(pool *pgxpool.Pool, loc *time.Location) *Repo {
	if loc == nil {
		loc = time.Local
	}
	return &Repo{pool: pool, loc: loc}
}

// Record appends a clock event stamped with the station-local date.
func (r *Repo) Record(ctx context.Context, uid string, email *string, typ EventType, shiftID *string) (int64, error) {
	if uid == "" {
		return 0, errs.Validation("caller identity required")
	}
	if typ != ClockIn && typ != ClockOut {
		return 0, errs.Validation("clock event type must be in or out")
	}

	dateStr := time.Now().In(r.loc).Format("2006-01-02")
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO fichadas (uid, email, type, shift_id, date_str)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id
	`, uid, email, string(typ), shiftID, dateStr).Scan(&id)
	if err != nil {
		return 0, errs.Storage("record clock event", err)
	}
	return id, nil
}

func (r *Repo) ListByDate(ctx context.Context, dateStr string) ([]ClockEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, uid, email, type, shift_id, date_str, created_at
		FROM fichadas
		WHERE date_str = $1
		ORDER BY created_at
	`, dateStr)
	if err != nil {
		return nil, errs.Storage("list clock events", err)
	}
	defer rows.Close()

	out := []ClockEvent{}
	for rows.Next() {
		var ev ClockEvent
		var typ string
		if err := rows.Scan(&ev.ID, &ev.UID, &ev.Email, &typ, &ev.ShiftID, &ev.DateStr, &ev.CreatedAt); err != nil {
			return nil, errs.Storage("scan clock event", err)
		}
		ev.Type = EventType(typ)
		out = append(out, ev)
	}
	return out, rows.Err()
}
