package intake

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estacionsur/stationd/internal/domain/errs"
	"github.com/estacionsur/stationd/internal/domain/fuel"
	"github.com/estacionsur/stationd/internal/infra/metrics"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// Create records the delivery and increments the destination tank's stock by
// the 15°C-normalized volume, in one tx.
func (r *Repo) Create(ctx context.Context, in Input) (*TruckIntake, error) {
	if in.TankID == "" {
		return nil, errs.Validation("no tank selected")
	}
	if !in.Grade.Valid() {
		return nil, errs.Validation("unknown fuel grade %q", in.Grade)
	}
	if math.IsNaN(in.InvoicedLitres) || math.IsInf(in.InvoicedLitres, 0) || in.InvoicedLitres <= 0 {
		return nil, errs.Validation("invoiced litres must be > 0")
	}
	if in.CreatedByUID == "" {
		return nil, errs.Validation("caller identity required")
	}

	rec := &TruckIntake{
		ID:               uuid.NewString(),
		Supplier:         in.Supplier,
		PORef:            in.PORef,
		DeliveryNoteRef:  in.DeliveryNoteRef,
		InvoiceRef:       in.InvoiceRef,
		TankID:           in.TankID,
		Grade:            in.Grade,
		TempC:            in.TempC,
		InvoicedLitres:   in.InvoicedLitres,
		NormalizedLitres: fuel.NormalizeTo15C(in.InvoicedLitres, in.TempC, in.Grade),
		PreStickLitres:   in.PreStickLitres,
		PostStickLitres:  in.PostStickLitres,
		CreatedByUID:     in.CreatedByUID,
		CreatedByEmail:   in.CreatedByEmail,
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, errs.Storage("record truck intake", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// increment first, even by zero litres: the UPDATE doubles as the tank
	// existence check, so an unknown tank is a Validation error rather than
	// a foreign-key failure from the insert below
	var stock float64
	err = tx.QueryRow(ctx, `
		UPDATE tanques
		SET stock_litres = stock_litres + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING stock_litres
	`, rec.TankID, rec.NormalizedLitres).Scan(&stock)
	if err == pgx.ErrNoRows {
		return nil, errs.Validation("unknown tank %q", rec.TankID)
	}
	if err != nil {
		return nil, errs.Storage("record truck intake", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO recepciones_camion (
			id, supplier, po_ref, delivery_note_ref, invoice_ref,
			tank_id, grade, temp_c, invoiced_litres, normalized_litres,
			pre_stick_litres, post_stick_litres, created_by_uid, created_by_email)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING created_at
	`, rec.ID, rec.Supplier, rec.PORef, rec.DeliveryNoteRef, rec.InvoiceRef,
		rec.TankID, string(rec.Grade), rec.TempC, rec.InvoicedLitres, rec.NormalizedLitres,
		rec.PreStickLitres, rec.PostStickLitres, rec.CreatedByUID, rec.CreatedByEmail).Scan(&rec.CreatedAt)
	if err != nil {
		return nil, errs.Storage("record truck intake", err)
	}
	metrics.TankStockLitres.WithLabelValues(rec.TankID).Set(stock)

	if err := tx.Commit(ctx); err != nil {
		return nil, errs.Storage("record truck intake", err)
	}
	metrics.DeliveriesRecorded.Inc()
	return rec, nil
}

// Between returns the deliveries received within [from, to].
func (r *Repo) Between(ctx context.Context, from, to time.Time) ([]TruckIntake, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, supplier, po_ref, delivery_note_ref, invoice_ref,
		       tank_id, grade, temp_c, invoiced_litres, normalized_litres,
		       pre_stick_litres, post_stick_litres, created_by_uid, created_by_email, created_at
		FROM recepciones_camion
		WHERE created_at BETWEEN $1 AND $2
		ORDER BY created_at
	`, from, to)
	if err != nil {
		return nil, errs.Storage("list truck intakes", err)
	}
	defer rows.Close()

	out := []TruckIntake{}
	for rows.Next() {
		var t TruckIntake
		var grade string
		if err := rows.Scan(&t.ID, &t.Supplier, &t.PORef, &t.DeliveryNoteRef, &t.InvoiceRef,
			&t.TankID, &grade, &t.TempC, &t.InvoicedLitres, &t.NormalizedLitres,
			&t.PreStickLitres, &t.PostStickLitres, &t.CreatedByUID, &t.CreatedByEmail, &t.CreatedAt); err != nil {
			return nil, errs.Storage("scan truck intake", err)
		}
		t.Grade = fuel.Grade(grade)
		out = append(out, t)
	}
	return out, rows.Err()
}
