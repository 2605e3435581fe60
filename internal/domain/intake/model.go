package intake

import (
	"time"

	"github.com/estacionsur/stationd/internal/domain/fuel"
)

// TruckIntake is one received shipment. Immutable once created; the single
// stock increment on the destination tank happens at creation time and is
// never replayed or amended.
type TruckIntake struct {
	ID               string
	Supplier         string
	PORef            *string
	DeliveryNoteRef  *string
	InvoiceRef       *string
	TankID           string
	Grade            fuel.Grade
	TempC            *float64
	InvoicedLitres   float64
	NormalizedLitres float64
	PreStickLitres   *float64
	PostStickLitres  *float64
	CreatedByUID     string
	CreatedByEmail   *string
	CreatedAt        time.Time
}

// Input carries the operator-entered delivery data. NormalizedLitres is
// computed, never supplied.
type Input struct {
	Supplier        string
	PORef           *string
	DeliveryNoteRef *string
	InvoiceRef      *string
	TankID          string
	Grade           fuel.Grade
	TempC           *float64
	InvoicedLitres  float64
	PreStickLitres  *float64
	PostStickLitres *float64
	CreatedByUID    string
	CreatedByEmail  *string
}
