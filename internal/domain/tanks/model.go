package tanks

import (
	"fmt"
	"time"

	"github.com/estacionsur/stationd/internal/domain/fuel"
)

// Tank is a storage vessel. StockLitres is a running theoretical balance:
// it moves only on deliveries (+) and shift-close sales deductions (-), and
// it is allowed to go negative. Drift is surfaced by the daily closure, not
// prevented here. The last-reading fields are display-only.
type Tank struct {
	ID                  string
	Name                string
	Grade               fuel.Grade
	CapacityLitres      float64
	StockLitres         float64
	MinLevelLitres      *float64
	LastStickCm         *float64
	LastTelemetryLitres *float64
	LastReadingAt       *time.Time
}

func (t Tank) BelowMinimum() bool {
	return t.MinLevelLitres != nil && t.StockLitres < *t.MinLevelLitres
}

const defaultCapacityLitres = 21000

// DefaultTanks returns the fixed set t1..t4, one per grade.
func DefaultTanks() []Tank {
	names := map[fuel.Grade]string{
		fuel.NaftaSuper:    "Tanque 1 - Super",
		fuel.NaftaPremium:  "Tanque 2 - Premium",
		fuel.Gasoil:        "Tanque 3 - Gasoil",
		fuel.GasoilPremium: "Tanque 4 - Gasoil Premium",
	}
	out := make([]Tank, 0, len(names))
	for i, g := range fuel.Grades() {
		out = append(out, Tank{
			ID:             fmt.Sprintf("t%d", i+1),
			Name:           names[g],
			Grade:          g,
			CapacityLitres: defaultCapacityLitres,
		})
	}
	return out
}

// Reading is a point-in-time observation, independent of the running stock.
// Append-only. At least one of stick/telemetry must be present.
type Reading struct {
	ID              int64
	ShiftID         string
	TankID          string
	StickCm         *float64
	TelemetryLitres *float64
	TakenByUID      string
	TakenByEmail    *string
	TakenAt         time.Time
}

// Deduction is one applied row of the per-shift stock deduction ledger.
type Deduction struct {
	ShiftID   string
	TankID    string
	Litres    float64
	AppliedAt time.Time
}
