package closure

import (
	"time"

	"github.com/estacionsur/stationd/internal/domain/fuel"
	"github.com/estacionsur/stationd/internal/domain/intake"
	"github.com/estacionsur/stationd/internal/domain/shifts"
	"github.com/estacionsur/stationd/internal/domain/tanks"
)

// ShiftRow summarizes one closed shift inside the daily report.
type ShiftRow struct {
	ID         string
	Band       shifts.Band
	OpenedAt   time.Time
	ClosedAt   *time.Time
	GrandTotal float64
	Litres     float64
}

// TankRow reconciles one tank for the day. Theoretical end stock needs a
// start reading; the discrepancy additionally needs an end reading. Either
// is nil when its inputs are missing.
type TankRow struct {
	TankID               string
	Name                 string
	Grade                fuel.Grade
	StartLitres          *float64
	EndLitres            *float64
	InflowLitres         float64
	SalesLitres          float64
	TheoreticalEndLitres *float64
	DiscrepancyLitres    *float64
	MinLevelLitres       *float64
}

// Report is the composed daily closure for one calendar date.
type Report struct {
	DateStr      string
	GrandTotal   float64
	TotalLitres  float64
	SalesByGrade map[fuel.Grade]float64
	Shifts       []ShiftRow
	Tanks        []TankRow
}

// Build computes the report from the day's already-filtered records. Pure:
// the repo does the date-window fetching, this does the math.
func Build(dateStr string, closed []shifts.Shift, readings []tanks.Reading, intakes []intake.TruckIntake, tankList []tanks.Tank) Report {
	rep := Report{
		DateStr:      dateStr,
		SalesByGrade: make(map[fuel.Grade]float64, len(fuel.Grades())),
		Shifts:       make([]ShiftRow, 0, len(closed)),
		Tanks:        make([]TankRow, 0, len(tankList)),
	}
	for _, g := range fuel.Grades() {
		rep.SalesByGrade[g] = 0
	}

	for _, sh := range closed {
		var total float64
		if sh.Payments != nil {
			total = sh.Payments.GrandTotal
		}
		rep.GrandTotal += total
		rep.TotalLitres += sh.TotalLitres
		for g, v := range sh.SalesByGrade {
			rep.SalesByGrade[g] += v
		}
		rep.Shifts = append(rep.Shifts, ShiftRow{
			ID:         sh.ID,
			Band:       sh.Band,
			OpenedAt:   sh.OpenedAt,
			ClosedAt:   sh.ClosedAt,
			GrandTotal: total,
			Litres:     sh.TotalLitres,
		})
	}

	// Earliest and latest telemetry reading per tank bound the day's actual
	// stock. Stick-only readings carry no litre value and are skipped.
	type bounds struct {
		startAt, endAt time.Time
		start, end     float64
		seen           bool
	}
	byTank := map[string]*bounds{}
	for _, rd := range readings {
		if rd.TelemetryLitres == nil {
			continue
		}
		b := byTank[rd.TankID]
		if b == nil {
			b = &bounds{}
			byTank[rd.TankID] = b
		}
		if !b.seen || rd.TakenAt.Before(b.startAt) {
			b.startAt, b.start = rd.TakenAt, *rd.TelemetryLitres
		}
		if !b.seen || rd.TakenAt.After(b.endAt) {
			b.endAt, b.end = rd.TakenAt, *rd.TelemetryLitres
		}
		b.seen = true
	}

	inflow := map[string]float64{}
	for _, t := range intakes {
		inflow[t.TankID] += t.NormalizedLitres
	}

	for _, tank := range tankList {
		row := TankRow{
			TankID:         tank.ID,
			Name:           tank.Name,
			Grade:          tank.Grade,
			InflowLitres:   inflow[tank.ID],
			SalesLitres:    rep.SalesByGrade[tank.Grade],
			MinLevelLitres: tank.MinLevelLitres,
		}
		if b := byTank[tank.ID]; b != nil && b.seen {
			start, end := b.start, b.end
			row.StartLitres = &start
			row.EndLitres = &end
			theoretical := start + row.InflowLitres - row.SalesLitres
			row.TheoreticalEndLitres = &theoretical
			diff := end - theoretical
			row.DiscrepancyLitres = &diff
		}
		rep.Tanks = append(rep.Tanks, row)
	}
	return rep
}
