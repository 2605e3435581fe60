package closure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estacionsur/stationd/internal/domain/fuel"
	"github.com/estacionsur/stationd/internal/domain/intake"
	"github.com/estacionsur/stationd/internal/domain/shifts"
	"github.com/estacionsur/stationd/internal/domain/tanks"
)

func fp(v float64) *float64 { return &v }

func at(h int) time.Time {
	return time.Date(2024, 3, 10, h, 0, 0, 0, time.UTC)
}

func closedShift(total, litres float64, byGrade map[fuel.Grade]float64) shifts.Shift {
	closedAt := at(14)
	return shifts.Shift{
		ID:           "sh1",
		Status:       shifts.StatusClosed,
		Band:         shifts.BandMorning,
		OpenedAt:     at(6),
		ClosedAt:     &closedAt,
		Payments:     &shifts.PaymentSummary{GrandTotal: total},
		SalesByGrade: byGrade,
		TotalLitres:  litres,
	}
}

func gasoilTank() tanks.Tank {
	return tanks.Tank{ID: "t3", Name: "Tanque 3 - Gasoil", Grade: fuel.Gasoil}
}

func TestBuildDailyDiscrepancy(t *testing.T) {
	closed := []shifts.Shift{
		closedShift(90000, 1500, map[fuel.Grade]float64{fuel.Gasoil: 1500}),
	}
	readings := []tanks.Reading{
		{TankID: "t3", TelemetryLitres: fp(5000), TakenAt: at(6)},
		{TankID: "t3", TelemetryLitres: fp(5600), TakenAt: at(22)},
	}
	intakes := []intake.TruckIntake{
		{TankID: "t3", NormalizedLitres: 2000, CreatedAt: at(10)},
	}

	rep := Build("2024-03-10", closed, readings, intakes, []tanks.Tank{gasoilTank()})

	require.Len(t, rep.Tanks, 1)
	row := rep.Tanks[0]
	require.NotNil(t, row.StartLitres)
	assert.Equal(t, 5000.0, *row.StartLitres)
	require.NotNil(t, row.EndLitres)
	assert.Equal(t, 5600.0, *row.EndLitres)
	assert.Equal(t, 2000.0, row.InflowLitres)
	assert.Equal(t, 1500.0, row.SalesLitres)
	require.NotNil(t, row.TheoreticalEndLitres)
	assert.Equal(t, 5500.0, *row.TheoreticalEndLitres)
	require.NotNil(t, row.DiscrepancyLitres)
	assert.Equal(t, 100.0, *row.DiscrepancyLitres)
}

func TestBuildWithoutStartReading(t *testing.T) {
	rep := Build("2024-03-10", nil, nil, nil, []tanks.Tank{gasoilTank()})

	require.Len(t, rep.Tanks, 1)
	row := rep.Tanks[0]
	assert.Nil(t, row.StartLitres)
	assert.Nil(t, row.TheoreticalEndLitres)
	assert.Nil(t, row.DiscrepancyLitres)
}

func TestBuildIgnoresStickOnlyReadings(t *testing.T) {
	readings := []tanks.Reading{
		{TankID: "t3", StickCm: fp(120), TakenAt: at(6)}, // no telemetry value
	}
	rep := Build("2024-03-10", nil, readings, nil, []tanks.Tank{gasoilTank()})

	assert.Nil(t, rep.Tanks[0].StartLitres)
	assert.Nil(t, rep.Tanks[0].EndLitres)
}

func TestBuildSingleReadingBoundsBothEnds(t *testing.T) {
	readings := []tanks.Reading{
		{TankID: "t3", TelemetryLitres: fp(4800), TakenAt: at(12)},
	}
	rep := Build("2024-03-10", nil, readings, nil, []tanks.Tank{gasoilTank()})

	row := rep.Tanks[0]
	require.NotNil(t, row.StartLitres)
	require.NotNil(t, row.EndLitres)
	assert.Equal(t, *row.StartLitres, *row.EndLitres)
}

func TestBuildAccumulatesShifts(t *testing.T) {
	s1 := closedShift(1000, 200, map[fuel.Grade]float64{fuel.NaftaSuper: 200})
	s2 := closedShift(500, 100, map[fuel.Grade]float64{fuel.NaftaSuper: 60, fuel.Gasoil: 40})
	s2.ID = "sh2"

	rep := Build("2024-03-10", []shifts.Shift{s1, s2}, nil, nil, nil)

	assert.Equal(t, 1500.0, rep.GrandTotal)
	assert.Equal(t, 300.0, rep.TotalLitres)
	assert.Equal(t, 260.0, rep.SalesByGrade[fuel.NaftaSuper])
	assert.Equal(t, 40.0, rep.SalesByGrade[fuel.Gasoil])
	require.Len(t, rep.Shifts, 2)

	// all four grades are always present
	require.Len(t, rep.SalesByGrade, 4)
	assert.Contains(t, rep.SalesByGrade, fuel.GasoilPremium)
}
