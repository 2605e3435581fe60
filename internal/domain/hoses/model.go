package hoses

import (
	"fmt"
	"time"

	"github.com/estacionsur/stationd/internal/domain/fuel"
)

// Hose is a fixed dispensing point. The id encodes island and pump
// position (I<island>M<pump>) and drives display grouping.
type Hose struct {
	ID    string
	Name  string
	Grade fuel.Grade
}

const (
	defaultIslands      = 4
	defaultHosesPerIsle = 4
)

// DefaultHoses returns the standard 4x4 layout, one grade per pump position.
func DefaultHoses() []Hose {
	grades := fuel.Grades()
	defs := make([]Hose, 0, defaultIslands*defaultHosesPerIsle)
	for island := 1; island <= defaultIslands; island++ {
		for pump := 1; pump <= defaultHosesPerIsle; pump++ {
			defs = append(defs, Hose{
				ID:    fmt.Sprintf("I%dM%d", island, pump),
				Name:  fmt.Sprintf("Isla %d - M%d", island, pump),
				Grade: grades[(pump-1)%len(grades)],
			})
		}
	}
	return defs
}

// ShiftReading is the start/end meter pair for one hose within one shift.
// Start is set first; once both values are present the pair is complete and
// immutable.
type ShiftReading struct {
	ShiftID     string
	HoseID      string
	Grade       fuel.Grade
	StartLitres *float64
	EndLitres   *float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r ShiftReading) Complete() bool {
	return r.StartLitres != nil && r.EndLitres != nil
}

// SoldLitres is max(0, end-start). A meter decrease is clamped to zero, not
// an error: it covers rollover and reversed data entry.
func (r ShiftReading) SoldLitres() float64 {
	if !r.Complete() {
		return 0
	}
	v := *r.EndLitres - *r.StartLitres
	if v < 0 {
		return 0
	}
	return v
}

// SalesSummary aggregates one shift's complete reading pairs. ByGrade always
// carries all four grades, zero-valued when idle.
type SalesSummary struct {
	ByGrade     map[fuel.Grade]float64
	TotalLitres float64
	HasReadings bool
}

// Aggregate sums sold litres per grade over complete pairs. HasReadings is
// true when any row exists at all, complete or not; shift close gates on it.
func Aggregate(rows []ShiftReading) SalesSummary {
	s := SalesSummary{
		ByGrade:     make(map[fuel.Grade]float64, len(fuel.Grades())),
		HasReadings: len(rows) > 0,
	}
	for _, g := range fuel.Grades() {
		s.ByGrade[g] = 0
	}
	for _, r := range rows {
		if !r.Complete() {
			continue
		}
		v := r.SoldLitres()
		s.ByGrade[r.Grade] += v
		s.TotalLitres += v
	}
	return s
}
