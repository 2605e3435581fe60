package closure

import (
	"context"
	"time"

	"github.com/estacionsur/stationd/internal/domain/errs"
	"github.com/estacionsur/stationd/internal/domain/intake"
	"github.com/estacionsur/stationd/internal/domain/shifts"
	"github.com/estacionsur/stationd/internal/domain/tanks"
)

// Service composes the daily report from the shift, tank and intake stores.
// Read-only; safe to call repeatedly and concurrently.
type Service struct {
	shifts  *shifts.Repo
	tanks   *tanks.Repo
	intakes *intake.Repo
	loc     *time.Location
}

func NewService(shiftRepo *shifts.Repo, tankRepo *tanks.Repo, intakeRepo *intake.Repo, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{shifts: shiftRepo, tanks: tankRepo, intakes: intakeRepo, loc: loc}
}

// Get builds the closure report for a yyyy-mm-dd date. The reading/intake
// window is [00:00:00, 23:59:59.999] station-local.
func (s *Service) Get(ctx context.Context, dateStr string) (Report, error) {
	day, err := time.ParseInLocation("2006-01-02", dateStr, s.loc)
	if err != nil {
		return Report{}, errs.Validation("invalid date %q, want yyyy-mm-dd", dateStr)
	}
	from := day
	to := day.Add(24*time.Hour - time.Millisecond)

	closed, err := s.shifts.ClosedByDate(ctx, dateStr)
	if err != nil {
		return Report{}, err
	}
	readings, err := s.tanks.ReadingsBetween(ctx, from, to)
	if err != nil {
		return Report{}, err
	}
	intakes, err := s.intakes.Between(ctx, from, to)
	if err != nil {
		return Report{}, err
	}
	tankList, err := s.tanks.List(ctx)
	if err != nil {
		return Report{}, err
	}

	return Build(dateStr, closed, readings, intakes, tankList), nil
}
