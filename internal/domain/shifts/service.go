package shifts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/estacionsur/stationd/internal/domain/errs"
	"github.com/estacionsur/stationd/internal/domain/fuel"
	"github.com/estacionsur/stationd/internal/domain/hoses"
	"github.com/estacionsur/stationd/internal/domain/tanks"
	"github.com/estacionsur/stationd/internal/infra/metrics"
)

type Store interface {
	GetOpen(ctx context.Context) (*Shift, error)
	Get(ctx context.Context, id string) (*Shift, error)
	Create(ctx context.Context, s *Shift) error
	Close(ctx context.Context, id string, up CloseUpdate) error
}

type HoseLedger interface {
	AggregateSales(ctx context.Context, shiftID string) (hoses.SalesSummary, error)
}

type TankLedger interface {
	ApplySalesDeduction(ctx context.Context, shiftID string, tankForGrade map[fuel.Grade]string, salesByGrade map[fuel.Grade]float64) error
	BelowMinimum(ctx context.Context) ([]tanks.Tank, error)
}

// Notifier receives best-effort admin notifications; failures are logged,
// never surfaced to the closing operator.
type Notifier interface {
	ShiftClosed(ctx context.Context, sh *Shift)
	LowStock(ctx context.Context, t tanks.Tank)
}

// Service orchestrates the shift lifecycle over the hose and tank ledgers.
type Service struct {
	store        Store
	hoses        HoseLedger
	tanks        TankLedger
	tankForGrade map[fuel.Grade]string
	loc          *time.Location
	log          *slog.Logger
	notify       Notifier
}

// NewService wires the lifecycle. tankForGrade is the default grade->tank
// mapping used at close; loc is the station's local timezone (nil = Local);
// notify may be nil.
func NewService(store Store, hoseLedger HoseLedger, tankLedger TankLedger,
	tankForGrade map[fuel.Grade]string, loc *time.Location, log *slog.Logger, notify Notifier) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		store:        store,
		hoses:        hoseLedger,
		tanks:        tankLedger,
		tankForGrade: tankForGrade,
		loc:          loc,
		log:          log,
		notify:       notify,
	}
}

// Open starts a shift, or returns the id of the one already open. Idempotent:
// two concurrent opens race on the store's conditional insert and both end up
// with the same id.
func (s *Service) Open(ctx context.Context, uid string, email *string) (string, error) {
	if uid == "" {
		return "", errs.Validation("caller identity required")
	}

	if cur, err := s.store.GetOpen(ctx); err != nil {
		return "", err
	} else if cur != nil {
		return cur.ID, nil
	}

	now := time.Now().In(s.loc)
	sh := &Shift{
		ID:            uuid.NewString(),
		Status:        StatusOpen,
		Band:          BandAt(now),
		OpenedAt:      now,
		OpenedByUID:   uid,
		OpenedByEmail: email,
	}
	err := s.store.Create(ctx, sh)
	if errors.Is(err, ErrOpenShiftExists) {
		cur, err := s.store.GetOpen(ctx)
		if err != nil {
			return "", err
		}
		if cur != nil {
			return cur.ID, nil
		}
		// the racing shift closed between the insert and the re-read
		return "", errs.Conflict("open shift changed concurrently, retry")
	}
	if err != nil {
		return "", err
	}

	metrics.ShiftsOpened.Inc()
	s.log.Info("shift opened", "shift", sh.ID, "band", sh.Band, "uid", uid)
	return sh.ID, nil
}

// CloseInput is the operator-entered close data. TankForGrade overrides the
// configured default mapping when non-empty.
type CloseInput struct {
	Cash         float64
	Cards        []CardPayment
	Transfers    []TransferPayment
	TankForGrade map[fuel.Grade]string
}

// Close runs the close protocol: aggregate hose sales, reject when no
// readings exist, total the payments, persist the closed state, then deduct
// sold litres from the tanks. The shift update strictly precedes the
// deductions; a deduction failure leaves the shift closed and is recovered
// with RetrySalesDeduction.
func (s *Service) Close(ctx context.Context, shiftID string, in CloseInput, uid string) error {
	if uid == "" {
		return errs.Validation("caller identity required")
	}
	if shiftID == "" {
		return errs.Validation("shift is required")
	}

	sum, err := s.hoses.AggregateSales(ctx, shiftID)
	if err != nil {
		return err
	}
	if !sum.HasReadings {
		return errs.Validation("no hose readings for this shift; record start and end before closing")
	}

	mapping := s.tankForGrade
	if len(in.TankForGrade) > 0 {
		mapping = in.TankForGrade
	}

	now := time.Now().In(s.loc)
	up := CloseUpdate{
		At:           now,
		ByUID:        uid,
		DateStr:      now.Format("2006-01-02"),
		Payments:     SummarizePayments(in.Cash, in.Cards, in.Transfers),
		SalesByGrade: sum.ByGrade,
		TankForGrade: mapping,
		TotalLitres:  sum.TotalLitres,
	}
	if err := s.store.Close(ctx, shiftID, up); err != nil {
		return err
	}
	metrics.ShiftsClosed.Inc()

	if err := s.tanks.ApplySalesDeduction(ctx, shiftID, mapping, sum.ByGrade); err != nil {
		s.log.Error("stock deduction failed after close", "shift", shiftID, "err", err)
		return fmt.Errorf("shift %s closed but stock deduction incomplete, retry it: %w", shiftID, err)
	}

	s.log.Info("shift closed", "shift", shiftID, "uid", uid,
		"litres", sum.TotalLitres, "total", up.Payments.GrandTotal)
	s.afterClose(ctx, shiftID)
	return nil
}

// RetrySalesDeduction replays the tank deduction for an already-closed
// shift, using the mapping persisted at close so a per-close override is
// never swapped for the default. Safe to call repeatedly: the deduction is
// idempotent per (shift, tank).
func (s *Service) RetrySalesDeduction(ctx context.Context, shiftID string) error {
	sh, err := s.store.Get(ctx, shiftID)
	if err != nil {
		return err
	}
	if sh == nil {
		return errs.Validation("unknown shift %q", shiftID)
	}
	if sh.Status != StatusClosed {
		return errs.Conflict("shift %s is not closed", shiftID)
	}
	mapping := sh.TankForGrade
	if len(mapping) == 0 {
		// shifts closed before the mapping was recorded
		mapping = s.tankForGrade
	}
	return s.tanks.ApplySalesDeduction(ctx, shiftID, mapping, sh.SalesByGrade)
}

func (s *Service) afterClose(ctx context.Context, shiftID string) {
	if s.notify == nil {
		return
	}
	sh, err := s.store.Get(ctx, shiftID)
	if err != nil || sh == nil {
		s.log.Warn("closed shift not readable for notification", "shift", shiftID, "err", err)
		return
	}
	s.notify.ShiftClosed(ctx, sh)

	low, err := s.tanks.BelowMinimum(ctx)
	if err != nil {
		s.log.Warn("low-stock check failed", "err", err)
		return
	}
	for _, t := range low {
		s.notify.LowStock(ctx, t)
	}
}
