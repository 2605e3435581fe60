package shifts

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estacionsur/stationd/internal/domain/errs"
	"github.com/estacionsur/stationd/internal/domain/fuel"
	"github.com/estacionsur/stationd/internal/domain/hoses"
	"github.com/estacionsur/stationd/internal/domain/tanks"
)

type fakeStore struct {
	byID map[string]*Shift
	log  *[]string
	// hideOpenOnce makes the next GetOpen miss the open shift, simulating
	// an open created by a concurrent caller between read and insert.
	hideOpenOnce bool
}

func newFakeStore(log *[]string) *fakeStore {
	return &fakeStore{byID: map[string]*Shift{}, log: log}
}

func (f *fakeStore) GetOpen(context.Context) (*Shift, error) {
	if f.hideOpenOnce {
		f.hideOpenOnce = false
		return nil, nil
	}
	for _, s := range f.byID {
		if s.Status == StatusOpen {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) Get(_ context.Context, id string) (*Shift, error) {
	return f.byID[id], nil
}

func (f *fakeStore) Create(ctx context.Context, s *Shift) error {
	if cur, _ := f.GetOpen(ctx); cur != nil {
		return ErrOpenShiftExists
	}
	f.byID[s.ID] = s
	return nil
}

func (f *fakeStore) Close(_ context.Context, id string, up CloseUpdate) error {
	s, ok := f.byID[id]
	if !ok {
		return errs.Validation("unknown shift %q", id)
	}
	if s.Status != StatusOpen {
		return errs.Conflict("shift %s is already closed", id)
	}
	s.Status = StatusClosed
	s.ClosedAt = &up.At
	s.ClosedByUID = &up.ByUID
	s.DateStr = &up.DateStr
	p := up.Payments
	s.Payments = &p
	s.SalesByGrade = up.SalesByGrade
	s.TankForGrade = up.TankForGrade
	s.TotalLitres = up.TotalLitres
	*f.log = append(*f.log, "close")
	return nil
}

type fakeHoses struct{ sum hoses.SalesSummary }

func (f *fakeHoses) AggregateSales(context.Context, string) (hoses.SalesSummary, error) {
	return f.sum, nil
}

type fakeTanks struct {
	log      *[]string
	failNext error
	calls    []map[fuel.Grade]float64
	mappings []map[fuel.Grade]string
}

func (f *fakeTanks) ApplySalesDeduction(_ context.Context, _ string, mapping map[fuel.Grade]string, sales map[fuel.Grade]float64) error {
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	f.calls = append(f.calls, sales)
	f.mappings = append(f.mappings, mapping)
	*f.log = append(*f.log, "deduct")
	return nil
}

func (f *fakeTanks) BelowMinimum(context.Context) ([]tanks.Tank, error) { return nil, nil }

func salesSummary(super float64) hoses.SalesSummary {
	by := map[fuel.Grade]float64{}
	for _, g := range fuel.Grades() {
		by[g] = 0
	}
	by[fuel.NaftaSuper] = super
	return hoses.SalesSummary{ByGrade: by, TotalLitres: super, HasReadings: true}
}

func newTestService(store Store, h HoseLedger, tk TankLedger) *Service {
	mapping := map[fuel.Grade]string{
		fuel.NaftaSuper: "t1", fuel.NaftaPremium: "t2",
		fuel.Gasoil: "t3", fuel.GasoilPremium: "t4",
	}
	return NewService(store, h, tk, mapping, nil, slog.Default(), nil)
}

func TestOpenIsIdempotent(t *testing.T) {
	var oplog []string
	store := newFakeStore(&oplog)
	svc := newTestService(store, &fakeHoses{}, &fakeTanks{log: &oplog})

	id1, err := svc.Open(context.Background(), "u1", nil)
	require.NoError(t, err)
	id2, err := svc.Open(context.Background(), "u2", nil)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	openCount := 0
	for _, s := range store.byID {
		if s.Status == StatusOpen {
			openCount++
		}
	}
	assert.Equal(t, 1, openCount)
}

func TestOpenRequiresIdentity(t *testing.T) {
	var oplog []string
	svc := newTestService(newFakeStore(&oplog), &fakeHoses{}, &fakeTanks{log: &oplog})

	_, err := svc.Open(context.Background(), "", nil)
	assert.True(t, errs.IsValidation(err))
}

func TestOpenRecoversFromLostInsertRace(t *testing.T) {
	var oplog []string
	store := newFakeStore(&oplog)
	// a concurrent caller won the conditional insert after our read missed it
	store.byID["winner"] = &Shift{ID: "winner", Status: StatusOpen}
	store.hideOpenOnce = true
	svc := newTestService(store, &fakeHoses{}, &fakeTanks{log: &oplog})

	id, err := svc.Open(context.Background(), "u1", nil)
	require.NoError(t, err)
	assert.Equal(t, "winner", id)
}

func TestCloseRequiresReadings(t *testing.T) {
	var oplog []string
	store := newFakeStore(&oplog)
	tk := &fakeTanks{log: &oplog}
	svc := newTestService(store, &fakeHoses{sum: hoses.SalesSummary{HasReadings: false}}, tk)

	id, err := svc.Open(context.Background(), "u1", nil)
	require.NoError(t, err)

	err = svc.Close(context.Background(), id, CloseInput{Cash: 100}, "u1")
	assert.True(t, errs.IsValidation(err))
	assert.Equal(t, StatusOpen, store.byID[id].Status)
	assert.Empty(t, tk.calls)
}

func TestCloseRequiresIdentity(t *testing.T) {
	var oplog []string
	svc := newTestService(newFakeStore(&oplog), &fakeHoses{sum: salesSummary(100)}, &fakeTanks{log: &oplog})

	err := svc.Close(context.Background(), "sh1", CloseInput{}, "")
	assert.True(t, errs.IsValidation(err))
}

func TestClosePersistsThenDeducts(t *testing.T) {
	var oplog []string
	store := newFakeStore(&oplog)
	tk := &fakeTanks{log: &oplog}
	svc := newTestService(store, &fakeHoses{sum: salesSummary(450)}, tk)

	id, err := svc.Open(context.Background(), "u1", nil)
	require.NoError(t, err)

	in := CloseInput{
		Cash:      1000,
		Cards:     []CardPayment{{Amount: 200, SurchargePct: 10}},
		Transfers: []TransferPayment{{Amount: 300}},
	}
	require.NoError(t, svc.Close(context.Background(), id, in, "u1"))

	sh := store.byID[id]
	assert.Equal(t, StatusClosed, sh.Status)
	require.NotNil(t, sh.Payments)
	assert.InDelta(t, 1520, sh.Payments.GrandTotal, 1e-9)
	assert.Equal(t, 450.0, sh.TotalLitres)
	require.NotNil(t, sh.DateStr)

	// shift document update strictly precedes the tank deduction
	assert.Equal(t, []string{"close", "deduct"}, oplog)
	require.Len(t, tk.calls, 1)
	assert.Equal(t, 450.0, tk.calls[0][fuel.NaftaSuper])
}

func TestCloseTwiceConflicts(t *testing.T) {
	var oplog []string
	store := newFakeStore(&oplog)
	svc := newTestService(store, &fakeHoses{sum: salesSummary(10)}, &fakeTanks{log: &oplog})

	id, err := svc.Open(context.Background(), "u1", nil)
	require.NoError(t, err)
	require.NoError(t, svc.Close(context.Background(), id, CloseInput{}, "u1"))

	err = svc.Close(context.Background(), id, CloseInput{}, "u1")
	assert.True(t, errs.IsConflict(err))
}

func TestCloseDeductionFailureIsRecoverable(t *testing.T) {
	var oplog []string
	store := newFakeStore(&oplog)
	tk := &fakeTanks{log: &oplog, failNext: errs.Storage("apply sales deduction", context.DeadlineExceeded)}
	svc := newTestService(store, &fakeHoses{sum: salesSummary(450)}, tk)

	id, err := svc.Open(context.Background(), "u1", nil)
	require.NoError(t, err)

	err = svc.Close(context.Background(), id, CloseInput{Cash: 100}, "u1")
	require.Error(t, err)
	// the shift is already closed with its sales recorded
	assert.Equal(t, StatusClosed, store.byID[id].Status)
	assert.Equal(t, 450.0, store.byID[id].TotalLitres)

	// replaying the deduction afterwards succeeds with the recorded sales
	require.NoError(t, svc.RetrySalesDeduction(context.Background(), id))
	require.Len(t, tk.calls, 1)
	assert.Equal(t, 450.0, tk.calls[0][fuel.NaftaSuper])
}

func TestRetryDeductionKeepsCloseTimeMapping(t *testing.T) {
	var oplog []string
	store := newFakeStore(&oplog)
	tk := &fakeTanks{log: &oplog, failNext: errs.Storage("apply sales deduction", context.DeadlineExceeded)}
	svc := newTestService(store, &fakeHoses{sum: salesSummary(450)}, tk)

	id, err := svc.Open(context.Background(), "u1", nil)
	require.NoError(t, err)

	// close with a per-call override sending nafta_super to t9
	override := map[fuel.Grade]string{fuel.NaftaSuper: "t9"}
	err = svc.Close(context.Background(), id, CloseInput{Cash: 100, TankForGrade: override}, "u1")
	require.Error(t, err)

	// the replay must deduct from the tanks chosen at close, not the defaults
	require.NoError(t, svc.RetrySalesDeduction(context.Background(), id))
	require.Len(t, tk.mappings, 1)
	assert.Equal(t, "t9", tk.mappings[0][fuel.NaftaSuper])
}

func TestRetryDeductionFallsBackToDefaultMapping(t *testing.T) {
	var oplog []string
	store := newFakeStore(&oplog)
	// a shift closed before the mapping was recorded alongside the sales
	store.byID["old"] = &Shift{
		ID:           "old",
		Status:       StatusClosed,
		SalesByGrade: map[fuel.Grade]float64{fuel.NaftaSuper: 120},
	}
	tk := &fakeTanks{log: &oplog}
	svc := newTestService(store, &fakeHoses{}, tk)

	require.NoError(t, svc.RetrySalesDeduction(context.Background(), "old"))
	require.Len(t, tk.mappings, 1)
	assert.Equal(t, "t1", tk.mappings[0][fuel.NaftaSuper])
}

func TestRetryDeductionNeedsClosedShift(t *testing.T) {
	var oplog []string
	store := newFakeStore(&oplog)
	svc := newTestService(store, &fakeHoses{sum: salesSummary(10)}, &fakeTanks{log: &oplog})

	id, err := svc.Open(context.Background(), "u1", nil)
	require.NoError(t, err)

	err = svc.RetrySalesDeduction(context.Background(), id)
	assert.True(t, errs.IsConflict(err))

	err = svc.RetrySalesDeduction(context.Background(), "missing")
	assert.True(t, errs.IsValidation(err))
}
