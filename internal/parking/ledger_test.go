package parking

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/smart-parking/internal/model"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestLedger(t *testing.T, inv model.Inventory) (*Ledger, *Registry, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	b, err := NewBilling(Rates{HourlyRate: 10, DayPassRate: 80})
	require.NoError(t, err)
	r := NewRegistry(clock.Now)
	_, err = r.Reset(inv)
	require.NoError(t, err)
	return NewLedger(b, r, clock.Now), r, clock
}

func openSession(t *testing.T, l *Ledger, r *Registry, number string, bt model.BillingType) model.Session {
	t.Helper()
	require.NoError(t, l.Reserve(number))
	v := l.PrepareVehicle(number, model.VehicleCar)
	slot, err := NewPolicy(r).Allocate(v)
	require.NoError(t, err)
	s, err := l.Open(v, slot, bt)
	require.NoError(t, err)
	return s
}

func TestLedgerOpenAndClose(t *testing.T) {
	l, r, clock := newTestLedger(t, model.Inventory{model.SlotRegular: 1})

	s := openSession(t, l, r, "KA01AB1234", model.BillingHourly)
	assert.Equal(t, model.SessionActive, s.Status)
	assert.Nil(t, s.Amount)
	assert.Nil(t, s.ExitTime)
	assert.Equal(t, clock.Now(), s.EntryTime)

	clock.Advance(90 * time.Minute)
	closed, slot, err := l.Close(s.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionCompleted, closed.Status)
	require.NotNil(t, closed.Amount)
	require.NotNil(t, closed.ExitTime)
	assert.Equal(t, int64(20), *closed.Amount)
	assert.Equal(t, clock.Now(), *closed.ExitTime)
	assert.Equal(t, model.SlotAvailable, slot.Status)
	assert.Equal(t, int64(20), l.TotalCollected())
	assert.Zero(t, l.ActiveCount())

	got, err := r.Get(s.Slot.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SlotAvailable, got.Status)
}

func TestLedgerCloseTwiceLeavesSessionUntouched(t *testing.T) {
	l, r, clock := newTestLedger(t, model.Inventory{model.SlotRegular: 1})
	s := openSession(t, l, r, "KA01AB1234", model.BillingDayPass)

	clock.Advance(3 * time.Hour)
	first, _, err := l.Close(s.ID)
	require.NoError(t, err)

	clock.Advance(5 * time.Hour)
	_, _, err = l.Close(s.ID)
	assert.ErrorIs(t, err, ErrAlreadyClosed)

	again, err := l.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, *first.Amount, *again.Amount)
	assert.Equal(t, *first.ExitTime, *again.ExitTime)
	assert.Equal(t, int64(80), l.TotalCollected())
}

func TestLedgerCloseUnknownSession(t *testing.T) {
	l, _, _ := newTestLedger(t, model.Inventory{model.SlotRegular: 1})
	_, _, err := l.Close("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLedgerReserveOncePerPlate(t *testing.T) {
	l, r, _ := newTestLedger(t, model.Inventory{model.SlotRegular: 2})

	require.NoError(t, l.Reserve("AB12"))
	assert.ErrorIs(t, l.Reserve("AB12"), ErrVehicleParked)
	l.Unreserve("AB12")
	require.NoError(t, l.Reserve("AB12"))
	l.Unreserve("AB12")

	s := openSession(t, l, r, "AB12", model.BillingHourly)
	assert.ErrorIs(t, l.Reserve("AB12"), ErrVehicleParked)
	// an open session is not dropped by Unreserve
	l.Unreserve("AB12")
	assert.ErrorIs(t, l.Reserve("AB12"), ErrVehicleParked)

	_, _, err := l.Close(s.ID)
	require.NoError(t, err)
	assert.NoError(t, l.Reserve("AB12"))
	assert.ErrorIs(t, l.Reserve(""), ErrInvalidInput)
}

func TestLedgerReusesVehicleRecord(t *testing.T) {
	l, r, _ := newTestLedger(t, model.Inventory{model.SlotRegular: 1})

	first := openSession(t, l, r, "AB12", model.BillingHourly)
	_, _, err := l.Close(first.ID)
	require.NoError(t, err)

	v := l.PrepareVehicle("AB12", model.VehicleBike)
	assert.Equal(t, first.Vehicle.ID, v.ID)
	assert.Equal(t, model.VehicleBike, v.Type)

	stored, err := l.Vehicle(first.Vehicle.ID)
	require.NoError(t, err)
	assert.Equal(t, "AB12", stored.Number)

	_, err = l.Vehicle("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLedgerListOrdering(t *testing.T) {
	l, r, clock := newTestLedger(t, model.Inventory{model.SlotRegular: 3})

	a := openSession(t, l, r, "AAA1", model.BillingHourly)
	clock.Advance(time.Minute)
	b := openSession(t, l, r, "BBB2", model.BillingHourly)
	clock.Advance(time.Minute)
	c := openSession(t, l, r, "CCC3", model.BillingDayPass)

	_, _, err := l.Close(b.ID)
	require.NoError(t, err)

	active := l.ListActive()
	require.Len(t, active, 2)
	assert.Equal(t, a.ID, active[0].ID)
	assert.Equal(t, c.ID, active[1].ID)

	all := l.ListAll()
	require.Len(t, all, 3)
	assert.Equal(t, []string{c.ID, b.ID, a.ID}, []string{all[0].ID, all[1].ID, all[2].ID})
}

func TestLedgerOpenRejectsBadBillingType(t *testing.T) {
	l, r, _ := newTestLedger(t, model.Inventory{model.SlotRegular: 1})
	slot, err := r.FindAvailable(model.SlotRegular)
	require.NoError(t, err)

	v := l.PrepareVehicle("AB12", model.VehicleCar)
	_, err = l.Open(v, slot, model.BillingType(0))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLedgerWithoutActive(t *testing.T) {
	l, r, _ := newTestLedger(t, model.Inventory{model.SlotRegular: 1})

	called := false
	require.NoError(t, l.WithoutActive(func() error { called = true; return nil }))
	assert.True(t, called)

	require.NoError(t, l.Reserve("AB12"))
	called = false
	err := l.WithoutActive(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrConflict)
	assert.False(t, called)
	l.Unreserve("AB12")

	s := openSession(t, l, r, "AB12", model.BillingHourly)
	assert.ErrorIs(t, l.WithoutActive(func() error { return nil }), ErrConflict)
	_, _, err = l.Close(s.ID)
	require.NoError(t, err)
	assert.NoError(t, l.WithoutActive(func() error { return nil }))
}

func TestLedgerRestore(t *testing.T) {
	l, _, _ := newTestLedger(t, model.Inventory{model.SlotRegular: 1})
	amount := int64(30)
	exit := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	v := model.Vehicle{ID: "v1", Number: "AB12", Type: model.VehicleCar}

	err := l.Restore([]model.Vehicle{v}, []model.Session{
		{ID: "s1", Vehicle: v, Status: model.SessionCompleted, Amount: &amount, ExitTime: &exit, BillingType: model.BillingHourly},
		{ID: "s2", Vehicle: model.Vehicle{ID: "v1"}, Status: model.SessionActive, BillingType: model.BillingHourly},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(30), l.TotalCollected())
	assert.Equal(t, 1, l.ActiveCount())
	assert.ErrorIs(t, l.Reserve("AB12"), ErrVehicleParked)

	s2, err := l.Get("s2")
	require.NoError(t, err)
	assert.Equal(t, "AB12", s2.Vehicle.Number)

	err = l.Restore([]model.Vehicle{v}, []model.Session{
		{ID: "s1", Vehicle: v, Status: model.SessionActive},
		{ID: "s2", Vehicle: v, Status: model.SessionActive},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
