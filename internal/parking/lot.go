package parking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/smart-parking/internal/logging"
	"github.com/iliyamo/smart-parking/internal/model"
)

// Journal persists state after the in-memory core has committed a change.
// A Lot calls it from a single goroutine, one change at a time, in commit
// order.
type Journal interface {
	SaveInventory(ctx context.Context, slots []model.Slot) error
	SaveSlot(ctx context.Context, s model.Slot) error
	SaveVehicle(ctx context.Context, v model.Vehicle) error
	SaveSession(ctx context.Context, s model.Session) error
}

// EventPublisher announces session lifecycle events.
type EventPublisher interface {
	PublishSessionEvent(ctx context.Context, ev model.SessionEvent) error
}

// Snapshot is the durable state Lot is rebuilt from at startup.
type Snapshot struct {
	Slots    []model.Slot
	Vehicles []model.Vehicle
	Sessions []model.Session
}

// Options configures a Lot.  Only Rates is required.
//
// Fields:
//  Rates     – billing rates.
//  Inventory – inventory used when Initialize is called without one.
//  Clock     – time source; defaults to time.Now.
//  Journal   – optional storage, written in commit order.
//  Publisher – optional event sink.
//  Metrics   – optional collectors.
type Options struct {
	Rates     Rates
	Inventory model.Inventory
	Clock     func() time.Time
	Journal   Journal
	Publisher EventPublisher
	Metrics   *Metrics
}

// RegisterInput is a vehicle entry request.  Number is normalized before
// use.
type RegisterInput struct {
	Number      string
	VehicleType model.VehicleType
	BillingType model.BillingType
}

// Lot composes the registry, ledger, policy, billing and maintenance
// components into the operations exposed over HTTP.  Every mutation is
// committed in memory first.  Committed changes are queued for the journal
// in commit order and written by a single background writer; the publisher
// is called outside any lock.  Journal and publisher failures are logged
// rather than returned.
type Lot struct {
	registry    *Registry
	ledger      *Ledger
	policy      *Policy
	billing     *Billing
	maintenance *Maintenance

	inventory model.Inventory
	clock     func() time.Time
	journal   *journalWriter
	publisher EventPublisher
	metrics   *Metrics
}

// DefaultInventory is used when neither the options nor the caller name
// one.
var DefaultInventory = model.Inventory{
	model.SlotRegular:  10,
	model.SlotCompact:  5,
	model.SlotEV:       3,
	model.SlotHandicap: 2,
}

func NewLot(opts Options) (*Lot, error) {
	billing, err := NewBilling(opts.Rates)
	if err != nil {
		return nil, err
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	inv := opts.Inventory
	if inv.Total() == 0 {
		inv = DefaultInventory
	}
	registry := NewRegistry(clock)
	l := &Lot{
		registry:    registry,
		ledger:      NewLedger(billing, registry, clock),
		policy:      NewPolicy(registry),
		billing:     billing,
		maintenance: NewMaintenance(registry),
		inventory:   inv,
		clock:       clock,
		publisher:   opts.Publisher,
		metrics:     opts.Metrics,
	}
	if opts.Journal != nil {
		l.journal = newJournalWriter(opts.Journal, func(op string, err error) {
			l.journalFailed(context.Background(), op, err)
		})
		l.registry.sink = l.journal
		l.ledger.sink = l.journal
	}
	return l, nil
}

// Flush blocks until every change committed before the call has been
// handed to the journal.  It returns immediately without a journal.
func (l *Lot) Flush(ctx context.Context) error {
	if l.journal == nil {
		return nil
	}
	return l.journal.flush(ctx)
}

// Close stops journaling and waits for queued changes to be written.
// Mutations after Close are kept in memory only.
func (l *Lot) Close(ctx context.Context) error {
	if l.journal == nil {
		return nil
	}
	return l.journal.close(ctx)
}

// Initialize replaces the slot inventory.  It is rejected with
// ErrConflict while any vehicle is parked; session history is kept.  A nil
// or empty inv uses the configured inventory.
func (l *Lot) Initialize(ctx context.Context, inv model.Inventory) ([]model.Slot, error) {
	if inv.Total() == 0 {
		inv = l.inventory
	}
	var slots []model.Slot
	err := l.ledger.WithoutActive(func() error {
		var err error
		slots, err = l.registry.Reset(inv)
		return err
	})
	if err != nil {
		return nil, err
	}
	logging.Info(ctx).Int("slots", len(slots)).Msg("parking space initialized")
	l.metrics.occupancy(l.registry.Counts())
	return slots, nil
}

// Register admits a vehicle: the plate is reserved, a compatible slot is
// claimed and a session is opened.  Nothing is left behind on failure.
func (l *Lot) Register(ctx context.Context, in RegisterInput) (model.Session, model.Slot, error) {
	number := model.NormalizePlate(in.Number)
	if number == "" {
		return model.Session{}, model.Slot{}, fmt.Errorf("%w: vehicle number is required", ErrInvalidInput)
	}
	if !in.VehicleType.Valid() {
		return model.Session{}, model.Slot{}, fmt.Errorf("%w: vehicle type %s", ErrInvalidInput, in.VehicleType)
	}
	if !in.BillingType.Valid() {
		return model.Session{}, model.Slot{}, fmt.Errorf("%w: billing type %s", ErrInvalidInput, in.BillingType)
	}
	if !l.registry.Initialized() {
		l.metrics.rejected("not_initialized")
		return model.Session{}, model.Slot{}, ErrNotInitialized
	}

	if err := l.ledger.Reserve(number); err != nil {
		l.metrics.rejected("vehicle_parked")
		return model.Session{}, model.Slot{}, err
	}
	v := l.ledger.PrepareVehicle(number, in.VehicleType)
	slot, err := l.policy.Allocate(v)
	if err != nil {
		l.ledger.Unreserve(number)
		if errors.Is(err, ErrNoCapacity) {
			l.metrics.rejected("no_capacity")
		}
		return model.Session{}, model.Slot{}, err
	}
	sess, err := l.ledger.Open(v, slot, in.BillingType)
	if err != nil {
		if _, rerr := l.registry.Release(slot.ID); rerr != nil {
			logging.Error(ctx).Err(rerr).Str("slot", slot.Name).Msg("release after failed open")
		}
		l.ledger.Unreserve(number)
		return model.Session{}, model.Slot{}, err
	}

	logging.Info(ctx).
		Str("session", sess.ID).
		Str("vehicle", number).
		Str("slot", slot.Name).
		Str("billing", sess.BillingType.String()).
		Msg("vehicle registered")
	l.metrics.registered(sess)
	l.metrics.occupancy(l.registry.Counts())
	l.publish(ctx, model.EventSessionOpened, sess)
	return sess, slot, nil
}

// Exit closes the session, bills it and frees its slot.
func (l *Lot) Exit(ctx context.Context, sessionID string) (model.Session, error) {
	sess, slot, err := l.ledger.Close(sessionID)
	if err != nil {
		return sess, err
	}

	logging.Info(ctx).
		Str("session", sess.ID).
		Str("vehicle", sess.Vehicle.Number).
		Str("slot", slot.Name).
		Int64("amount", *sess.Amount).
		Msg("vehicle exited")
	l.metrics.exited(sess)
	l.metrics.occupancy(l.registry.Counts())
	l.publish(ctx, model.EventSessionClosed, sess)
	return sess, nil
}

// EnterMaintenance takes a slot out of allocation.
func (l *Lot) EnterMaintenance(ctx context.Context, slotID string) (model.Slot, error) {
	slot, err := l.maintenance.Enter(slotID)
	if err != nil {
		return slot, err
	}
	l.slotChanged(ctx, slot)
	return slot, nil
}

// ExitMaintenance returns a slot to allocation.
func (l *Lot) ExitMaintenance(ctx context.Context, slotID string) (model.Slot, error) {
	slot, err := l.maintenance.Exit(slotID)
	if err != nil {
		return slot, err
	}
	l.slotChanged(ctx, slot)
	return slot, nil
}

func (l *Lot) slotChanged(ctx context.Context, slot model.Slot) {
	logging.Info(ctx).Str("slot", slot.Name).Str("status", slot.Status.String()).Msg("slot status changed")
	l.metrics.occupancy(l.registry.Counts())
}

// Summary aggregates the current state of the parking space.
func (l *Lot) Summary() model.Summary {
	counts := l.registry.Counts()
	s := model.Summary{
		ActiveSessions:      l.ledger.ActiveCount(),
		TotalMoneyCollected: l.ledger.TotalCollected(),
		ByType:              counts,
	}
	for _, c := range counts {
		s.TotalSlots += c.Total
		s.OccupiedSlots += c.Occupied
		s.MaintenanceSlots += c.Maintenance
	}
	s.Initialized = s.TotalSlots > 0
	return s
}

// Slots returns every slot in inventory order.
func (l *Lot) Slots() []model.Slot { return l.registry.List() }

// Slot returns a single slot.
func (l *Lot) Slot(id string) (model.Slot, error) { return l.registry.Get(id) }

// ActiveSessions returns open sessions, oldest first.
func (l *Lot) ActiveSessions() []model.Session { return l.ledger.ListActive() }

// AllSessions returns every session, newest first.
func (l *Lot) AllSessions() []model.Session { return l.ledger.ListAll() }

// Session returns a single session.
func (l *Lot) Session(id string) (model.Session, error) { return l.ledger.Get(id) }

// Vehicle returns a vehicle record.
func (l *Lot) Vehicle(id string) (model.Vehicle, error) { return l.ledger.Vehicle(id) }

// Rates returns the billing rates in effect.
func (l *Lot) Rates() Rates { return l.billing.Rates() }

// Restore rebuilds the lot from a snapshot.  The snapshot must satisfy the
// occupancy invariant: every occupied slot is held by exactly one active
// session of the occupying vehicle, and every active session points at
// such a slot.
func (l *Lot) Restore(ctx context.Context, snap Snapshot) error {
	if err := checkSnapshot(snap); err != nil {
		return err
	}
	if err := l.registry.Restore(snap.Slots); err != nil {
		return err
	}
	if err := l.ledger.Restore(snap.Vehicles, snap.Sessions); err != nil {
		return err
	}
	l.metrics.occupancy(l.registry.Counts())
	logging.Info(ctx).
		Int("slots", len(snap.Slots)).
		Int("vehicles", len(snap.Vehicles)).
		Int("sessions", len(snap.Sessions)).
		Msg("state restored")
	return nil
}

func checkSnapshot(snap Snapshot) error {
	occupant := make(map[string]string, len(snap.Slots))
	for _, s := range snap.Slots {
		if err := checkOccupancy(s); err != nil {
			return err
		}
		if s.Status == model.SlotOccupied {
			occupant[s.ID] = s.OccupantID
		}
	}
	held := make(map[string]bool, len(occupant))
	for _, s := range snap.Sessions {
		if !s.Active() {
			continue
		}
		vid, ok := occupant[s.Slot.ID]
		if !ok {
			return fmt.Errorf("%w: active session %s points at slot %s which is not occupied", ErrInvalidInput, s.ID, s.Slot.Name)
		}
		if vid != s.Vehicle.ID {
			return fmt.Errorf("%w: slot %s occupant does not match session %s", ErrInvalidInput, s.Slot.Name, s.ID)
		}
		if held[s.Slot.ID] {
			return fmt.Errorf("%w: slot %s has two active sessions", ErrInvalidInput, s.Slot.Name)
		}
		held[s.Slot.ID] = true
	}
	if len(held) != len(occupant) {
		return fmt.Errorf("%w: %d occupied slot(s) without an active session", ErrInvalidInput, len(occupant)-len(held))
	}
	return nil
}

func (l *Lot) publish(ctx context.Context, kind model.SessionEventKind, s model.Session) {
	if l.publisher == nil {
		return
	}
	ev := model.NewSessionEvent(kind, s, l.clock().UTC())
	if err := l.publisher.PublishSessionEvent(ctx, ev); err != nil {
		l.metrics.publishFailed()
		logging.Warn(ctx).Err(err).Str("session", s.ID).Str("kind", string(kind)).Msg("publish session event")
	}
}

func (l *Lot) journalFailed(ctx context.Context, op string, err error) {
	l.metrics.journalFailed(op)
	logging.Error(ctx).Err(err).Str("op", op).Msg("journal write failed")
}
