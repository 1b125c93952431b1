package parking

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/smart-parking/internal/model"
)

// Ledger owns sessions and vehicle records.  It guarantees at most one
// active session per vehicle: a plate is reserved before a slot is
// claimed and stays bound to its session until the session closes.
//
// Lock order is Ledger, then Registry.  The registry never calls back
// into the ledger.  Changes reach the sink while l.mu is held.
type Ledger struct {
	mu        sync.RWMutex
	sessions  map[string]model.Session
	vehicles  map[string]model.Vehicle // by id
	byNumber  map[string]string        // plate -> vehicle id
	parked    map[string]string        // plate -> active session id, "" while pending
	collected int64

	billing  *Billing
	registry *Registry
	now      func() time.Time
	sink     changeSink
}

// NewLedger returns an empty ledger.  now defaults to time.Now.
func NewLedger(billing *Billing, registry *Registry, now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{
		sessions: map[string]model.Session{},
		vehicles: map[string]model.Vehicle{},
		byNumber: map[string]string{},
		parked:   map[string]string{},
		billing:  billing,
		registry: registry,
		now:      now,
	}
}

// Reserve marks a plate as entering.  It fails with ErrVehicleParked when
// the plate already has an active or pending session.
func (l *Ledger) Reserve(number string) error {
	if number == "" {
		return fmt.Errorf("%w: empty vehicle number", ErrInvalidInput)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.parked[number]; ok {
		return fmt.Errorf("%s: %w", number, ErrVehicleParked)
	}
	l.parked[number] = ""
	return nil
}

// Unreserve drops a pending reservation.  A plate bound to an open
// session is left untouched.
func (l *Ledger) Unreserve(number string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if id, ok := l.parked[number]; ok && id == "" {
		delete(l.parked, number)
	}
}

// PrepareVehicle returns the stored vehicle for number with its type set
// to t, or a new unsaved vehicle.  The record is stored by Open.
func (l *Ledger) PrepareVehicle(number string, t model.VehicleType) model.Vehicle {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if id, ok := l.byNumber[number]; ok {
		v := l.vehicles[id]
		v.Type = t
		return v
	}
	return model.Vehicle{
		ID:        uuid.NewString(),
		Number:    number,
		Type:      t,
		CreatedAt: l.now().UTC(),
	}
}

// UpsertVehicle stores v, replacing any record with the same id.
func (l *Ledger) UpsertVehicle(v model.Vehicle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.upsertVehicle(v)
}

func (l *Ledger) upsertVehicle(v model.Vehicle) {
	l.vehicles[v.ID] = v
	l.byNumber[v.Number] = v.ID
	if l.sink != nil {
		l.sink.vehicleChanged(v)
	}
}

// Open starts an active session for v in slot.  The plate must have been
// reserved; the reservation becomes bound to the new session.
func (l *Ledger) Open(v model.Vehicle, slot model.Slot, bt model.BillingType) (model.Session, error) {
	if !bt.Valid() {
		return model.Session{}, fmt.Errorf("%w: billing type %s", ErrInvalidInput, bt)
	}
	if !v.Type.Valid() {
		return model.Session{}, fmt.Errorf("%w: vehicle type %s", ErrInvalidInput, v.Type)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if id, ok := l.parked[v.Number]; ok && id != "" {
		return model.Session{}, fmt.Errorf("%s: %w", v.Number, ErrVehicleParked)
	}
	l.upsertVehicle(v)
	s := model.Session{
		ID:          uuid.NewString(),
		Vehicle:     v,
		Slot:        slot.Ref(),
		BillingType: bt,
		EntryTime:   l.now().UTC(),
		Status:      model.SessionActive,
	}
	l.sessions[s.ID] = s
	l.parked[v.Number] = s.ID
	if l.sink != nil {
		l.sink.sessionChanged(s)
	}
	return s, nil
}

// Close completes an active session, bills it and releases its slot.  A
// session that is not active is left unchanged and ErrAlreadyClosed is
// returned.
func (l *Ledger) Close(id string) (model.Session, model.Slot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.sessions[id]
	if !ok {
		return model.Session{}, model.Slot{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if !s.Active() {
		return s, model.Slot{}, fmt.Errorf("session %s is %s: %w", id, s.Status, ErrAlreadyClosed)
	}
	exit := l.now().UTC()
	amount, err := l.billing.ComputeAmount(s.BillingType, s.EntryTime, exit)
	if err != nil {
		return s, model.Slot{}, fmt.Errorf("session %s: %w", id, err)
	}
	slot, err := l.registry.Release(s.Slot.ID)
	if err != nil {
		return s, model.Slot{}, fmt.Errorf("session %s: release %s: %w", id, s.Slot.Name, err)
	}
	s.ExitTime = &exit
	s.Amount = &amount
	s.Status = model.SessionCompleted
	l.sessions[id] = s
	l.collected += amount
	delete(l.parked, s.Vehicle.Number)
	if l.sink != nil {
		l.sink.sessionChanged(s)
	}
	return s, slot, nil
}

// Get returns the session with the given id.
func (l *Ledger) Get(id string) (model.Session, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.sessions[id]
	if !ok {
		return model.Session{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return s, nil
}

// Vehicle returns the vehicle with the given id.
func (l *Ledger) Vehicle(id string) (model.Vehicle, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.vehicles[id]
	if !ok {
		return model.Vehicle{}, fmt.Errorf("vehicle %s: %w", id, ErrNotFound)
	}
	return v, nil
}

// ListActive returns active sessions ordered by entry time, oldest first.
func (l *Ledger) ListActive() []model.Session {
	l.mu.RLock()
	out := make([]model.Session, 0, len(l.parked))
	for _, s := range l.sessions {
		if s.Active() {
			out = append(out, s)
		}
	}
	l.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EntryTime.Equal(out[j].EntryTime) {
			return out[i].EntryTime.Before(out[j].EntryTime)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ListAll returns every session ordered by entry time, newest first.
func (l *Ledger) ListAll() []model.Session {
	l.mu.RLock()
	out := make([]model.Session, 0, len(l.sessions))
	for _, s := range l.sessions {
		out = append(out, s)
	}
	l.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EntryTime.Equal(out[j].EntryTime) {
			return out[i].EntryTime.After(out[j].EntryTime)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ActiveCount returns the number of active sessions.
func (l *Ledger) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, id := range l.parked {
		if id != "" {
			n++
		}
	}
	return n
}

// TotalCollected returns the sum of amounts over completed sessions.
func (l *Ledger) TotalCollected() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.collected
}

// WithoutActive runs fn while no session is active or pending.  New
// reservations wait until fn returns.  ErrConflict is returned without
// calling fn when a vehicle is parked or entering.
func (l *Ledger) WithoutActive(fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n := len(l.parked); n > 0 {
		return fmt.Errorf("%d vehicle(s) parked or entering: %w", n, ErrConflict)
	}
	return fn()
}

// Restore replaces the ledger contents with records loaded from storage.
// Session vehicle snapshots are refreshed from vehicles when present.
func (l *Ledger) Restore(vehicles []model.Vehicle, sessions []model.Session) error {
	vs := make(map[string]model.Vehicle, len(vehicles))
	byNumber := make(map[string]string, len(vehicles))
	for _, v := range vehicles {
		if v.ID == "" || v.Number == "" {
			return fmt.Errorf("%w: vehicle without id or number", ErrInvalidInput)
		}
		if _, dup := byNumber[v.Number]; dup {
			return fmt.Errorf("%w: duplicate vehicle number %s", ErrInvalidInput, v.Number)
		}
		vs[v.ID] = v
		byNumber[v.Number] = v.ID
	}
	ss := make(map[string]model.Session, len(sessions))
	parked := map[string]string{}
	var collected int64
	for _, s := range sessions {
		if v, ok := vs[s.Vehicle.ID]; ok {
			s.Vehicle = v
		}
		switch s.Status {
		case model.SessionActive:
			if s.ExitTime != nil || s.Amount != nil {
				return fmt.Errorf("%w: active session %s has exit data", ErrInvalidInput, s.ID)
			}
			if _, dup := parked[s.Vehicle.Number]; dup {
				return fmt.Errorf("%w: vehicle %s has two active sessions", ErrInvalidInput, s.Vehicle.Number)
			}
			parked[s.Vehicle.Number] = s.ID
		case model.SessionCompleted:
			if s.Amount != nil {
				collected += *s.Amount
			}
		case model.SessionCancelled:
		default:
			return fmt.Errorf("%w: session %s has status %s", ErrInvalidInput, s.ID, s.Status)
		}
		ss[s.ID] = s
	}
	l.mu.Lock()
	l.vehicles, l.byNumber, l.sessions, l.parked, l.collected = vs, byNumber, ss, parked, collected
	l.mu.Unlock()
	return nil
}
