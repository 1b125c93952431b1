package parking

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/smart-parking/internal/model"
)

// slotEntry guards a single slot.  Transitions on one slot are serialized
// by its mutex; transitions on different slots do not contend.
type slotEntry struct {
	mu   sync.Mutex
	slot model.Slot
}

// Registry owns the slot inventory and every slot's occupancy state.
//
// The read lock protects the shape of the inventory (which slots exist and
// in which order); it is taken exclusively only when the inventory is
// replaced.  Each status change happens under the slot's own mutex, so a
// lookup followed by a transition on the same slot is atomic.
type Registry struct {
	mu     sync.RWMutex
	byID   map[string]*slotEntry
	order  []*slotEntry
	byType map[model.SlotType][]*slotEntry
	now    func() time.Time
	sink   changeSink
}

// NewRegistry returns an empty registry.  now defaults to time.Now.
func NewRegistry(now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		byID:   map[string]*slotEntry{},
		byType: map[model.SlotType][]*slotEntry{},
		now:    now,
	}
}

// Reset replaces the inventory with freshly created available slots.  Slots
// are created type by type in model.SlotTypes order and named with the
// type prefix and a 1-based ordinal.
func (r *Registry) Reset(inv model.Inventory) ([]model.Slot, error) {
	if err := validateInventory(inv); err != nil {
		return nil, err
	}
	now := r.now().UTC()
	slots := make([]model.Slot, 0, inv.Total())
	for _, t := range model.SlotTypes {
		for i := 1; i <= inv[t]; i++ {
			slots = append(slots, model.Slot{
				ID:        uuid.NewString(),
				Name:      t.Prefix() + strconv.Itoa(i),
				Type:      t,
				Status:    model.SlotAvailable,
				Position:  len(slots),
				UpdatedAt: now,
			})
		}
	}
	r.mu.Lock()
	r.install(slots)
	if r.sink != nil {
		r.sink.inventoryReplaced(slots)
	}
	r.mu.Unlock()
	return slots, nil
}

// Restore installs slots loaded from storage after checking the occupancy
// invariant on each of them.
func (r *Registry) Restore(slots []model.Slot) error {
	seen := make(map[string]struct{}, len(slots))
	for _, s := range slots {
		if s.ID == "" {
			return fmt.Errorf("%w: slot without id", ErrInvalidInput)
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("%w: duplicate slot id %s", ErrInvalidInput, s.ID)
		}
		seen[s.ID] = struct{}{}
		if !s.Type.Valid() {
			return fmt.Errorf("%w: slot %s has type %s", ErrInvalidInput, s.ID, s.Type)
		}
		if err := checkOccupancy(s); err != nil {
			return err
		}
	}
	sorted := make([]model.Slot, len(slots))
	copy(sorted, slots)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })
	r.mu.Lock()
	r.install(sorted)
	r.mu.Unlock()
	return nil
}

// install must be called with r.mu held for writing.
func (r *Registry) install(slots []model.Slot) {
	r.byID = make(map[string]*slotEntry, len(slots))
	r.byType = make(map[model.SlotType][]*slotEntry, len(model.SlotTypes))
	r.order = make([]*slotEntry, 0, len(slots))
	for _, s := range slots {
		e := &slotEntry{slot: s}
		r.byID[s.ID] = e
		r.order = append(r.order, e)
		r.byType[s.Type] = append(r.byType[s.Type], e)
	}
}

// Initialized reports whether an inventory has been installed.
func (r *Registry) Initialized() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order) > 0
}

// Get returns a copy of the slot with the given id.
func (r *Registry) Get(id string) (model.Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	if !ok {
		return model.Slot{}, fmt.Errorf("slot %s: %w", id, ErrNotFound)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.slot, nil
}

// List returns copies of all slots in inventory order.
func (r *Registry) List() []model.Slot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Slot, 0, len(r.order))
	for _, e := range r.order {
		e.mu.Lock()
		out = append(out, e.slot)
		e.mu.Unlock()
	}
	return out
}

// FindAvailable returns the available slot of type t with the lowest
// position.  The result is only a snapshot; use Claim to allocate.
func (r *Registry) FindAvailable(t model.SlotType) (model.Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.byType[t] {
		e.mu.Lock()
		s := e.slot
		e.mu.Unlock()
		if s.Status == model.SlotAvailable {
			return s, nil
		}
	}
	return model.Slot{}, fmt.Errorf("available %s slot: %w", t, ErrNotFound)
}

// Occupy marks an available slot as occupied by vehicleID.
func (r *Registry) Occupy(id, vehicleID string) (model.Slot, error) {
	if vehicleID == "" {
		return model.Slot{}, fmt.Errorf("%w: empty vehicle id", ErrInvalidInput)
	}
	return r.transition(id, func(s *model.Slot) error {
		if s.Status != model.SlotAvailable {
			return fmt.Errorf("slot %s is %s: %w", s.Name, s.Status, ErrConflict)
		}
		s.Status = model.SlotOccupied
		s.OccupantID = vehicleID
		return nil
	})
}

// Release frees an occupied slot.  Releasing an available slot is a no-op;
// a slot in maintenance cannot be released.
func (r *Registry) Release(id string) (model.Slot, error) {
	return r.transition(id, func(s *model.Slot) error {
		switch s.Status {
		case model.SlotOccupied, model.SlotAvailable:
			s.Status = model.SlotAvailable
			s.OccupantID = ""
			return nil
		case model.SlotMaintenance:
			return fmt.Errorf("slot %s is in maintenance: %w", s.Name, ErrConflict)
		}
		return fmt.Errorf("slot %s has status %s: %w", s.Name, s.Status, ErrConflict)
	})
}

// EnterMaintenance removes a slot from allocation.  It fails on an
// occupied slot and succeeds without change on a slot already in
// maintenance.
func (r *Registry) EnterMaintenance(id string) (model.Slot, error) {
	return r.transition(id, func(s *model.Slot) error {
		switch s.Status {
		case model.SlotOccupied:
			return fmt.Errorf("slot %s is occupied: %w", s.Name, ErrConflict)
		case model.SlotAvailable, model.SlotMaintenance:
			s.Status = model.SlotMaintenance
			return nil
		}
		return fmt.Errorf("slot %s has status %s: %w", s.Name, s.Status, ErrConflict)
	})
}

// ExitMaintenance returns a slot to allocation.  It succeeds without
// change on an available slot and fails on an occupied one.
func (r *Registry) ExitMaintenance(id string) (model.Slot, error) {
	return r.transition(id, func(s *model.Slot) error {
		switch s.Status {
		case model.SlotOccupied:
			return fmt.Errorf("slot %s is occupied: %w", s.Name, ErrConflict)
		case model.SlotAvailable, model.SlotMaintenance:
			s.Status = model.SlotAvailable
			return nil
		}
		return fmt.Errorf("slot %s has status %s: %w", s.Name, s.Status, ErrConflict)
	})
}

// Claim finds and occupies a slot as one atomic unit.  Types are tried in
// the given order and, within a type, slots in inventory order.
func (r *Registry) Claim(types []model.SlotType, vehicleID string) (model.Slot, error) {
	if vehicleID == "" {
		return model.Slot{}, fmt.Errorf("%w: empty vehicle id", ErrInvalidInput)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.order) == 0 {
		return model.Slot{}, ErrNotInitialized
	}
	now := r.now().UTC()
	for _, t := range types {
		for _, e := range r.byType[t] {
			e.mu.Lock()
			if e.slot.Status == model.SlotAvailable {
				e.slot.Status = model.SlotOccupied
				e.slot.OccupantID = vehicleID
				e.slot.UpdatedAt = now
				s := e.slot
				if r.sink != nil {
					r.sink.slotChanged(s)
				}
				e.mu.Unlock()
				return s, nil
			}
			e.mu.Unlock()
		}
	}
	return model.Slot{}, ErrNoCapacity
}

// Counts aggregates the inventory per slot type.
func (r *Registry) Counts() map[model.SlotType]model.TypeSummary {
	out := make(map[model.SlotType]model.TypeSummary, len(model.SlotTypes))
	for _, t := range model.SlotTypes {
		out[t] = model.TypeSummary{Available: []string{}}
	}
	for _, s := range r.List() {
		ts := out[s.Type]
		ts.Total++
		switch s.Status {
		case model.SlotAvailable:
			ts.Available = append(ts.Available, s.ID)
		case model.SlotOccupied:
			ts.Occupied++
		case model.SlotMaintenance:
			ts.Maintenance++
		}
		out[s.Type] = ts
	}
	return out
}

func (r *Registry) transition(id string, apply func(*model.Slot) error) (model.Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	if !ok {
		return model.Slot{}, fmt.Errorf("slot %s: %w", id, ErrNotFound)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	next := e.slot
	if err := apply(&next); err != nil {
		return e.slot, err
	}
	if next != e.slot {
		next.UpdatedAt = r.now().UTC()
		e.slot = next
		if r.sink != nil {
			r.sink.slotChanged(next)
		}
	}
	return e.slot, nil
}

func validateInventory(inv model.Inventory) error {
	for t, n := range inv {
		if !t.Valid() {
			return fmt.Errorf("%w: unknown slot type %s", ErrInvalidInput, t)
		}
		if n < 0 {
			return fmt.Errorf("%w: negative count for %s", ErrInvalidInput, t)
		}
	}
	if inv.Total() == 0 {
		return fmt.Errorf("%w: inventory has no slots", ErrInvalidInput)
	}
	return nil
}

func checkOccupancy(s model.Slot) error {
	switch s.Status {
	case model.SlotOccupied:
		if s.OccupantID == "" {
			return fmt.Errorf("%w: slot %s occupied without occupant", ErrInvalidInput, s.Name)
		}
	case model.SlotAvailable, model.SlotMaintenance:
		if s.OccupantID != "" {
			return fmt.Errorf("%w: slot %s is %s but has occupant", ErrInvalidInput, s.Name, s.Status)
		}
	default:
		return fmt.Errorf("%w: slot %s has status %s", ErrInvalidInput, s.Name, s.Status)
	}
	return nil
}
