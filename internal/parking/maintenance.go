package parking

import "github.com/iliyamo/smart-parking/internal/model"

// Maintenance toggles slots in and out of maintenance.  Both directions
// are idempotent so clients can retry without reading the slot first.
type Maintenance struct {
	registry *Registry
}

func NewMaintenance(registry *Registry) *Maintenance {
	return &Maintenance{registry: registry}
}

// Enter excludes the slot from allocation.  An occupied slot is rejected
// with ErrConflict so a parked vehicle is never stranded.
func (m *Maintenance) Enter(slotID string) (model.Slot, error) {
	return m.registry.EnterMaintenance(slotID)
}

// Exit makes the slot available again.
func (m *Maintenance) Exit(slotID string) (model.Slot, error) {
	return m.registry.ExitMaintenance(slotID)
}
