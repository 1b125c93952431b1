package parking

import (
	"fmt"

	"github.com/iliyamo/smart-parking/internal/model"
)

// Policy matches a vehicle to a compatible free slot.
type Policy struct {
	registry *Registry
}

// NewPolicy returns a policy allocating from registry.
func NewPolicy(registry *Registry) *Policy {
	return &Policy{registry: registry}
}

// Candidates returns the slot types a vehicle of type t may use, in the
// order they are tried.  Cars and bikes prefer regular slots and fall back
// to compact ones; EV and handicap-accessible vehicles only fit their
// dedicated slots.
func Candidates(t model.VehicleType) ([]model.SlotType, error) {
	switch t {
	case model.VehicleCar, model.VehicleBike:
		return []model.SlotType{model.SlotRegular, model.SlotCompact}, nil
	case model.VehicleEV:
		return []model.SlotType{model.SlotEV}, nil
	case model.VehicleHandicap:
		return []model.SlotType{model.SlotHandicap}, nil
	}
	return nil, fmt.Errorf("%w: vehicle type %s", ErrInvalidInput, t)
}

// Allocate claims a slot for v.  Find and occupy happen as one atomic
// unit; ErrNoCapacity is returned when no candidate slot is free.
func (p *Policy) Allocate(v model.Vehicle) (model.Slot, error) {
	types, err := Candidates(v.Type)
	if err != nil {
		return model.Slot{}, err
	}
	return p.registry.Claim(types, v.ID)
}
