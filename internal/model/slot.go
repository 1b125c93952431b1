package model

import (
    "fmt"
    "strings"
    "time"
)

// SlotType is the physical class of a parking slot.  The set is closed;
// values outside the declared constants are rejected by ParseSlotType and
// by the text codecs.
type SlotType uint8

const (
    SlotRegular SlotType = iota + 1
    SlotCompact
    SlotEV
    SlotHandicap
)

// SlotTypes lists every slot type in inventory order.  Slot names and
// summaries follow this order.
var SlotTypes = []SlotType{SlotRegular, SlotCompact, SlotEV, SlotHandicap}

func (t SlotType) String() string {
    switch t {
    case SlotRegular:
        return "regular"
    case SlotCompact:
        return "compact"
    case SlotEV:
        return "ev"
    case SlotHandicap:
        return "handicap-accessible"
    }
    return fmt.Sprintf("SlotType(%d)", uint8(t))
}

// Prefix returns the letter used when naming slots of this type (R1, C1, E1, H1).
func (t SlotType) Prefix() string {
    switch t {
    case SlotRegular:
        return "R"
    case SlotCompact:
        return "C"
    case SlotEV:
        return "E"
    case SlotHandicap:
        return "H"
    }
    return "X"
}

// Valid reports whether t is one of the declared slot types.
func (t SlotType) Valid() bool {
    return t >= SlotRegular && t <= SlotHandicap
}

// ParseSlotType accepts the canonical names case-insensitively.  "handicap"
// is accepted as a short form of "handicap-accessible".
func ParseSlotType(s string) (SlotType, error) {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "regular":
        return SlotRegular, nil
    case "compact":
        return SlotCompact, nil
    case "ev":
        return SlotEV, nil
    case "handicap-accessible", "handicap":
        return SlotHandicap, nil
    }
    return 0, fmt.Errorf("unknown slot type %q", s)
}

func (t SlotType) MarshalText() ([]byte, error) {
    if !t.Valid() {
        return nil, fmt.Errorf("invalid slot type %d", uint8(t))
    }
    return []byte(t.String()), nil
}

func (t *SlotType) UnmarshalText(b []byte) error {
    v, err := ParseSlotType(string(b))
    if err != nil {
        return err
    }
    *t = v
    return nil
}

// SlotStatus is the occupancy state of a slot.
type SlotStatus uint8

const (
    SlotAvailable SlotStatus = iota + 1
    SlotOccupied
    SlotMaintenance
)

func (s SlotStatus) String() string {
    switch s {
    case SlotAvailable:
        return "available"
    case SlotOccupied:
        return "occupied"
    case SlotMaintenance:
        return "maintenance"
    }
    return fmt.Sprintf("SlotStatus(%d)", uint8(s))
}

func ParseSlotStatus(s string) (SlotStatus, error) {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "available":
        return SlotAvailable, nil
    case "occupied":
        return SlotOccupied, nil
    case "maintenance":
        return SlotMaintenance, nil
    }
    return 0, fmt.Errorf("unknown slot status %q", s)
}

func (s SlotStatus) MarshalText() ([]byte, error) {
    if s < SlotAvailable || s > SlotMaintenance {
        return nil, fmt.Errorf("invalid slot status %d", uint8(s))
    }
    return []byte(s.String()), nil
}

func (s *SlotStatus) UnmarshalText(b []byte) error {
    v, err := ParseSlotStatus(string(b))
    if err != nil {
        return err
    }
    *s = v
    return nil
}

// Slot is a single physical parking space.  A slot is occupied exactly
// when OccupantID is set; a slot in maintenance never has an occupant.
//
// Fields:
//  ID         – opaque identifier (uuid).
//  Name       – display name, type prefix plus 1-based ordinal (R1, C2).
//  Type       – physical class, fixed at creation.
//  Status     – available, occupied or maintenance.
//  Position   – inventory order; lower positions are allocated first.
//  OccupantID – id of the parked vehicle, empty unless occupied.
//  UpdatedAt  – time of the last status transition.
type Slot struct {
    ID         string     // slots.id
    Name       string     // slots.name
    Type       SlotType   // slots.slot_type
    Status     SlotStatus // slots.status
    Position   int        // slots.position
    OccupantID string     // slots.vehicle_id (nullable)
    UpdatedAt  time.Time  // slots.updated_at
}

// SlotRef is the non-owning reference a session keeps to its slot.
type SlotRef struct {
    ID   string
    Name string
    Type SlotType
}

// Ref returns the reference form of the slot.
func (s Slot) Ref() SlotRef {
    return SlotRef{ID: s.ID, Name: s.Name, Type: s.Type}
}

// Inventory is the number of slots to create per type.
type Inventory map[SlotType]int

// Total returns the number of slots across all types.
func (inv Inventory) Total() int {
    n := 0
    for _, c := range inv {
        n += c
    }
    return n
}
