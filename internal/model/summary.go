package model

import "time"

// TypeSummary aggregates the slots of a single type.
type TypeSummary struct {
    Total       int
    Available   []string // ids of available slots in inventory order
    Occupied    int
    Maintenance int
}

// Summary is the aggregate view of the parking space read by the
// dashboard and map pages.
type Summary struct {
    Initialized         bool
    TotalSlots          int
    OccupiedSlots       int
    MaintenanceSlots    int
    ActiveSessions      int
    TotalMoneyCollected int64
    ByType              map[SlotType]TypeSummary
}

// SessionEventKind names what happened to a session.
type SessionEventKind string

const (
    EventSessionOpened SessionEventKind = "session.opened"
    EventSessionClosed SessionEventKind = "session.closed"
)

// SessionEvent is published after a session opens or closes.  It carries
// enough information for consumers to log or bill without querying the
// service.
type SessionEvent struct {
    Kind          SessionEventKind `json:"kind"`
    SessionID     string           `json:"session_id"`
    VehicleNumber string           `json:"vehicle_number"`
    VehicleType   string           `json:"vehicle_type"`
    SlotName      string           `json:"slot_name"`
    SlotType      string           `json:"slot_type"`
    BillingType   string           `json:"billing_type"`
    EntryTime     time.Time        `json:"entry_time"`
    ExitTime      *time.Time       `json:"exit_time,omitempty"`
    Amount        *int64           `json:"amount,omitempty"`
    OccurredAt    time.Time        `json:"occurred_at"`
}

// NewSessionEvent builds the event for s.
func NewSessionEvent(kind SessionEventKind, s Session, at time.Time) SessionEvent {
    return SessionEvent{
        Kind:          kind,
        SessionID:     s.ID,
        VehicleNumber: s.Vehicle.Number,
        VehicleType:   s.Vehicle.Type.String(),
        SlotName:      s.Slot.Name,
        SlotType:      s.Slot.Type.String(),
        BillingType:   s.BillingType.String(),
        EntryTime:     s.EntryTime,
        ExitTime:      s.ExitTime,
        Amount:        s.Amount,
        OccurredAt:    at,
    }
}
