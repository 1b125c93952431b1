package model

import (
    "fmt"
    "strings"
    "time"
)

// BillingType is the pricing scheme chosen at entry.
type BillingType uint8

const (
    BillingHourly BillingType = iota + 1
    BillingDayPass
)

func (b BillingType) String() string {
    switch b {
    case BillingHourly:
        return "Hourly"
    case BillingDayPass:
        return "Day-Pass"
    }
    return fmt.Sprintf("BillingType(%d)", uint8(b))
}

func (b BillingType) Valid() bool {
    return b == BillingHourly || b == BillingDayPass
}

func ParseBillingType(s string) (BillingType, error) {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "hourly":
        return BillingHourly, nil
    case "day-pass", "daypass", "day pass":
        return BillingDayPass, nil
    }
    return 0, fmt.Errorf("unknown billing type %q", s)
}

func (b BillingType) MarshalText() ([]byte, error) {
    if !b.Valid() {
        return nil, fmt.Errorf("invalid billing type %d", uint8(b))
    }
    return []byte(b.String()), nil
}

func (b *BillingType) UnmarshalText(text []byte) error {
    v, err := ParseBillingType(string(text))
    if err != nil {
        return err
    }
    *b = v
    return nil
}

// SessionStatus tracks a session from entry to exit.
type SessionStatus uint8

const (
    SessionActive SessionStatus = iota + 1
    SessionCompleted
    SessionCancelled
)

func (s SessionStatus) String() string {
    switch s {
    case SessionActive:
        return "active"
    case SessionCompleted:
        return "completed"
    case SessionCancelled:
        return "cancelled"
    }
    return fmt.Sprintf("SessionStatus(%d)", uint8(s))
}

func ParseSessionStatus(s string) (SessionStatus, error) {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "active":
        return SessionActive, nil
    case "completed":
        return SessionCompleted, nil
    case "cancelled":
        return SessionCancelled, nil
    }
    return 0, fmt.Errorf("unknown session status %q", s)
}

func (s SessionStatus) MarshalText() ([]byte, error) {
    if s < SessionActive || s > SessionCancelled {
        return nil, fmt.Errorf("invalid session status %d", uint8(s))
    }
    return []byte(s.String()), nil
}

func (s *SessionStatus) UnmarshalText(b []byte) error {
    v, err := ParseSessionStatus(string(b))
    if err != nil {
        return err
    }
    *s = v
    return nil
}

// Session records one vehicle's stay in one slot.  Vehicle and Slot are
// snapshots kept for lookup and display; the ledger owns the session and
// the registry owns the slot state.
//
// Fields:
//  ID          – opaque identifier (uuid).
//  Vehicle     – vehicle parked for the lifetime of the session.
//  Slot        – slot the vehicle was assigned to.
//  BillingType – pricing scheme chosen at entry.
//  EntryTime   – when the session opened.
//  ExitTime    – when the session closed; nil while active.
//  Amount      – amount charged at close; nil while active.
//  Status      – active, completed or cancelled.
type Session struct {
    ID          string        // sessions.id
    Vehicle     Vehicle       // sessions.vehicle_id
    Slot        SlotRef       // sessions.slot_id, slot_name, slot_type
    BillingType BillingType   // sessions.billing_type
    EntryTime   time.Time     // sessions.entry_time
    ExitTime    *time.Time    // sessions.exit_time (nullable)
    Amount      *int64        // sessions.amount (nullable)
    Status      SessionStatus // sessions.status
}

// Active reports whether the session is still open.
func (s Session) Active() bool { return s.Status == SessionActive }
