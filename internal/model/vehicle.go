package model

import (
    "fmt"
    "strings"
    "time"
    "unicode"
)

// VehicleType is the class of vehicle declared at entry.
type VehicleType uint8

const (
    VehicleCar VehicleType = iota + 1
    VehicleBike
    VehicleEV
    VehicleHandicap
)

// String returns the wire form used by the web client.
func (t VehicleType) String() string {
    switch t {
    case VehicleCar:
        return "car"
    case VehicleBike:
        return "bike"
    case VehicleEV:
        return "EV"
    case VehicleHandicap:
        return "Handicap-Accessible"
    }
    return fmt.Sprintf("VehicleType(%d)", uint8(t))
}

func (t VehicleType) Valid() bool {
    return t >= VehicleCar && t <= VehicleHandicap
}

// ParseVehicleType is case-insensitive so both the form values
// ("ev", "handicap-accessible") and the normalized values ("EV",
// "Handicap-Accessible") are accepted.
func ParseVehicleType(s string) (VehicleType, error) {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "car":
        return VehicleCar, nil
    case "bike":
        return VehicleBike, nil
    case "ev":
        return VehicleEV, nil
    case "handicap-accessible":
        return VehicleHandicap, nil
    }
    return 0, fmt.Errorf("unknown vehicle type %q", s)
}

func (t VehicleType) MarshalText() ([]byte, error) {
    if !t.Valid() {
        return nil, fmt.Errorf("invalid vehicle type %d", uint8(t))
    }
    return []byte(t.String()), nil
}

func (t *VehicleType) UnmarshalText(b []byte) error {
    v, err := ParseVehicleType(string(b))
    if err != nil {
        return err
    }
    *t = v
    return nil
}

// Vehicle is identified by its normalized plate number.  A record is
// created the first time a plate registers and reused afterwards.
//
// Fields:
//  ID        – opaque identifier (uuid).
//  Number    – normalized plate, see NormalizePlate.
//  Type      – type declared at the latest entry.
//  CreatedAt – first registration time.
type Vehicle struct {
    ID        string      // vehicles.id
    Number    string      // vehicles.number
    Type      VehicleType // vehicles.vehicle_type
    CreatedAt time.Time   // vehicles.created_at
}

// NormalizePlate trims the plate, drops inner whitespace and upper-cases it.
func NormalizePlate(raw string) string {
    var b strings.Builder
    for _, r := range strings.TrimSpace(raw) {
        if unicode.IsSpace(r) {
            continue
        }
        b.WriteRune(unicode.ToUpper(r))
    }
    return b.String()
}
