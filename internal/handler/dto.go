package handler

import (
    "time"

    "github.com/iliyamo/smart-parking/internal/model"
)

// Wire forms.  Field names follow what the dashboard and map clients
// already read, including the underscore-prefixed ids.

type SlotDTO struct {
    ID        string `json:"_id"`
    Name      string `json:"name"`
    Type      string `json:"type"`
    Status    string `json:"status"`
    VehicleID string `json:"vehicleId,omitempty"`
}

type VehicleDTO struct {
    ID          string `json:"_id"`
    Number      string `json:"number"`
    VehicleType string `json:"vehicleType"`
}

type SlotRefDTO struct {
    ID   string `json:"_id"`
    Name string `json:"name"`
    Type string `json:"type"`
}

type SessionDTO struct {
    ID          string     `json:"_id"`
    Vehicle     VehicleDTO `json:"parkVehicle"`
    Slot        SlotRefDTO `json:"parkSlot"`
    BillingType string     `json:"billingType"`
    EntryTime   time.Time  `json:"entryTime"`
    ExitTime    *time.Time `json:"exitTime,omitempty"`
    Amount      *int64     `json:"amount,omitempty"`
    Status      string     `json:"status"`
}

// ParkingSpaceDTO is the aggregate read by the dashboard.  The
// <type>SlotAvailable lists hold slot ids; <type>EmptySlot is their count.
type ParkingSpaceDTO struct {
    Initialized         bool  `json:"initialized"`
    TotalSlots          int   `json:"totalSlots"`
    OccupiedSlots       int   `json:"occupiedSlots"`
    MaintenanceSlots    int   `json:"maintenanceSlots"`
    ActiveSessions      int   `json:"activeSessions"`
    TotalMoneyCollected int64 `json:"totalMoneyCollected"`

    RegularSlotAvailable  []string `json:"regularSlotAvailable"`
    CompactSlotAvailable  []string `json:"compactSlotAvailable"`
    EVSlotAvailable       []string `json:"evSlotAvailable"`
    HandicapSlotAvailable []string `json:"handicapSlotAvailable"`

    RegularEmptySlot  int `json:"regularEmptySlot"`
    CompactEmptySlot  int `json:"compactEmptySlot"`
    EVEmptySlot       int `json:"evEmptySlot"`
    HandicapEmptySlot int `json:"handicapEmptySlot"`
}

func toSlotDTO(s model.Slot) SlotDTO {
    return SlotDTO{
        ID:        s.ID,
        Name:      s.Name,
        Type:      s.Type.String(),
        Status:    s.Status.String(),
        VehicleID: s.OccupantID,
    }
}

func toSlotDTOs(slots []model.Slot) []SlotDTO {
    out := make([]SlotDTO, 0, len(slots))
    for _, s := range slots {
        out = append(out, toSlotDTO(s))
    }
    return out
}

func toVehicleDTO(v model.Vehicle) VehicleDTO {
    return VehicleDTO{ID: v.ID, Number: v.Number, VehicleType: v.Type.String()}
}

func toSessionDTO(s model.Session) SessionDTO {
    return SessionDTO{
        ID:          s.ID,
        Vehicle:     toVehicleDTO(s.Vehicle),
        Slot:        SlotRefDTO{ID: s.Slot.ID, Name: s.Slot.Name, Type: s.Slot.Type.String()},
        BillingType: s.BillingType.String(),
        EntryTime:   s.EntryTime,
        ExitTime:    s.ExitTime,
        Amount:      s.Amount,
        Status:      s.Status.String(),
    }
}

func toSessionDTOs(sessions []model.Session) []SessionDTO {
    out := make([]SessionDTO, 0, len(sessions))
    for _, s := range sessions {
        out = append(out, toSessionDTO(s))
    }
    return out
}

func toParkingSpaceDTO(sum model.Summary) ParkingSpaceDTO {
    available := func(t model.SlotType) []string {
        ids := sum.ByType[t].Available
        if ids == nil {
            ids = []string{}
        }
        return ids
    }
    dto := ParkingSpaceDTO{
        Initialized:           sum.Initialized,
        TotalSlots:            sum.TotalSlots,
        OccupiedSlots:         sum.OccupiedSlots,
        MaintenanceSlots:      sum.MaintenanceSlots,
        ActiveSessions:        sum.ActiveSessions,
        TotalMoneyCollected:   sum.TotalMoneyCollected,
        RegularSlotAvailable:  available(model.SlotRegular),
        CompactSlotAvailable:  available(model.SlotCompact),
        EVSlotAvailable:       available(model.SlotEV),
        HandicapSlotAvailable: available(model.SlotHandicap),
    }
    dto.RegularEmptySlot = len(dto.RegularSlotAvailable)
    dto.CompactEmptySlot = len(dto.CompactSlotAvailable)
    dto.EVEmptySlot = len(dto.EVSlotAvailable)
    dto.HandicapEmptySlot = len(dto.HandicapSlotAvailable)
    return dto
}
