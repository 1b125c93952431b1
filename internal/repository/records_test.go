package repository

import (
    "database/sql"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/smart-parking/internal/model"
)

func TestSlotRecordToModel(t *testing.T) {
    at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
    rec := slotRecord{
        ID: "a", Name: "E2", Type: "ev", Status: "occupied", Position: 4,
        VehicleID: sql.NullString{String: "v1", Valid: true}, UpdatedAt: at,
    }

    s, err := rec.toModel()
    require.NoError(t, err)
    assert.Equal(t, model.Slot{
        ID: "a", Name: "E2", Type: model.SlotEV, Status: model.SlotOccupied,
        Position: 4, OccupantID: "v1", UpdatedAt: at,
    }, s)

    args := slotArgs(s)
    assert.Equal(t, "ev", args[2])
    assert.Equal(t, "occupied", args[3])
    assert.Equal(t, sql.NullString{String: "v1", Valid: true}, args[5])

    s.OccupantID = ""
    assert.Equal(t, sql.NullString{}, slotArgs(s)[5])
}

func TestSlotRecordRejectsUnknownValues(t *testing.T) {
    _, err := slotRecord{ID: "a", Type: "bus", Status: "available"}.toModel()
    assert.ErrorIs(t, err, ErrCorruptRow)
    _, err = slotRecord{ID: "a", Type: "regular", Status: "closed"}.toModel()
    assert.ErrorIs(t, err, ErrCorruptRow)
}

func TestSessionRecordRoundTrip(t *testing.T) {
    entry := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
    exit := entry.Add(95 * time.Minute)
    amount := int64(40)
    s := model.Session{
        ID:          "s1",
        Vehicle:     model.Vehicle{ID: "v1", Number: "KA01AB1234", Type: model.VehicleHandicap, CreatedAt: entry},
        Slot:        model.SlotRef{ID: "slot1", Name: "H1", Type: model.SlotHandicap},
        BillingType: model.BillingDayPass,
        EntryTime:   entry,
        ExitTime:    &exit,
        Amount:      &amount,
        Status:      model.SessionCompleted,
    }

    rec := sessionRecordFrom(s)
    assert.Equal(t, "Day-Pass", rec.BillingType)
    assert.Equal(t, "Handicap-Accessible", rec.VehicleType)
    assert.Equal(t, "handicap-accessible", rec.SlotType)

    back, err := rec.toModel()
    require.NoError(t, err)
    assert.Equal(t, s, back)
}

func TestSessionRecordActiveHasNoExitData(t *testing.T) {
    s := model.Session{
        ID:          "s1",
        Vehicle:     model.Vehicle{ID: "v1", Number: "AB12", Type: model.VehicleCar},
        Slot:        model.SlotRef{ID: "slot1", Name: "R1", Type: model.SlotRegular},
        BillingType: model.BillingHourly,
        EntryTime:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
        Status:      model.SessionActive,
    }
    rec := sessionRecordFrom(s)
    assert.False(t, rec.ExitTime.Valid)
    assert.False(t, rec.Amount.Valid)

    back, err := rec.toModel()
    require.NoError(t, err)
    assert.Nil(t, back.ExitTime)
    assert.Nil(t, back.Amount)
    assert.True(t, back.Active())
}

func TestSessionRecordRejectsUnknownStatus(t *testing.T) {
    rec := sessionRecord{ID: "s1", VehicleType: "car", SlotType: "regular", BillingType: "Hourly", Status: "paused"}
    _, err := rec.toModel()
    assert.ErrorIs(t, err, ErrCorruptRow)
}
