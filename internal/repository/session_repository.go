package repository

import (
    "context"
    "database/sql"
    "fmt"
    "time"

    "github.com/iliyamo/smart-parking/internal/model"
)

// SessionRepo provides data access to the sessions table.  Slot name and
// type are denormalized into each row because the slot inventory can be
// re-created while history is kept.
type SessionRepo struct {
    db *sql.DB
}

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

// Upsert inserts a new session or records its closure.  Only exit_time,
// amount and status change after insert.
func (r *SessionRepo) Upsert(ctx context.Context, s model.Session) error {
    rec := sessionRecordFrom(s)
    _, err := r.db.ExecContext(ctx,
        `INSERT INTO sessions (id, vehicle_id, slot_id, slot_name, slot_type, billing_type, entry_time, exit_time, amount, status)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON DUPLICATE KEY UPDATE exit_time = VALUES(exit_time), amount = VALUES(amount), status = VALUES(status)`,
        rec.ID, rec.VehicleID, rec.SlotID, rec.SlotName, rec.SlotType, rec.BillingType,
        rec.EntryTime, rec.ExitTime, rec.Amount, rec.Status,
    )
    return err
}

// List returns every session joined with its vehicle, newest first.
func (r *SessionRepo) List(ctx context.Context) ([]model.Session, error) {
    const q = `SELECT s.id, s.vehicle_id, v.number, v.vehicle_type, v.created_at,
                      s.slot_id, s.slot_name, s.slot_type, s.billing_type,
                      s.entry_time, s.exit_time, s.amount, s.status
               FROM sessions s
               JOIN vehicles v ON v.id = s.vehicle_id
               ORDER BY s.entry_time DESC, s.id`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.Session
    for rows.Next() {
        var rec sessionRecord
        if err := rows.Scan(&rec.ID, &rec.VehicleID, &rec.VehicleNumber, &rec.VehicleType, &rec.VehicleCreatedAt,
            &rec.SlotID, &rec.SlotName, &rec.SlotType, &rec.BillingType,
            &rec.EntryTime, &rec.ExitTime, &rec.Amount, &rec.Status); err != nil {
            return nil, err
        }
        s, err := rec.toModel()
        if err != nil {
            return nil, err
        }
        out = append(out, s)
    }
    return out, rows.Err()
}

// sessionRecord mirrors one row of sessions joined with vehicles.
type sessionRecord struct {
    ID               string
    VehicleID        string
    VehicleNumber    string
    VehicleType      string
    VehicleCreatedAt time.Time
    SlotID           string
    SlotName         string
    SlotType         string
    BillingType      string
    EntryTime        time.Time
    ExitTime         sql.NullTime
    Amount           sql.NullInt64
    Status           string
}

func sessionRecordFrom(s model.Session) sessionRecord {
    rec := sessionRecord{
        ID:               s.ID,
        VehicleID:        s.Vehicle.ID,
        VehicleNumber:    s.Vehicle.Number,
        VehicleType:      s.Vehicle.Type.String(),
        VehicleCreatedAt: utc(s.Vehicle.CreatedAt),
        SlotID:           s.Slot.ID,
        SlotName:         s.Slot.Name,
        SlotType:         s.Slot.Type.String(),
        BillingType:      s.BillingType.String(),
        EntryTime:        s.EntryTime.UTC(),
        Status:           s.Status.String(),
    }
    if s.ExitTime != nil {
        rec.ExitTime = sql.NullTime{Time: s.ExitTime.UTC(), Valid: true}
    }
    if s.Amount != nil {
        rec.Amount = sql.NullInt64{Int64: *s.Amount, Valid: true}
    }
    return rec
}

func (rec sessionRecord) toModel() (model.Session, error) {
    corrupt := func(err error) (model.Session, error) {
        return model.Session{}, fmt.Errorf("session %s: %v: %w", rec.ID, err, ErrCorruptRow)
    }
    vt, err := parseVehicleType(rec.VehicleID, rec.VehicleType)
    if err != nil {
        return model.Session{}, err
    }
    st, err := model.ParseSlotType(rec.SlotType)
    if err != nil {
        return corrupt(err)
    }
    bt, err := model.ParseBillingType(rec.BillingType)
    if err != nil {
        return corrupt(err)
    }
    status, err := model.ParseSessionStatus(rec.Status)
    if err != nil {
        return corrupt(err)
    }
    s := model.Session{
        ID: rec.ID,
        Vehicle: model.Vehicle{
            ID:        rec.VehicleID,
            Number:    rec.VehicleNumber,
            Type:      vt,
            CreatedAt: utc(rec.VehicleCreatedAt),
        },
        Slot:        model.SlotRef{ID: rec.SlotID, Name: rec.SlotName, Type: st},
        BillingType: bt,
        EntryTime:   rec.EntryTime.UTC(),
        Status:      status,
    }
    if rec.ExitTime.Valid {
        t := rec.ExitTime.Time.UTC()
        s.ExitTime = &t
    }
    if rec.Amount.Valid {
        a := rec.Amount.Int64
        s.Amount = &a
    }
    return s, nil
}
