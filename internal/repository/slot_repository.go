package repository

import (
    "context"
    "database/sql"
    "fmt"
    "time"

    "github.com/iliyamo/smart-parking/internal/model"
)

// SlotRepo provides data access to the slots table.  Slot types and
// statuses are stored by their canonical names.
type SlotRepo struct {
    db *sql.DB
}

// NewSlotRepo returns a new SlotRepo bound to the provided database.
func NewSlotRepo(db *sql.DB) *SlotRepo { return &SlotRepo{db: db} }

const slotColumns = `id, name, slot_type, status, position, vehicle_id, updated_at`

// ReplaceAllTx deletes every slot and inserts slots in their place.  The
// caller owns the transaction.
func (r *SlotRepo) ReplaceAllTx(ctx context.Context, tx *sql.Tx, slots []model.Slot) error {
    if _, err := tx.ExecContext(ctx, `DELETE FROM slots`); err != nil {
        return err
    }
    if len(slots) == 0 {
        return nil
    }
    query := `INSERT INTO slots (` + slotColumns + `) VALUES `
    args := make([]interface{}, 0, len(slots)*7)
    for i, s := range slots {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?, ?, ?, ?)"
        args = append(args, slotArgs(s)...)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// Upsert writes the current state of one slot.
func (r *SlotRepo) Upsert(ctx context.Context, s model.Slot) error {
    _, err := r.db.ExecContext(ctx,
        `INSERT INTO slots (`+slotColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
         ON DUPLICATE KEY UPDATE status = VALUES(status), vehicle_id = VALUES(vehicle_id), updated_at = VALUES(updated_at)`,
        slotArgs(s)...,
    )
    return err
}

// List returns every slot ordered by position.
func (r *SlotRepo) List(ctx context.Context) ([]model.Slot, error) {
    rows, err := r.db.QueryContext(ctx, `SELECT `+slotColumns+` FROM slots ORDER BY position`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.Slot
    for rows.Next() {
        var rec slotRecord
        if err := rows.Scan(&rec.ID, &rec.Name, &rec.Type, &rec.Status, &rec.Position, &rec.VehicleID, &rec.UpdatedAt); err != nil {
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

// slotRecord mirrors one row of the slots table.
type slotRecord struct {
    ID        string
    Name      string
    Type      string
    Status    string
    Position  int
    VehicleID sql.NullString
    UpdatedAt time.Time
}

func slotArgs(s model.Slot) []interface{} {
    return []interface{}{
        s.ID, s.Name, s.Type.String(), s.Status.String(), s.Position,
        nullString(s.OccupantID), s.UpdatedAt.UTC(),
    }
}

func (rec slotRecord) toModel() (model.Slot, error) {
    t, err := model.ParseSlotType(rec.Type)
    if err != nil {
        return model.Slot{}, fmt.Errorf("slot %s: %v: %w", rec.ID, err, ErrCorruptRow)
    }
    st, err := model.ParseSlotStatus(rec.Status)
    if err != nil {
        return model.Slot{}, fmt.Errorf("slot %s: %v: %w", rec.ID, err, ErrCorruptRow)
    }
    return model.Slot{
        ID:         rec.ID,
        Name:       rec.Name,
        Type:       t,
        Status:     st,
        Position:   rec.Position,
        OccupantID: rec.VehicleID.String,
        UpdatedAt:  rec.UpdatedAt.UTC(),
    }, nil
}

func nullString(s string) sql.NullString {
    return sql.NullString{String: s, Valid: s != ""}
}
