package repository

import (
    "context"
    "database/sql"
    "fmt"
    "time"

    "github.com/iliyamo/smart-parking/internal/model"
)

// VehicleRepo provides data access to the vehicles table.  A plate number
// is unique; re-registering a plate updates the stored vehicle type.
type VehicleRepo struct {
    db *sql.DB
}

func NewVehicleRepo(db *sql.DB) *VehicleRepo { return &VehicleRepo{db: db} }

// Upsert inserts the vehicle or refreshes its type.
func (r *VehicleRepo) Upsert(ctx context.Context, v model.Vehicle) error {
    _, err := r.db.ExecContext(ctx,
        `INSERT INTO vehicles (id, number, vehicle_type, created_at) VALUES (?, ?, ?, ?)
         ON DUPLICATE KEY UPDATE vehicle_type = VALUES(vehicle_type)`,
        v.ID, v.Number, v.Type.String(), v.CreatedAt.UTC(),
    )
    return err
}

// List returns every vehicle.
func (r *VehicleRepo) List(ctx context.Context) ([]model.Vehicle, error) {
    rows, err := r.db.QueryContext(ctx, `SELECT id, number, vehicle_type, created_at FROM vehicles`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.Vehicle
    for rows.Next() {
        var (
            v  model.Vehicle
            vt string
        )
        if err := rows.Scan(&v.ID, &v.Number, &vt, &v.CreatedAt); err != nil {
            return nil, err
        }
        if v.Type, err = parseVehicleType(v.ID, vt); err != nil {
            return nil, err
        }
        v.CreatedAt = v.CreatedAt.UTC()
        out = append(out, v)
    }
    return out, rows.Err()
}

func parseVehicleType(id, s string) (model.VehicleType, error) {
    t, err := model.ParseVehicleType(s)
    if err != nil {
        return 0, fmt.Errorf("vehicle %s: %v: %w", id, err, ErrCorruptRow)
    }
    return t, nil
}

// utc returns t in UTC, leaving the zero value alone.
func utc(t time.Time) time.Time {
    if t.IsZero() {
        return t
    }
    return t.UTC()
}
