package repository

import (
    "context"
    "database/sql"
    "fmt"

    "github.com/iliyamo/smart-parking/internal/model"
    "github.com/iliyamo/smart-parking/internal/parking"
)

// Store groups the repositories behind the parking.Journal interface and
// loads the snapshot the lot is restored from.
type Store struct {
    db       *sql.DB
    Slots    *SlotRepo
    Vehicles *VehicleRepo
    Sessions *SessionRepo
}

var _ parking.Journal = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
    return &Store{
        db:       db,
        Slots:    NewSlotRepo(db),
        Vehicles: NewVehicleRepo(db),
        Sessions: NewSessionRepo(db),
    }
}

// SaveInventory replaces the slot table in one transaction.
func (s *Store) SaveInventory(ctx context.Context, slots []model.Slot) (err error) {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    defer func() {
        if err != nil {
            _ = tx.Rollback()
        }
    }()
    if err = s.Slots.ReplaceAllTx(ctx, tx, slots); err != nil {
        return fmt.Errorf("replace slots: %w", err)
    }
    return tx.Commit()
}

func (s *Store) SaveSlot(ctx context.Context, slot model.Slot) error {
    return s.Slots.Upsert(ctx, slot)
}

func (s *Store) SaveVehicle(ctx context.Context, v model.Vehicle) error {
    return s.Vehicles.Upsert(ctx, v)
}

func (s *Store) SaveSession(ctx context.Context, sess model.Session) error {
    return s.Sessions.Upsert(ctx, sess)
}

// Load reads the full persisted state.
func (s *Store) Load(ctx context.Context) (parking.Snapshot, error) {
    var (
        snap parking.Snapshot
        err  error
    )
    if snap.Slots, err = s.Slots.List(ctx); err != nil {
        return snap, fmt.Errorf("load slots: %w", err)
    }
    if snap.Vehicles, err = s.Vehicles.List(ctx); err != nil {
        return snap, fmt.Errorf("load vehicles: %w", err)
    }
    if snap.Sessions, err = s.Sessions.List(ctx); err != nil {
        return snap, fmt.Errorf("load sessions: %w", err)
    }
    return snap, nil
}
