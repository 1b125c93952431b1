package handler

import (
    "fmt"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/smart-parking/internal/model"
    "github.com/iliyamo/smart-parking/internal/parking"
)

type registerReq struct {
    Number      string `json:"number" validate:"required,max=32"`
    VehicleType string `json:"vehicleType" validate:"required"`
    BillingType string `json:"billingType" validate:"required"`
}

// RegisterVehicle parks a vehicle in the first suitable free slot and
// opens its session.
// POST /api/vehicle/register
func (h *ParkingHandler) RegisterVehicle(c echo.Context) error {
    var req registerReq
    if err := bindAndValidate(c, &req); err != nil {
        return failWith(c, err)
    }
    vt, err := model.ParseVehicleType(req.VehicleType)
    if err != nil {
        return failWith(c, fmt.Errorf("%w: %v", parking.ErrInvalidInput, err))
    }
    bt, err := model.ParseBillingType(req.BillingType)
    if err != nil {
        return failWith(c, fmt.Errorf("%w: %v", parking.ErrInvalidInput, err))
    }

    session, slot, err := h.Lot.Register(c.Request().Context(), parking.RegisterInput{
        Number:      req.Number,
        VehicleType: vt,
        BillingType: bt,
    })
    if err != nil {
        return failWith(c, err)
    }
    return succeed(c, http.StatusCreated, "vehicle "+session.Vehicle.Number+" parked at "+slot.Name, echo.Map{
        "slot":    toSlotDTO(slot),
        "session": toSessionDTO(session),
    })
}

// ExitVehicle closes a session, bills it and frees the slot.
// POST /api/vehicle/exit/:sessionId
func (h *ParkingHandler) ExitVehicle(c echo.Context) error {
    id, err := pathID(c, "sessionId")
    if err != nil {
        return failWith(c, err)
    }
    session, err := h.Lot.Exit(c.Request().Context(), id)
    if err != nil {
        return failWith(c, err)
    }
    return succeed(c, http.StatusOK, "vehicle "+session.Vehicle.Number+" exited", echo.Map{
        "data": toSessionDTO(session),
    })
}

// GetVehicle returns a vehicle record by id.
// GET /api/vehicle/get/:vehicleId
func (h *ParkingHandler) GetVehicle(c echo.Context) error {
    id, err := pathID(c, "vehicleId")
    if err != nil {
        return failWith(c, err)
    }
    v, err := h.Lot.Vehicle(id)
    if err != nil {
        return failWith(c, err)
    }
    return succeed(c, http.StatusOK, "vehicle fetched", echo.Map{
        "vehicle": toVehicleDTO(v),
    })
}
