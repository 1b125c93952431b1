package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/smart-parking/internal/model"
)

// initializeReq is the optional body of POST /api/parking-space/initialize.
// A missing body or all zero counts selects the configured inventory.
type initializeReq struct {
    Regular  int `json:"regular" validate:"gte=0,lte=10000"`
    Compact  int `json:"compact" validate:"gte=0,lte=10000"`
    EV       int `json:"ev" validate:"gte=0,lte=10000"`
    Handicap int `json:"handicap" validate:"gte=0,lte=10000"`
}

// GetParkingSpace returns the aggregate view of the lot.
// GET /api/parking-space/get
func (h *ParkingHandler) GetParkingSpace(c echo.Context) error {
    return succeed(c, http.StatusOK, "parking space fetched", echo.Map{
        "parkingSpace": toParkingSpaceDTO(h.Lot.Summary()),
    })
}

// InitializeParkingSpace replaces the slot inventory.  It fails with 409
// while vehicles are parked.
// POST /api/parking-space/initialize
func (h *ParkingHandler) InitializeParkingSpace(c echo.Context) error {
    var req initializeReq
    if err := bindAndValidate(c, &req); err != nil {
        return failWith(c, err)
    }
    inv := model.Inventory{
        model.SlotRegular:  req.Regular,
        model.SlotCompact:  req.Compact,
        model.SlotEV:       req.EV,
        model.SlotHandicap: req.Handicap,
    }
    slots, err := h.Lot.Initialize(c.Request().Context(), inv)
    if err != nil {
        return failWith(c, err)
    }
    return succeed(c, http.StatusCreated, "parking space initialized", echo.Map{
        "parkingSpace": toParkingSpaceDTO(h.Lot.Summary()),
        "slots":        toSlotDTOs(slots),
    })
}
