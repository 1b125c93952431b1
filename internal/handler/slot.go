package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// GetSlots lists every slot in inventory order.
// GET /api/slot/get
func (h *ParkingHandler) GetSlots(c echo.Context) error {
    return succeed(c, http.StatusOK, "slots fetched", echo.Map{
        "slots": toSlotDTOs(h.Lot.Slots()),
    })
}

// EnterMaintenance takes a slot out of service.  Repeating the call on a
// slot already in maintenance succeeds without changes.
// POST /api/slot/maintenance/:slotId
func (h *ParkingHandler) EnterMaintenance(c echo.Context) error {
    id, err := pathID(c, "slotId")
    if err != nil {
        return failWith(c, err)
    }
    slot, err := h.Lot.EnterMaintenance(c.Request().Context(), id)
    if err != nil {
        return failWith(c, err)
    }
    return succeed(c, http.StatusOK, "slot "+slot.Name+" is under maintenance", echo.Map{
        "slot": toSlotDTO(slot),
    })
}

// ExitMaintenance returns a slot to service.
// DELETE /api/slot/maintenance/:slotId
func (h *ParkingHandler) ExitMaintenance(c echo.Context) error {
    id, err := pathID(c, "slotId")
    if err != nil {
        return failWith(c, err)
    }
    slot, err := h.Lot.ExitMaintenance(c.Request().Context(), id)
    if err != nil {
        return failWith(c, err)
    }
    return succeed(c, http.StatusOK, "slot "+slot.Name+" is available", echo.Map{
        "slot": toSlotDTO(slot),
    })
}
