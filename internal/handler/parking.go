package handler

import (
    "fmt"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/smart-parking/internal/parking"
)

// ParkingHandler exposes the parking lot over HTTP.  All state lives in
// the Lot; the handler only binds, validates and shapes responses.
type ParkingHandler struct {
    Lot *parking.Lot
}

// NewParkingHandler panics when lot is nil.
func NewParkingHandler(lot *parking.Lot) *ParkingHandler {
    if lot == nil {
        panic("nil lot passed to NewParkingHandler")
    }
    return &ParkingHandler{Lot: lot}
}

// bindAndValidate binds the request into req and runs the registered
// validator.  Failures are reported as ErrInvalidInput.
func bindAndValidate(c echo.Context, req interface{}) error {
    if err := c.Bind(req); err != nil {
        return fmt.Errorf("%w: malformed request body", parking.ErrInvalidInput)
    }
    if err := c.Validate(req); err != nil {
        return fmt.Errorf("%w: %v", parking.ErrInvalidInput, err)
    }
    return nil
}

// pathID returns the named path parameter or ErrInvalidInput when it is
// blank.
func pathID(c echo.Context, name string) (string, error) {
    id := c.Param(name)
    if id == "" {
        return "", fmt.Errorf("%w: %s is required", parking.ErrInvalidInput, name)
    }
    return id, nil
}

// Health is registered next to the parking routes for load balancers.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}
