package handler // handler translates HTTP requests into parking operations

import (
    "errors"   // errors matches sentinel values from the parking core
    "net/http" // net/http provides status codes

    "github.com/labstack/echo/v4" // echo provides the request context

    "github.com/iliyamo/smart-parking/internal/logging" // logging reports unexpected failures
    "github.com/iliyamo/smart-parking/internal/parking" // parking defines the error taxonomy
)

// succeed writes a {success:true, message, ...payload} body.
func succeed(c echo.Context, status int, message string, payload echo.Map) error {
    body := echo.Map{"success": true, "message": message}
    for k, v := range payload {
        body[k] = v
    }
    return c.JSON(status, body)
}

// fail writes a {success:false, message} body.
func fail(c echo.Context, status int, message string) error {
    return c.JSON(status, echo.Map{"success": false, "message": message})
}

// StatusFor maps an error from the parking core to an HTTP status.
func StatusFor(err error) int {
    switch {
    case errors.Is(err, parking.ErrNotFound):
        return http.StatusNotFound
    case errors.Is(err, parking.ErrInvalidInput):
        return http.StatusBadRequest
    case errors.Is(err, parking.ErrConflict),
        errors.Is(err, parking.ErrAlreadyClosed),
        errors.Is(err, parking.ErrVehicleParked),
        errors.Is(err, parking.ErrNoCapacity),
        errors.Is(err, parking.ErrNotInitialized):
        return http.StatusConflict
    default:
        // ErrInvalidInterval lands here: corrupted timestamps are a server fault
        return http.StatusInternalServerError
    }
}

// failWith reports err using the status StatusFor picks.  Messages of
// internal errors are not leaked to the client.
func failWith(c echo.Context, err error) error {
    status := StatusFor(err)
    if status == http.StatusInternalServerError {
        logging.Error(c.Request().Context()).Err(err).Str("route", c.Path()).Msg("request failed")
        return fail(c, status, "internal error")
    }
    return fail(c, status, err.Error())
}

// HTTPErrorHandler renders errors that escape handlers and middleware
// (router misses, binder failures, panics recovered by echo) with the
// same envelope the handlers use.
func HTTPErrorHandler(err error, c echo.Context) {
    if c.Response().Committed {
        return
    }
    var he *echo.HTTPError
    if errors.As(err, &he) {
        msg := http.StatusText(he.Code)
        if s, ok := he.Message.(string); ok && s != "" {
            msg = s
        }
        if he.Code >= http.StatusInternalServerError {
            logging.Error(c.Request().Context()).Err(err).Msg("http error")
        }
        if c.Request().Method == http.MethodHead {
            _ = c.NoContent(he.Code)
            return
        }
        _ = fail(c, he.Code, msg)
        return
    }
    _ = failWith(c, err)
}
