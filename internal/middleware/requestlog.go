package middleware

import (
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/smart-parking/internal/logging"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

// RequestID assigns every request an id, reusing a well-formed incoming
// X-Request-ID, and stores it in the request context for logging.
func RequestID() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            id := c.Request().Header.Get(HeaderRequestID)
            if _, err := uuid.Parse(id); err != nil {
                id = uuid.NewString()
            }
            req := c.Request()
            c.SetRequest(req.WithContext(logging.ContextWithRequestID(req.Context(), id)))
            c.Response().Header().Set(HeaderRequestID, id)
            return next(c)
        }
    }
}

// AccessLog writes one structured line per request after it completes.
func AccessLog() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                // let the error handler write the response first so the
                // logged status is the one the client sees
                c.Error(err)
            }
            req := c.Request()
            logging.Info(req.Context()).
                Str("method", req.Method).
                Str("route", c.Path()).
                Str("path", req.URL.Path).
                Str("remote", c.RealIP()).
                Int("status", c.Response().Status).
                Int64("bytes", c.Response().Size).
                Dur("duration", time.Since(start)).
                Msg("request")
            return nil
        }
    }
}
