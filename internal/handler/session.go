package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// GetActiveSessions lists open sessions, oldest entry first.
// GET /api/sessions/get
func (h *ParkingHandler) GetActiveSessions(c echo.Context) error {
    return succeed(c, http.StatusOK, "active sessions fetched", echo.Map{
        "sessions": toSessionDTOs(h.Lot.ActiveSessions()),
    })
}

// GetAllSessions lists every session, newest entry first.
// GET /api/sessions/gets
func (h *ParkingHandler) GetAllSessions(c echo.Context) error {
    return succeed(c, http.StatusOK, "sessions fetched", echo.Map{
        "sessions": toSessionDTOs(h.Lot.AllSessions()),
    })
}

// GetSession returns one session by id.
// GET /api/sessions/get/:sessionId
func (h *ParkingHandler) GetSession(c echo.Context) error {
    id, err := pathID(c, "sessionId")
    if err != nil {
        return failWith(c, err)
    }
    s, err := h.Lot.Session(id)
    if err != nil {
        return failWith(c, err)
    }
    return succeed(c, http.StatusOK, "session fetched", echo.Map{
        "session": toSessionDTO(s),
    })
}
