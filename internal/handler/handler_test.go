package handler

import (
    "errors"
    "fmt"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/smart-parking/internal/model"
    "github.com/iliyamo/smart-parking/internal/parking"
)

func TestStatusFor(t *testing.T) {
    cases := []struct {
        err    error
        status int
    }{
        {parking.ErrNotFound, http.StatusNotFound},
        {fmt.Errorf("slot x: %w", parking.ErrNotFound), http.StatusNotFound},
        {parking.ErrConflict, http.StatusConflict},
        {parking.ErrAlreadyClosed, http.StatusConflict},
        {parking.ErrVehicleParked, http.StatusConflict},
        {parking.ErrNoCapacity, http.StatusConflict},
        {parking.ErrNotInitialized, http.StatusConflict},
        {parking.ErrInvalidInput, http.StatusBadRequest},
        {parking.ErrInvalidInterval, http.StatusInternalServerError},
        {errors.New("boom"), http.StatusInternalServerError},
    }
    for _, tc := range cases {
        assert.Equal(t, tc.status, StatusFor(tc.err), tc.err.Error())
    }
}

func TestFailWithHidesInternalErrors(t *testing.T) {
    e := echo.New()
    rec := httptest.NewRecorder()
    c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

    require.NoError(t, failWith(c, errors.New("db password leaked")))
    assert.Equal(t, http.StatusInternalServerError, rec.Code)
    assert.JSONEq(t, `{"success":false,"message":"internal error"}`, rec.Body.String())
}

func TestHTTPErrorHandlerEnvelope(t *testing.T) {
    e := echo.New()
    rec := httptest.NewRecorder()
    c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

    HTTPErrorHandler(echo.NewHTTPError(http.StatusMethodNotAllowed), c)
    assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
    assert.JSONEq(t, `{"success":false,"message":"Method Not Allowed"}`, rec.Body.String())

    rec = httptest.NewRecorder()
    c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
    HTTPErrorHandler(fmt.Errorf("wrap: %w", parking.ErrNoCapacity), c)
    assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRequestValidatorNamesFields(t *testing.T) {
    v := NewRequestValidator()
    err := v.Validate(&registerReq{Number: "AB12"})
    require.Error(t, err)
    assert.Contains(t, err.Error(), "vehicleType failed on required")
    assert.Contains(t, err.Error(), "billingType failed on required")

    assert.NoError(t, v.Validate(&initializeReq{Regular: 2}))
    assert.Error(t, v.Validate(&initializeReq{Compact: -1}))
}

func TestSessionDTO(t *testing.T) {
    entry := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
    s := model.Session{
        ID:          "s1",
        Vehicle:     model.Vehicle{ID: "v1", Number: "AB12", Type: model.VehicleHandicap},
        Slot:        model.SlotRef{ID: "h1", Name: "H1", Type: model.SlotHandicap},
        BillingType: model.BillingDayPass,
        EntryTime:   entry,
        Status:      model.SessionActive,
    }
    dto := toSessionDTO(s)
    assert.Equal(t, "Handicap-Accessible", dto.Vehicle.VehicleType)
    assert.Equal(t, "handicap-accessible", dto.Slot.Type)
    assert.Equal(t, "Day-Pass", dto.BillingType)
    assert.Equal(t, "active", dto.Status)
    assert.Nil(t, dto.Amount)
}

func TestParkingSpaceDTOCounts(t *testing.T) {
    dto := toParkingSpaceDTO(model.Summary{
        Initialized: true,
        TotalSlots:  3,
        ByType: map[model.SlotType]model.TypeSummary{
            model.SlotRegular: {Total: 2, Available: []string{"a", "b"}},
            model.SlotEV:      {Total: 1, Occupied: 1},
        },
    })
    assert.Equal(t, 2, dto.RegularEmptySlot)
    assert.Equal(t, []string{"a", "b"}, dto.RegularSlotAvailable)
    assert.Equal(t, 0, dto.EVEmptySlot)
    assert.NotNil(t, dto.EVSlotAvailable)
    assert.NotNil(t, dto.HandicapSlotAvailable)
}
