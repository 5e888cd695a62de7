// Package handler exposes the occupancy core over HTTP/JSON.  Handlers bind
// and shape requests; every rule lives in the service package.  Errors are
// written as {"error": "...", "code": "..."}.
package handler

import (
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/motel-occupancy/internal/model"
    "github.com/iliyamo/motel-occupancy/internal/repository"
)

// Error codes returned in the "code" field.
const (
    codeInvalidInput      = "invalid_input"
    codeNotFound          = "not_found"
    codeRoomUnavailable   = "room_unavailable"
    codeInvalidTransition = "invalid_transition"
    codeStorageFailure    = "storage_failure"
)

// writeError maps a service error onto a status code.  Storage failures and
// anything unclassified become a 500 with a generic message; the cause is
// only logged.
func writeError(c echo.Context, log *zap.Logger, err error) error {
    var status int
    var code string
    switch {
    case errors.Is(err, repository.ErrInvalidInput):
        status, code = http.StatusBadRequest, codeInvalidInput
    case errors.Is(err, repository.ErrNotFound):
        status, code = http.StatusNotFound, codeNotFound
    case errors.Is(err, repository.ErrRoomUnavailable):
        status, code = http.StatusConflict, codeRoomUnavailable
    case errors.Is(err, repository.ErrInvalidTransition):
        status, code = http.StatusConflict, codeInvalidTransition
    default:
        log.Error("request failed",
            zap.String("method", c.Request().Method), zap.String("route", c.Path()), zap.Error(err))
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal storage error", "code": codeStorageFailure})
    }
    return c.JSON(status, echo.Map{"error": err.Error(), "code": code})
}

func badRequest(c echo.Context, msg string) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": msg, "code": codeInvalidInput})
}

type roomRef struct {
    ID     string `json:"id,omitempty"`
    Number int    `json:"number"`
}

// bookingView is the wire shape of a booking: guest fields flattened,
// calendar dates as YYYY-MM-DD and the room nested.
type bookingView struct {
    ID     string  `json:"id"`
    RoomID string  `json:"roomId"`
    Room   roomRef `json:"room"`
    model.Guest
    CheckIn   string              `json:"checkIn"`
    CheckOut  string              `json:"checkOut"`
    Status    model.BookingStatus `json:"status"`
    CreatedAt time.Time           `json:"createdAt"`
    UpdatedAt time.Time           `json:"updatedAt"`
}

func newBookingView(d model.BookingDetail) bookingView {
    return bookingView{
        ID:        d.ID,
        RoomID:    d.RoomID,
        Room:      roomRef{ID: d.RoomID, Number: d.RoomNumber},
        Guest:     d.Guest,
        CheckIn:   d.CheckIn.Format(model.DateLayout),
        CheckOut:  d.CheckOut.Format(model.DateLayout),
        Status:    d.Status,
        CreatedAt: d.CreatedAt,
        UpdatedAt: d.UpdatedAt,
    }
}
