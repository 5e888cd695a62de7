package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/motel-occupancy/internal/model"
    "github.com/iliyamo/motel-occupancy/internal/repository"
    "github.com/iliyamo/motel-occupancy/internal/service"
)

// GuestHandler serves registration, check-in, check-out and booking
// lookups.  Routes exist in two forms: the /v1 API and the legacy /guest
// paths older front desks still call.
type GuestHandler struct {
    Coordinator *service.LifecycleCoordinator
    Ledger      *service.BookingLedger
    Log         *zap.Logger
}

func NewGuestHandler(coord *service.LifecycleCoordinator, ledger *service.BookingLedger, log *zap.Logger) *GuestHandler {
    if coord == nil || ledger == nil {
        panic("nil dependency passed to NewGuestHandler")
    }
    return &GuestHandler{Coordinator: coord, Ledger: ledger, Log: log}
}

// Register handles POST /v1/guests and POST /guest/add.
func (h *GuestHandler) Register(c echo.Context) error {
    var reg service.Registration
    if err := c.Bind(&reg); err != nil {
        return badRequest(c, "invalid request body")
    }
    d, err := h.Coordinator.RegisterGuest(c.Request().Context(), reg)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, newBookingView(d))
}

type guestIDBody struct {
    GuestID string `json:"guestId"`
}

func bindGuestID(c echo.Context) (string, error) {
    var body guestIDBody
    if err := c.Bind(&body); err != nil {
        return "", repository.Invalidf("invalid request body")
    }
    id := strings.TrimSpace(body.GuestID)
    if id == "" {
        return "", repository.Invalidf("guestId is required")
    }
    return id, nil
}

// CheckInByBody handles PUT /v1/guests/check-in and PUT /guest/check-in
// with body {"guestId": "..."}.
func (h *GuestHandler) CheckInByBody(c echo.Context) error {
    id, err := bindGuestID(c)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return h.checkIn(c, id)
}

// CheckIn handles POST /v1/bookings/:id/check-in.
func (h *GuestHandler) CheckIn(c echo.Context) error {
    return h.checkIn(c, c.Param("id"))
}

func (h *GuestHandler) checkIn(c echo.Context, id string) error {
    d, err := h.Coordinator.CheckIn(c.Request().Context(), id)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, newBookingView(d))
}

// CheckOutByBody handles PUT /v1/guests/check-out.
func (h *GuestHandler) CheckOutByBody(c echo.Context) error {
    id, err := bindGuestID(c)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return h.checkOut(c, id)
}

// CheckOut handles POST /v1/bookings/:id/check-out.
func (h *GuestHandler) CheckOut(c echo.Context) error {
    return h.checkOut(c, c.Param("id"))
}

func (h *GuestHandler) checkOut(c echo.Context, id string) error {
    d, err := h.Coordinator.CheckOut(c.Request().Context(), id)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, newBookingView(d))
}

// List handles GET /v1/guests and GET /guest/list.  The optional status
// query parameter accepts booked, checked-in or checked-out.
func (h *GuestHandler) List(c echo.Context) error {
    var filter repository.BookingFilter
    if raw := c.QueryParam("status"); raw != "" {
        st, ok := model.ParseBookingStatus(raw)
        if !ok {
            return badRequest(c, "status must be booked, checked-in or checked-out")
        }
        filter.Status = st
    }

    items := []bookingView{}
    for d, err := range h.Ledger.ListBookings(c.Request().Context(), filter) {
        if err != nil {
            return writeError(c, h.Log, err)
        }
        items = append(items, newBookingView(d))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

// Get handles GET /v1/bookings/:id.
func (h *GuestHandler) Get(c echo.Context) error {
    d, err := h.Ledger.GetBooking(c.Request().Context(), c.Param("id"))
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, newBookingView(d))
}
