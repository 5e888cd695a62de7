package handler

import (
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/motel-occupancy/internal/model"
    "github.com/iliyamo/motel-occupancy/internal/report"
    "github.com/iliyamo/motel-occupancy/internal/repository"
    "github.com/iliyamo/motel-occupancy/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
    Reports *service.ReportingAggregator
    Log     *zap.Logger
    // Now is the clock periods are resolved against; local time by default.
    Now func() time.Time
}

func NewReportHandler(reports *service.ReportingAggregator, log *zap.Logger) *ReportHandler {
    if reports == nil {
        panic("nil reporting aggregator passed to NewReportHandler")
    }
    return &ReportHandler{Reports: reports, Log: log, Now: time.Now}
}

type guestDetail struct {
    FullName      string  `json:"fullName"`
    CheckIn       string  `json:"checkIn"`
    CheckOut      string  `json:"checkOut"`
    PaymentAmount int64   `json:"paymentAmount"`
    Status        string  `json:"status"`
    Room          roomRef `json:"room"`
}

type salesView struct {
    PeriodStart   time.Time     `json:"periodStart"`
    Sales         int64         `json:"sales"`
    GuestCount    int           `json:"guestCount"`
    BookedRooms   int           `json:"bookedRooms"`
    OccupiedRooms int           `json:"occupiedRooms"`
    FreeRooms     int           `json:"freeRooms"`
    GuestDetails  []guestDetail `json:"guestDetails"`
}

// periodStart reads ?since=<RFC3339 or YYYY-MM-DD> or ?period=daily|weekly|monthly.
// With neither, the period defaults to daily.  Check-ins are calendar dates,
// so a since timestamp counts from its own calendar date.
func (h *ReportHandler) periodStart(c echo.Context) (time.Time, error) {
    since := strings.TrimSpace(c.QueryParam("since"))
    period := c.QueryParam("period")
    if since != "" && period != "" {
        return time.Time{}, repository.Invalidf("use either period or since, not both")
    }
    if since != "" {
        if t, err := time.Parse(time.RFC3339, since); err == nil {
            return report.CalendarDate(t), nil
        }
        if t, err := time.Parse(model.DateLayout, since); err == nil {
            return t, nil
        }
        return time.Time{}, repository.Invalidf("since %q is not an RFC3339 timestamp or date", since)
    }
    return report.ResolvePeriod(period, h.Now())
}

// Sales handles GET /v1/reports/sales.
func (h *ReportHandler) Sales(c echo.Context) error {
    start, err := h.periodStart(c)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    s, err := h.Reports.Summary(c.Request().Context(), start)
    if err != nil {
        return writeError(c, h.Log, err)
    }

    out := salesView{
        PeriodStart:   s.PeriodStart,
        Sales:         s.Sales,
        GuestCount:    s.GuestCount,
        BookedRooms:   s.Occupancy.Booked,
        OccupiedRooms: s.Occupancy.Occupied,
        FreeRooms:     s.Occupancy.Free,
        GuestDetails:  make([]guestDetail, 0, len(s.Bookings)),
    }
    for _, b := range s.Bookings {
        out.GuestDetails = append(out.GuestDetails, guestDetail{
            FullName:      b.FullName,
            CheckIn:       b.CheckIn.Format(model.DateLayout),
            CheckOut:      b.CheckOut.Format(model.DateLayout),
            PaymentAmount: b.PaymentAmount,
            Status:        string(b.Status),
            Room:          roomRef{Number: b.RoomNumber},
        })
    }
    return c.JSON(http.StatusOK, out)
}

// Occupancy handles GET /v1/reports/occupancy.
func (h *ReportHandler) Occupancy(c echo.Context) error {
    snap, err := h.Reports.OccupancySnapshot(c.Request().Context())
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, snap)
}

// SalesWorkbook handles GET /v1/reports/sales.xlsx.
func (h *ReportHandler) SalesWorkbook(c echo.Context) error {
    start, err := h.periodStart(c)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    s, err := h.Reports.SalesSummary(c.Request().Context(), start)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    data, err := report.WriteSalesWorkbook(s.PeriodStart, s.Bookings)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    name := fmt.Sprintf("sales-%s.xlsx", start.Format(model.DateLayout))
    c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
    return c.Blob(http.StatusOK, xlsxContentType, data)
}
