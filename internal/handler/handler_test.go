package handler

import (
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"

    "github.com/iliyamo/motel-occupancy/internal/inventory"
    "github.com/iliyamo/motel-occupancy/internal/repository"
    "github.com/iliyamo/motel-occupancy/internal/service"
)

type fixture struct {
    e      *echo.Echo
    store  *repository.MemoryStore
    rooms  *service.RoomRegistry
    report *ReportHandler
}

func newFixture(t *testing.T) *fixture {
    t.Helper()
    store := repository.NewMemoryStore()
    _, err := store.ProvisionRooms(context.Background(), inventory.Default().Rooms())
    require.NoError(t, err)

    rooms := service.NewRoomRegistry(store)
    t.Cleanup(rooms.Close)
    ledger := service.NewBookingLedger(store, rooms)
    coord := service.NewLifecycleCoordinator(store, rooms, ledger, nil, zap.NewNop())

    rh := NewRoomHandler(rooms, zap.NewNop())
    gh := NewGuestHandler(coord, ledger, zap.NewNop())
    rep := NewReportHandler(service.NewReportingAggregator(rooms, ledger), zap.NewNop())

    e := echo.New()
    e.GET("/healthz", Health)
    e.GET("/v1/rooms", rh.List)
    e.POST("/v1/guests", gh.Register)
    e.GET("/v1/guests", gh.List)
    e.PUT("/v1/guests/check-in", gh.CheckInByBody)
    e.PUT("/v1/guests/check-out", gh.CheckOutByBody)
    e.GET("/v1/bookings/:id", gh.Get)
    e.POST("/v1/bookings/:id/check-in", gh.CheckIn)
    e.POST("/v1/bookings/:id/check-out", gh.CheckOut)
    e.GET("/v1/reports/sales", rep.Sales)
    e.GET("/v1/reports/sales.xlsx", rep.SalesWorkbook)
    e.GET("/v1/reports/occupancy", rep.Occupancy)
    return &fixture{e: e, store: store, rooms: rooms, report: rep}
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
    var req *http.Request
    if body == "" {
        req = httptest.NewRequest(method, path, nil)
    } else {
        req = httptest.NewRequest(method, path, strings.NewReader(body))
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    rec := httptest.NewRecorder()
    f.e.ServeHTTP(rec, req)
    return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
    t.Helper()
    var out T
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
    return out
}

const guestBody = `{
    "roomNumber": %d,
    "fullName": "Ada Lovelace",
    "telephoneNo": "555-0100",
    "email": "ada@example.com",
    "idOrPassportNo": "P1234567",
    "paymentMethod": "card",
    "paymentAmount": %d,
    "modeOfPayment": "online",
    "transactionOrReceipt": "TX-1",
    "checkIn": "%s",
    "checkOut": "%s"
}`

func registerBody(room int, amount int64, in, out string) string {
    return fmt.Sprintf(guestBody, room, amount, in, out)
}

func (f *fixture) register(t *testing.T, room int, amount int64, in string) bookingView {
    t.Helper()
    rec := f.do(http.MethodPost, "/v1/guests", registerBody(room, amount, in, "2099-12-31"))
    require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
    return decode[bookingView](t, rec)
}

func TestHealth(t *testing.T) {
    f := newFixture(t)
    rec := f.do(http.MethodGet, "/healthz", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "ok", rec.Body.String())
}

func TestListRooms(t *testing.T) {
    f := newFixture(t)
    rec := f.do(http.MethodGet, "/v1/rooms", "")
    require.Equal(t, http.StatusOK, rec.Code)

    rooms := decode[[]roomView](t, rec)
    require.Len(t, rooms, 7)
    for i, rm := range rooms {
        assert.Equal(t, i+1, rm.Number)
        assert.EqualValues(t, "free", rm.Status)
        assert.NotEmpty(t, rm.ID)
    }
}

func TestListRooms_EmptyInventory(t *testing.T) {
    store := repository.NewMemoryStore()
    rooms := service.NewRoomRegistry(store)
    t.Cleanup(rooms.Close)
    e := echo.New()
    e.GET("/v1/rooms", NewRoomHandler(rooms, zap.NewNop()).List)

    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/rooms", nil))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestGuestLifecycle(t *testing.T) {
    f := newFixture(t)

    b := f.register(t, 5, 12000, "2024-01-10")
    assert.Equal(t, 5, b.Room.Number)
    assert.EqualValues(t, "booked", b.Status)
    assert.Equal(t, "2024-01-10", b.CheckIn)
    assert.Equal(t, "Ada Lovelace", b.FullName)

    rec := f.do(http.MethodPut, "/v1/guests/check-in", `{"guestId":"`+b.ID+`"}`)
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    assert.EqualValues(t, "checked-in", decode[bookingView](t, rec).Status)

    rm, err := f.rooms.GetRoomByNumber(context.Background(), 5)
    require.NoError(t, err)
    assert.EqualValues(t, "occupied", rm.Status)

    rec = f.do(http.MethodPost, "/v1/bookings/"+b.ID+"/check-out", "")
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    assert.EqualValues(t, "checked-out", decode[bookingView](t, rec).Status)

    rec = f.do(http.MethodPost, "/v1/bookings/"+b.ID+"/check-out", "")
    assert.Equal(t, http.StatusConflict, rec.Code)
    assert.Equal(t, codeInvalidTransition, decode[map[string]string](t, rec)["code"])

    rec = f.do(http.MethodGet, "/v1/bookings/"+b.ID, "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.EqualValues(t, "checked-out", decode[bookingView](t, rec).Status)
}

func TestRegister_Errors(t *testing.T) {
    f := newFixture(t)
    f.register(t, 2, 100, "2024-01-10")

    cases := []struct {
        name string
        body string
        code int
        err  string
    }{
        {"malformed json", `{"roomNumber":`, http.StatusBadRequest, codeInvalidInput},
        {"missing fields", `{"roomNumber": 3}`, http.StatusBadRequest, codeInvalidInput},
        {"checkout before checkin", registerBody(3, 100, "2024-01-10", "2024-01-09"), http.StatusBadRequest, codeInvalidInput},
        {"negative amount", registerBody(3, -1, "2024-01-10", "2024-01-11"), http.StatusBadRequest, codeInvalidInput},
        {"room taken", registerBody(2, 100, "2024-01-10", "2024-01-11"), http.StatusConflict, codeRoomUnavailable},
        {"unknown room", registerBody(99, 100, "2024-01-10", "2024-01-11"), http.StatusConflict, codeRoomUnavailable},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            rec := f.do(http.MethodPost, "/v1/guests", tc.body)
            assert.Equal(t, tc.code, rec.Code, rec.Body.String())
            assert.Equal(t, tc.err, decode[map[string]string](t, rec)["code"])
        })
    }
}

func TestCheckIn_Errors(t *testing.T) {
    f := newFixture(t)

    rec := f.do(http.MethodPut, "/v1/guests/check-in", `{}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)

    rec = f.do(http.MethodPut, "/v1/guests/check-in", `{"guestId":"nope"}`)
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.Equal(t, codeNotFound, decode[map[string]string](t, rec)["code"])

    rec = f.do(http.MethodGet, "/v1/bookings/nope", "")
    assert.Equal(t, http.StatusNotFound, rec.Code)

    b := f.register(t, 1, 100, "2024-01-10")
    rec = f.do(http.MethodPut, "/v1/guests/check-out", `{"guestId":"`+b.ID+`"}`)
    assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListGuests(t *testing.T) {
    f := newFixture(t)
    a := f.register(t, 1, 100, "2024-01-10")
    f.register(t, 2, 100, "2024-01-10")
    require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/v1/bookings/"+a.ID+"/check-in", "").Code)

    type page struct {
        Items []bookingView `json:"items"`
        Count int           `json:"count"`
    }

    all := decode[page](t, f.do(http.MethodGet, "/v1/guests", ""))
    assert.Equal(t, 2, all.Count)
    assert.Len(t, all.Items, 2)

    in := decode[page](t, f.do(http.MethodGet, "/v1/guests?status=CHECKED_IN", ""))
    require.Equal(t, 1, in.Count)
    assert.Equal(t, a.ID, in.Items[0].ID)
    assert.Equal(t, 1, in.Items[0].Room.Number)

    out := decode[page](t, f.do(http.MethodGet, "/v1/guests?status=checked-out", ""))
    assert.Zero(t, out.Count)
    assert.NotNil(t, out.Items)

    rec := f.do(http.MethodGet, "/v1/guests?status=gone", "")
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSalesReport(t *testing.T) {
    f := newFixture(t)
    f.report.Now = func() time.Time { return time.Date(2024, 1, 8, 15, 0, 0, 0, time.Local) }

    f.register(t, 1, 50, "2023-12-20")
    b := f.register(t, 2, 100, "2024-01-05")
    require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/v1/bookings/"+b.ID+"/check-in", "").Code)

    rec := f.do(http.MethodGet, "/v1/reports/sales?since=2024-01-01", "")
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    got := decode[salesView](t, rec)
    assert.EqualValues(t, 100, got.Sales)
    assert.Equal(t, 1, got.GuestCount)
    assert.Equal(t, 1, got.BookedRooms)
    assert.Equal(t, 1, got.OccupiedRooms)
    assert.Equal(t, 5, got.FreeRooms)
    require.Len(t, got.GuestDetails, 1)
    assert.Equal(t, guestDetail{
        FullName:      "Ada Lovelace",
        CheckIn:       "2024-01-05",
        CheckOut:      "2099-12-31",
        PaymentAmount: 100,
        Status:        "checked-in",
        Room:          roomRef{Number: 2},
    }, got.GuestDetails[0])

    weekly := decode[salesView](t, f.do(http.MethodGet, "/v1/reports/sales?period=weekly", ""))
    assert.Equal(t, 1, weekly.GuestCount)

    rfc := decode[salesView](t, f.do(http.MethodGet, "/v1/reports/sales?since=2023-12-01T00:00:00Z", ""))
    assert.EqualValues(t, 150, rfc.Sales)
}

func TestSalesReport_DailyWestOfUTC(t *testing.T) {
    f := newFixture(t)
    ny := time.FixedZone("UTC-5", -5*60*60)
    f.report.Now = func() time.Time { return time.Date(2024, 1, 10, 15, 0, 0, 0, ny) }

    f.register(t, 1, 80, "2024-01-10")
    f.register(t, 2, 40, "2024-01-09")

    rec := f.do(http.MethodGet, "/v1/reports/sales?period=daily", "")
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    got := decode[salesView](t, rec)
    assert.Equal(t, 1, got.GuestCount)
    assert.EqualValues(t, 80, got.Sales)
    assert.True(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC).Equal(got.PeriodStart))

    rec = f.do(http.MethodGet, "/v1/reports/sales?since=2024-01-10T09:00:00-05:00", "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, 1, decode[salesView](t, rec).GuestCount)
}

func TestSalesReport_BadQuery(t *testing.T) {
    f := newFixture(t)
    for _, q := range []string{"period=yearly", "since=yesterday", "period=daily&since=2024-01-01"} {
        rec := f.do(http.MethodGet, "/v1/reports/sales?"+q, "")
        assert.Equal(t, http.StatusBadRequest, rec.Code, q)
    }
}

func TestOccupancyReport(t *testing.T) {
    f := newFixture(t)
    f.register(t, 3, 100, "2024-01-10")

    rec := f.do(http.MethodGet, "/v1/reports/occupancy", "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"free":6,"booked":1,"occupied":0,"total":7}`, rec.Body.String())
}

func TestSalesWorkbook(t *testing.T) {
    f := newFixture(t)
    f.register(t, 3, 100, "2024-01-10")

    rec := f.do(http.MethodGet, "/v1/reports/sales.xlsx?since=2024-01-01", "")
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    assert.Equal(t, xlsxContentType, rec.Header().Get(echo.HeaderContentType))
    assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "sales-2024-01-01.xlsx")
    assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"))

    rec = f.do(http.MethodGet, "/v1/reports/sales.xlsx?period=hourly", "")
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}
