package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/motel-occupancy/internal/model"
    "github.com/iliyamo/motel-occupancy/internal/service"
)

type RoomHandler struct {
    Rooms *service.RoomRegistry
    Log   *zap.Logger
}

func NewRoomHandler(rooms *service.RoomRegistry, log *zap.Logger) *RoomHandler {
    if rooms == nil {
        panic("nil room registry passed to NewRoomHandler")
    }
    return &RoomHandler{Rooms: rooms, Log: log}
}

type roomView struct {
    ID     string           `json:"id"`
    Number int              `json:"number"`
    Status model.RoomStatus `json:"status"`
}

// List handles GET /v1/rooms.  An empty inventory is an empty array.
func (h *RoomHandler) List(c echo.Context) error {
    rooms, err := h.Rooms.ListRooms(c.Request().Context())
    if err != nil {
        return writeError(c, h.Log, err)
    }
    out := make([]roomView, 0, len(rooms))
    for _, rm := range rooms {
        out = append(out, roomView{ID: rm.ID, Number: rm.Number, Status: rm.Status})
    }
    return c.JSON(http.StatusOK, out)
}
