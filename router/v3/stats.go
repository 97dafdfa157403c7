package v3

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetStats GET /stats
func (h *Handlers) GetStats(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"version":  h.Version,
		"revision": h.Revision,
		"rooms":    h.Rooms.GetRoomStats(),
		"presence": h.Presence.GetPresenceStats(),
		"events":   h.Events.GetEventStats(),
	})
}
