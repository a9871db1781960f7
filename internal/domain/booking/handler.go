package booking

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/praxis/praxis/pkg/pagination"
)

// Handler exposes the booking operations over HTTP.
type Handler struct {
	svc *Service
}

// NewHandler creates a Handler for the given service.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the scheduling routes on the given echo group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/scheduling/slots", h.ListSlots)
	g.POST("/scheduling/appointments", h.BookAppointment)
	g.GET("/scheduling/appointments", h.ListAppointments)
}

// timeLayouts accepted for from/to/start values, tried in order.
var timeLayouts = []string{"2006-01-02 15:04", "2006-01-02", time.RFC3339}

func parseTimeParam(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q (want YYYY-MM-DD HH:MM)", value)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidDate), errors.Is(err, ErrInvalidAppointmentType):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrSlotUnavailable):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

type slotsResponse struct {
	Type  AppointmentType `json:"appointment_type"`
	Count int             `json:"count"`
	Slots []time.Time     `json:"slots"`
}

// ListSlots handles GET /scheduling/slots.
// Query parameters: type (required), from, to, optimized.
func (h *Handler) ListSlots(c echo.Context) error {
	typ, err := ParseAppointmentType(c.QueryParam("type"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	from, err := parseTimeParam(c.QueryParam("from"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	to, err := parseTimeParam(c.QueryParam("to"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var slots []time.Time
	if c.QueryParam("optimized") == "true" {
		slots, err = h.svc.FreeSlotsOptimized(c.Request().Context(), from, to, typ)
	} else {
		slots, err = h.svc.FreeSlots(c.Request().Context(), from, to, typ)
	}
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, slotsResponse{Type: typ, Count: len(slots), Slots: slots})
}

type bookRequest struct {
	Start string `json:"start"`
	Type  string `json:"appointment_type"`
}

// BookAppointment handles POST /scheduling/appointments.
func (h *Handler) BookAppointment(c echo.Context) error {
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	typ, err := ParseAppointmentType(req.Type)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	start, err := parseTimeParam(req.Start)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if start.IsZero() {
		return echo.NewHTTPError(http.StatusBadRequest, "start is required")
	}

	appt, err := h.svc.Book(c.Request().Context(), start, typ)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, appt)
}

// ListAppointments handles GET /scheduling/appointments.
func (h *Handler) ListAppointments(c echo.Context) error {
	from, err := parseTimeParam(c.QueryParam("from"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	to, err := parseTimeParam(c.QueryParam("to"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	appointments, err := h.svc.ListAppointments(c.Request().Context(), from, to)
	if err != nil {
		return httpError(err)
	}
	if appointments == nil {
		appointments = []*Appointment{}
	}

	page := pagination.FromContext(c)
	start, end := page.Window(len(appointments))
	return c.JSON(http.StatusOK, pagination.NewResponse(appointments[start:end], len(appointments), page))
}
