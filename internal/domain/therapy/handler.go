package therapy

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/coscyrix/mindbridge-sub003/internal/platform/auth"
	"github.com/coscyrix/mindbridge-sub003/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	staff := api.Group("", auth.RequireStaff())
	staff.POST("/thrpy-req", h.CreateRequest)
	staff.POST("/thrpy-req/group", h.CreateGroupRequest)
	staff.GET("/thrpy-req", h.ListRequests)
	staff.GET("/thrpy-req/:id", h.GetRequest)
	staff.PUT("/thrpy-req/:id/action", h.DischargeOrDelete)
	staff.PUT("/thrpy-req/:id/discard", h.DiscardRequest)

	staff.POST("/session", h.CreateAdditionalSession)
	staff.GET("/session/:id/window", h.RescheduleWindowFor)
	staff.PUT("/session/:id", h.EditSession)
	staff.PUT("/session/:id/status", h.SetSessionStatus)
	staff.PUT("/session/:id/cancel", h.CancelSession)
	staff.PUT("/session/:id/invoice", h.SetInvoiceNumber)
}

// httpError maps domain errors onto statuses: collisions are 409 with the
// normalized message, validation failures 400.
func httpError(err error) error {
	switch {
	case IsTimeConflict(err):
		return echo.NewHTTPError(http.StatusConflict, ErrTimeSlotTaken.Error())
	case errors.Is(err, ErrSessionInactive),
		errors.Is(err, ErrOutsideWindow),
		errors.Is(err, ErrResetNotAllowed):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func (h *Handler) CreateRequest(c echo.Context) error {
	var in CreateRequestInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req, err := h.svc.CreateRequest(c.Request().Context(), &in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, req)
}

func (h *Handler) CreateGroupRequest(c echo.Context) error {
	var in CreateRequestInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req, err := h.svc.CreateGroupRequest(c.Request().Context(), &in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, req)
}

func (h *Handler) ListRequests(c echo.Context) error {
	counselorID, err := uuid.Parse(c.QueryParam("counselor_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "counselor_id is required")
	}
	p := pagination.FromContext(c)
	items, total, err := h.svc.ListRequestsByCounselor(c.Request().Context(), counselorID, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

func (h *Handler) GetRequest(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	detail, err := h.svc.GetRequest(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "therapy request not found")
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *Handler) DischargeOrDelete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	action, err := h.svc.DischargeOrDelete(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"action": action})
}

func (h *Handler) DiscardRequest(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DiscardRequest(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "therapy request not found")
	}
	return c.NoContent(http.StatusNoContent)
}

type statusRequest struct {
	Status       string  `json:"session_status"`
	NoShowReason *string `json:"no_show_reason,omitempty"`
}

func (h *Handler) SetSessionStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in statusRequest
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	status, err := ParseSessionStatus(in.Status)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SetSessionStatus(c.Request().Context(), id, status, in.NoShowReason); err != nil {
		if errors.Is(err, ErrResetNotAllowed) {
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type editRequest struct {
	ScheduledTime time.Time `json:"scheduled_time"`
}

func (h *Handler) EditSession(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in editRequest
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if in.ScheduledTime.IsZero() {
		return echo.NewHTTPError(http.StatusBadRequest, "scheduled_time is required")
	}
	if err := h.svc.EditSession(c.Request().Context(), id, in.ScheduledTime); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RescheduleWindowFor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	window, err := h.svc.RescheduleWindowFor(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return c.JSON(http.StatusOK, window)
}

type additionalRequest struct {
	ReqID         uuid.UUID `json:"req_id"`
	ServiceID     uuid.UUID `json:"service_id"`
	ScheduledTime time.Time `json:"scheduled_time"`
}

func (h *Handler) CreateAdditionalSession(c echo.Context) error {
	var in additionalRequest
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sess, err := h.svc.CreateAdditionalSession(c.Request().Context(), in.ReqID, in.ServiceID, in.ScheduledTime)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, sess)
}

func (h *Handler) CancelSession(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.CancelSession(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type invoiceRequest struct {
	InvoiceNbr string `json:"invoice_nbr"`
}

func (h *Handler) SetInvoiceNumber(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in invoiceRequest
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SetInvoiceNumber(c.Request().Context(), id, in.InvoiceNbr); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
