package reference

import (
	"net/http"

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
	read := api.Group("", auth.RequireRole(auth.RoleClient, auth.RoleCounselor, auth.RoleManager))
	read.GET("/service", h.ListServices)
	read.GET("/service/:id", h.GetService)
	read.GET("/forms", h.ListForms)

	staff := api.Group("", auth.RequireStaff())
	staff.GET("/user-profile", h.ListClients)
	staff.GET("/user-profile/:id", h.GetUserProfile)
	staff.GET("/user-profile/:id/has-schedule", h.HasOpenSchedule)

	admin := api.Group("", auth.RequireRole(auth.RoleManager))
	admin.POST("/service", h.CreateService)
	admin.POST("/forms", h.CreateForm)
}

func (h *Handler) CreateService(c echo.Context) error {
	var svc TherapyService
	if err := c.Bind(&svc); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateService(c.Request().Context(), &svc); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, svc)
}

func (h *Handler) GetService(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	svc, err := h.svc.GetService(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "service not found")
	}
	return c.JSON(http.StatusOK, svc)
}

func (h *Handler) ListServices(c echo.Context) error {
	p := pagination.FromContext(c)
	items, total, err := h.svc.ListServices(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

func (h *Handler) CreateForm(c echo.Context) error {
	var f Form
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateForm(c.Request().Context(), &f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, f)
}

func (h *Handler) ListForms(c echo.Context) error {
	if sid := c.QueryParam("service_id"); sid != "" {
		serviceID, err := uuid.Parse(sid)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid service_id")
		}
		items, err := h.svc.ListFormsByService(c.Request().Context(), serviceID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, items)
	}

	p := pagination.FromContext(c)
	items, total, err := h.svc.ListForms(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

func (h *Handler) ListClients(c echo.Context) error {
	p := pagination.FromContext(c)
	items, total, err := h.svc.ListClients(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

func (h *Handler) GetUserProfile(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	profile, err := h.svc.GetUserProfile(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "user profile not found")
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *Handler) HasOpenSchedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	open, err := h.svc.HasOpenSchedule(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]bool{"has_schedule": open})
}
