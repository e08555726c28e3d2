package feesplit

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/coscyrix/mindbridge-sub003/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	staff := api.Group("", auth.RequireStaff())
	staff.GET("/fee-split", h.ListAll)
	staff.GET("/fee-split/resolve/:counselorId", h.Resolve)

	admin := api.Group("", auth.RequireRole(auth.RoleManager))
	admin.PUT("/fee-split", h.SaveConfig)
}

func (h *Handler) SaveConfig(c echo.Context) error {
	var cfg SplitConfig
	if err := c.Bind(&cfg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SaveConfig(c.Request().Context(), &cfg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, cfg)
}

func (h *Handler) ListAll(c echo.Context) error {
	listing, err := h.svc.ListAll(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, listing)
}

func (h *Handler) Resolve(c echo.Context) error {
	counselorID, err := uuid.Parse(c.Param("counselorId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid counselor id")
	}
	cfg, err := h.svc.Resolve(c.Request().Context(), counselorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "no fee split configured")
	}
	return c.JSON(http.StatusOK, cfg)
}
