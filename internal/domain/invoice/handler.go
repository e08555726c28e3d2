package invoice

import (
	"errors"
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
	staff := api.Group("", auth.RequireStaff())
	staff.GET("/invoice/:reqId/preview", h.Preview)
	staff.GET("/invoice/:reqId", h.GetByRequest)

	managers := api.Group("", auth.RequireRole(auth.RoleManager))
	managers.POST("/invoice/:reqId", h.Generate)
	managers.GET("/invoice", h.List)
}

func reqIDParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("reqId"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid request id")
	}
	return id, nil
}

func (h *Handler) Preview(c echo.Context) error {
	reqID, err := reqIDParam(c)
	if err != nil {
		return err
	}
	inv, err := h.svc.Preview(c.Request().Context(), reqID)
	if err != nil {
		if errors.Is(err, ErrNothingToBill) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		return echo.NewHTTPError(http.StatusNotFound, "therapy request not found")
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) Generate(c echo.Context) error {
	reqID, err := reqIDParam(c)
	if err != nil {
		return err
	}
	inv, err := h.svc.Generate(c.Request().Context(), reqID)
	if err != nil {
		if errors.Is(err, ErrNothingToBill) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, inv)
}

func (h *Handler) GetByRequest(c echo.Context) error {
	reqID, err := reqIDParam(c)
	if err != nil {
		return err
	}
	inv, err := h.svc.GetByRequest(c.Request().Context(), reqID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "invoice not found")
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) List(c echo.Context) error {
	p := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}
