package homework

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/coscyrix/mindbridge-sub003/internal/platform/auth"
	"github.com/coscyrix/mindbridge-sub003/internal/platform/blobstore"
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
	staff.POST("/homework", h.Upload)
	staff.GET("/homework", h.List)
	staff.GET("/homework/:id", h.GetMetadata)
	staff.GET("/homework/:id/download", h.Download)
	staff.DELETE("/homework/:id", h.Delete)
}

func blobError(err error) error {
	switch {
	case errors.Is(err, blobstore.ErrBlobNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "file not found")
	case errors.Is(err, blobstore.ErrFileTooLarge):
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, blobstore.ErrInvalidContentType),
		errors.Is(err, blobstore.ErrMissingFileName):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func (h *Handler) Upload(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	sessionID, err := uuid.Parse(c.FormValue("session_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id is required")
	}
	clientID, err := uuid.Parse(c.FormValue("client_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "client_id is required")
	}

	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("opening upload: %v", err))
	}
	defer src.Close()

	meta, err := h.svc.Upload(c.Request().Context(), UploadInput{
		SessionID:   sessionID,
		ClientID:    clientID,
		FileName:    file.Filename,
		ContentType: file.Header.Get(echo.HeaderContentType),
		Category:    c.FormValue("category"),
		UploadedBy:  auth.ProfileIDFromContext(c.Request().Context()),
	}, src)
	if err != nil {
		return blobError(err)
	}
	return c.JSON(http.StatusCreated, meta)
}

func (h *Handler) List(c echo.Context) error {
	p := pagination.FromContext(c)

	if raw := c.QueryParam("session_id"); raw != "" {
		sessionID, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid session_id")
		}
		items, total, err := h.svc.ListBySession(c.Request().Context(), sessionID, p.Limit, p.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
	}

	clientID, err := uuid.Parse(c.QueryParam("client_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id or client_id is required")
	}
	items, total, err := h.svc.ListByClient(c.Request().Context(), clientID, c.QueryParam("category"), p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

func (h *Handler) GetMetadata(c echo.Context) error {
	meta, err := h.svc.GetMetadata(c.Request().Context(), c.Param("id"))
	if err != nil {
		return blobError(err)
	}
	return c.JSON(http.StatusOK, meta)
}

func (h *Handler) Download(c echo.Context) error {
	rc, meta, err := h.svc.Download(c.Request().Context(), c.Param("id"))
	if err != nil {
		return blobError(err)
	}
	defer rc.Close()
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, meta.FileName))
	return c.Stream(http.StatusOK, meta.ContentType, rc)
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return blobError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
