package notes

import (
	"errors"
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
	staff.POST("/notes/verify", h.Verify)
	staff.GET("/notes", h.ListNotes)
	staff.GET("/notes/count", h.NoteCount)
	staff.POST("/notes", h.AddNote)
	staff.PUT("/notes/:id", h.UpdateNote)
}

func callerID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.ProfileIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "missing user profile")
	}
	return id, nil
}

func (h *Handler) Verify(c echo.Context) error {
	profileID, err := callerID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Verify(c.Request().Context(), profileID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListNotes(c echo.Context) error {
	profileID, err := callerID(c)
	if err != nil {
		return err
	}
	sessionID, err := uuid.Parse(c.QueryParam("session_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id is required")
	}
	items, err := h.svc.ListNotes(c.Request().Context(), profileID, sessionID)
	if err != nil {
		if errors.Is(err, ErrVerificationRequired) {
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) NoteCount(c echo.Context) error {
	sessionID, err := uuid.Parse(c.QueryParam("session_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id is required")
	}
	count, err := h.svc.NoteCount(c.Request().Context(), sessionID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]int{"note_count": count})
}

type addNoteRequest struct {
	SessionID uuid.UUID `json:"session_id"`
	Message   string    `json:"message"`
}

func (h *Handler) AddNote(c echo.Context) error {
	profileID, err := callerID(c)
	if err != nil {
		return err
	}
	var in addNoteRequest
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	note, count, err := h.svc.AddNote(c.Request().Context(), profileID, in.SessionID, in.Message)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"note":       note,
		"note_count": count,
	})
}

type updateNoteRequest struct {
	Message string `json:"message"`
}

func (h *Handler) UpdateNote(c echo.Context) error {
	profileID, err := callerID(c)
	if err != nil {
		return err
	}
	noteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in updateNoteRequest
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	note, err := h.svc.UpdateNote(c.Request().Context(), profileID, noteID, in.Message)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotNoteAuthor):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, ErrNoteNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusOK, note)
}
