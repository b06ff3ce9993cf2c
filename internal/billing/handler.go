package billing

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/saasfly/saasfly/internal/identity"
	"github.com/saasfly/saasfly/internal/web"
)

// Handler serves POST /api/stripe/create-session.
type Handler struct {
	svc      *Service
	provider identity.Provider
}

// NewHandler creates the handler. The provider resolves identities on
// requests the gate did not authenticate; nil means gate-only.
func NewHandler(svc *Service, p identity.Provider) *Handler {
	if p == nil {
		p = identity.Anonymous
	}
	return &Handler{svc: svc, provider: p}
}

// Routes implements web.Handler.
func (h *Handler) Routes(r web.Router) {
	r.POST("/api/stripe/create-session", h.createSession)
}

type createSessionRequest struct {
	PlanID string `json:"planId"`
}

type createSessionResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
}

func (h *Handler) createSession(c web.Context) error {
	id := c.Identity()
	if id == nil {
		id = h.provider.Resolve(c, c.Request())
	}
	if id == nil || id.ID == "" {
		return c.Error(http.StatusUnauthorized, "Unauthorized")
	}

	var req createSessionRequest
	if err := json.NewDecoder(io.LimitReader(c.Request().Body, 1<<16)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return c.Error(http.StatusBadRequest, "Plan ID is required")
	}

	url, err := h.svc.CreateSession(c, id, req.PlanID)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, createSessionResponse{Success: true, URL: url})
	case errors.Is(err, ErrUnauthorized):
		return c.Error(http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, ErrPlanRequired):
		return c.Error(http.StatusBadRequest, "Plan ID is required")
	case errors.Is(err, ErrUserNotFound):
		return c.Error(http.StatusNotFound, "User not found")
	case errors.Is(err, ErrEmptySession):
		c.LogError("payment provider returned no session url", slog.String("user_id", id.ID))
		return c.JSON(http.StatusInternalServerError, createSessionResponse{Success: false})
	default:
		return web.ErrInternal("Failed to create session", web.WithError(err))
	}
}
