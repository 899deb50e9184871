package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/clubroom-server/internal/core"
	"github.com/vovakirdan/clubroom-server/internal/service/rooms"
	"github.com/vovakirdan/clubroom-server/internal/store"
)

// RoomHandlers provides HTTP handlers for presentation rooms.
type RoomHandlers struct {
	rooms *rooms.Service
	store store.RoomStore
	log   *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(svc *rooms.Service, st store.RoomStore, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		rooms: svc,
		store: st,
		log:   logger,
	}
}

// CreateRoomRequest represents the create room request body.
type CreateRoomRequest struct {
	Title string `json:"title"`
}

// UpdateRoomRequest represents a partial room update.
type UpdateRoomRequest struct {
	Title *string `json:"title"`
	State *string `json:"state"`
}

// PINResponse carries a freshly generated PIN.
type PINResponse struct {
	PIN string `json:"pin"`
}

// StoredRoomResponse describes a persisted room.
type StoredRoomResponse struct {
	RoomID    string     `json:"room_id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// CreateRoom opens a room presented by the caller.
// POST /api/rooms
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create room request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	info, err := h.rooms.CreateRoom(c.Request.Context(), user, req.Title)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, info)
}

// ListRooms lists rooms the caller has presented.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	list, err := h.store.ListRoomsByPresenter(c.Request.Context(), user.NumericID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]StoredRoomResponse, 0, len(list))
	for _, r := range list {
		resp = append(resp, StoredRoomResponse{
			RoomID:    r.RoomID,
			Title:     r.Title,
			CreatedAt: r.CreatedAt,
			EndedAt:   r.EndedAt,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// GetRoom describes a live room. The PIN is only shown to its presenter.
// GET /api/rooms/:roomID
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	user, _ := currentUser(c)
	info, err := h.rooms.Room(c.Request.Context(), c.Param("roomID"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if info.PresenterAccountID != user.AccountID {
		info.PIN = ""
	}
	c.JSON(http.StatusOK, info)
}

// LookupPIN resolves a PIN typed by an attendee.
// GET /api/pins/:pin
func (h *RoomHandlers) LookupPIN(c *gin.Context) {
	info, err := h.rooms.LookupPIN(c.Request.Context(), c.Param("pin"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// UpdateRoom changes the title and/or state.
// PATCH /api/rooms/:roomID
func (h *RoomHandlers) UpdateRoom(c *gin.Context) {
	var req UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.Title == nil && req.State == nil) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	roomID, ok := h.authorize(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if req.Title != nil {
		if err := h.rooms.UpdateTitle(ctx, roomID, *req.Title); err != nil {
			h.writeError(c, err)
			return
		}
	}
	if req.State != nil {
		if err := h.rooms.UpdateState(ctx, roomID, *req.State); err != nil {
			h.writeError(c, err)
			return
		}
	}

	info, err := h.rooms.Room(ctx, roomID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// RegeneratePIN replaces the room PIN.
// POST /api/rooms/:roomID/pin
func (h *RoomHandlers) RegeneratePIN(c *gin.Context) {
	roomID, ok := h.authorize(c)
	if !ok {
		return
	}
	pin, err := h.rooms.RegeneratePIN(c.Request.Context(), roomID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, PINResponse{PIN: pin})
}

// DisposeRoom ends the room.
// DELETE /api/rooms/:roomID
func (h *RoomHandlers) DisposeRoom(c *gin.Context) {
	roomID, ok := h.authorize(c)
	if !ok {
		return
	}
	if err := h.rooms.DisposeRoom(c.Request.Context(), roomID); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RoomHandlers) authorize(c *gin.Context) (string, bool) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return "", false
	}
	roomID := c.Param("roomID")
	if err := h.rooms.AuthorizePresenter(c.Request.Context(), roomID, user); err != nil {
		h.writeError(c, err)
		return "", false
	}
	return roomID, true
}

func (h *RoomHandlers) writeError(c *gin.Context, err error) {
	status, resp := errorResponse(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	c.JSON(status, resp)
}

// errorResponse maps service and core errors to an HTTP status.
func errorResponse(err error) (int, ErrorResponse) {
	if ge, ok := rooms.AsGuardError(err); ok {
		return ge.Status, ErrorResponse{Error: ge.Message, Code: ge.Code}
	}
	if errors.Is(err, core.ErrHubStopped) {
		return http.StatusServiceUnavailable, ErrorResponse{Error: "shutting down"}
	}

	ce := core.AsCoreError(err)
	status := http.StatusInternalServerError
	switch ce.Code {
	case core.ErrCodeRoomDisposed:
		status = http.StatusConflict
	case core.ErrCodeBadRequest, core.ErrCodeInvalidRoomState, core.ErrCodeInvalidAttendeeState:
		status = http.StatusBadRequest
	case core.ErrCodeAttendeeNotFound:
		status = http.StatusNotFound
	}
	return status, ErrorResponse{Error: ce.Message, Code: ce.Code}
}
