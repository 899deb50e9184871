package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/clubroom-server/internal/config"
	"github.com/vovakirdan/clubroom-server/internal/core"
	"github.com/vovakirdan/clubroom-server/internal/proto"
	"github.com/vovakirdan/clubroom-server/internal/service/rooms"
)

const (
	errCodeRateLimited = "rate_limited"
	detachTimeout      = 5 * time.Second
)

// WSHandler upgrades room connections and bridges them to room entities.
type WSHandler struct {
	rooms *rooms.Service
	cfg   *config.Config
	log   *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(svc *rooms.Service, cfg *config.Config, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{rooms: svc, cfg: cfg, log: logger}
}

// Serve returns the handler for one entity kind.
// GET /ws/rooms/:roomID/{presenter|attendee|display}
func (h *WSHandler) Serve(kind core.EntityKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
			return
		}
		roomID := c.Param("roomID")

		conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			h.log.Error().Err(err).Msg("ws accept error")
			return
		}
		defer conn.CloseNow()
		if h.cfg.MaxMessageBytes > 0 {
			conn.SetReadLimit(h.cfg.MaxMessageBytes)
		}

		h.serve(c.Request.Context(), conn, kind, roomID, user)
	}
}

func (h *WSHandler) serve(ctx context.Context, conn *websocket.Conn, kind core.EntityKind, roomID string, user core.User) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wc := newWSConn(h.cfg.OutboundBuffer)
	writeErr := make(chan error, 1)
	go func() {
		writeErr <- wc.writeLoop(ctx, conn)
	}()

	logger := h.log.With().
		Str("room_id", roomID).
		Str("kind", string(kind)).
		Str("account_id", user.AccountID).
		Logger()

	entity, err := h.attach(ctx, kind, roomID, user, wc)
	if err != nil {
		perr := commandError(err)
		logger.Debug().Err(err).Msg("attach refused")
		wc.sendError(perr.Code, perr.Msg)
		_ = wc.Close(core.ClosePolicyViolation, perr.Code)
		// The client still has to answer the close frame.
		go drain(ctx, conn)
		<-writeErr
		return
	}
	logger = logger.With().Int("entity_id", int(entity.ID())).Logger()
	logger.Info().Msg("ws connected")

	readErr := h.readLoop(ctx, conn, wc, entity, roomID, &logger)

	detachCtx, detachCancel := context.WithTimeout(context.Background(), detachTimeout)
	defer detachCancel()
	if err := h.rooms.Detach(detachCtx, entity); err != nil && !errors.Is(err, core.ErrHubStopped) {
		logger.Warn().Err(err).Msg("detach failed")
	}

	status := websocket.CloseStatus(readErr)
	switch {
	case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
		logger.Info().Msg("ws closed by client")
	case errors.Is(readErr, context.Canceled):
		logger.Info().Msg("ws closed by server")
	case status != -1:
		logger.Info().Int("status", int(status)).Msg("ws closed")
	default:
		logger.Debug().Err(readErr).Msg("ws read ended")
	}

	cancel()
	<-writeErr
	_ = conn.Close(websocket.StatusNormalClosure, "")
}

func (h *WSHandler) attach(ctx context.Context, kind core.EntityKind, roomID string, user core.User, wc *wsConn) (core.Entity, error) {
	switch kind {
	case core.KindPresenter:
		return h.rooms.AttachPresenter(ctx, roomID, user, wc)
	case core.KindAttendee:
		return h.rooms.AttachAttendee(ctx, roomID, user, wc)
	case core.KindDisplay:
		return h.rooms.AttachDisplay(ctx, roomID, user, wc)
	default:
		return nil, core.ErrInvalidEntityKind
	}
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, wc *wsConn, e core.Entity, roomID string, logger *zerolog.Logger) error {
	limiter := newRateLimiter(h.cfg.FrameRateLimit)
	stop := make(chan struct{})
	defer close(stop)
	limiter.startReset(stop)

	for {
		_, payload, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if !limiter.allow() {
			wc.sendError(errCodeRateLimited, "too many messages")
			continue
		}

		var in proto.Inbound
		if err := json.Unmarshal(payload, &in); err != nil || in.Event == "" {
			wc.sendError(core.ErrCodeBadRequest, "malformed frame")
			continue
		}

		cmd, perr := inboundToCommand(h.rooms, e, roomID, in)
		if perr != nil {
			wc.sendError(perr.Code, perr.Msg)
			continue
		}
		if err := cmd(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			perr := commandError(err)
			logger.Debug().Err(err).Str("event", in.Event).Msg("command failed")
			wc.sendError(perr.Code, perr.Msg)
		}
	}
}

func drain(ctx context.Context, conn *websocket.Conn) {
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
	}
}
