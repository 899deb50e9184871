package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/clubroom-server/internal/auth"
	"github.com/vovakirdan/clubroom-server/internal/config"
	"github.com/vovakirdan/clubroom-server/internal/core"
	"github.com/vovakirdan/clubroom-server/internal/service/rooms"
	"github.com/vovakirdan/clubroom-server/internal/store"
)

// NewServer builds the HTTP server with API and WebSocket routes.
func NewServer(svc *rooms.Service, authService *auth.Service, st store.RoomStore, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	requireAuth := AuthMiddleware(authService, logger)
	apiHandlers := NewAPIHandlers(authService, logger)
	roomHandlers := NewRoomHandlers(svc, st, logger)

	api := router.Group("/api")
	api.POST("/accounts", apiHandlers.Register)

	authed := api.Group("", requireAuth)
	authed.GET("/me", apiHandlers.Me)
	authed.GET("/rooms", roomHandlers.ListRooms)
	authed.POST("/rooms", roomHandlers.CreateRoom)
	authed.GET("/rooms/:roomID", roomHandlers.GetRoom)
	authed.PATCH("/rooms/:roomID", roomHandlers.UpdateRoom)
	authed.DELETE("/rooms/:roomID", roomHandlers.DisposeRoom)
	authed.POST("/rooms/:roomID/pin", roomHandlers.RegeneratePIN)
	authed.GET("/pins/:pin", roomHandlers.LookupPIN)

	ws := NewWSHandler(svc, cfg, logger)
	wsRoutes := router.Group("/ws/rooms/:roomID", requireAuth)
	wsRoutes.GET("/presenter", ws.Serve(core.KindPresenter))
	wsRoutes.GET("/attendee", ws.Serve(core.KindAttendee))
	wsRoutes.GET("/display", ws.Serve(core.KindDisplay))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
