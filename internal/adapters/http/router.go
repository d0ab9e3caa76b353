package http

import (
	"context"
	"net/http"

	"github.com/dkeye/Lobby/internal/adapters/signal"
	"github.com/dkeye/Lobby/internal/app"
	"github.com/dkeye/Lobby/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func genClientToken() string {
	idStr := uuid.NewString()
	return idStr
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, lobby *app.Lobby) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("LobbySessions", store))
	r.Use(ClientTokenMiddleware())

	// one controller for the process: it owns the broadcast group table
	ctrl := signal.NewLobbyWSController(cfg, lobby)

	r.GET("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	api := r.Group("/api")

	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": lobby.OpenRooms()})
	})

	api.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"connections": lobby.Connections(),
			"rooms":       lobby.RoomCount(),
		})
	})

	api.GET("/ws/lobby", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("token", c.GetString("client_token")).Msg("ws lobby endpoint hit")
		ctrl.HandleLobby(ctx, c)
	})

	return r
}
