package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SetupRouter builds the control API. health may be nil.
func SetupRouter(mode string, h *Handler, health http.Handler) *gin.Engine {
	if mode != "" {
		gin.SetMode(mode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())

	if health != nil {
		r.GET("/health", gin.WrapH(health))
	}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/state", h.GetState)
		v1.GET("/events", h.GetEvents)
		v1.GET("/arena", h.GetArena)

		rooms := v1.Group("/rooms")
		{
			rooms.GET("", h.ListRooms)
			rooms.POST("", h.CreateRoom)
			rooms.POST("/:id/join", h.JoinRoom)
		}

		v1.POST("/game/start", h.StartGame)

		m := v1.Group("/match")
		{
			m.POST("/start", h.StartMatch)
			m.POST("/leave", h.LeaveMatch)
			m.POST("/restart", h.PlayAgain)
			m.POST("/fire", h.Fire)
			m.POST("/pickup", h.Pickup)
			m.POST("/move", h.Move)
		}
	}

	return r
}

func requestLogger() gin.HandlerFunc {
	logger := slog.Default().With("component", "api.http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"clientIP", c.ClientIP(),
		)
	}
}
