package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/kmelnick/huddle/internal/adapters/signal"
	"github.com/kmelnick/huddle/internal/app"
	"github.com/kmelnick/huddle/internal/config"
	"github.com/kmelnick/huddle/internal/domain"
)

type createRoomRequest struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

// SetupRouter wires HTTP routes (REST + WS) with the orchestrator.
// - Static files are served from cfg.StaticPath.
// - REST is under /api/*
// - WebSocket upgrade lives at /api/ws/signal
func SetupRouter(ctx context.Context, cfg *config.Config, orch *app.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "OK",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	// POST /api/rooms creates a room with a server-generated id.
	api.POST("/rooms", func(c *gin.Context) {
		var req createRoomRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" || req.UserName == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userId and userName are required"})
			return
		}
		room := orch.Rooms.Create(domain.UserID(req.UserID))
		c.JSON(http.StatusOK, gin.H{
			"roomId":    room.ID,
			"createdBy": room.CreatedBy,
			"message":   "Room created successfully",
		})
	})

	// GET /api/rooms lists active rooms.
	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": roomViews(orch.Rooms.List())})
	})

	// GET /api/rooms/:roomId returns room info. Emptied rooms are
	// deleted, so absent means not found or inactive.
	api.GET("/rooms/:roomId", func(c *gin.Context) {
		info, ok := orch.Rooms.Get(domain.RoomID(c.Param("roomId")))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found or inactive"})
			return
		}
		c.JSON(http.StatusOK, roomView(info))
	})

	ctl := signal.NewController(orch, cfg)
	api.GET("/ws/signal", func(c *gin.Context) {
		ctl.HandleSignal(ctx, c)
	})

	return r
}

func roomView(info app.RoomInfo) gin.H {
	return gin.H{
		"roomId":       info.Room.ID,
		"participants": info.Participants,
		"createdBy":    info.Room.CreatedBy,
		"createdAt":    info.Room.CreatedAt,
		"isActive":     info.Active,
	}
}

func roomViews(infos []app.RoomInfo) []gin.H {
	out := make([]gin.H, 0, len(infos))
	for _, info := range infos {
		out = append(out, roomView(info))
	}
	return out
}
