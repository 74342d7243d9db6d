package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	apperrors "github.com/ikkim/bizmarket-backend/internal/errors"
	"github.com/ikkim/bizmarket-backend/internal/middleware"
	ws "github.com/ikkim/bizmarket-backend/internal/websocket"
)

type WSController struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewWSController accepts upgrades only from allowedOrigins.
func NewWSController(hub *ws.Hub, allowedOrigins []string) *WSController {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}
	return &WSController{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
	}
}

// Connect opens the live feed of quote events for the authenticated user
// GET /ws/owner?token=
func (ctrl *WSController) Connect(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err)
		return
	}

	ws.NewClient(ctrl.hub, conn, userID).Serve()
	log.Info("WebSocket connection established", map[string]interface{}{
		"user_id": userID,
	})
}
