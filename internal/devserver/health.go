package devserver

import (
	"github.com/gin-gonic/gin"

	"taskdeck/pkg/response"
)

const (
	HealthVersion = "1.0.0"
	ServiceName   = "taskdeck-devserver"
)

func (srv *Server) healthCheck(c *gin.Context) {
	aiConnected := false
	if srv.ai != nil {
		aiConnected = srv.ai.CheckConnection(c.Request.Context(), false)
	}
	response.OK(c, gin.H{
		"status":       "healthy",
		"version":      HealthVersion,
		"service":      ServiceName,
		"ai_connected": aiConnected,
	})
}
