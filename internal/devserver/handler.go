package devserver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskdeck/pkg/response"
)

func (srv *Server) mapHandlers() {
	srv.registerMiddlewares()
	srv.registerSystemRoutes()
	srv.registerDomainRoutes()
}

func (srv *Server) registerMiddlewares() {
	srv.gin.Use(gin.Recovery())
	srv.gin.Use(srv.rateLimitMiddleware())
	srv.gin.Use(srv.idempotencyMiddleware())
}

func (srv *Server) registerSystemRoutes() {
	srv.gin.GET("/health", srv.healthCheck)
}

func (srv *Server) registerDomainRoutes() {
	ctx := context.Background()

	api := srv.gin.Group("/api")

	tasks := api.Group("/tasks")
	tasks.GET("", srv.listTasks)
	tasks.POST("", srv.createTask)
	tasks.POST("/analyze", srv.analyzeWorkload)
	tasks.GET("/:id", srv.getTask)
	tasks.PUT("/:id", srv.updateTask)
	tasks.DELETE("/:id", srv.deleteTask)
	tasks.PATCH("/:id/complete", srv.completeTask)
	tasks.POST("/:id/improve", srv.improveTask)

	chat := api.Group("/chat")
	chat.POST("/generate-tasks", srv.generateTasks)
	chat.GET("/messages", srv.listMessages)
	chat.DELETE("/messages", srv.clearMessages)

	srv.l.Infof(ctx, "devserver: task and chat routes registered")
}

// Handler exposes the router for httptest-based integration tests.
func (srv *Server) Handler() http.Handler {
	return srv.gin
}

// Run starts the server and blocks until it exits.
func (srv *Server) Run() error {
	addr := fmt.Sprintf(":%d", srv.port)
	srv.l.Infof(context.Background(), "devserver: listening on %s", addr)
	return srv.gin.Run(addr)
}

func (srv *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := srv.limiter.Allow(c.ClientIP()); err != nil {
			response.TooManyRequests(c, err.Error())
			c.Abort()
			return
		}
		c.Next()
	}
}
