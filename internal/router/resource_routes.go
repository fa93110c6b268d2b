package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/robot-management/internal/handler"
)

// RegisterRobots registers /v1/robots.  Reads are public and may be cached;
// updates accept any valid token and the handler itself demands admin when
// an update creates a robot.
func RegisterRobots(e *echo.Echo, h *handler.RobotHandler, ch Chain) {
	g := e.Group("/v1/robots")
	g.GET("", h.List, ch.public(ch.Cache)...)
	g.POST("", h.Create, ch.adminToken()...)
	g.GET("/:name", h.Get, ch.public(ch.Cache)...)
	g.PUT("/:name", h.Update, ch.anyToken()...)
	g.DELETE("/:name", h.Delete, ch.adminToken()...)
}

// RegisterTasks registers /v1/tasks.  Unlike robots, reading tasks requires
// a token.
func RegisterTasks(e *echo.Echo, h *handler.TaskHandler, ch Chain) {
	g := e.Group("/v1/tasks")
	g.GET("", h.List, ch.anyToken()...)
	g.POST("", h.Create, ch.adminToken()...)
	g.GET("/:name", h.Get, ch.anyToken()...)
	g.PUT("/:name", h.Update, ch.anyToken()...)
	g.DELETE("/:name", h.Delete, ch.adminToken()...)
}

// RegisterTaskExecutions registers /v1/task-executions.  Executions are
// read-only once created, so there is no PUT or DELETE.
func RegisterTaskExecutions(e *echo.Echo, h *handler.TaskExecutionHandler, ch Chain) {
	g := e.Group("/v1/task-executions")
	g.GET("", h.List, ch.anyToken()...)
	g.POST("", h.Create, ch.anyToken()...)
	g.GET("/:id", h.Get, ch.anyToken()...)
}
