package api

import (
	"github.com/felixgeelhaar/flowboard/internal/app"
)

// NewServerFromContainer builds a server over the container's services.
func NewServerFromContainer(cfg ServerConfig, c *app.Container) *Server {
	statuses := NewStatusHandler(c.Lifecycle, c.Transitions, c.Logger)
	tasks := NewTaskHandler(TaskHandlerConfig{
		Create:       c.CreateTaskHandler,
		ChangeStatus: c.ChangeTaskStatusHandler,
		Get:          c.GetTaskHandler,
		List:         c.ListTasksHandler,
		Logger:       c.Logger,
	})
	return NewServer(cfg, statuses, tasks, c.Health, c.Logger)
}
