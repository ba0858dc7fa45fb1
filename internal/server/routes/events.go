package routes

import (
	"io"

	"github.com/gin-gonic/gin"
)

type EventRoutes struct {
	server ServerInterface
}

func NewEventRoutes(server ServerInterface) *EventRoutes {
	return &EventRoutes{server: server}
}

func (er *EventRoutes) RegisterRoutes(r *gin.Engine) {
	middleware := NewMiddleware(er.server)

	r.GET("/events", middleware.AuthMiddleware(), er.streamEventsHandler)
}

// streamEventsHandler pushes table-change notifications to the client
// over server-sent events. Clients refresh whatever the changed table
// affects; the event carries no row data.
func (er *EventRoutes) streamEventsHandler(c *gin.Context) {
	events, cancel := er.server.GetHub().Subscribe()
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("change", gin.H{"table": event.Table})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
