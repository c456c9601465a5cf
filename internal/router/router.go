package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/molla202/broadcast-service/internal/handler"
	"github.com/molla202/broadcast-service/pkg/constants"
)

// New builds the HTTP router.
func New(
	channelHandler *handler.ChannelHandler,
	destinationHandler *handler.DestinationHandler,
	streamHandler *handler.StreamHandler,
	eventsWS *handler.EventsWSHandler,
	health *handler.HealthHandler,
) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET(constants.PathHealth, health.Health)
	r.GET(constants.PathReady, health.Ready)

	// REST channels
	channels := r.Group("/channels")
	{
		channels.POST("", channelHandler.CreateChannel)
		channels.GET("", channelHandler.ListChannels)
		channels.GET("/:id", channelHandler.GetChannel)
		channels.GET("/:id/status", streamHandler.Status)

		channels.POST("/:id/start", streamHandler.Start)
		channels.POST("/:id/stop", streamHandler.Stop)
		channels.POST("/:id/live", streamHandler.SwitchToLive)
		channels.POST("/:id/broadcast", streamHandler.SwitchToBroadcast)

		channels.POST("/:id/destinations", destinationHandler.AddDestination)
		channels.PATCH("/:id/destinations/:destination_id", destinationHandler.UpdateDestination)
		channels.DELETE("/:id/destinations/:destination_id", destinationHandler.RemoveDestination)

		channels.POST("/:id/connected-channels", channelHandler.AddConnectedChannel)
		channels.PUT("/:id/live-text", channelHandler.UpdateLiveText)
	}

	// WebSocket: lifecycle events per channel
	r.GET("/ws/channels/:id/events", eventsWS.ServeWS)

	return r
}
