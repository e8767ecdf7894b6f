package echo

import e "github.com/labstack/echo/v4"

func RegisterRoutes(server *e.Echo, sync *SyncHandler, progress *ProgressHandler, customers *CustomerHandler) {
	group := server.Group("/api/v1")

	group.POST("/customers/sync", sync.Sync)
	group.GET("/customers/progress", progress.Snapshot)
	group.GET("/customers/progress/stream", progress.Stream)
	group.GET("/customers/:id", customers.GetByID)
}
