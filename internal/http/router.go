// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Salah-eem/ei-resto-commande-sub001/internal/http/handlers"
	"github.com/Salah-eem/ei-resto-commande-sub001/internal/http/middleware"
	"github.com/Salah-eem/ei-resto-commande-sub001/internal/modules/order"
	"github.com/Salah-eem/ei-resto-commande-sub001/internal/modules/tracking"
	"github.com/Salah-eem/ei-resto-commande-sub001/internal/realtime"
)

type RouterDeps struct {
	Order       *order.Service
	Tracking    *tracking.Service
	Broadcaster order.Broadcaster
	WS          *realtime.WSServer
	Metrics     http.Handler
	SpeedMps    float64
	Log         zerolog.Logger
}

func NewRouter(deps RouterDeps) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log))
	r.Use(middleware.Logging(deps.Log))
	r.Use(middleware.Actor())

	orderHandler := handlers.NewOrderHandler(deps.Order, deps.Tracking, deps.Broadcaster, deps.SpeedMps)
	r.POST("/api/orders", orderHandler.Create)
	r.GET("/api/orders/live", orderHandler.ListLive)
	r.GET("/api/orders/:id", orderHandler.Get)
	r.POST("/api/orders/:id/courier", orderHandler.AssignCourier)
	r.POST("/api/orders/:id/items/:itemId/prepared", orderHandler.MarkItemPrepared)

	r.GET("/ws", deps.WS.Handle)

	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
