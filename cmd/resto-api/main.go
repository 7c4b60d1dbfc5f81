// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Salah-eem/ei-resto-commande-sub001/internal/config"
	httptransport "github.com/Salah-eem/ei-resto-commande-sub001/internal/http"
	"github.com/Salah-eem/ei-resto-commande-sub001/internal/infra"
	"github.com/Salah-eem/ei-resto-commande-sub001/internal/logging"
	"github.com/Salah-eem/ei-resto-commande-sub001/internal/metrics"
	"github.com/Salah-eem/ei-resto-commande-sub001/internal/modules/order"
	"github.com/Salah-eem/ei-resto-commande-sub001/internal/modules/tracking"
	"github.com/Salah-eem/ei-resto-commande-sub001/internal/notify"
	"github.com/Salah-eem/ei-resto-commande-sub001/internal/realtime"
)

func main() {
	log := logging.New("resto-api")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connect")
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	var notifier order.Notifier = notify.Noop{}
	mq, err := infra.NewMQ(cfg.AMQP.URL)
	if err != nil {
		log.Warn().Err(err).Msg("rabbitmq unavailable, receipts disabled")
	} else {
		defer mq.Close()
		notifier = notify.NewAMQPNotifier(mq)
	}

	reg := metrics.New()

	hub := realtime.NewHub(reg.EventsPublished, logging.Component(log, "hub"))

	orderStore := order.NewPGStore(dbPool)
	orderSvc := order.NewService(orderStore, hub, notifier, logging.Component(log, "order"))

	trackingStore := tracking.NewStore(dbPool, redisClient)
	trackingSvc := tracking.NewService(trackingStore, orderSvc, hub)

	promoter := order.NewPromoter(
		orderStore,
		orderSvc,
		hub,
		time.Duration(cfg.Realtime.PromoterTickSeconds)*time.Second,
		reg.OrdersPromoted,
		logging.Component(log, "promoter"),
	)

	presence := realtime.NewPresence(promoter, reg.Connections)
	rtHandlers := realtime.NewHandlers(hub, orderSvc, trackingSvc, reg.TransitionErrs, logging.Component(log, "realtime"))
	wsServer := realtime.NewWSServer(hub, presence, rtHandlers, cfg.Realtime.SendQueueSize, logging.Component(log, "ws"))

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Order:       orderSvc,
		Tracking:    trackingSvc,
		Broadcaster: hub,
		WS:          wsServer,
		Metrics:     reg.Handler(),
		SpeedMps:    cfg.Realtime.CourierSpeedMps,
		Log:         logging.Component(log, "http"),
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}

	go func() {
		<-ctx.Done()
		promoter.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.HTTP.Addr).Msg("listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server")
	}
}
