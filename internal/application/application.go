package application

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/molla202/broadcast-service/internal/catalogue"
	"github.com/molla202/broadcast-service/internal/config"
	"github.com/molla202/broadcast-service/internal/database"
	"github.com/molla202/broadcast-service/internal/handler"
	"github.com/molla202/broadcast-service/internal/partner"
	"github.com/molla202/broadcast-service/internal/playout"
	"github.com/molla202/broadcast-service/internal/router"
	"github.com/molla202/broadcast-service/internal/schedule"
	"github.com/molla202/broadcast-service/internal/service"
	"github.com/molla202/broadcast-service/internal/store"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// API is the HTTP + WebSocket API application.
type API struct {
	cfg *config.Config
	srv *http.Server
	db  *gorm.DB
	hub *service.EventHub
}

// NewAPI creates the API application: validates config, runs migrations,
// opens DB, builds services and router.
func NewAPI(cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	logger, _ := zap.NewProduction()
	if cfg.AppEnv == "development" {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	channelStore := store.NewGormChannelStore(db)
	slotStore := store.NewGormSlotStore(db)
	assetStore := catalogue.NewGormStore(db)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	pool := catalogue.NewPool(assetStore, rng)
	composer := schedule.NewComposer(rng, logger)

	partnerClient := partner.NewClient(cfg.PartnerBaseURLs, cfg.MediaNodeID, logger)
	playoutClient := playout.NewClient(cfg.PlayoutBaseURL, logger)

	hub := service.NewEventHub(logger)
	registry := service.NewDestinationRegistry(channelStore, partnerClient, logger)
	lifecycle := service.NewLifecycleController(
		channelStore, slotStore, assetStore, pool, composer,
		playoutClient, registry, hub, logger,
	)
	if cfg.DefaultOverlay != "" {
		lifecycle.SetDefaultOverlays([]schedule.OverlaySpec{{
			MediaPath:      cfg.DefaultOverlay,
			RepeatInterval: time.Duration(cfg.OverlayInterval) * time.Second,
			RepeatCount:    cfg.OverlayCount,
		}})
	}
	channelSvc := service.NewChannelService(channelStore, cfg.RTMPBaseURL, cfg.SlotLength, logger)

	channelHandler := handler.NewChannelHandler(channelSvc)
	destinationHandler := handler.NewDestinationHandler(registry)
	streamHandler := handler.NewStreamHandler(lifecycle)
	eventsWS := handler.NewEventsWSHandler(hub, channelSvc, logger)
	health := handler.NewHealthHandler()

	r := router.New(channelHandler, destinationHandler, streamHandler, eventsWS, health)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{cfg: cfg, srv: srv, db: db, hub: hub}, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled; then shuts down gracefully.
func (a *API) Run(ctx context.Context) error {
	addr := a.srv.Addr
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	log.Printf("HTTP server listening on %s", addr)
	log.Printf("  Health:        %s/health", base)
	log.Printf("  Ready:         %s/ready", base)
	log.Printf("  Channels:      %s/channels", base)
	log.Printf("  WebSocket:     ws://%s:%s/ws/channels/:id/events", host, a.cfg.HTTPPort)

	go func() {
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
