package main

import (
	"github.com/campustransit/farebeacon/internal/application/enrollmentservice"
	"github.com/campustransit/farebeacon/internal/application/locationservice"
	"github.com/campustransit/farebeacon/internal/application/recognitionservice"
	"github.com/campustransit/farebeacon/internal/application/riderservice"
	"github.com/campustransit/farebeacon/internal/application/settlementservice"
	"github.com/campustransit/farebeacon/internal/domain/interfaces"
	"github.com/campustransit/farebeacon/internal/infrastructure/cache"
	"github.com/campustransit/farebeacon/internal/infrastructure/database"
	"github.com/campustransit/farebeacon/internal/infrastructure/events/kafka"
	"github.com/campustransit/farebeacon/internal/infrastructure/http/clients"
	"github.com/campustransit/farebeacon/internal/repositories/busrepo"
	"github.com/campustransit/farebeacon/internal/repositories/riderrepo"
	"github.com/campustransit/farebeacon/internal/repositories/transactionrepo"
	"github.com/campustransit/farebeacon/internal/server"
	"github.com/campustransit/farebeacon/internal/server/websocket"
	"github.com/campustransit/farebeacon/pkg/config"
	"github.com/campustransit/farebeacon/pkg/logger"
)

func main() {
	logger := logger.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.ShutDown()

	riderRepo := riderrepo.New(db, logger)
	transactionRepo := transactionrepo.New(db, logger)
	busRepo := busrepo.New(db, logger)

	extractorClient := clients.NewExtractorClient(cfg.Extractor, logger)
	geocoderClient := clients.NewGeocoderClient(cfg.Geocoder, logger)

	var locationCache interfaces.LocationCache
	if cfg.Redis.Addr != "" {
		locationCache, err = cache.NewLocationCache(cfg.Redis, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
	}

	var publisher interfaces.EventPublisher
	if cfg.Kafka.Enabled {
		kafkaPublisher := kafka.NewPublisher(cfg.Kafka, logger)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	settlementSvc, err := settlementservice.New(riderRepo, transactionRepo, publisher, cfg.Recognition, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build settlement service")
	}

	wsHub := websocket.NewWsHub(logger)
	go wsHub.Run()

	riderSvc := riderservice.New(riderRepo, transactionRepo, cfg.Recognition, logger)
	enrollmentSvc := enrollmentservice.New(riderRepo, extractorClient, cfg.Recognition, logger)
	recognitionSvc := recognitionservice.New(riderRepo, extractorClient, settlementSvc, cfg.Recognition, logger)
	locationSvc := locationservice.New(busRepo, geocoderClient, locationCache, wsHub, logger)

	srv := server.New(cfg, riderSvc, enrollmentSvc, recognitionSvc, locationSvc, logger, wsHub)
	srv.Start()
}
