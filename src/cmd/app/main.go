package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"delivery-service/src/internal/config"
	"delivery-service/src/pkg/log"
)

func main() {
	viperConfig := config.NewViper()
	viperConfig.SetDefault("log.level", "DEBUG")
	viperConfig.SetDefault("app.name", "DELIVERY_SERVICE")
	viperConfig.SetDefault("web.port", 8080)
	viperConfig.SetDefault("dispatch.offer_ttl_seconds", 30)
	viperConfig.SetDefault("dispatch.max_rounds", 5)
	viperConfig.SetDefault("dispatch.radius_km", 5)
	viperConfig.SetDefault("dispatch.cooldown_minutes", 10)
	viperConfig.SetDefault("sweeper.interval_seconds", 30)

	log.InitLogger(viperConfig)
	logger := log.GetLogger()

	config.NewKafkaConfig(viperConfig)
	config.LoadRedisConfig(viperConfig)

	db := config.NewDatabase(viperConfig, logger)
	redisClient := config.NewRedis()
	producer := config.NewKafkaProducer(viperConfig, logger)
	validate := config.NewValidator(viperConfig)
	geoService, err := config.NewGeoService(viperConfig)
	if err != nil {
		logger.Error("main", fmt.Sprintf("Failed to init geoservice: %v", err), "main", "")
		geoService = &config.GeoService{}
	}

	asynqClient := config.NewAsynqClient(viperConfig)
	defer asynqClient.Close()
	asynqServer := config.NewAsynqServer(viperConfig)
	asynqMux := config.NewAsynqMux()

	app := config.NewFiber(viperConfig)

	sweeper := config.Bootstrap(&config.BootstrapConfig{
		DB:          db,
		App:         app,
		Log:         logger,
		Validate:    validate,
		Config:      viperConfig,
		Producer:    producer,
		Redis:       redisClient,
		Geoservice:  geoService,
		AsynqClient: asynqClient,
		Async:       asynqMux,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := asynqServer.Run(asynqMux); err != nil {
			logger.Error("main", fmt.Sprintf("Asynq server stopped: %v", err), "main", "")
		}
	}()

	go sweeper.Run(ctx)

	go func() {
		webPort := viperConfig.GetInt("web.port")
		if err := app.Listen(fmt.Sprintf(":%d", webPort)); err != nil {
			logger.Error("main", fmt.Sprintf("Failed to start server: %v", err), "main", "")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("main", "Server delivery-service is shutting down...", "graceful", "")
	cancel()
	asynqServer.Shutdown()
	if err := app.Shutdown(); err != nil {
		logger.Error("main", fmt.Sprintf("Error during shutdown: %v", err), "graceful", "")
	}

	logger.Info("main", fmt.Sprintf("Server %s stopped", viperConfig.GetString("app.name")), "graceful", "")
}
