package main

import (
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"campuspulse/server/config"
	"campuspulse/server/internal/api"
	"campuspulse/server/internal/busyness"
	"campuspulse/server/internal/places"
	"campuspulse/server/internal/popularity"
	"campuspulse/server/internal/timeparse"
	"campuspulse/server/internal/worker"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	campus := config.DefaultCampus
	logger.WithFields(logrus.Fields{
		"campus":   campus.Name,
		"radius_m": campus.RadiusMeters,
	}).Info("Using campus search region")

	// One token bucket for every provider call, regardless of tier.
	limiter := rate.NewLimiter(rate.Limit(cfg.Providers.RequestsPerSecond), cfg.Providers.RequestBurst)

	placesClient := places.NewClient(cfg, campus, limiter, logger)
	popularityClient := popularity.NewClient(cfg, limiter, logger)
	provider := popularity.NewProvider(popularityClient, logger)

	resolver := &timeparse.Resolver{Now: time.Now}
	pool := worker.NewPool(cfg.Engine.WorkerCount, logger)

	engine := busyness.NewEngine(placesClient, provider, resolver, pool, busyness.Options{
		SubvenueRadiusMeters: float64(cfg.Engine.SubvenueRadiusMeters),
		AreaRadiusMeters:     float64(cfg.Engine.AreaRadiusMeters),
		MaxCandidates:        cfg.Engine.MaxCandidates,
		Categories:           config.SubvenueTypes,
	}, logger)

	router := gin.Default()
	router.Use(cors.Default())
	api.SetupRoutes(router, engine, logger)

	logger.Infof("Starting server on port %s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}
}
