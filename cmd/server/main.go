package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/udaraamarasekara/busbook/internal/config"
	"github.com/udaraamarasekara/busbook/internal/database"
	"github.com/udaraamarasekara/busbook/internal/handler"
	"github.com/udaraamarasekara/busbook/internal/middleware"
	"github.com/udaraamarasekara/busbook/internal/queue"
	"github.com/udaraamarasekara/busbook/internal/repository"
	"github.com/udaraamarasekara/busbook/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	userRepo := repository.NewUserRepo(db)
	routeRepo := repository.NewRouteRepo(db)
	busRepo := repository.NewBusRepo(db)
	tripRepo := repository.NewTripRepo(db)
	bookingRepo := repository.NewBookingRepo(db)

	authHandler := handler.NewAuthHandler(userRepo, cfg.JWTSecret, cfg.AccessTTLMin, cfg.BcryptCost)
	ntcHandler := handler.NewNTCHandler(routeRepo, busRepo, userRepo)
	ownerHandler := handler.NewOwnerHandler(busRepo, routeRepo, tripRepo, bookingRepo)
	commuterTripHandler := handler.NewCommuterTripHandler(routeRepo, tripRepo, bookingRepo)
	bookingHandler := handler.NewBookingHandler(tripRepo, bookingRepo)

	e := echo.New()
	e.HideBanner = true

	// Redis is optional: without it the limiter and the cache are no-ops.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and response cache disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterNTC(e, ntcHandler, cfg.JWTSecret)
	router.RegisterOwner(e, ownerHandler, cfg.JWTSecret)
	router.RegisterCommuter(e, commuterTripHandler, bookingHandler, cfg.JWTSecret, cache)

	// Background consumer writes booking events to logs/booking.log and
	// reconnects on broker failure.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
