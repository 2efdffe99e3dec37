package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/land-rent-service/internal/config"
	"github.com/iliyamo/land-rent-service/internal/database"
	"github.com/iliyamo/land-rent-service/internal/handler"
	"github.com/iliyamo/land-rent-service/internal/middleware"
	"github.com/iliyamo/land-rent-service/internal/queue"
	"github.com/iliyamo/land-rent-service/internal/rental"
	"github.com/iliyamo/land-rent-service/internal/repository"
	"github.com/iliyamo/land-rent-service/internal/router"
	"github.com/iliyamo/land-rent-service/internal/storage"
)

func main() {
	// Missing .env is fine in containers where the environment is
	// injected directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	files, err := storage.NewImageStore(cfg.ImageDir, cfg.ImageBaseURL)
	if err != nil {
		log.Fatalf("image store: %v", err)
	}

	users := repository.NewUserRepo(db)
	lands := repository.NewLandRepo(db)
	images := repository.NewImageRepo(db)
	rentals := repository.NewRentalRepo(db)
	chats := repository.NewChatRepo(db)

	machine := rental.NewMachine(rentals)

	// Redis is optional; cache and rate limiter become no-ops when
	// it is absent.
	rdb := config.NewRedisClient()

	h := router.Handlers{
		Auth:    handler.NewAuthHandler(cfg, users),
		Users:   handler.NewUserHandler(cfg, users),
		Lands:   handler.NewLandHandler(lands, images, machine, files),
		Images:  handler.NewImageHandler(images, files),
		Rentals: handler.NewRentalHandler(machine, lands, rentals),
		Chats:   handler.NewChatHandler(chats),
	}
	mw := router.Middleware{
		Auth:      middleware.JWTAuth(cfg.JWTSecret, users),
		Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Static("/static/images", cfg.ImageDir)

	router.Register(e, h, mw)

	// The consumer reconnects on its own; a dead broker only stops
	// the activity log, never the API.
	go func() {
		if err := queue.StartRentalConsumer(); err != nil {
			log.Printf("rental consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
