package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/cyrilbhau/visitor-kiosk/internal/config"
	"github.com/cyrilbhau/visitor-kiosk/internal/database"
	"github.com/cyrilbhau/visitor-kiosk/internal/handler"
	"github.com/cyrilbhau/visitor-kiosk/internal/middleware"
	"github.com/cyrilbhau/visitor-kiosk/internal/queue"
	"github.com/cyrilbhau/visitor-kiosk/internal/repository"
	"github.com/cyrilbhau/visitor-kiosk/internal/router"
	"github.com/cyrilbhau/visitor-kiosk/internal/storage"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: without it the cache and rate limiter disable
	// themselves and the kiosk keeps working.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; response cache and rate limiting disabled")
	}

	reasonRepo := repository.NewVisitReasonRepo(db)
	visitRepo := repository.NewVisitRepo(db)
	syncRepo := repository.NewCrmSyncRepo(db)

	// The photo store is optional too: visits are recorded photo-less when
	// the bucket is not configured.
	var photos handler.PhotoStore
	if ps, err := storage.NewPhotoStore(); err != nil {
		log.Printf("photo store disabled: %v", err)
	} else {
		photos = ps
	}

	publicHandler := handler.NewPublicHandler(reasonRepo, visitRepo)
	visitHandler := handler.NewVisitHandler(visitRepo, reasonRepo, photos, queue.PublishVisitRecorded)
	adminAuth := handler.NewAdminAuthHandler(cfg)
	adminReasons := handler.NewAdminReasonHandler(reasonRepo)
	adminVisits := handler.NewAdminVisitHandler(visitRepo, photos)

	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	rateMW := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterPublic(e, publicHandler, visitHandler, cacheMW, rateMW)
	router.RegisterAdmin(e, adminAuth, adminReasons, adminVisits, cfg.SessionSecret)

	// CRM feed consumer: reconnects forever, never blocks request handling.
	go func() {
		if err := queue.StartCRMConsumer(syncRepo, cfg.CRMProvider); err != nil {
			log.Printf("crm consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
