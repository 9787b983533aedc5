package main // Entry point package

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/eveauth/eve-auth-api/internal/auth"
	"github.com/eveauth/eve-auth-api/internal/config"
	"github.com/eveauth/eve-auth-api/internal/database"
	"github.com/eveauth/eve-auth-api/internal/handler"
	"github.com/eveauth/eve-auth-api/internal/middleware"
	"github.com/eveauth/eve-auth-api/internal/queue"
	"github.com/eveauth/eve-auth-api/internal/repository"
	"github.com/eveauth/eve-auth-api/internal/router"
	"github.com/eveauth/eve-auth-api/internal/token"
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

	codec, err := token.NewCodec(token.CodecConfig{
		Keys:      cfg.JWTKeys,
		ActiveKID: cfg.JWTActiveKID,
		Leeway:    cfg.JWTLeeway,
	})
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	accessTTL := time.Duration(cfg.AccessTTLMin) * time.Minute
	refreshTTL := time.Duration(cfg.RefreshTTLDays) * 24 * time.Hour
	issuer := auth.NewIssuer(codec, tokens, accessTTL, refreshTTL)
	validator := auth.NewValidator(codec, tokens)

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting disabled")
	}
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	bearer := middleware.BearerAuth(validator)

	// Audit trail consumer; reconnects forever in the background.
	go func() {
		if err := queue.StartSessionConsumer(); err != nil {
			log.Printf("session consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens, issuer, validator), limiter, bearer)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
