package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/univeil/univeil/config"
	"github.com/univeil/univeil/internal/api/handlers"
	"github.com/univeil/univeil/internal/api/middleware"
	"github.com/univeil/univeil/internal/api/routes"
	"github.com/univeil/univeil/internal/cache"
	"github.com/univeil/univeil/internal/logger"
	"github.com/univeil/univeil/internal/models"
	mongorepo "github.com/univeil/univeil/internal/repositories/mongo"
	pgrepo "github.com/univeil/univeil/internal/repositories/postgres"
	"github.com/univeil/univeil/internal/services"
)

func main() {
	_ = godotenv.Load()

	l := logger.New()

	// Init PostgreSQL
	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	l.Info("PostgreSQL connected")

	if err := config.PostgresDB.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Post{},
		&models.PostLike{},
		&models.Event{},
		&models.EventRSVP{},
		&models.Wallet{},
		&models.CoinLedger{},
	); err != nil {
		log.Fatalf("PostgreSQL migrate error: %v", err)
	}

	// Init MongoDB
	if err := config.InitMongo(); err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	if err := config.EnsureMongoIndexes(); err != nil {
		log.Fatalf("MongoDB index error: %v", err)
	}
	l.Info("MongoDB connected")

	// Init Redis
	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	l.Info("Redis connected")

	// Repositories
	users := pgrepo.NewUserRepo(config.PostgresDB)
	profiles := pgrepo.NewProfileRepo(config.PostgresDB)
	posts := pgrepo.NewPostRepo(config.PostgresDB)
	events := pgrepo.NewEventRepo(config.PostgresDB)
	wallets := pgrepo.NewWalletRepo(config.PostgresDB)
	blindSessions := mongorepo.NewBlindSessionRepo(config.MongoDatabase())

	rcache := cache.NewRedisCache(config.RedisClient)

	// Services
	authSvc := services.NewAuthService(users, wallets)
	profileSvc := services.NewProfileService(profiles)
	feedSvc := services.NewFeedService(posts)
	eventSvc := services.NewEventService(events)
	walletSvc := services.NewWalletService(wallets, rcache)
	matchmaker := services.NewMatchmaker(blindSessions, l)
	blindSvc := services.NewBlindService(blindSessions, matchmaker, walletSvc, profileSvc, l)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go blindSvc.RunSweeper(ctx, 30*time.Second)

	// Start Gin server
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(l))

	routes.RegisterRoutes(r, routes.Deps{
		Auth:    handlers.NewAuthHandler(authSvc),
		Profile: handlers.NewProfileHandler(profileSvc),
		Feed:    handlers.NewFeedHandler(feedSvc),
		Event:   handlers.NewEventHandler(eventSvc),
		Wallet:  handlers.NewWalletHandler(walletSvc),
		Blind:   handlers.NewBlindHandler(matchmaker, blindSvc),
		WS:      handlers.NewWSHandler(blindSvc, config.RedisClient),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
