package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"authgate/internal/broker"
	"authgate/internal/config"
	"authgate/internal/database"
	"authgate/internal/middleware"
	"authgate/internal/modules/auth"
	"authgate/internal/modules/schools"
	"authgate/internal/modules/users"
	"authgate/internal/pkg/token"
	"authgate/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	tokenRepo := repository.NewTokenRepository(db)

	issuer := token.NewIssuer(cfg.JWTSecret)

	authService := auth.NewService(userRepo, sessionRepo, tokenRepo, issuer, cfg.AccessTTL, cfg.RefreshTTL)
	usersService := users.NewService(cfg.UsersServiceURL, nil, userRepo)
	schoolsService := schools.NewService(cfg.SchoolsServiceURL, nil)

	authHandler := auth.NewHandler(authService, usersService)
	usersHandler := users.NewHandler(usersService)
	schoolsHandler := schools.NewHandler(schoolsService)

	// User replication keeps the local replica in sync with the
	// directory; login works even while the users service is down.
	bus, err := broker.Connect(cfg.RabbitMQURL, cfg.ServiceName)
	if err != nil {
		log.Fatal(err)
	}
	defer bus.Close()

	replicator := users.NewReplicator(userRepo)
	go func() {
		if err := bus.Subscribe(context.Background(), users.UsersExchange, replicator.Apply); err != nil {
			log.Printf("broker: users subscription stopped: %v", err)
		}
	}()

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	r.GET("/health", healthHandler(cfg.ServiceName))

	v1 := r.Group("/api/v1")
	{
		authHandler.RegisterPublicRoutes(v1)
		schoolsHandler.RegisterRoutes(v1)

		protected := v1.Group("/")
		protected.Use(middleware.RequireSession(authService))
		{
			authHandler.RegisterProtectedRoutes(protected)
			usersHandler.RegisterProtectedRoutes(protected)
			schoolsHandler.RegisterProtectedRoutes(protected)
		}
	}

	if err := r.Run(fmt.Sprintf(":%d", cfg.ServicePort)); err != nil {
		log.Fatal(err)
	}
}

func healthHandler(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": serviceName})
	}
}
