package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leave_portal/internal/api"
	"leave_portal/internal/api/views"
	"leave_portal/internal/app/service"
	"leave_portal/internal/app/worker"
	"leave_portal/internal/common/security"
	"leave_portal/internal/domain/repository"
	"leave_portal/internal/platform/cache"
	"leave_portal/internal/platform/config"
	"leave_portal/internal/platform/database"
	"leave_portal/internal/platform/leaveapi"
)

func main() {
	// 1. Load Configuration
	config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Initialize JWT
	security.InitJWT()
	fmt.Println("JWT initialized.")

	// 3. Load leave policy
	policy, err := config.LoadPolicy(config.AppConfig.PolicyFile)
	if err != nil {
		log.Fatalf("Could not load leave policy: %v", err)
	}
	fmt.Printf("Leave policy loaded with %d categories.\n", len(policy))

	// 4. Initialize Redis (optional unless it backs sessions)
	if config.AppConfig.RedisAddr != "" || config.AppConfig.SessionBackend == "redis" {
		if config.AppConfig.RedisAddr == "" {
			log.Fatalf("SESSION_BACKEND=redis requires REDIS_ADDR")
		}
		cache.ConnectRedis()
		defer cache.CloseRedis()
	}

	// 5. Initialize Session Store
	var store repository.SessionStore
	switch config.AppConfig.SessionBackend {
	case "memory":
		store = repository.NewMemorySessionStore()
	case "redis":
		store = repository.NewRedisSessionStore(cache.RDB)
	case "postgres":
		database.Connect()
		defer database.Close()
		schemaCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := repository.EnsurePgSessionSchema(schemaCtx, database.DB); err != nil {
			cancel()
			log.Fatalf("Could not prepare session table: %v", err)
		}
		cancel()
		store = repository.NewPgSessionStore(database.DB)
	default:
		log.Fatalf("Unknown SESSION_BACKEND %q (want memory, redis or postgres)", config.AppConfig.SessionBackend)
	}
	fmt.Printf("Session store: %s\n", config.AppConfig.SessionBackend)

	// 6. Initialize Services
	client := leaveapi.NewClient(
		config.AppConfig.LeaveAPIBaseURL,
		&http.Client{Timeout: config.AppConfig.BackendTimeout},
		config.AppConfig.SessionTTL,
	)
	boards := service.NewBoardCache()
	authService := service.NewAuthService(client, boards)
	employeeService := service.NewEmployeeService(client, boards, policy)
	adminService := service.NewAdminService(client, boards)

	renderer, err := views.New()
	if err != nil {
		log.Fatalf("Could not parse templates: %v", err)
	}

	// 7. Initialize Session Sweeper (as a goroutine)
	sweeper := worker.NewSessionSweeper(
		store,
		boards,
		cache.RDB,
		config.AppConfig.SweepInterval,
		config.AppConfig.SweepLockKey,
		time.Duration(config.AppConfig.SweepLockTTLSeconds)*time.Second,
		config.AppConfig.SessionTTL,
	)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go sweeper.Start(workerCtx)
	fmt.Println("Session sweeper started.")

	// 8. Initialize Router & HTTP Server
	router := api.NewRouter(store, authService, employeeService, adminService, renderer, config.AppConfig.CORSAllowedOrigins)

	// No WriteTimeout: /ws/session connections stay open. Page routes are
	// bounded by the router's timeout middleware.
	server := &http.Server{
		Addr:        ":" + config.AppConfig.APIPort,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	// 9. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")
	workerCancel() // Signal sweeper to stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server and sweeper stopped gracefully.")
}
