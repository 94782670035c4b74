package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/gestprev/backend/internal/application/services"
	"github.com/gestprev/backend/internal/bootstrap"
	"github.com/gestprev/backend/internal/infrastructure/database"
	"github.com/gestprev/backend/internal/infrastructure/persistence"
	"github.com/gestprev/backend/internal/interfaces/middleware"
	"github.com/gestprev/backend/internal/interfaces/rest"
)

// auditTable records every cell-level change of the services grid
const auditTable = "carrefour_log"

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	db, err := database.GetInstance()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Database connection established")

	if err := bootstrap.InitializeSchema(db); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	// Repositories
	cfg := services.DefaultGridConfig()
	schemaRepo := persistence.NewSchemaRepository(db.DB())
	gridRepo := persistence.NewGridRepository(db.DB(), cfg.Table, cfg.IDColumn)
	auditRepo := persistence.NewAuditRepository(db.DB(), auditTable)
	userRepo := persistence.NewUserRepository(db.DB())
	chatRepo := persistence.NewChatRepository(db.DB())
	materialsRepo := persistence.NewMaterialsRepository(db.DB())
	txManager := persistence.NewTransactionManager(db)

	// Services
	gridSvc := services.NewGridService(cfg, schemaRepo, gridRepo, auditRepo, txManager)
	authSvc := services.NewAuthService(userRepo)
	chatSvc := services.NewChatService(chatRepo)
	materialsSvc := services.NewMaterialsService(materialsRepo)
	maintenanceSvc := services.NewMaintenanceService(chatRepo, userRepo)

	if err := maintenanceSvc.Start(); err != nil {
		log.Fatalf("Failed to start maintenance jobs: %v", err)
	}

	// Handlers
	gridHandler := rest.NewGridHandler(gridSvc, authSvc)
	authHandler := rest.NewAuthHandler(authSvc)
	chatHandler := rest.NewChatHandler(chatSvc)
	materialsHandler := rest.NewMaterialsHandler(materialsSvc)

	router := gin.Default()
	router.Use(middleware.CORS())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	requireAuth := middleware.RequireAuth()

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", requireAuth, authHandler.Logout)
			auth.GET("/me", requireAuth, authHandler.Me)
		}

		api.POST("/ping", requireAuth, authHandler.Ping)
		api.GET("/utenti-online", requireAuth, authHandler.OnlineUsers)

		gridHandler.RegisterRoutes(api.Group("", requireAuth))
		api.GET("/servizi/ge/log", requireAuth, middleware.RequireAdmin(), gridHandler.AuditTrail)

		api.POST("/materiali/search", requireAuth, materialsHandler.Search)
	}

	router.GET("/ordini_materiale/export", requireAuth, materialsHandler.Export)

	chat := router.Group("/chat", requireAuth)
	{
		chat.GET("/messages/public", chatHandler.PublicMessages)
		chat.GET("/messages/gruppo", chatHandler.GroupMessages)
		chat.POST("/send/public", chatHandler.SendPublic)
		chat.POST("/send/gruppo", chatHandler.SendGroup)
		chat.DELETE("/delete/:id", chatHandler.Delete)
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("Server listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	maintenanceSvc.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
	if err := db.Close(); err != nil {
		log.Printf("Closing database: %v", err)
	}
	log.Println("Server stopped")
}
