package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bingo-task-system/handlers"
	"bingo-task-system/middleware"
	"bingo-task-system/models"
	"bingo-task-system/services"
	"bingo-task-system/utils"
	"bingo-task-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 32 * 1024 * 1024, // evidence photos/scans
	})

	// 🔐 GLOBAL: only Gateway requests allowed
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(allowedOriginsList, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles, X-User-Name, X-User-Email",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitEvidenceStore(); err != nil {
		log.Fatal("failed to initialize evidence store:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Task{},
		&models.UserTask{},
		&models.LeaderboardEntry{},
		&models.PatternAward{},
		&models.BadgeType{},
		&models.UserBadge{},
		&models.Player{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	board := services.BoardFromEnv()

	catalogPath := os.Getenv("TASK_CATALOG_PATH")
	if catalogPath == "" {
		catalogPath = "seed/tasks.json"
	}
	if err := services.SeedTasks(db, board, services.JSONCatalogLoader{Path: catalogPath}); err != nil {
		log.Fatal("failed to seed task catalog:", err)
	}
	if err := services.SeedBadges(db, board); err != nil {
		log.Fatal("failed to seed badge catalog:", err)
	}

	leaderboardService := services.NewLeaderboardService(db)
	patternService := services.NewPatternService(db, board)
	badgeService := services.NewBadgeService(db)
	taskService := services.NewTaskService(db, leaderboardService, patternService, badgeService)
	playerService := services.NewPlayerService(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional Redis mirror for hot leaderboard reads
	cacheClient, err := workers.NewLeaderboardCacheClient(leaderboardService)
	if err != nil {
		log.Fatal("failed to initialize leaderboard cache:", err)
	}
	if cacheClient != nil {
		go workers.PollLeaderboard(ctx, cacheClient, 15*time.Second)
	}

	// Optional mirror of profile-service users into the local players table
	if syncURL := os.Getenv("PROFILE_SYNC_URL"); syncURL != "" {
		syncPath := os.Getenv("PROFILE_SYNC_PATH")
		if syncPath == "" {
			syncPath = "/api/v1/public/profiles"
		}
		playerSync := workers.NewPlayerSyncWorker(db, syncURL, syncPath, os.Getenv("PROFILE_SYNC_TOKEN"))
		playerSync.Start(ctx)
	} else {
		log.Println("⚠️  PROFILE_SYNC_URL not set — player directory sync disabled")
	}

	leaderboardService.StartMonthlyResetScheduler()

	handlers.SetupTaskRoutes(app, taskService)
	handlers.SetupLeaderboardRoutes(app, leaderboardService, badgeService, cacheClient)
	handlers.SetupPlayerRoutes(app, playerService)

	app.Static("/uploads", "./uploads")

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}
	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Printf("✅ Board configured as %dx%d (%d patterns)", board.Rows, board.Cols, len(board.Patterns()))
	if cacheClient != nil {
		log.Println("✅ Leaderboard cache polling running (every 15s)")
	}
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")

	<-ctx.Done()
	log.Println("Shutting down server...")
}
