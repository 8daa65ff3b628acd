package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/doclink-ai/doclink/internal/api/handlers"
	"github.com/doclink-ai/doclink/internal/cache"
	"github.com/doclink-ai/doclink/internal/config"
	"github.com/doclink-ai/doclink/internal/cryptox"
	"github.com/doclink-ai/doclink/internal/database"
	"github.com/doclink-ai/doclink/internal/extract"
	"github.com/doclink-ai/doclink/internal/jobs"
	"github.com/doclink-ai/doclink/internal/openai"
	"github.com/doclink-ai/doclink/internal/repository"
	"github.com/doclink-ai/doclink/internal/search"
	"github.com/doclink-ai/doclink/internal/server"
	"github.com/doclink-ai/doclink/internal/service"
	"github.com/doclink-ai/doclink/internal/storage"
	"github.com/doclink-ai/doclink/internal/telemetry"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the doclink API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	redisClient, err := cache.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()
	log.Println("connected to redis")

	workingSetCache := cache.NewWorkingSetCache(
		redisClient,
		time.Duration(cfg.WorkingSetTTLSeconds)*time.Second,
		time.Duration(cfg.StagingTTLSeconds)*time.Second,
	)

	cipher, err := cryptox.NewEncryptorFromPassphrase(cfg.ContentKey, cfg.ContentSalt)
	if err != nil {
		return fmt.Errorf("failed to initialize content encryption: %w", err)
	}

	userRepo := repository.NewUserRepository(pool)
	domainRepo := repository.NewDomainRepository(pool)
	fileRepo := repository.NewFileRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	var archiver service.UploadArchiver
	if cfg.HasS3() {
		archive, err := storage.NewArchive(ctx, storage.ArchiveConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create upload archive: %w", err)
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure archive bucket: %w", err)
		}
		log.Printf("upload archive bucket '%s' ready", cfg.S3Bucket)
		archiver = archive
	}

	if !cfg.HasOpenAI() {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	aiClient := openai.NewClient(cfg.OpenAIAPIKey)
	searchEngine := search.NewEngine(aiClient, aiClient)

	uuidGen := &service.DefaultUUIDGenerator{}

	quota := service.NewQuotaLedger(userRepo, sessionRepo)
	activationSvc := service.NewActivationService(domainRepo, fileRepo, workingSetCache, cipher)
	uploadSvc := service.NewUploadService(
		txRunner,
		quota,
		activationSvc,
		workingSetCache,
		extract.New(),
		aiClient,
		extract.NewHTTPFetcher(),
		cipher,
		archiver,
		uuidGen,
		cfg.MaxUploadBytes,
	)
	answerSvc := service.NewAnswerService(activationSvc, quota, sessionRepo, searchEngine)
	domainSvc := service.NewDomainService(txRunner, domainRepo, fileRepo, quota, activationSvc, uuidGen)
	userSvc := service.NewUserService(txRunner, userRepo, domainRepo, fileRepo, sessionRepo, quota, uuidGen)

	pruner := jobs.NewSessionPruner(sessionRepo, jobs.DefaultSessionRetention)
	pruneWorker := jobs.NewWorker(pruner, time.Hour)
	go pruneWorker.Start(ctx)
	log.Println("session pruner started")

	routerCfg := server.RouterConfig{
		TokenValidator: service.NewTokenAuthenticator(cfg.AuthSecret, userRepo),
		UserHandler:    handlers.NewUserHandler(userSvc),
		DomainHandler:  handlers.NewDomainHandler(domainSvc, activationSvc),
		UploadHandler:  handlers.NewUploadHandler(uploadSvc),
		AnswerHandler:  handlers.NewAnswerHandler(answerSvc),
		MaxBodyBytes:   cfg.MaxUploadBytes,
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	pruneWorker.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	// Create postgres driver instance
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Create migrate instance with file source
	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	// Run migrations
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	// Get migration version and status
	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
