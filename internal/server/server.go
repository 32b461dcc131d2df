package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docsage/backend/internal/db"
	"github.com/docsage/backend/internal/progress"
	"github.com/docsage/backend/internal/providers"
	"github.com/docsage/backend/internal/queue"
	mid "github.com/docsage/backend/internal/server/middleware"
	"github.com/docsage/backend/internal/storage"
	"github.com/docsage/backend/internal/util"
	"github.com/docsage/backend/pkg/logger"
	"github.com/docsage/backend/pkg/rag/extract"
	"github.com/docsage/backend/pkg/retrieve"
	storepgx "github.com/docsage/backend/pkg/store/pgx"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	databaseURL := util.GetEnv("DATABASE_URL")
	if err := db.Migrate(databaseURL); err != nil {
		logger.Fatal("Failed to run migrations", "err", err)
	}

	conn, err := db.Connect(ctx, databaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer conn.Close()

	que := queue.Init()
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	if err := queue.SetupQueues(ch, queue.Queues); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: util.GetEnv("REDIS_ADDR")})
	defer rdb.Close()

	s3 := storage.NewS3Client(ctx)
	aiClient := providers.NewAIClientFromEnv()

	graph := storepgx.NewGraphStorage(conn)
	vectors := storepgx.NewVectorStorage(conn)
	extractor := extract.New(extract.Params{
		Client:      aiClient,
		Concurrency: int(util.GetEnvNumeric("EXTRACT_CONCURRENCY", extract.DefaultConcurrency)),
	})

	app := &mid.App{
		DBConn:   conn,
		Queue:    ch,
		S3:       s3,
		AIClient: aiClient,
		Tracker:  progress.NewTracker(rdb),
		Retriever: retrieve.New(retrieve.Params{
			Client:    aiClient,
			Extractor: extractor,
			Vectors:   vectors,
			Graph:     graph,
		}),
		Graph: graph,
	}

	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("512M"))

	RegisterRoutes(e, app)

	go func() {
		port := util.GetEnv("PORT")
		if port == "" {
			port = "8080"
		}
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
