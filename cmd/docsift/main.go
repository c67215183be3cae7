package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/docsift/docsift/internal/ai"
	"github.com/docsift/docsift/internal/config"
	"github.com/docsift/docsift/internal/db"
	"github.com/docsift/docsift/internal/embedcache"
	"github.com/docsift/docsift/internal/handler"
	"github.com/docsift/docsift/internal/job"
	"github.com/docsift/docsift/internal/middleware"
	"github.com/docsift/docsift/internal/model"
	"github.com/docsift/docsift/internal/pipeline"
	"github.com/docsift/docsift/internal/schedule"
	"github.com/docsift/docsift/internal/service"
	"github.com/docsift/docsift/internal/vectorstore"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "docsift",
		Short: "document retrieval and question answering server",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the docsift server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}

	ingestCmd := &cobra.Command{
		Use:   "ingest [files...]",
		Short: "ingest local files into the vector store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runIngest(cfg, args)
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete-doc [doc-id]",
		Short: "delete every chunk of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runDeleteDoc(cfg, args[0])
		},
	}

	rootCmd.AddCommand(runCmd, ingestCmd, deleteCmd)
	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func loadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
	return cfg, nil
}

type app struct {
	cfg     *config.Config
	db      *sqlx.DB
	store   vectorstore.Store
	ingest  *service.IngestService
	queries *service.QueryService
	dbCache *embedcache.DBCache
}

func buildApp(cfg *config.Config) (*app, error) {
	var database *sqlx.DB
	if cfg.VectorStore.Type == "pgvector" || cfg.EmbedCache.EnableDB {
		var err error
		database, err = db.Open(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := db.ApplyMigrations(database); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}

	provider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Args)
	if err != nil {
		return nil, fmt.Errorf("init ai provider: %w", err)
	}
	timeout := time.Duration(cfg.AI.TimeoutSeconds) * time.Second
	embedder := ai.NewEmbedder(provider, cfg.AI.EmbedModel, timeout)
	var dbCache *embedcache.DBCache
	if cfg.EmbedCache.EnableDB {
		dbCache = embedcache.NewDBCache(database)
		embedder = embedcache.WrapDB(embedder, dbCache)
	}
	embedder = embedcache.WrapLRU(embedder, cfg.EmbedCache.LRUSize,
		time.Duration(cfg.EmbedCache.TTLMinutes)*time.Minute)
	generator := ai.NewGenerator(provider, cfg.AI.ChatModel, timeout)

	store, err := vectorstore.New(cfg.VectorStore, database)
	if err != nil {
		return nil, fmt.Errorf("init vector store: %w", err)
	}

	var chunker pipeline.Chunker
	switch cfg.Chunking.Strategy {
	case "character":
		chunker = pipeline.NewCharacterChunker(cfg.Chunking.ChunkSize)
	default:
		chunker = pipeline.NewSentenceChunker(cfg.Chunking.SentencesPerChunk)
	}
	processor := pipeline.NewProcessor(embedder, chunker)

	return &app{
		cfg:     cfg,
		db:      database,
		store:   store,
		ingest:  service.NewIngestService(processor, store),
		queries: service.NewQueryService(store, embedder, generator, cfg.Query),
		dbCache: dbCache,
	}, nil
}

func runServer(cfg *config.Config) error {
	logutil.GetLogger(context.Background()).Info("starting server",
		zap.Int("port", cfg.Port),
		zap.String("vector_store", cfg.VectorStore.Type),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.Bool("stateful", cfg.Query.Stateful))

	application, err := buildApp(cfg)
	if err != nil {
		return err
	}

	deps := handler.RouterDeps{
		Ask:       handler.NewAskHandler(application.queries),
		Documents: handler.NewDocumentHandler(application.ingest),
		AskWindow: time.Duration(cfg.AskRateLimitSeconds) * time.Second,
	}
	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if application.dbCache != nil {
		scheduler := schedule.NewScheduler()
		cleanup := job.NewEmbeddingCacheCleanupJob(application.dbCache, cfg.EmbedCache.KeepDays)
		if err := scheduler.AddJob(cleanup, "30 3 * * *"); err != nil {
			return err
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

func runIngest(cfg *config.Config, paths []string) error {
	application, err := buildApp(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()
	docs := make([]model.RawDocument, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		name := filepath.Base(path)
		docs = append(docs, model.RawDocument{
			DocID: name,
			Text:  string(content),
			Metadata: map[string]interface{}{
				"source_type": sourceTypeOf(path),
				"file_name":   name,
			},
		})
	}
	count, err := application.ingest.Ingest(ctx, docs)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("ingest complete", zap.Int("documents", len(docs)), zap.Int("chunks", count))
	return nil
}

func runDeleteDoc(cfg *config.Config, docID string) error {
	application, err := buildApp(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if err := application.ingest.DeleteDocument(ctx, docID); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("document deleted", zap.String("doc_id", docID))
	return nil
}

func sourceTypeOf(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "md", "markdown", "text", "log":
		return string(model.SourceTXT)
	case "xls", "xlsx":
		return string(model.SourceExcel)
	case "jpg", "jpeg", "png":
		return string(model.SourceImage)
	case "":
		return string(model.SourceTXT)
	default:
		return ext
	}
}
