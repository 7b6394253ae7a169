package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"docchat/internal/ai"
	"docchat/internal/config"
	"docchat/internal/db"
	"docchat/internal/docsource"
	"docchat/internal/embedcache"
	"docchat/internal/handler"
	"docchat/internal/job"
	"docchat/internal/middleware"
	"docchat/internal/pkg/jwt"
	"docchat/internal/rag"
	"docchat/internal/repo"
	"docchat/internal/schedule"
	"docchat/internal/service"
)

func main() {
	var configPath string
	var clearExisting bool
	var tokenTTLHours int

	rootCmd := &cobra.Command{
		Use:   "docchat",
		Short: "document chat backend server",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the docchat server",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap(configPath)
			if err != nil {
				return err
			}
			return runServer(app)
		},
	}

	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "index the document corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap(configPath)
			if err != nil {
				return err
			}
			result := app.indexer.Index(cmd.Context(), clearExisting)
			fmt.Printf("indexed %d documents into %d chunks\n", result.IndexedCount, result.ChunkCount)
			for _, msg := range result.Errors {
				fmt.Printf("error: %s\n", msg)
			}
			return nil
		},
	}
	indexCmd.Flags().BoolVar(&clearExisting, "clear", false, "clear the index before indexing")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "show the index status",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap(configPath)
			if err != nil {
				return err
			}
			fmt.Printf("document_count: %d\n", app.indexer.Status(cmd.Context()))
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "clear the vector index",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap(configPath)
			if err != nil {
				return err
			}
			app.indexer.Clear(cmd.Context())
			fmt.Println("cleared")
			return nil
		},
	}

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "generate an admin token for the index endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			token, err := jwt.GenerateToken("admin", []byte(cfg.AdminSecret), time.Duration(tokenTTLHours)*time.Hour)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	tokenCmd.Flags().IntVar(&tokenTTLHours, "ttl", 24, "token lifetime in hours")

	rootCmd.AddCommand(runCmd, indexCmd, statusCmd, clearCmd, tokenCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

type app struct {
	cfg       *config.Config
	source    docsource.Source
	indexer   *rag.Indexer
	pipeline  *rag.Pipeline
	chatRepo  *repo.ChatRepo
	cacheRepo *repo.EmbeddingCacheRepo
}

func bootstrap(configPath string) (*app, error) {
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

	database, err := db.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.ApplyMigrations(database); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	embedProvider, err := ai.NewEmbedProvider(cfg.Embedding.Provider, cfg.Embedding.Data)
	if err != nil {
		return nil, fmt.Errorf("init embedding provider: %w", err)
	}
	chatProvider, err := ai.NewChatProvider(cfg.LLM.Provider, cfg.LLM.Data)
	if err != nil {
		return nil, fmt.Errorf("init llm provider: %w", err)
	}

	chunkRepo := repo.NewChunkRepo(database)
	chatRepo := repo.NewChatRepo(database)
	cacheRepo := repo.NewEmbeddingCacheRepo(database)

	embedder := ai.NewEmbedder(embedProvider, cfg.Embedding.Model)
	embedder = embedcache.WrapDBCacheToEmbedder(embedder, cacheRepo)
	embedder = embedcache.WrapLruCacheToEmbedder(embedder, cfg.EmbedCache.LruSize,
		time.Duration(cfg.EmbedCache.LruTTLMin)*time.Minute)

	index := rag.NewStoreIndex(chunkRepo, embedder)
	splitter, err := rag.NewSplitter(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	source, err := docsource.New(cfg.DocSource)
	if err != nil {
		return nil, fmt.Errorf("init doc source: %w", err)
	}
	indexer := rag.NewIndexer(source, splitter, index)

	retriever := rag.NewRetriever(index, cfg.RAG.RetrievalK)
	generator := rag.NewGenerator(chatProvider, rag.GeneratorOptions{
		Model:       cfg.LLM.Model,
		Temperature: cfg.RAG.Temperature,
		MaxTokens:   cfg.RAG.MaxTokens,
		PromptLang:  cfg.RAG.PromptLang,
	})
	pipeline := rag.NewPipeline(retriever, generator)

	return &app{
		cfg:       cfg,
		source:    source,
		indexer:   indexer,
		pipeline:  pipeline,
		chatRepo:  chatRepo,
		cacheRepo: cacheRepo,
	}, nil
}

func runServer(a *app) error {
	cfg := a.cfg
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("doc_source", cfg.DocSource.Type),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("embedding_provider", cfg.Embedding.Provider),
	)

	chatService := service.NewChatService(a.pipeline, a.chatRepo)
	sessionService := service.NewSessionService(a.chatRepo)
	indexService := service.NewIndexService(a.indexer, a.source)

	llmModel := cfg.LLM.Model
	deps := handler.RouterDeps{
		Chat:        handler.NewChatHandler(chatService, llmModel, cfg.LLM.Provider),
		Sessions:    handler.NewSessionHandler(sessionService),
		Index:       handler.NewIndexHandler(indexService),
		AdminSecret: []byte(cfg.AdminSecret),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllow),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewScheduler()
	if cfg.Jobs.CacheCleanupCron != "" {
		cleanup := job.NewEmbeddingCacheCleanupJob(a.cacheRepo, cfg.Jobs.CacheKeepDays)
		if err := scheduler.AddJob(cleanup, cfg.Jobs.CacheCleanupCron); err != nil {
			return fmt.Errorf("schedule cache cleanup: %w", err)
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

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
