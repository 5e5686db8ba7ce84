package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/shelterpaws/waggle/internal/blobstore"
	"github.com/shelterpaws/waggle/internal/config"
	"github.com/shelterpaws/waggle/internal/database"
	"github.com/shelterpaws/waggle/internal/logger"
	"github.com/shelterpaws/waggle/internal/namecrypt"
	"github.com/shelterpaws/waggle/internal/pipeline"
	"github.com/shelterpaws/waggle/internal/repository"
	"github.com/shelterpaws/waggle/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	zlog, err := logger.New()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("connect database", zap.Error(err))
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		zlog.Fatal("ensure schema", zap.Error(err))
	}

	codec, err := namecrypt.New(cfg.DogNameKey)
	if err != nil {
		zlog.Fatal("init name codec", zap.Error(err))
	}
	dogs := repository.NewDogRepository(pool, codec)

	store, err := blobstore.NewMinioStore(cfg)
	if err != nil {
		zlog.Fatal("init blob store", zap.Error(err))
	}
	if err := store.EnsureBucket(ctx, cfg.ImageBucket); err != nil {
		zlog.Fatal("ensure bucket", zap.Error(err))
	}

	gen := pipeline.NewGenerator(store, dogs, cfg.StandardBox, cfg.ThumbnailBox, zlog)
	processor := worker.NewProcessor(gen, zlog)

	server := asynq.NewServer(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, asynq.Config{
		Concurrency: cfg.WorkerPool,
	})

	go func() {
		<-ctx.Done()
		server.Shutdown()
	}()

	zlog.Info("worker started", zap.Int("concurrency", cfg.WorkerPool))
	if err := server.Run(processor.Handler()); err != nil {
		zlog.Error("worker stopped", zap.Error(err))
		os.Exit(1)
	}
}
