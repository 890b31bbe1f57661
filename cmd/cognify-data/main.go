package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cognify-data/internal/analysis"
	"cognify-data/internal/config"
	"cognify-data/internal/database"
	"cognify-data/internal/docstore"
	httpapi "cognify-data/internal/http"
	"cognify-data/internal/logger"
	"cognify-data/internal/report"
	"cognify-data/internal/repository"
	"cognify-data/internal/scoring"
	"cognify-data/internal/service"
	"cognify-data/internal/session"
	"cognify-data/internal/store"
	"cognify-data/internal/transcribe"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "cognify-data")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	kv := store.NewRedisKV(redisClient)

	// 文档存储：DB 可用走 Postgres，否则退回内存实现保证本地 go run 可用
	var db *sql.DB
	var docs docstore.Store = docstore.NewMemoryStore()
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			docs = docstore.NewPostgresStore(db, log)
			log.Info("DB enabled for cognify-data")
		} else {
			log.Warn("DB enabled but connection failed, falling back to memory store", zap.Error(err))
		}
	}
	// 文档变更通过 redis stream 推给订阅方（前端实时刷新）
	docs = docstore.NewNotifyingStore(docs, redisClient, log)

	patients := repository.NewPatientsRepo(docs, log)
	analysisClient := analysis.NewClient(cfg.Analysis.BaseURL, log)
	transcribeClient := transcribe.NewClient(
		cfg.Transcribe.BaseURL,
		time.Duration(cfg.Transcribe.PollInterval)*time.Second,
		cfg.Transcribe.MaxAttempts,
		log,
	)

	recorder := session.NewRecorder(
		patients,
		session.NewBuffer(kv, time.Duration(cfg.Session.BufferTTL)*time.Second),
		session.NewFanout(docs, log),
		session.NewProgress(patients, log),
		scoring.NewEngine(analysisClient, log),
		transcribeClient,
		analysisClient,
		log,
	)
	aggregator := report.NewAggregator(docs, analysisClient, log).WithCache(kv, time.Minute)

	router := httpapi.NewRouter(log)
	router.RegisterPatientRoutes(httpapi.NewPatientHandler(patients, log))
	router.RegisterSessionRoutes(httpapi.NewSessionHandler(recorder, log))
	router.RegisterReportRoutes(httpapi.NewReportHandler(aggregator, patients, log))

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case <-errCh:
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	_ = redisClient.Close()
	if db != nil {
		_ = db.Close()
	}
}
