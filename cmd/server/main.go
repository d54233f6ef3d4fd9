package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"geoatlas/internal/habilitation"
	habilitationHandler "geoatlas/internal/habilitation/handler"
	"geoatlas/internal/history"
	"geoatlas/internal/history/archive"
	historyHandler "geoatlas/internal/history/handler"
	"geoatlas/internal/platform/cache"
	"geoatlas/internal/platform/config"
	"geoatlas/internal/platform/httpserver"
	"geoatlas/internal/platform/logger"
	"geoatlas/internal/platform/metrics"
	platformmongo "geoatlas/internal/platform/mongo"
	platformredis "geoatlas/internal/platform/redis"
	"geoatlas/internal/record"
	recordHandler "geoatlas/internal/record/handler"
	recordService "geoatlas/internal/record/service"
	"geoatlas/internal/roles"
	"geoatlas/internal/suggestion"
	suggestionHandler "geoatlas/internal/suggestion/handler"
	"geoatlas/internal/synthese"
	syntheseHandler "geoatlas/internal/synthese/handler"
	httptransport "geoatlas/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()
	table := roles.DefaultTable()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	mongoClient := platformmongo.New(cfg.Mongo)
	if err := mongoClient.Connect(ctx); err != nil {
		log.Error("mongo connection failed", "error", err.Error())
		os.Exit(1)
	}
	db := mongoClient.Database()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err.Error())
		os.Exit(1)
	}

	archiveSink, err := archive.Open(cfg.Archive.DSN)
	if err != nil {
		log.Error("history archive connection failed", "error", err.Error())
		os.Exit(1)
	}

	var archiveCh chan history.Entry
	if archiveSink != nil {
		archiveCh = make(chan history.Entry, cfg.Archive.BufferSize)
	}

	summaryCache := cache.New(redisClient, cfg.Redis.TTL, log)

	historyWriter := history.NewWriter(history.NewMongoStore(db, "history"), log, m, archiveCh)
	recordStore := record.NewMongoStore(db, "generic_objects")
	records := recordService.New(recordStore, historyWriter, table, log, m, summaryCache)
	suggestions := suggestion.New(suggestion.NewMongoStore(db, "suggestions"), recordStore, historyWriter, table, log, m)
	habilitations := habilitation.New(habilitation.NewMongoStore(db), table, log, m)
	syntheses := synthese.New(synthese.NewMongoStore(db, "syntheses"), recordStore, table, log)

	health := map[string]httptransport.HealthChecker{"mongo": mongoClient}
	if redisClient != nil {
		health["redis"] = redisClient
	}
	if archiveSink != nil {
		health["archive"] = archiveSink
	}

	router := httptransport.NewRouter(httptransport.Config{
		Logger:        log,
		JWTSigningKey: cfg.JWTSigningKey,
		Grants:        habilitations,
		Handlers: []httptransport.Registrar{
			recordHandler.New(records, log),
			suggestionHandler.New(suggestions, log),
			habilitationHandler.New(habilitations, table, log),
			syntheseHandler.New(syntheses, log),
			historyHandler.New(historyWriter, table, log),
		},
		Health: health,
	})

	srv := httpserver.New(cfg.Addr, router)

	if archiveSink != nil {
		worker := archive.NewWorker(archiveSink, archiveCh, log, m)
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("archive worker stopped", "error", err.Error())
			}
		}()
	}

	log.Info("starting geoatlas", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err.Error())
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
	}
	if err := mongoClient.Close(shutdownCtx); err != nil {
		log.Error("mongo close failed", "error", err.Error())
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if archiveSink != nil {
		_ = archiveSink.Close()
	}
}
