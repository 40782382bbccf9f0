package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quorum/internal/admin"
	adminhandler "quorum/internal/admin/handler"
	"quorum/internal/audit"
	audithandler "quorum/internal/audit/handler"
	"quorum/internal/ballot"
	ballothandler "quorum/internal/ballot/handler"
	"quorum/internal/credential"
	credentialhandler "quorum/internal/credential/handler"
	"quorum/internal/election"
	electionhandler "quorum/internal/election/handler"
	"quorum/internal/platform/config"
	"quorum/internal/platform/httpserver"
	"quorum/internal/platform/logger"
	"quorum/internal/platform/metrics"
	pgplatform "quorum/internal/platform/postgres"
	redisplatform "quorum/internal/platform/redis"
	"quorum/internal/registry"
	registryhandler "quorum/internal/registry/handler"
	"quorum/internal/tally"
	tallyhandler "quorum/internal/tally/handler"
	httptransport "quorum/internal/transport/http"
)

type dbCheck struct {
	db *sql.DB
}

func (c dbCheck) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// main wires stores, services, and the HTTP surface. With no database URL
// the engine runs entirely in memory, which is the dev and test mode; with
// one it runs on Postgres. Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	checks := map[string]httptransport.HealthChecker{}

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = pgplatform.Open(cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := pgplatform.CreateSchema(context.Background(), db); err != nil {
			log.Error("failed to apply schema", "error", err)
			os.Exit(1)
		}
		checks["postgres"] = dbCheck{db: db}
	}

	redisClient, err := redisplatform.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		checks["redis"] = redisClient
	}

	// Stores. Memory and Postgres variants satisfy the same interfaces.
	var (
		registryStore   registry.Store
		electionStore   election.Store
		credentialStore credential.Store
		ballotStore     ballot.Store
		castTx          ballot.CastTx
		auditStore      audit.Store
	)
	if db != nil {
		credStore := credential.NewPostgresStore(db)
		registryStore = registry.NewPostgresStore(db)
		electionStore = election.NewPostgresStore(db)
		credentialStore = credStore
		ballotStore = ballot.NewPostgresStore(db)
		castTx = ballot.NewSQLCastTx(db, credStore)
		auditStore = audit.NewPostgresStore(db)
	} else {
		credStore := credential.NewInMemoryStore()
		ballots := ballot.NewInMemoryStore()
		registryStore = registry.NewInMemoryStore()
		electionStore = election.NewInMemoryStore()
		credentialStore = credStore
		ballotStore = ballots
		castTx = ballot.NewInMemoryCastTx(ballots, credStore)
		auditStore = audit.NewInMemoryStore()
	}

	// Audit events flow through a buffered inbox so domain operations never
	// block on the trail.
	inbox := make(chan audit.Event, 256)
	publisher := audit.NewPublisher(inbox, log)
	worker := audit.NewWorker(auditStore, inbox, log)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := worker.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	// Services.
	tokens := admin.NewTokenService(cfg.JWTSigningKey, cfg.AdminSessionTTL)
	adminSvc := admin.NewService(cfg.AdminPasswordHash, tokens)

	tallyCache := tally.NewCache(redisClient, cfg.TallyCacheTTL, log)

	registrySvc := registry.NewService(registryStore, publisher, m, log)
	electionSvc := election.NewService(electionStore, publisher, tallyCache, log)
	credentialSvc := credential.NewService(credentialStore, registrySvc, electionSvc, publisher, m, log, cfg.CredentialCodeLength)

	tallySvc := tally.NewService(electionSvc, ballotStore, tallyCache, m, log)

	ballotSvc := ballot.NewService(ballotStore, castTx, credentialSvc, electionSvc, tallySvc, publisher, m, log)

	router := httptransport.NewRouter(httptransport.Config{
		Logger:  log,
		Metrics: m,
		Handlers: []httptransport.Registrar{
			adminhandler.New(adminSvc, log),
			registryhandler.New(registrySvc, tokens, log),
			electionhandler.New(electionSvc, tokens, log),
			credentialhandler.New(credentialSvc, tokens, log),
			ballothandler.New(ballotSvc, log),
			tallyhandler.New(tallySvc, log),
			audithandler.New(auditStore, tokens, log),
		},
		Checks: checks,
	})

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting quorum engine", "addr", cfg.Addr, "durable", db != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}

	// Stop the audit worker only after the server has drained so late
	// events still land in the store.
	stopWorker()
	<-workerDone
}
