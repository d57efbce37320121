// Command clinic-stub serves the clinic API for local development and
// end-to-end tests. With STUB_STORE=memory (the default) all data is lost
// on exit; STUB_STORE=mongo keeps it in MongoDB.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinic-client/internal/api"
	"github.com/clinicdesk/clinic-client/internal/core/ports"
	"github.com/clinicdesk/clinic-client/internal/infrastructure/db/memory"
	"github.com/clinicdesk/clinic-client/internal/infrastructure/db/mongo"
	"github.com/clinicdesk/clinic-client/internal/pkg/config"
	"github.com/clinicdesk/clinic-client/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	log := logger.For("stub")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	users, patients, closeStore := openStore(ctx, cfg.Stub, log)
	defer closeStore()

	deps := api.NewDeps(users, patients, cfg.Stub.JWTSecret, cfg.Stub.TokenTTL, logger.Get())
	deps.AllowOrigins = cfg.Stub.AllowOrigins
	e := api.NewRouter(deps)

	go func() {
		log.Info().Str("port", cfg.Stub.Port).Str("store", cfg.Stub.Store).Msg("clinic stub listening")
		if err := e.Start(":" + cfg.Stub.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func openStore(ctx context.Context, cfg config.StubConfig, log zerolog.Logger) (ports.UserRepository, ports.PatientRepository, func()) {
	if cfg.Store != config.StubStoreMongo {
		return memory.NewUserRepository(), memory.NewPatientRepository(), func() {}
	}

	client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.MongoURI, Database: cfg.MongoDB})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	users := mongo.NewUserRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create user indexes")
	}
	log.Info().Str("database", cfg.MongoDB).Msg("connected to MongoDB")

	return users, mongo.NewPatientRepository(db), func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := client.Disconnect(dctx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}
}
