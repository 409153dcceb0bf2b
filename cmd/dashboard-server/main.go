package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	server "github.com/ichen27/openclaw-dashboard/internal"
	"github.com/ichen27/openclaw-dashboard/internal/agentstate"
	"github.com/ichen27/openclaw-dashboard/internal/agentstream"
	"github.com/ichen27/openclaw-dashboard/internal/auction"
	categoryrepo "github.com/ichen27/openclaw-dashboard/internal/category/repositoryimpl"
	"github.com/ichen27/openclaw-dashboard/internal/config"
	"github.com/ichen27/openclaw-dashboard/internal/dependency"
	dependencyrepo "github.com/ichen27/openclaw-dashboard/internal/dependency/repositoryimpl"
	"github.com/ichen27/openclaw-dashboard/internal/eventbus"
	"github.com/ichen27/openclaw-dashboard/internal/events"
	"github.com/ichen27/openclaw-dashboard/internal/pushnotification"
	pushsubrepo "github.com/ichen27/openclaw-dashboard/internal/pushsubscription/repositoryimpl"
	taskrepo "github.com/ichen27/openclaw-dashboard/internal/task/repositoryimpl"
	taskeventrepo "github.com/ichen27/openclaw-dashboard/internal/taskevent/repositoryimpl"
	"github.com/ichen27/openclaw-dashboard/pkg/clog"
	"github.com/ichen27/openclaw-dashboard/pkg/storage"
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	// Setup storage
	var store storage.Storage
	switch env.StorageEnv.Type {
	case "s3":
		store, err = storage.NewS3(context.Background(), env.StorageEnv.S3Bucket, env.StorageEnv.S3Prefix, env.StorageEnv.S3Region)
		if err != nil {
			slog.Error("failed to create S3 storage", "error", err)
			os.Exit(1)
		}
	default:
		store, err = storage.NewLocal(env.StorageEnv.BaseDir)
		if err != nil {
			slog.Error("failed to create local storage", "error", err)
			os.Exit(1)
		}
	}

	// Setup event bus
	bus := eventbus.New()

	// Setup repositories
	taskRepo := taskrepo.NewYAMLRepository(store)
	taskEventRepo := taskeventrepo.NewYAMLRepository(store)
	categoryRepo := categoryrepo.NewYAMLRepository(store)
	dependencyRepo := dependencyrepo.NewYAMLRepository(store)
	pushSubRepo := pushsubrepo.NewYAMLRepository(store)

	assigner := taskrepo.NewAssigner(taskRepo, taskEventRepo)
	resolver := agentstate.NewFileResolver(env.AgentsEnv.Dir, env.AgentsEnv.ActiveWindow)

	// Setup servers
	auctionServer := auction.NewServer(taskRepo, categoryRepo, resolver, assigner, bus, env.AuctionEnv.AvailabilityCap)
	dependencyServer := dependency.NewServer(dependencyRepo, taskRepo, categoryRepo, bus)
	notifier := agentstream.NewNotifier(resolver, env.StreamEnv.DebounceWindow, env.StreamEnv.PollInterval, env.StreamEnv.HeartbeatInterval)
	agentStreamServer := agentstream.NewServer(notifier)
	eventsServer := events.NewServer(bus, env.StreamEnv.HeartbeatInterval)

	// Setup push notification
	vapidEnv := config.VAPIDEnvFromEnv(env)
	pushSender := pushnotification.NewSender(vapidEnv, pushSubRepo)
	pushNotificationServer := pushnotification.NewServer(vapidEnv, pushSubRepo, pushSender)
	pushDispatcher := pushnotification.NewDispatcher(bus, taskRepo, pushSender)

	srv := server.NewServer(
		env,
		auctionServer,
		dependencyServer,
		agentStreamServer,
		eventsServer,
		pushNotificationServer,
	)

	// Graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	go pushDispatcher.Start(ctx)

	go func() {
		if err := srv.ListenAndServe(ctx); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	// Give active connections time to finish after stream contexts are cancelled.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
