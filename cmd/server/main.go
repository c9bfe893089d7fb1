package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"hopecycle/internal/admin"
	adminhandler "hopecycle/internal/admin/handler"
	"hopecycle/internal/auth"
	authhandler "hopecycle/internal/auth/handler"
	"hopecycle/internal/broadcast"
	broadcasthandler "hopecycle/internal/broadcast/handler"
	"hopecycle/internal/donation"
	donationhandler "hopecycle/internal/donation/handler"
	donationmetrics "hopecycle/internal/donation/metrics"
	"hopecycle/internal/message"
	messagehandler "hopecycle/internal/message/handler"
	"hopecycle/internal/notification"
	notificationhandler "hopecycle/internal/notification/handler"
	"hopecycle/internal/notification/worker"
	"hopecycle/internal/platform/config"
	"hopecycle/internal/platform/httpserver"
	"hopecycle/internal/platform/logger"
	"hopecycle/internal/platform/metrics"
	"hopecycle/internal/platform/postgres"
	platformredis "hopecycle/internal/platform/redis"
	"hopecycle/internal/profile"
	profilehandler "hopecycle/internal/profile/handler"
	httptransport "hopecycle/internal/transport/http"
)

// txRunner is the transactional boundary shared by every service. The
// postgres DB provides the real one; memory mode runs the callback directly
// since the memory stores are individually synchronized.
type txRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// passthroughTx is not atomic: a failure mid-callback leaves the earlier
// writes applied where the postgres runner would roll them back. Memory mode
// is for local development only.
type passthroughTx struct{}

func (passthroughTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage: postgres when configured, memory stores for local development.
	var (
		tx                txRunner = passthroughTx{}
		profileStore      profile.Store
		donationStore     donation.Store
		broadcastStore    broadcast.Store
		messageStore      message.Store
		notificationStore notification.Store
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			log.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		tx = db
		profileStore = profile.NewPostgresStore(db.DB)
		donationStore = donation.NewPostgresStore(db.DB)
		broadcastStore = broadcast.NewPostgresStore(db.DB)
		messageStore = message.NewPostgresStore(db.DB)
		notificationStore = notification.NewPostgresStore(db.DB)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		profileStore = profile.NewInMemoryStore()
		donationStore = donation.NewInMemoryStore()
		broadcastStore = broadcast.NewInMemoryStore()
		messageStore = message.NewInMemoryStore()
		notificationStore = notification.NewInMemoryStore()
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	platformMetrics := metrics.New()
	donationMetrics := donationmetrics.New()

	// Notification pipeline: rows commit with their triggering transaction,
	// the worker drains them to Kafka and the Redis live channel.
	publisher := notification.NewPublisher(notificationStore)
	var sinks []worker.Sink
	kafkaSink, err := worker.NewKafkaSink(ctx, cfg.KafkaBrokers)
	if err != nil {
		log.Error("failed to connect to kafka", "error", err)
		os.Exit(1)
	}
	if kafkaSink != nil {
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
	}
	if redisClient != nil {
		sinks = append(sinks, worker.NewRedisFanout(redisClient))
	}
	outboxWorker := worker.New(notificationStore, sinks, log, platformMetrics, 2*time.Second)

	// Sessions live in Redis when available so restarts keep users signed in.
	var sessionStore auth.SessionStore = auth.NewInMemorySessionStore()
	if redisClient != nil {
		sessionStore = auth.NewRedisSessionStore(redisClient)
	}

	profileService := profile.NewService(profileStore, publisher, tx)
	tokenService := auth.NewTokenService(cfg.JWTSigningKey, "hopecycle")
	authService := auth.NewService(profileStore, sessionStore, tokenService, cfg.SessionTTL)
	donationService := donation.NewService(donationStore, profileService, publisher, tx, donationMetrics)
	broadcastService := broadcast.NewService(broadcastStore, profileService, publisher, tx)
	messageService := message.NewService(messageStore, profileService, publisher, tx)
	adminService := admin.NewService(profileStore, profileService, donationStore, tx, cfg.ActivationFeeCents)

	router := httptransport.NewRouter(httptransport.Handlers{
		Auth:          authhandler.New(authService, log),
		Profile:       profilehandler.New(profileService, log),
		Donation:      donationhandler.New(donationService, log),
		Broadcast:     broadcasthandler.New(broadcastService, log),
		Message:       messagehandler.New(messageService, log),
		Notification:  notificationhandler.New(notificationStore, log),
		Admin:         adminhandler.New(adminService, log),
		TokenVerifier: authService,
	}, platformMetrics, log)

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting hopecycle", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := outboxWorker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
