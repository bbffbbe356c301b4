package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/mdelaney/renewal-ops/internal/core"
	"github.com/mdelaney/renewal-ops/internal/crm"
	transporthttp "github.com/mdelaney/renewal-ops/internal/http"
	"github.com/mdelaney/renewal-ops/internal/http/handlers"
	"github.com/mdelaney/renewal-ops/internal/http/health"
	"github.com/mdelaney/renewal-ops/internal/jobs"
	"github.com/mdelaney/renewal-ops/internal/middleware"
	"github.com/mdelaney/renewal-ops/internal/platform/config"
	"github.com/mdelaney/renewal-ops/internal/platform/logging"
	"github.com/mdelaney/renewal-ops/internal/store/dynamo"
	"github.com/mdelaney/renewal-ops/internal/store/mongo"
	"github.com/mdelaney/renewal-ops/internal/surcharge"
)

func main() {
	cfg := config.MustLoad()
	log := logging.New(cfg.Env)
	addr := fmt.Sprintf(":%s", cfg.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting renewal-ops API", "addr", addr, "env", cfg.Env, "db", cfg.DBType)

	// ---- Store selection ----
	var (
		repo   core.ComparisonRepo
		pinger health.Pinger
	)
	switch cfg.DBType {
	case "mongo":
		client, err := mongo.NewClient(cfg)
		if err != nil {
			log.Error("failed to connect to MongoDB", "err", err)
			os.Exit(1)
		}
		defer client.Close(context.Background())

		if err := mongo.EnsureIndexes(ctx, client.DB); err != nil {
			log.Error("failed to ensure indexes", "err", err)
			os.Exit(1)
		}

		opTimeout := time.Duration(cfg.MongoOpTimeoutMs) * time.Millisecond
		repo = mongo.NewComparisonRepo(client.DB, opTimeout)
		pinger = client

	case "dynamodb":
		client, err := dynamo.NewClient(ctx, dynamo.Config{
			Region:          cfg.AWSRegion,
			Endpoint:        cfg.DynamoDBEndpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			log.Error("failed to connect to DynamoDB", "err", err)
			os.Exit(1)
		}

		if err := dynamo.EnsureTables(ctx, client.DB, log); err != nil {
			log.Error("failed to ensure tables", "err", err)
			os.Exit(1)
		}

		repo = dynamo.NewComparisonRepo(client.DB)
		pinger = client

	default:
		log.Error("unknown DB_TYPE", "db_type", cfg.DBType)
		os.Exit(1)
	}

	// ---- Surcharge schedule ----
	schedule := surcharge.DefaultSchedule()
	if cfg.SurchargeSchedulePath != "" {
		var err error
		schedule, err = surcharge.Load(cfg.SurchargeSchedulePath)
		if err != nil {
			log.Error("failed to load surcharge schedule", "path", cfg.SurchargeSchedulePath, "err", err)
			os.Exit(1)
		}
	}

	// ---- Services ----
	comparisonSvc := core.NewComparisonService(repo, schedule)
	reviewSvc := core.NewReviewService(repo)
	decisionSvc := core.NewDecisionService(repo)

	// ---- CRM stage sync ----
	var notifier crm.Notifier = crm.Nop{}
	if cfg.CRMWebhookURL != "" {
		notifier = crm.NewWebhookNotifier(cfg.CRMWebhookURL, cfg.CRMAPIKey)
	} else {
		log.Warn("CRM_WEBHOOK_URL not set; stage moves will not be delivered")
	}
	syncWorker := jobs.NewCRMSyncWorker(repo, notifier,
		time.Duration(cfg.WorkerIntervalSec)*time.Second, log)

	// ---- Router ----
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(time.Duration(cfg.HTTPRequestTimeoutSec) * time.Second))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPM, time.Minute)
	limiter.StartWithContext(ctx)
	r.Use(limiter.Middleware)
	r.Use(middleware.SimpleAPIKey(cfg.APIKey))
	r.Use(middleware.LimitRequestBody(middleware.MaxBodySize))

	r.Mount("/", health.New(log, pinger, 2*time.Second))
	r.Mount("/v1", transporthttp.NewRouter(transporthttp.Deps{
		Mounts: []handlers.Mountable{
			handlers.NewComparisonHandler(comparisonSvc, log),
			handlers.NewReviewHandler(reviewSvc, log),
			handlers.NewDecisionHandler(decisionSvc, log),
		},
	}))

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTPReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTPWriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(cfg.HTTPIdleTimeoutSec) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		syncWorker.Start(gctx)
		return nil
	})

	g.Go(func() error {
		log.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server failed", "err", err)
		os.Exit(1)
	}
	log.Info("stopped")
}
