package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"reviewlens/api"
	"reviewlens/archive"
	"reviewlens/compare"
	"reviewlens/config"
	"reviewlens/discovery"
	"reviewlens/extraction"
	"reviewlens/kafka"
	"reviewlens/orchestrator"
	"reviewlens/store"
	"reviewlens/synthesis"
)

func main() {
	// Load environment variables
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()

	st, err := newStore(ctx, cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer st.Close()

	disc, err := newDiscovery(ctx, cfg)
	if err != nil {
		log.Fatalf("discovery: %v", err)
	}

	var archiver *archive.Archiver
	if cfg.S3Bucket != "" {
		archiver, err = archive.New(ctx, archive.Config{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			Prefix:       cfg.S3Prefix,
			UsePathStyle: cfg.S3UsePathStyle,
		})
		if err != nil {
			log.Fatalf("archive: %v", err)
		}
		log.Printf("archival enabled (bucket %s)", cfg.S3Bucket)
	}

	orch := orchestrator.New(orchestrator.Config{
		Store:         st,
		Discovery:     disc,
		Extractor:     extraction.NewReadabilityClient(cfg.ScrapeTimeout),
		Synthesizer:   synthesis.NewCohereClient(cfg.CohereAPIKey, cfg.CohereModel),
		Archiver:      archiver,
		ScrapeWorkers: cfg.ScrapeWorkers,
		RunTimeout:    cfg.RunTimeout,
	})

	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()
	var consumer *kafka.Consumer
	if len(cfg.KafkaBrokers) > 0 {
		consumer, err = kafka.NewConsumer(kafka.Config{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			GroupID: cfg.KafkaGroupID,
		}, orch)
		if err != nil {
			log.Fatalf("kafka: %v", err)
		}
		if err := consumer.Start(consumerCtx); err != nil {
			log.Fatalf("kafka: %v", err)
		}
	}

	var scheduler *orchestrator.Scheduler
	if cfg.RefreshCron != "" {
		scheduler, err = orchestrator.NewScheduler(orch, cfg.RefreshCron, cfg.RefreshMaxAge)
		if err != nil {
			log.Fatalf("scheduler: %v", err)
		}
		scheduler.Start()
	}

	router := api.NewRouter(api.Deps{
		Store:        st,
		Orchestrator: orch,
		Compare:      compare.NewEngine(st),
	})
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	if scheduler != nil {
		scheduler.Stop()
	}
	if consumer != nil {
		stopConsumer()
		if err := consumer.Close(); err != nil {
			log.Printf("kafka close: %v", err)
		}
	}
	log.Println("stopped")
}

// newStore selects Redis when configured, otherwise the in-memory store.
func newStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.RedisAddr == "" {
		log.Println("REDIS_ADDR not set, using in-memory store")
		return store.NewMemoryStore(), nil
	}
	return store.NewRedisStore(ctx, store.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
}

// newDiscovery selects the search provider and wraps it with the RSS feed
// scanner when feeds are configured.
func newDiscovery(ctx context.Context, cfg *config.Config) (discovery.Client, error) {
	var client discovery.Client
	switch cfg.DiscoveryProvider {
	case "google":
		c, err := discovery.NewGoogleCSEClient(ctx, cfg.GoogleCSEKey, cfg.GoogleCSECX)
		if err != nil {
			return nil, err
		}
		client = c
	default:
		client = discovery.NewSerperClient(cfg.SerperAPIKey, cfg.SerperBaseURL, cfg.SerperResultCount)
	}

	if len(cfg.ReviewFeeds) > 0 {
		client = discovery.NewFeedScanner(client, cfg.ReviewFeeds)
	}
	return client, nil
}
