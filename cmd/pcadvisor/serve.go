package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"pcadvisor/internal/advisor"
	"pcadvisor/internal/bloom"
	"pcadvisor/internal/config"
	"pcadvisor/internal/curated"
	"pcadvisor/internal/discovery"
	"pcadvisor/internal/httpapi"
	"pcadvisor/internal/jsonl"
	"pcadvisor/internal/kstream"
	"pcadvisor/internal/projections"
	"pcadvisor/internal/rejections"
	"pcadvisor/internal/reviews"
	"pcadvisor/internal/schemagate"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API, ingest pipeline and review scheduler",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address (overrides http.addr)"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if addr := c.String("addr"); addr != "" {
				cfg.HTTP.Addr = addr
			}
			return serve(c.Context, cfg)
		},
	}
}

func serve(parent context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src, err := openCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	defer rdb.Close()

	var (
		wg       sync.WaitGroup
		recorder advisor.Recorder = advisor.NopRecorder{}
		ingest   httpapi.IngestPublisher
	)

	if brokers := cfg.Kafka.BrokerList(); len(brokers) > 0 {
		estimates := kstream.NewPublisher(kstream.NewWriter(brokers, kstream.TopicEstimates, true))
		defer estimates.Close()
		recorder = estimates

		ingestPub := kstream.NewPublisher(kstream.NewWriter(brokers, kstream.TopicIngest, false))
		defer ingestPub.Close()
		ingest = ingestPub

		if src.postgres != nil {
			accepted := kstream.NewPublisher(kstream.NewWriter(brokers, kstream.TopicAccepted, false))
			defer accepted.Close()

			dedupe := bloom.New(ctx, rdb, bloom.PartsKey)
			ingestor := &kstream.Ingestor{
				Gate:      schemagate.New(dedupe),
				Rejects:   rejections.NewLog(cfg.Catalog.RejectionsDir),
				Curated:   curated.NewWriter(src.postgres, dedupe),
				Announcer: accepted,
			}
			runConsumer(ctx, &wg, kstream.NewReader(brokers, kstream.TopicIngest, cfg.Kafka.GroupID+"-schemagate"),
				"schemagate", ingestor.Handle)
		} else {
			log.Warn().Msg("ingest consumer disabled: curated writes need database.dsn")
		}

		index := projections.NewFilterIndex(rdb)
		recent := projections.NewRecentFeed(rdb)
		accReader := kstream.NewReader(brokers, kstream.TopicAccepted, cfg.Kafka.GroupID+"-projector")
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := projections.ConsumeAccepted(ctx, accReader, index, recent); err != nil {
				log.Error().Err(err).Msg("projector stopped")
			}
		}()
	} else {
		log.Warn().Msg("kafka.brokers not set; ingest and projections disabled")
	}

	if src.postgres != nil && cfg.Gemini.APIKey != "" {
		gen, err := reviews.NewGenAI(ctx, cfg.Gemini.APIKey, cfg.Reviews.Model)
		if err != nil {
			return err
		}
		if _, err := reviews.NewJob(src.postgres, gen, cfg.Reviews.BatchSize).Schedule(ctx, cfg.Reviews.Schedule); err != nil {
			return err
		}
	}

	adv, err := newAdvisor(cfg, src.store, recorder)
	if err != nil {
		return err
	}

	r := mux.NewRouter()
	httpapi.NewServer(src.store, adv, ingest, httpapi.Options{
		AIRatePerSec: cfg.HTTP.AIRatePerSec,
		AIBurst:      cfg.HTTP.AIBurst,
	}).RegisterRoutes(r)
	discovery.NewService(rdb).RegisterRoutes(r)
	if src.stats != nil {
		jsonl.RegisterRoutes(r, cfg.Catalog.JSONLDir, *src.stats)
	}

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr).Str("version", version).Msg("pcadvisor listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			stop()
			wg.Wait()
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	wg.Wait()
	return nil
}

func runConsumer(ctx context.Context, wg *sync.WaitGroup, r kstream.MessageReader, name string, handle func(context.Context, []byte) error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer r.Close()
		if err := kstream.Run(ctx, r, name, handle); err != nil {
			log.Error().Err(err).Str("consumer", name).Msg("consumer stopped")
		}
	}()
}
