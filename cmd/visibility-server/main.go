package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shandianxiao218/fly-cline/core"
	"github.com/shandianxiao218/fly-cline/ephemeris"
	"github.com/shandianxiao218/fly-cline/internal/api"
	"github.com/shandianxiao218/fly-cline/internal/logging"
	"github.com/shandianxiao218/fly-cline/internal/observability"
	"github.com/shandianxiao218/fly-cline/model"
	"github.com/shandianxiao218/fly-cline/timectrl"
	"github.com/shandianxiao218/fly-cline/trajectory"
	"golang.org/x/sync/errgroup"
)

func main() {
	addr := flag.String("addr", ":8080", "TCP address the HTTP API listens on")
	metricsAddr := flag.String("metrics-addr", ":9090", "HTTP address for Prometheus /metrics")
	ephemerisPath := flag.String("ephemeris", "", "Path to a RINEX navigation file with broadcast ephemerides")
	catalogPath := flag.String("catalog", "configs/satellites.json", "Path to the satellite catalog JSON")
	trackPath := flag.String("track", "", "Path to an aircraft trajectory JSON; enables the stream loop")
	tick := flag.Duration("tick", 1*time.Second, "stream loop tick interval")
	accelerated := flag.Bool("accelerated", false, "advance the stream clock without waiting for wall time")
	workers := flag.Int("workers", 8, "parallel satellite evaluations per request")
	cacheSize := flag.Int("cache-size", ephemeris.DefaultCacheSize, "satellite position cache entries")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdownTracing, log)

	collector, err := observability.NewCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.String("error", err.Error()))
		os.Exit(1)
	}

	store := ephemeris.NewStore()
	loadEphemeris(ctx, log, store, *ephemerisPath)
	catalog := loadCatalog(ctx, log, store, *catalogPath)
	collector.SetTrackedSatellites(store.Len())

	provider, err := ephemeris.NewCachingProvider(store, *cacheSize)
	if err != nil {
		log.Error(ctx, "failed to initialise position cache", logging.String("error", err.Error()))
		os.Exit(1)
	}

	engine := core.NewEngine(provider)
	engine.Workers = *workers

	server := api.NewServer(engine, catalog, log, collector)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	apiSrv := &http.Server{Addr: *addr, Handler: server.Router()}
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", collector.Handler())
	metricsSrv := &http.Server{Addr: *metricsAddr, Handler: metricsMux}

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		log.Info(ctx, "starting visibility API", logging.String("addr", *addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info(ctx, "serving Prometheus metrics", logging.String("addr", *metricsAddr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = apiSrv.Shutdown(shutdownCtx)
		_ = metricsSrv.Shutdown(shutdownCtx)
		return nil
	})

	if *trackPath != "" {
		track := loadTrack(ctx, log, *trackPath)
		if track != nil {
			g.Go(func() error {
				runStreamLoop(gctx, log, collector, engine, server.Hub(), catalog, track, *tick, *accelerated)
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		log.Error(ctx, "server exited", logging.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info(ctx, "shutdown complete")
}

// runStreamLoop replays the aircraft track against the catalog, pushing a
// visibility frame to stream clients on every tick. Per-satellite failures
// go into the frame instead of aborting the loop.
func runStreamLoop(
	ctx context.Context,
	log logging.Logger,
	collector *observability.Collector,
	engine *core.Engine,
	hub *api.StreamHub,
	catalog []model.Satellite,
	track *trajectory.Track,
	tick time.Duration,
	accelerated bool,
) {
	start, end := track.Span()
	mode := timectrl.RealTime
	if accelerated {
		mode = timectrl.Accelerated
	}
	tc := timectrl.NewTimeController(start, tick, mode)
	queries := ephemeris.Queries(catalog)

	tc.AddListener(func(simTime time.Time) {
		state, err := track.StateAt(simTime)
		if err != nil {
			log.Warn(ctx, "aircraft state unavailable",
				logging.String("epoch", simTime.Format(time.RFC3339)),
				logging.String("error", err.Error()),
			)
			return
		}

		began := time.Now()
		_, span := api.StartComputeSpan(ctx, simTime, len(queries))
		frame := api.StreamFrame{Time: simTime, Aircraft: state}
		for _, q := range queries {
			result, err := engine.Evaluate(simTime, state, q)
			if err != nil {
				if frame.Errors == nil {
					frame.Errors = make(map[string]string)
				}
				frame.Errors[q.ID] = err.Error()
				collector.RecordPropagationFailure(q.ID)
				continue
			}
			frame.Results = append(frame.Results, result)
		}
		span.End()
		collector.ObserveCompute(time.Since(began))
		hub.Broadcast(frame)
	})

	log.Info(ctx, "starting stream loop",
		logging.String("from", start.Format(time.RFC3339)),
		logging.String("to", end.Format(time.RFC3339)),
		logging.String("tick", tick.String()),
		logging.Int("satellites", len(queries)),
	)

	done := tc.Start(end.Sub(start), ctx.Done())
	select {
	case <-done:
		log.Info(ctx, "stream loop finished")
	case <-ctx.Done():
	}
}

func loadEphemeris(ctx context.Context, log logging.Logger, store *ephemeris.Store, path string) {
	if path == "" {
		return
	}
	f, err := os.Open(path)
	if err != nil {
		log.Warn(ctx, "skipping ephemeris load", logging.String("path", path), logging.String("error", err.Error()))
		return
	}
	defer f.Close()

	summary, err := ephemeris.LoadNavigationFile(store, f)
	if err != nil {
		log.Error(ctx, "failed to parse navigation file", logging.String("path", path), logging.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info(ctx, "loaded broadcast ephemerides",
		logging.String("path", path),
		logging.Int("satellites", len(summary.SatelliteIDs)),
		logging.Int("skipped", summary.Skipped),
	)
}

func loadCatalog(ctx context.Context, log logging.Logger, store *ephemeris.Store, path string) []model.Satellite {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		log.Warn(ctx, "skipping catalog load", logging.String("path", path), logging.String("error", err.Error()))
		return nil
	}
	defer f.Close()

	catalog, err := ephemeris.LoadCatalog(store, f)
	if err != nil {
		log.Error(ctx, "failed to parse satellite catalog", logging.String("path", path), logging.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info(ctx, "loaded satellite catalog", logging.String("path", path), logging.Int("satellites", len(catalog)))
	return catalog
}

func loadTrack(ctx context.Context, log logging.Logger, path string) *trajectory.Track {
	f, err := os.Open(path)
	if err != nil {
		log.Warn(ctx, "skipping trajectory load", logging.String("path", path), logging.String("error", err.Error()))
		return nil
	}
	defer f.Close()

	track, err := trajectory.LoadTrack(f)
	if err != nil {
		log.Error(ctx, "failed to parse trajectory", logging.String("path", path), logging.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info(ctx, "loaded aircraft trajectory", logging.String("path", path), logging.Int("samples", track.Len()))
	return track
}
