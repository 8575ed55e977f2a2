// Command obench runs an in-process limit order matching benchmark: a
// configurable number of generator goroutines push synthetic order traffic
// through bounded rings to one matching engine per worker, while a
// Prometheus-backed aggregator and stdout reporter track throughput. The
// wiring here follows the teacher's cmd/*-service main.go shape (flags ->
// bootstrap.Run -> service body -> graceful shutdown on signal), adapted
// from a long-lived network service to a fixed-duration batch run.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"obench/internal/generator"
	"obench/internal/matching"
	"obench/internal/ordermanager"
	"obench/internal/queue"
	"obench/internal/stats"
	"obench/internal/worker"
	"obench/pkg/bootstrap"
	"obench/pkg/logger"
	custommetrics "obench/pkg/metrics"
	"obench/pkg/xredis"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// runConfig is both the viper-unmarshalled config struct and the flag
// destination, matching the teacher's pkg/config convention of binding one
// struct to both a YAML file and pflag flags. Flags are parsed first; when
// --config names a file, the keys present in it are loaded afterwards and
// replace the flag values.
type runConfig struct {
	Workers        int     `mapstructure:"workers"`
	RingCapacity   int     `mapstructure:"ring_capacity"`
	MaxTicks       uint32  `mapstructure:"max_ticks"`
	MaxOrders      uint32  `mapstructure:"max_orders"`
	RatePerSec     float64 `mapstructure:"rate"`
	DurationSec    int     `mapstructure:"duration"`
	CancelFraction float64 `mapstructure:"cancel_fraction"`
	IOCFraction    float64 `mapstructure:"ioc_fraction"`
	FOKFraction    float64 `mapstructure:"fok_fraction"`
	MetricsAddr    string  `mapstructure:"metrics_addr"`
	PprofAddr      string  `mapstructure:"pprof_addr"`
	Seed           int64   `mapstructure:"seed"`
	RedisAddr      string  `mapstructure:"redis_addr"`
	LogLevel       string  `mapstructure:"log_level"`
}

func defaultConfig() runConfig {
	return runConfig{
		Workers:        4,
		RingCapacity:   4096,
		MaxTicks:       100_000,
		MaxOrders:      1_000_000,
		RatePerSec:     0,
		DurationSec:    10,
		CancelFraction: 0.1,
		IOCFraction:    0.1,
		FOKFraction:    0.02,
		MetricsAddr:    ":9090",
		PprofAddr:      "",
		Seed:           1,
		LogLevel:       "info",
	}
}

func main() {
	cfg := defaultConfig()
	configFile := pflag.String("config", "", "config file name (without extension), looked up under ./config")
	pflag.IntVar(&cfg.Workers, "workers", cfg.Workers, "number of engine/worker pairs")
	pflag.IntVar(&cfg.RingCapacity, "ring-capacity", cfg.RingCapacity, "per-worker ring capacity (rounded up to a power of two)")
	var maxTicks, maxOrders uint
	pflag.UintVar(&maxTicks, "max-ticks", uint(cfg.MaxTicks), "tick resolution of each engine's price axis")
	pflag.UintVar(&maxOrders, "max-orders", uint(cfg.MaxOrders), "pooled order-node capacity per engine")
	pflag.Float64Var(&cfg.RatePerSec, "rate", cfg.RatePerSec, "total generator emission rate across all producers (0 = unlimited)")
	pflag.IntVar(&cfg.DurationSec, "duration", cfg.DurationSec, "run duration in seconds")
	pflag.Float64Var(&cfg.CancelFraction, "cancel-fraction", cfg.CancelFraction, "fraction of emissions that replay a CANCEL")
	pflag.Float64Var(&cfg.IOCFraction, "ioc-fraction", cfg.IOCFraction, "fraction of ADDs carrying the IOC flag")
	pflag.Float64Var(&cfg.FOKFraction, "fok-fraction", cfg.FOKFraction, "fraction of ADDs carrying the FOK flag")
	pflag.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "address to serve /metrics on")
	pflag.StringVar(&cfg.PprofAddr, "pprof-addr", cfg.PprofAddr, "address to serve pprof on (empty disables it)")
	pflag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	pflag.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address for the persistent order manager (empty uses the in-memory one)")
	pflag.Parse()
	cfg.MaxTicks = uint32(maxTicks)
	cfg.MaxOrders = uint32(maxOrders)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := bootstrap.Run(ctx, bootstrap.Options{
		ConfigName:  *configFile,
		ConfigPtr:   &cfg,
		ServiceName: "obench",
		LogLevel:    cfg.LogLevel,
		PprofAddr:   cfg.PprofAddr,
		Run: func(ctx context.Context) error {
			return runBenchmark(ctx, cfg)
		},
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "obench:", err)
		os.Exit(1)
	}
}

func runBenchmark(ctx context.Context, cfg runConfig) error {
	log := logger.Log
	log.Info("starting obench run",
		zap.Int("workers", cfg.Workers),
		zap.Int("ring_capacity", cfg.RingCapacity),
		zap.Uint32("max_ticks", cfg.MaxTicks),
		zap.Uint32("max_orders", cfg.MaxOrders),
		zap.Int("duration_sec", cfg.DurationSec),
	)

	custommetrics.MustRegister()
	agg := stats.NewAggregator(cfg.Workers, prometheus.DefaultRegisterer)

	var mgr ordermanager.Manager
	if cfg.RedisAddr != "" {
		client := xredis.NewRedis(&xredis.Config{Addr: cfg.RedisAddr})
		mgr = ordermanager.NewRedisManager(client, "obench:")
		log.Info("order manager backend: redis", zap.String("addr", cfg.RedisAddr))
	} else {
		mgr = ordermanager.NewMemoryManager()
		log.Info("order manager backend: in-memory")
	}
	recorder := ordermanager.NewWorkerRecorder(mgr)

	rings := make([]*queue.Ring[matching.OrderMsg], cfg.Workers)
	sinks := make([]queue.Producer[matching.OrderMsg], cfg.Workers)
	engines := make([]*matching.Engine, cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		rings[i] = queue.NewRing[matching.OrderMsg](cfg.RingCapacity)
		sinks[i] = rings[i]
		engines[i] = matching.NewEngine(cfg.MaxTicks, cfg.MaxOrders)
	}

	gen := generator.New(generator.Config{
		RatePerSec:     cfg.RatePerSec,
		Producers:      cfg.Workers,
		MidTick:        cfg.MaxTicks / 2,
		Spread:         cfg.MaxTicks / 20,
		MaxQty:         50,
		CancelFraction: cfg.CancelFraction,
		IOCFraction:    cfg.IOCFraction,
		FOKFraction:    cfg.FOKFraction,
		Seed:           cfg.Seed,
	}, sinks)

	workers := make([]*worker.Worker, cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		workers[i] = worker.New(i, engines[i], rings[i], agg, gen, worker.DefaultConfig()).WithRecorder(recorder)
	}

	metricsSrv := stats.ServeMetrics(cfg.MetricsAddr)
	reporter := stats.NewReporter(agg, time.Second)

	runCtx, cancelRun := context.WithTimeout(ctx, time.Duration(cfg.DurationSec)*time.Second)
	defer cancelRun()

	g, gctx := errgroup.WithContext(runCtx)
	for i := range workers {
		w := workers[i]
		g.Go(func() error {
			w.Run(gctx)
			return nil
		})
	}
	g.Go(func() error {
		reporter.Run(gctx)
		return nil
	})
	g.Go(func() error {
		rep := gen.Run(gctx)
		log.Info("generator stopped",
			zap.Uint64("emitted", rep.Emitted),
			zap.Uint64("throttled", rep.Throttled),
			zap.Uint64("dropped", rep.Dropped),
		)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	final := agg.Snapshot()
	log.Info("run complete",
		zap.Uint64("processed", final.Processed),
		zap.Uint64("trades", final.Trades),
		zap.Uint64("volume", final.Volume),
		zap.Uint64("rejects", final.Rejects),
		zap.Uint64("cancel_misses", final.CancelMisses),
		zap.Uint64("done_fills", final.DoneFills),
	)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancelShutdown()
	return metricsSrv.Shutdown(shutdownCtx)
}
