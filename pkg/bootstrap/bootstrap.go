// Package bootstrap wires up the ambient pieces every obench run needs
// regardless of workload: config loading, structured logging, and pprof. It
// is a direct descendant of the teacher's microservice bootstrap.Run,
// stripped of the pieces this benchmark has no use for — gRPC service
// registration, etcd discovery, Sentinel governance, and SQL/Redis
// connection pooling are all absent because the matching engine speaks no
// network protocol and persists nothing (see the design notes' non-goals);
// the optional Redis-backed order manager gets its client from cmd/obench. The
// Prometheus /metrics listener lives in internal/stats.ServeMetrics instead
// of here, since it shares a registry with the stats Aggregator.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"runtime"
	"time"

	"go.uber.org/zap"

	"obench/pkg/config"
	"obench/pkg/logger"
)

// Options controls the bootstrap process.
type Options struct {
	// ConfigName and ConfigPtr are passed to config.Load. ConfigName may be
	// empty to skip file-based config entirely and rely on flags alone.
	ConfigName string
	ConfigPtr  interface{}

	// ServiceName is used for the logger's service field; if empty,
	// ConfigName is used, falling back to "obench".
	ServiceName string
	LogLevel    string

	// PprofAddr enables the pprof HTTP listener when non-empty.
	PprofAddr string

	// Run is the benchmark body. It receives ctx, already wired to cancel
	// on SIGINT/SIGTERM by the caller.
	Run func(ctx context.Context) error
}

// Run loads config, initializes logging and pprof, then calls opt.Run and
// waits for it to return.
func Run(ctx context.Context, opt Options) error {
	if opt.ConfigPtr == nil || opt.Run == nil {
		return fmt.Errorf("bootstrap: ConfigPtr and Run are required")
	}

	if opt.ConfigName != "" {
		if err := config.Load(opt.ConfigName, opt.ConfigPtr); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	svcName := opt.ServiceName
	if svcName == "" {
		svcName = opt.ConfigName
	}
	if svcName == "" {
		svcName = "obench"
	}
	level := opt.LogLevel
	if level == "" {
		level = "info"
	}
	logger.Init(svcName, level)
	defer logger.Sync()

	if opt.PprofAddr != "" {
		srv := startPprof(opt.PprofAddr)
		defer shutdown(srv)
	}

	return opt.Run(ctx)
}

func shutdown(srv *http.Server) {
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = srv.Shutdown(c)
}

func startPprof(addr string) *http.Server {
	runtime.SetMutexProfileFraction(10)
	runtime.SetBlockProfileRate(10000)

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 3 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(context.Background(), "pprof listen error", zap.Error(err))
		}
	}()
	return srv
}
