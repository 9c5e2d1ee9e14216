package server

import (
	"context"
	"flag"
	"net/http"
	"time"

	"github.com/keyward/keyward/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendermint/tendermint/abci/server"
	abci "github.com/tendermint/tendermint/abci/types"
	cmn "github.com/tendermint/tendermint/libs/common"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	flagBind    = "bind"
	flagDebug   = "debug"
	flagMetrics = "metrics"
)

type startArgs struct {
	bind    string
	debug   bool
	metrics string
}

func parseFlags(args []string) (startArgs, error) {
	var res startArgs
	fs := flag.NewFlagSet("start", flag.ContinueOnError)
	fs.StringVar(&res.bind, flagBind, "tcp://localhost:26658", "address server listens on")
	fs.BoolVar(&res.debug, flagDebug, false, "call stack returned on error")
	fs.StringVar(&res.metrics, flagMetrics, "", "address of the prometheus endpoint, empty to disable")
	if err := fs.Parse(args); err != nil {
		return res, errors.Wrap(errors.ErrInput, err.Error())
	}
	return res, nil
}

// AppGenerator lets us lazily initialize app, using home dir
// and logger potentially initialized with other flags. Metrics are
// registered with the given registerer when it is not nil.
type AppGenerator func(string, log.Logger, bool, prometheus.Registerer) (abci.Application, error)

// StartCmd initializes the application and serves it over the ABCI socket
// until a termination signal is received.
func StartCmd(gen AppGenerator, logger log.Logger, home string, args []string) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}

	var (
		reg        *prometheus.Registry
		registerer prometheus.Registerer
	)
	if flags.metrics != "" {
		reg = prometheus.NewRegistry()
		registerer = reg
	}

	// Generate the app in the proper dir
	app, err := gen(home, logger, flags.debug, registerer)
	if err != nil {
		return err
	}

	logger.Info("Starting ABCI app", "bind", flags.bind)
	svr, err := server.NewServer(flags.bind, "socket", app)
	if err != nil {
		return errors.Wrapf(errors.ErrState, "cannot create listener: %s", err)
	}
	svr.SetLogger(logger.With("module", "abci-server"))
	if err := svr.Start(); err != nil {
		return errors.Wrapf(errors.ErrState, "cannot start server: %s", err)
	}

	var metricsSrv *http.Server
	if reg != nil {
		metricsSrv = metricsServer(flags.metrics, reg)
		logger.Info("Serving metrics", "bind", flags.metrics)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server failed", "err", err)
			}
		}()
	}

	cmn.TrapSignal(logger, shutdown(svr, metricsSrv))
	// Run forever
	select {}
}

// shutdown returns the cleanup run on a termination signal. It stops the
// metrics listener, if any, before the ABCI server.
func shutdown(svr cmn.Service, metricsSrv *http.Server) func() {
	return func() {
		if metricsSrv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(ctx)
		}
		_ = svr.Stop()
	}
}

func metricsServer(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &http.Server{Addr: addr, Handler: mux}
}
