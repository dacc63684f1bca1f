package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/campaign-tracker/internal/apifake"
	"github.com/jrsteele09/campaign-tracker/internal/config"
	"github.com/jrsteele09/campaign-tracker/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running dev api")
	}
	log.Info().Msg("Dev api stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New()
	if err != nil {
		return err
	}
	log.Logger = logging.New(c.GetLogLevel(), c.GetEnv(), os.Stderr)
	displayAppname(c.GetAppName() + " API")

	handler, err := newHandler(c)
	if err != nil {
		return err
	}
	server := &http.Server{Addr: c.GetDevAPIAddr(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	errs := make(chan error, 1)
	go func() {
		errs <- listenAndServe(server)
	}()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(server)
}

// newHandler serves the fake API with a /metrics endpoint next to it.
func newHandler(c config.Config) (http.Handler, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []apifake.Option{
		apifake.WithLogger(log.Logger),
		apifake.WithAccessTokenTTL(c.GetDevAPIAccessTokenTTL()),
		apifake.WithRegisterLogsIn(),
		apifake.WithMetrics(reg),
	}
	if c.GetDevAPICookieOnly() {
		opts = append(opts, apifake.WithCookieOnlyRefresh())
	}
	api := apifake.New(opts...)
	for name, password := range c.GetDevAPIUsers() {
		if err := api.AddUser(name, password); err != nil {
			return nil, fmt.Errorf("seed user %s: %w", name, err)
		}
		log.Info().Str("username", name).Msg("Seeded user")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/", api)
	return mux, nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Dev api listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
