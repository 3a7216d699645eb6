package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"

	"github.com/mchmarny/navmenu/pkg/api"
	"github.com/mchmarny/navmenu/pkg/combo"
	"github.com/mchmarny/navmenu/pkg/config"
	"github.com/mchmarny/navmenu/pkg/logger"
	"github.com/mchmarny/navmenu/pkg/menu"
	"github.com/mchmarny/navmenu/pkg/metric"
	"github.com/mchmarny/navmenu/pkg/navigation"
	"github.com/mchmarny/navmenu/pkg/server"
	"github.com/mchmarny/navmenu/pkg/session"
)

var (
	version = "v0.0.0"  // Set at build time via -ldflags "-X main.version=version"
	commit  = "none"    // Set at build time via -ldflags "-X main.commit=commit"
	date    = "unknown" // Set at build time via -ldflags "-X main.date=date"
)

const name = "navmenu"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	envFiles := flags.StringSlice("env-file", config.DefaultEnvFiles, "env files to load before reading the environment")
	port := flags.IntP("port", "p", server.DefaultPort, "port to run the server on (PORT)")
	apiURL := flags.String("api-url", "", "backend API base URL (API_URL)")
	role := flags.String("role", "", "role for sessions created without one (MENU_ROLE)")
	level := flags.String("log-level", "", "log level: debug, info, warn, error (LOG_LEVEL)")
	policy := flags.String("match-policy", "", "active route policy: longest or first (MATCH_POLICY)")
	showVersion := flags.Bool("version", false, "print version and exit")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if *showVersion {
		fmt.Println(name, version)
		return nil
	}

	cfg, err := config.Load(*envFiles...)
	if err != nil {
		return err
	}
	if flags.Changed("port") {
		cfg.Port = *port
	}
	if flags.Changed("api-url") {
		cfg.APIURL = *apiURL
	}
	if flags.Changed("role") {
		cfg.MenuRole = *role
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = *level
	}
	if flags.Changed("match-policy") {
		cfg.MatchPolicy = *policy
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.SetDefaultLoggerWithLevel(name, version, cfg.LogLevel, cfg.LogFormat)
	log := slog.Default()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := metric.NewMetrics(reg)

	httpClient := &http.Client{Timeout: cfg.APITimeout}
	token := func(context.Context) string { return cfg.APIToken }

	source := menu.NewHTTPSource(cfg.APIURL,
		menu.WithHTTPClient(httpClient),
		menu.WithToken(token))
	combos := combo.NewClient(cfg.APIURL,
		combo.WithHTTPClient(httpClient),
		combo.WithToken(token))

	resolver := navigation.NewResolver(
		navigation.WithPolicy(cfg.Policy()),
		navigation.WithResolverLogger(log),
		navigation.WithResolverMetrics(metrics))

	sessions := session.NewManager(source,
		session.WithLogger(log),
		session.WithMetrics(metrics),
		session.WithResolver(resolver))
	defer sessions.Close()

	handler := api.New(sessions,
		api.WithLogger(log),
		api.WithCombos(combos),
		api.WithMetrics(metrics),
		api.WithDefaultRole(cfg.MenuRole))

	srv := server.New(
		server.WithPort(cfg.Port),
		server.WithLogger(log),
		server.WithMetrics(reg, cfg.MetricsPath),
		server.WithHandler("/v1", handler.Routes()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting navmenu",
		"commit", commit,
		"date", date,
		"api_url", cfg.APIURL,
		"match_policy", cfg.Policy().String())
	return srv.Serve(ctx)
}
