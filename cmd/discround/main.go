package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/abrezinsky/discround/internal/app"
	"github.com/abrezinsky/discround/internal/config"
	"github.com/abrezinsky/discround/internal/logger"
)

// ANSI escape codes
const (
	reset  = "\033[0m"
	yellow = "\033[33m"
	green  = "\033[32m"
	cyan   = "\033[36m"
)

var (
	version = "dev"
)

// showBanner prints the startup logo
func showBanner() {
	width := 46
	border := strings.Repeat("═", width)
	logo := []string{
		"   ___  _        ___                    _ ",
		"  |   \\(_)___ __| _ \\___ _  _ _ _  __| |",
		"  | |) | (_-</ _|   / _ \\ || | ' \\/ _` |",
		"  |___/|_/__/\\__|_|_\\___/\\_,_|_||_\\__,_|",
	}

	fmt.Printf("\n  %s╔%s╗%s\n", cyan, border, reset)
	for _, line := range logo {
		fmt.Printf("  %s║%s%-*s%s║%s\n", cyan, yellow, width, line, cyan, reset)
	}
	fmt.Printf("  %s╚%s╝%s\n\n", cyan, border, reset)
}

// cycleLogLevel cycles through debug -> info -> warn -> error
func cycleLogLevel(appLog *logger.SlogLogger) {
	var next string
	switch appLog.GetLevel().String() {
	case "DEBUG":
		next = "info"
	case "INFO":
		next = "warn"
	case "WARN":
		next = "error"
	case "ERROR":
		next = "debug"
	default:
		next = "info"
	}

	appLog.SetLevel(logger.ParseLevel(next))
	fmt.Printf("%sLog level: %s%s%s\n", green, yellow, next, reset)
}

// toggleHTTPLogging flips per-request logging on or off
func toggleHTTPLogging(appLog *logger.SlogLogger) {
	if appLog.IsHTTPLoggingEnabled() {
		appLog.DisableHTTPLogging()
		fmt.Printf("%sHTTP logging disabled%s\n", yellow, reset)
	} else {
		appLog.EnableHTTPLogging()
		fmt.Printf("%sHTTP logging enabled%s\n", green, reset)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	flag.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	flag.StringVar(&cfg.LogLevel, "loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.LogFormat, "logformat", cfg.LogFormat, "Log format (text, json)")
	flag.StringVar(&cfg.CatalogURL, "catalog-url", cfg.CatalogURL, "Remote catalog base URL")
	flag.StringVar(&cfg.CatalogFile, "catalog-file", cfg.CatalogFile, "JSON file to seed the local catalog")
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "Public base URL for join links (detected if empty)")
	noBanner := flag.Bool("nobanner", false, "Skip the startup logo")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `DiscRound - Live disc golf round scoring

Usage:
  discround [options]

Options:
  -port int            HTTP server port (default 8081, env DISCROUND_PORT)
  -db string           SQLite database path (default "discround.db", env DISCROUND_DB)
  -loglevel str        Log level: debug, info, warn, error (env DISCROUND_LOG_LEVEL)
  -logformat str       Log format: text, json (env LOG_FORMAT)
  -catalog-url str     Remote catalog base URL (env DISCROUND_CATALOG_URL)
  -catalog-file str    Seed file for the local catalog (env DISCROUND_CATALOG_FILE)
  -base-url str        Public base URL for join links (env DISCROUND_BASE_URL)
  -nobanner            Skip the startup logo
  -version             Show version and exit
  -help                Show this help message

The token signing secret is read from DISCROUND_JWT_SECRET and is required.
DISCROUND_CATALOG_TOKEN, if set, is sent as a bearer token to the remote catalog.
Settings may also be placed in a .env file in the working directory.

Signals:
  SIGINT, SIGTERM      Graceful shutdown
  SIGUSR1              Cycle log level (debug → info → warn → error)
  SIGUSR2              Toggle HTTP request logging

Examples:
  discround                                  # Port 8081 with discround.db
  discround -catalog-file catalog.json       # Seed tournaments, courses and players
  discround -catalog-url https://api.example # Read the catalog from another service
  discround -logformat json -port 80         # Production example

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("discround %s\n", version)
		os.Exit(0)
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	if !*noBanner && cfg.LogFormat == "text" {
		showBanner()
	}

	appLog := logger.NewWithOptions(os.Stderr, logger.ParseLevel(cfg.LogLevel), logger.ParseFormat(cfg.LogFormat))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, appLog, cfg)
	if err != nil {
		log.Fatal("Failed to initialize application: ", err)
	}
	defer a.Close()

	go listenForControlSignals(ctx, appLog)

	if err := a.Run(ctx); err != nil {
		appLog.Error("Server stopped", "error", err)
		a.Close()
		os.Exit(1)
	}
	appLog.Info("Server stopped")
}
