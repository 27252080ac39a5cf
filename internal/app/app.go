package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/abrezinsky/discround/internal/auth"
	"github.com/abrezinsky/discround/internal/config"
	"github.com/abrezinsky/discround/internal/handlers"
	"github.com/abrezinsky/discround/internal/logger"
	"github.com/abrezinsky/discround/internal/repository"
	"github.com/abrezinsky/discround/internal/services"
	"github.com/abrezinsky/discround/internal/websocket"
	"github.com/abrezinsky/discround/pkg/catalog"
)

const shutdownTimeout = 10 * time.Second

// App holds all application dependencies
type App struct {
	log      logger.Logger
	cfg      *config.Config
	baseURL  string
	handlers *handlers.Handlers
	repo     *repository.Repository
	hub      *websocket.Hub
}

// New creates and initializes a new application instance
func New(ctx context.Context, log logger.Logger, cfg *config.Config) (*App, error) {
	repo, err := repository.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	source, err := newCatalog(ctx, log, repo, cfg)
	if err != nil {
		repo.Close()
		return nil, err
	}

	// Initialize services
	sessionService := services.NewSessionService(log, repo, source, nil)
	directoryService := services.NewDirectoryService(log, repo)
	standingsService := services.NewStandingsService(log, repo)

	// Initialize WebSocket hub with DI
	hub := websocket.New(log, sessionService)
	hub.Start()
	sessionService.SetBroadcaster(hub)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://%s%s", getPreferredIP(realNetworkProvider{}), cfg.Addr())
	}

	h := handlers.New(
		sessionService,
		directoryService,
		standingsService,
		auth.New(cfg.JWTSecret),
		hub,
		log,
		handlers.Options{
			BaseURL:     baseURL,
			CORSOrigins: cfg.CORSOrigins,
			Ping:        repo.Ping,
		},
	)

	return &App{
		log:      log,
		cfg:      cfg,
		baseURL:  baseURL,
		handlers: h,
		repo:     repo,
		hub:      hub,
	}, nil
}

// newCatalog picks the remote catalog when a URL is configured, otherwise
// the local tables, optionally seeded from a file
func newCatalog(ctx context.Context, log logger.Logger, repo *repository.Repository, cfg *config.Config) (services.Catalog, error) {
	if cfg.CatalogURL != "" {
		log.Info("Using remote catalog", "url", cfg.CatalogURL)
		client := catalog.NewHTTPClient(cfg.CatalogURL, log)
		if cfg.CatalogToken != "" {
			client.SetToken(cfg.CatalogToken)
		}
		return services.NewRemoteCatalog(client), nil
	}

	if cfg.CatalogFile != "" {
		seed, err := services.LoadCatalogSeed(cfg.CatalogFile)
		if err != nil {
			return nil, err
		}
		if err := services.ImportCatalog(ctx, log, repo, seed); err != nil {
			return nil, err
		}
	}
	return services.NewLocalCatalog(repo), nil
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// BaseURL is the public URL used in join links and QR codes
func (a *App) BaseURL() string {
	return a.baseURL
}

// Close performs graceful shutdown of app resources
func (a *App) Close() error {
	a.hub.Stop()
	return a.repo.Close()
}

// Run listens on the configured address and serves until ctx is cancelled
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.cfg.Addr(), err)
	}
	return a.Serve(ctx, ln)
}

// Serve serves HTTP on ln until ctx is cancelled, then drains in-flight
// requests and disconnects WebSocket subscribers
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Hijacked WebSocket connections are not tracked by Shutdown
	server.RegisterOnShutdown(a.hub.Stop)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info("Server starting", "addr", ln.Addr().String(), "url", a.baseURL)
		if err := server.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("Server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// networkInterface wraps net.Interface for testing
type networkInterface interface {
	Flags() net.Flags
	Addrs() ([]net.Addr, error)
}

// realInterface wraps a real net.Interface
type realInterface struct {
	iface net.Interface
}

func (r realInterface) Flags() net.Flags {
	return r.iface.Flags
}

func (r realInterface) Addrs() ([]net.Addr, error) {
	return r.iface.Addrs()
}

// networkProvider is an interface for getting network interfaces (for testing)
type networkProvider interface {
	Interfaces() ([]networkInterface, error)
}

type realNetworkProvider struct{}

func (realNetworkProvider) Interfaces() ([]networkInterface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	result := make([]networkInterface, len(ifaces))
	for i, iface := range ifaces {
		result[i] = realInterface{iface: iface}
	}
	return result, nil
}

// getPreferredIP returns the address players on the course network can reach.
// Private IPv4 addresses win; localhost is the last resort.
func getPreferredIP(provider networkProvider) string {
	ifaces, err := provider.Interfaces()
	if err != nil {
		return "localhost"
	}

	var candidates []net.IP
	for _, iface := range ifaces {
		flags := iface.Flags()
		if flags&net.FlagUp == 0 || flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.To4() == nil || ip.IsLoopback() {
				continue
			}
			candidates = append(candidates, ip)
		}
	}

	for _, ip := range candidates {
		if ip.IsPrivate() {
			return ip.String()
		}
	}
	if len(candidates) > 0 {
		return candidates[0].String()
	}
	return "localhost"
}
