package handlers

import (
	"context"

	"github.com/abrezinsky/discround/internal/auth"
	"github.com/abrezinsky/discround/internal/logger"
	"github.com/abrezinsky/discround/internal/services"
	"github.com/abrezinsky/discround/internal/websocket"
)

// Options carries the settings the router needs beyond its services
type Options struct {
	// BaseURL is the public address used in join links and QR codes
	BaseURL string
	// CORSOrigins lists the browser origins allowed to call the API
	CORSOrigins []string
	// Ping reports storage health for /healthz
	Ping func(ctx context.Context) error
}

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Sessions  services.SessionServicer
	Directory services.DirectoryServicer
	Standings services.StandingsServicer
	Verifier  *auth.Verifier
	Hub       *websocket.Hub
	Log       logger.Logger
	opts      Options
}

// New creates a new Handlers instance with all dependencies
func New(
	sessions services.SessionServicer,
	directory services.DirectoryServicer,
	standings services.StandingsServicer,
	verifier *auth.Verifier,
	hub *websocket.Hub,
	log logger.Logger,
	opts Options,
) *Handlers {
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	return &Handlers{
		Sessions:  sessions,
		Directory: directory,
		Standings: standings,
		Verifier:  verifier,
		Hub:       hub,
		Log:       log,
		opts:      opts,
	}
}
