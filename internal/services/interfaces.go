package services

import (
	"context"

	"github.com/abrezinsky/discround/internal/models"
)

// Catalog is the tournament/course catalog collaborator
type Catalog interface {
	Tournament(ctx context.Context, tournamentID string) (*models.Tournament, error)
	CourseHoles(ctx context.Context, courseID string) ([]models.Hole, error)
	Players(ctx context.Context, playerIDs []string) ([]models.Player, error)
}

// Broadcaster receives session change notifications
type Broadcaster interface {
	SessionChanged(sessionID, event string, payload interface{})
}

// SessionServicer defines the round session state machine operations
type SessionServicer interface {
	Create(ctx context.Context, caller models.Identity, req CreateSessionRequest) (*models.RoundSession, error)
	MarkReady(ctx context.Context, sessionID, playerID string) (*ReadyResult, error)
	GetStatus(ctx context.Context, sessionID string) (*models.RoundSession, error)
	SubmitScores(ctx context.Context, sessionID string, holeNumber int, entries []models.ScoreEntry) (*ScoreResult, error)
	GetScores(ctx context.Context, sessionID string) ([]models.ScoreRecord, error)
	ForceComplete(ctx context.Context, sessionID string, caller models.Identity) (*models.RoundSession, error)
	SetBroadcaster(b Broadcaster)
}

// DirectoryServicer defines session lookup and access resolution
type DirectoryServicer interface {
	FindActiveSession(ctx context.Context, caller models.Identity, tournamentID string, roundNumber int) (string, bool, error)
	ListSessions(ctx context.Context, caller models.Identity, tournamentID string) ([]models.RoundSession, error)
	ResolveAccess(ctx context.Context, sessionID string, caller models.Identity) (*models.Access, *models.RoundSession, error)
}

// StandingsServicer defines the ranked and bundled read views
type StandingsServicer interface {
	Leaderboard(ctx context.Context, sessionID string) (*Leaderboard, error)
	FinalStandings(ctx context.Context, sessionID string) (*Leaderboard, error)
	PlayData(ctx context.Context, sessionID string) (*PlayData, error)
}

// Ensure concrete types implement interfaces
var (
	_ SessionServicer   = (*SessionService)(nil)
	_ DirectoryServicer = (*DirectoryService)(nil)
	_ StandingsServicer = (*StandingsService)(nil)
	_ Catalog           = (*LocalCatalog)(nil)
	_ Catalog           = (*RemoteCatalog)(nil)
)
