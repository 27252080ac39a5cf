package repository

import (
	"context"
	"time"

	"github.com/abrezinsky/discround/internal/models"
)

// CatalogRepository defines the locally stored tournament/course catalog
type CatalogRepository interface {
	UpsertPlayer(ctx context.Context, player models.Player) error
	GetPlayers(ctx context.Context, playerIDs []string) ([]models.Player, error)
	UpsertTournament(ctx context.Context, t models.Tournament) error
	GetTournament(ctx context.Context, tournamentID string) (*models.Tournament, error)
	UpsertCourse(ctx context.Context, course models.Course) error
	GetCourse(ctx context.Context, courseID string) (*models.Course, error)
}

// SessionRepository defines round session data operations
type SessionRepository interface {
	CreateSession(ctx context.Context, session *models.RoundSession, holes []models.Hole) error
	GetSession(ctx context.Context, sessionID string) (*models.RoundSession, error)
	ListSessions(ctx context.Context, tournamentID string) ([]models.RoundSession, error)
	FindActiveSession(ctx context.Context, tournamentID string, roundNumber int) (string, error)
	GetSessionHoles(ctx context.Context, sessionID string) ([]models.Hole, error)
	MarkReady(ctx context.Context, sessionID string, participationID int64, at time.Time) (ReadyOutcome, error)
	CompleteSession(ctx context.Context, sessionID, completedBy string, at time.Time) (bool, error)
}

// LedgerRepository defines score ledger data operations
type LedgerRepository interface {
	UpsertScores(ctx context.Context, sessionID string, records []models.ScoreRecord, at time.Time) (ScoreOutcome, error)
	ListScores(ctx context.Context, sessionID string) ([]models.ScoreRecord, error)
}

// ReadyOutcome reports what a ready write did to the session
type ReadyOutcome struct {
	AllReady bool
	Started  bool
}

// ScoreOutcome reports what a score write did to the session
type ScoreOutcome struct {
	AllScored bool
	Completed bool
}

// FullRepository combines all repository interfaces
// Use this when a service needs access to multiple domains
type FullRepository interface {
	CatalogRepository
	SessionRepository
	LedgerRepository
}

// Ensure Repository implements all interfaces
var _ FullRepository = (*Repository)(nil)
