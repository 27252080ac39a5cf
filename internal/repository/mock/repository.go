package mock

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/abrezinsky/discround/internal/models"
	"github.com/abrezinsky/discround/internal/repository"
)

// Repository wraps a real repository and allows injecting errors for testing.
// This provides a flexible way to test error paths without complex database manipulation.
//
// Usage:
//
//	realRepo := testutil.NewTestRepository(t)
//	mockRepo := mock.NewRepository(realRepo)
//	mockRepo.UpsertScoresError = errors.New("database error")
//	svc := services.NewSessionService(log, mockRepo, catalog, nil)
//	err := svc.SubmitScores(ctx, sessionID, 1, entries)
//	// err will now contain the injected error
type Repository struct {
	repository.FullRepository

	// ===== Catalog Errors =====
	GetPlayersError    error
	GetTournamentError error
	GetCourseError     error

	// ===== Session Errors =====
	CreateSessionError     error
	GetSessionError        error
	ListSessionsError      error
	FindActiveSessionError error
	GetSessionHolesError   error
	MarkReadyError         error
	CompleteSessionError   error

	// ===== Ledger Errors =====
	UpsertScoresError error
	ListScoresError   error

	// Call counters for read-path assertions
	GetSessionCalls atomic.Int64
	ListScoresCalls atomic.Int64
}

// NewRepository creates a new mock repository wrapping a real repository
func NewRepository(realRepo repository.FullRepository) *Repository {
	return &Repository{FullRepository: realRepo}
}

// ===== Catalog Methods =====

func (m *Repository) GetPlayers(ctx context.Context, playerIDs []string) ([]models.Player, error) {
	if m.GetPlayersError != nil {
		return nil, m.GetPlayersError
	}
	return m.FullRepository.GetPlayers(ctx, playerIDs)
}

func (m *Repository) GetTournament(ctx context.Context, tournamentID string) (*models.Tournament, error) {
	if m.GetTournamentError != nil {
		return nil, m.GetTournamentError
	}
	return m.FullRepository.GetTournament(ctx, tournamentID)
}

func (m *Repository) GetCourse(ctx context.Context, courseID string) (*models.Course, error) {
	if m.GetCourseError != nil {
		return nil, m.GetCourseError
	}
	return m.FullRepository.GetCourse(ctx, courseID)
}

// ===== Session Methods =====

func (m *Repository) CreateSession(ctx context.Context, session *models.RoundSession, holes []models.Hole) error {
	if m.CreateSessionError != nil {
		return m.CreateSessionError
	}
	return m.FullRepository.CreateSession(ctx, session, holes)
}

func (m *Repository) GetSession(ctx context.Context, sessionID string) (*models.RoundSession, error) {
	m.GetSessionCalls.Add(1)
	if m.GetSessionError != nil {
		return nil, m.GetSessionError
	}
	return m.FullRepository.GetSession(ctx, sessionID)
}

func (m *Repository) ListSessions(ctx context.Context, tournamentID string) ([]models.RoundSession, error) {
	if m.ListSessionsError != nil {
		return nil, m.ListSessionsError
	}
	return m.FullRepository.ListSessions(ctx, tournamentID)
}

func (m *Repository) FindActiveSession(ctx context.Context, tournamentID string, roundNumber int) (string, error) {
	if m.FindActiveSessionError != nil {
		return "", m.FindActiveSessionError
	}
	return m.FullRepository.FindActiveSession(ctx, tournamentID, roundNumber)
}

func (m *Repository) GetSessionHoles(ctx context.Context, sessionID string) ([]models.Hole, error) {
	if m.GetSessionHolesError != nil {
		return nil, m.GetSessionHolesError
	}
	return m.FullRepository.GetSessionHoles(ctx, sessionID)
}

func (m *Repository) MarkReady(ctx context.Context, sessionID string, participationID int64, at time.Time) (repository.ReadyOutcome, error) {
	if m.MarkReadyError != nil {
		return repository.ReadyOutcome{}, m.MarkReadyError
	}
	return m.FullRepository.MarkReady(ctx, sessionID, participationID, at)
}

func (m *Repository) CompleteSession(ctx context.Context, sessionID, completedBy string, at time.Time) (bool, error) {
	if m.CompleteSessionError != nil {
		return false, m.CompleteSessionError
	}
	return m.FullRepository.CompleteSession(ctx, sessionID, completedBy, at)
}

// ===== Ledger Methods =====

func (m *Repository) UpsertScores(ctx context.Context, sessionID string, records []models.ScoreRecord, at time.Time) (repository.ScoreOutcome, error) {
	if m.UpsertScoresError != nil {
		return repository.ScoreOutcome{}, m.UpsertScoresError
	}
	return m.FullRepository.UpsertScores(ctx, sessionID, records, at)
}

func (m *Repository) ListScores(ctx context.Context, sessionID string) ([]models.ScoreRecord, error) {
	m.ListScoresCalls.Add(1)
	if m.ListScoresError != nil {
		return nil, m.ListScoresError
	}
	return m.FullRepository.ListScores(ctx, sessionID)
}
