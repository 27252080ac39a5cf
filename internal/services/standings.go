package services

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/abrezinsky/discround/internal/errors"
	"github.com/abrezinsky/discround/internal/logger"
	"github.com/abrezinsky/discround/internal/metrics"
	"github.com/abrezinsky/discround/internal/models"
	"github.com/abrezinsky/discround/internal/ranking"
	"github.com/abrezinsky/discround/internal/repository"
)

// StandingsServiceRepository defines the repository methods needed by StandingsService
type StandingsServiceRepository interface {
	repository.SessionRepository
	repository.LedgerRepository
}

// StandingsService derives leaderboards and serves the polled play-data bundle
type StandingsService struct {
	log      logger.Logger
	repo     StandingsServiceRepository
	playData singleflight.Group
}

// NewStandingsService creates a new StandingsService
func NewStandingsService(log logger.Logger, repo StandingsServiceRepository) *StandingsService {
	return &StandingsService{log: log.With("component", "standings"), repo: repo}
}

// Leaderboard is a ranked view of a session
type Leaderboard struct {
	SessionID   string               `json:"session_id"`
	Status      models.SessionStatus `json:"status"`
	TotalPar    int                  `json:"total_par"`
	HoleCount   int                  `json:"hole_count"`
	AllScored   bool                 `json:"all_scored"`
	CompletedAt *time.Time           `json:"completed_at,omitempty"`
	Standings   []models.Standing    `json:"standings"`
}

// PlayData bundles everything a scoring client needs in one poll.
// Values returned by PlayData may be shared between callers and must not be modified.
type PlayData struct {
	SessionID    string               `json:"session_id"`
	Status       models.SessionStatus `json:"status"`
	Holes        []models.Hole        `json:"holes"`
	Participants []models.Participant `json:"participants"`
	Scores       []models.ScoreRecord `json:"scores"`
}

// Leaderboard ranks the session's current ledger, in any state
func (s *StandingsService) Leaderboard(ctx context.Context, sessionID string) (*Leaderboard, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, storageError(err, "session")
	}
	return s.rank(ctx, session)
}

// FinalStandings ranks a COMPLETED session
func (s *StandingsService) FinalStandings(ctx context.Context, sessionID string) (*Leaderboard, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, storageError(err, "session")
	}
	if session.Status != models.StatusCompleted {
		s.log.Debug("Final standings requested early", "session_id", sessionID, "status", session.Status)
		return nil, errors.InvalidStatef("session is %s; final standings exist once it is %s", session.Status, models.StatusCompleted)
	}
	return s.rank(ctx, session)
}

func (s *StandingsService) rank(ctx context.Context, session *models.RoundSession) (*Leaderboard, error) {
	holes, err := s.repo.GetSessionHoles(ctx, session.SessionID)
	if err != nil {
		return nil, storageError(err, "session")
	}
	scores, err := s.repo.ListScores(ctx, session.SessionID)
	if err != nil {
		return nil, storageError(err, "session")
	}

	return &Leaderboard{
		SessionID:   session.SessionID,
		Status:      session.Status,
		TotalPar:    ranking.TotalPar(holes),
		HoleCount:   len(holes),
		AllScored:   ranking.IsComplete(holes, scores, session.Participants),
		CompletedAt: session.CompletedAt,
		Standings:   ranking.Rank(holes, scores, session.Participants),
	}, nil
}

// PlayData returns holes, roster and score records of a started session.
// Concurrent calls for the same session share one set of storage reads.
func (s *StandingsService) PlayData(ctx context.Context, sessionID string) (*PlayData, error) {
	v, err, shared := s.playData.Do(sessionID, func() (interface{}, error) {
		return s.loadPlayData(context.WithoutCancel(ctx), sessionID)
	})
	metrics.PlayDataReads.WithLabelValues(strconv.FormatBool(shared)).Inc()
	if err != nil {
		return nil, err
	}
	return v.(*PlayData), nil
}

func (s *StandingsService) loadPlayData(ctx context.Context, sessionID string) (*PlayData, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, storageError(err, "session")
	}
	if session.Status == models.StatusWaiting {
		s.log.Debug("Play data requested before start", "session_id", sessionID)
		return nil, errors.InvalidStatef("session is %s; play data is available once it starts", session.Status)
	}

	holes, err := s.repo.GetSessionHoles(ctx, sessionID)
	if err != nil {
		return nil, storageError(err, "session")
	}
	scores, err := s.repo.ListScores(ctx, sessionID)
	if err != nil {
		return nil, storageError(err, "session")
	}

	return &PlayData{
		SessionID:    session.SessionID,
		Status:       session.Status,
		Holes:        holes,
		Participants: session.Participants,
		Scores:       scores,
	}, nil
}
