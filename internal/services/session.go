package services

import (
	"cmp"
	"context"
	stderrors "errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/abrezinsky/discround/internal/errors"
	"github.com/abrezinsky/discround/internal/logger"
	"github.com/abrezinsky/discround/internal/metrics"
	"github.com/abrezinsky/discround/internal/models"
	"github.com/abrezinsky/discround/internal/repository"
)

// Change notification event types
const (
	EventSessionStatus    = "session_status"
	EventScoresUpdated    = "scores_updated"
	EventSessionCompleted = "session_completed"
)

// SessionServiceRepository defines the repository methods needed by SessionService
type SessionServiceRepository interface {
	repository.SessionRepository
	repository.LedgerRepository
}

// SessionService runs the round session state machine
type SessionService struct {
	log          logger.Logger
	repo         SessionServiceRepository
	catalog      Catalog
	ledger       *ScoreLedger
	sessionLocks *keyedMutex
	roundLocks   *keyedMutex
	broadcaster  Broadcaster
	now          func() time.Time
}

// NewSessionService creates a new SessionService
func NewSessionService(log logger.Logger, repo SessionServiceRepository, catalog Catalog, broadcaster Broadcaster) *SessionService {
	s := &SessionService{
		log:          log,
		repo:         repo,
		catalog:      catalog,
		sessionLocks: newKeyedMutex(),
		roundLocks:   newKeyedMutex(),
		broadcaster:  broadcaster,
		now:          time.Now,
	}
	s.ledger = NewScoreLedger(repo, func() time.Time { return s.now() })
	return s
}

// SetClock replaces the time source used for every timestamp the service writes
func (s *SessionService) SetClock(now func() time.Time) {
	s.now = now
}

// SetBroadcaster sets the broadcaster for sending updates to clients
func (s *SessionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// CreateSessionRequest describes a new round session
type CreateSessionRequest struct {
	TournamentID string   `json:"tournament_id"`
	RoundNumber  int      `json:"round_number"`
	CourseID     string   `json:"course_id"`
	PlayerIDs    []string `json:"player_ids"`
}

// Validate checks the request fields that need no lookups
func (r CreateSessionRequest) Validate() error {
	if strings.TrimSpace(r.TournamentID) == "" {
		return errors.Validation("tournament_id is required").WithField("tournament_id")
	}
	if r.RoundNumber < 1 {
		return errors.Validation("round_number must be at least 1").WithField("round_number")
	}
	if strings.TrimSpace(r.CourseID) == "" {
		return errors.Validation("course_id is required").WithField("course_id")
	}
	if len(r.PlayerIDs) == 0 {
		return errors.Validation("at least one player is required").WithField("player_ids")
	}
	seen := make(map[string]bool, len(r.PlayerIDs))
	for _, id := range r.PlayerIDs {
		if strings.TrimSpace(id) == "" {
			return errors.Validation("player IDs must not be empty").WithField("player_ids")
		}
		if seen[id] {
			return errors.Validationf("player %s is listed twice", id).WithField("player_ids").WithPlayer(id)
		}
		seen[id] = true
	}
	return nil
}

// ReadyResult is the outcome of a markReady call
type ReadyResult struct {
	AllReady bool                 `json:"all_ready"`
	Started  bool                 `json:"started"`
	Status   models.SessionStatus `json:"status"`
}

// ScoreResult is the outcome of a score submission
type ScoreResult struct {
	HoleNumber int                  `json:"hole_number"`
	Recorded   int                  `json:"recorded"`
	AllScored  bool                 `json:"all_scored"`
	Completed  bool                 `json:"completed"`
	Status     models.SessionStatus `json:"status"`
}

// Create opens a WAITING session for a tournament round with an unready roster.
// The course layout is frozen into the session.
func (s *SessionService) Create(ctx context.Context, caller models.Identity, req CreateSessionRequest) (*models.RoundSession, error) {
	if err := req.Validate(); err != nil {
		return nil, rejected(s.log, "create", err)
	}

	var (
		tournament *models.Tournament
		holes      []models.Hole
		players    []models.Player
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.catalog.Tournament(gctx, req.TournamentID)
		if err != nil {
			return catalogError(err, "tournament")
		}
		tournament = t
		return nil
	})
	g.Go(func() error {
		h, err := s.catalog.CourseHoles(gctx, req.CourseID)
		if err != nil {
			return catalogError(err, "course")
		}
		holes = h
		return nil
	})
	g.Go(func() error {
		p, err := s.catalog.Players(gctx, req.PlayerIDs)
		if err != nil {
			return catalogError(err, "players")
		}
		players = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, rejected(s.log, "create", err)
	}

	if !canOrganize(caller, tournament.OrganizerID) {
		return nil, rejected(s.log, "create", errors.Forbidden("only the tournament organizer can create round sessions"))
	}
	if tournamentClosed(tournament.Status) {
		return nil, rejected(s.log, "create", errors.InvalidStatef("tournament is %s", tournament.Status))
	}
	if err := validateHoles(holes); err != nil {
		return nil, rejected(s.log, "create", err)
	}
	holes = slices.Clone(holes)
	slices.SortFunc(holes, func(a, b models.Hole) int { return cmp.Compare(a.HoleNumber, b.HoleNumber) })

	participants, err := resolveParticipants(req.PlayerIDs, players)
	if err != nil {
		return nil, rejected(s.log, "create", err)
	}

	unlock := s.roundLocks.Lock(fmt.Sprintf("%s#%d", req.TournamentID, req.RoundNumber))
	defer unlock()

	existing, err := s.repo.FindActiveSession(ctx, req.TournamentID, req.RoundNumber)
	switch {
	case err == nil:
		return nil, rejected(s.log, "create",
			errors.Conflictf("round %d of tournament %s already has active session %s", req.RoundNumber, req.TournamentID, existing))
	case !stderrors.Is(err, repository.ErrNotFound):
		return nil, rejected(s.log, "create", storageError(err, "session"))
	}

	session := &models.RoundSession{
		SessionID:    uuid.NewString(),
		TournamentID: req.TournamentID,
		RoundNumber:  req.RoundNumber,
		CourseID:     req.CourseID,
		OrganizerID:  tournament.OrganizerID,
		Status:       models.StatusWaiting,
		Participants: participants,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.CreateSession(ctx, session, holes); err != nil {
		return nil, rejected(s.log, "create", storageError(err, "session"))
	}

	s.log.Info("Round session created",
		"session_id", session.SessionID,
		"tournament_id", session.TournamentID,
		"round", session.RoundNumber,
		"players", len(participants),
		"holes", len(holes))
	metrics.SessionTransitions.WithLabelValues(string(models.StatusWaiting), "create").Inc()
	s.notify(session.SessionID, EventSessionStatus, session)

	return session, nil
}

func resolveParticipants(playerIDs []string, players []models.Player) ([]models.Participant, error) {
	byID := make(map[string]models.Player, len(players))
	for _, p := range players {
		byID[p.PlayerID] = p
	}

	participants := make([]models.Participant, 0, len(playerIDs))
	for _, id := range playerIDs {
		p, ok := byID[id]
		if !ok {
			return nil, errors.Validationf("player %s is not registered in the catalog", id).
				WithField("player_ids").WithPlayer(id)
		}
		participants = append(participants, models.Participant{
			PlayerID:    p.PlayerID,
			PlayerName:  p.Name,
			PlayerImage: p.Image,
		})
	}
	return participants, nil
}

func tournamentClosed(status string) bool {
	switch strings.ToLower(status) {
	case "completed", "cancelled", "canceled":
		return true
	}
	return false
}

// MarkReady sets the player ready. When that satisfies the ready gate the
// session moves to IN_PROGRESS; exactly one caller observes Started.
func (s *SessionService) MarkReady(ctx context.Context, sessionID, playerID string) (*ReadyResult, error) {
	unlock := s.sessionLocks.Lock(sessionID)
	defer unlock()

	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, rejected(s.log, "ready", storageError(err, "session"))
	}
	if session.Status != models.StatusWaiting {
		return nil, rejected(s.log, "ready",
			errors.InvalidStatef("session is %s; players can only get ready while it is %s", session.Status, models.StatusWaiting))
	}

	p, ok := session.FindParticipant(playerID)
	if !ok {
		return nil, rejected(s.log, "ready", errors.UnknownParticipant(playerID))
	}
	if p.IsReady {
		return &ReadyResult{AllReady: session.AllReady(), Status: session.Status}, nil
	}

	out, err := s.repo.MarkReady(ctx, sessionID, p.ParticipationID, s.now())
	if err != nil {
		return nil, rejected(s.log, "ready", storageError(err, "participant"))
	}

	result := &ReadyResult{AllReady: out.AllReady, Started: out.Started, Status: models.StatusWaiting}
	s.log.Debug("Player ready", "session_id", sessionID, "player_id", playerID)
	if out.Started {
		result.Status = models.StatusInProgress
		s.log.Info("Round session started", "session_id", sessionID, "players", len(session.Participants))
		metrics.SessionTransitions.WithLabelValues(string(models.StatusInProgress), "ready").Inc()
	}
	s.notify(sessionID, EventSessionStatus, map[string]interface{}{
		"status":    result.Status,
		"player_id": playerID,
		"all_ready": result.AllReady,
	})

	return result, nil
}

// GetStatus returns the session with its roster, in any state
func (s *SessionService) GetStatus(ctx context.Context, sessionID string) (*models.RoundSession, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, storageError(err, "session")
	}
	return session, nil
}

// SubmitScores records one hole for a batch of players. When every
// participant then has a record for every hole the session completes.
func (s *SessionService) SubmitScores(ctx context.Context, sessionID string, holeNumber int, entries []models.ScoreEntry) (*ScoreResult, error) {
	unlock := s.sessionLocks.Lock(sessionID)
	defer unlock()

	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, rejected(s.log, "scores", storageError(err, "session"))
	}
	if session.Status != models.StatusInProgress {
		return nil, rejected(s.log, "scores",
			errors.InvalidStatef("session is %s; scores are accepted only while it is %s", session.Status, models.StatusInProgress))
	}

	holes, err := s.repo.GetSessionHoles(ctx, sessionID)
	if err != nil {
		return nil, rejected(s.log, "scores", storageError(err, "session"))
	}

	out, err := s.ledger.Record(ctx, session, holes, holeNumber, entries)
	if err != nil {
		return nil, rejected(s.log, "scores", err)
	}

	metrics.ScoreRecordsWritten.Add(float64(len(entries)))
	s.log.Debug("Scores recorded", "session_id", sessionID, "hole", holeNumber, "entries", len(entries))

	result := &ScoreResult{
		HoleNumber: holeNumber,
		Recorded:   len(entries),
		AllScored:  out.AllScored,
		Completed:  out.Completed,
		Status:     models.StatusInProgress,
	}
	s.notify(sessionID, EventScoresUpdated, map[string]interface{}{
		"hole_number": holeNumber,
		"entries":     entries,
	})

	if out.Completed {
		result.Status = models.StatusCompleted
		s.log.Info("Round session completed", "session_id", sessionID, "completed_by", models.CompletedByAuto)
		metrics.SessionTransitions.WithLabelValues(string(models.StatusCompleted), models.CompletedByAuto).Inc()
		s.notify(sessionID, EventSessionCompleted, map[string]interface{}{
			"status":       models.StatusCompleted,
			"completed_by": models.CompletedByAuto,
		})
	}

	return result, nil
}

// GetScores returns the session's score records
func (s *SessionService) GetScores(ctx context.Context, sessionID string) ([]models.ScoreRecord, error) {
	if _, err := s.repo.GetSession(ctx, sessionID); err != nil {
		return nil, storageError(err, "session")
	}
	return s.ledger.Scores(ctx, sessionID)
}

// ForceComplete ends an IN_PROGRESS session on the organizer's request,
// regardless of missing scores.
func (s *SessionService) ForceComplete(ctx context.Context, sessionID string, caller models.Identity) (*models.RoundSession, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, rejected(s.log, "complete", storageError(err, "session"))
	}
	if !canOrganize(caller, session.OrganizerID) {
		return nil, rejected(s.log, "complete", errors.Forbidden("only the tournament organizer can complete a session"))
	}

	unlock := s.sessionLocks.Lock(sessionID)
	defer unlock()

	ok, err := s.repo.CompleteSession(ctx, sessionID, models.CompletedByOrganizer, s.now())
	if err != nil {
		return nil, rejected(s.log, "complete", storageError(err, "session"))
	}

	current, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, rejected(s.log, "complete", storageError(err, "session"))
	}
	if !ok {
		return nil, rejected(s.log, "complete",
			errors.InvalidStatef("session is %s; only %s sessions can be completed", current.Status, models.StatusInProgress))
	}

	s.log.Info("Round session completed",
		"session_id", sessionID,
		"completed_by", models.CompletedByOrganizer,
		"organizer", caller.PlayerID)
	metrics.SessionTransitions.WithLabelValues(string(models.StatusCompleted), models.CompletedByOrganizer).Inc()
	s.notify(sessionID, EventSessionCompleted, map[string]interface{}{
		"status":       models.StatusCompleted,
		"completed_by": models.CompletedByOrganizer,
	})

	return current, nil
}

func (s *SessionService) notify(sessionID, event string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.SessionChanged(sessionID, event, payload)
	}
}

// rejected logs and counts a failed operation, then returns err unchanged
func rejected(log logger.Logger, op string, err error) error {
	kind := errors.KindOf(err)
	if kind == errors.ErrInternal {
		log.Error("Session operation failed", "operation", op, "error", err)
	} else {
		log.Debug("Session operation rejected", "operation", op, "kind", kind.String(), "error", err)
	}
	metrics.RejectedOperations.WithLabelValues(op, kind.String()).Inc()
	return err
}
