package services

import (
	"context"
	stderrors "errors"

	"github.com/abrezinsky/discround/internal/errors"
	"github.com/abrezinsky/discround/internal/logger"
	"github.com/abrezinsky/discround/internal/models"
	"github.com/abrezinsky/discround/internal/repository"
)

// DirectoryService looks up sessions and resolves caller access to them
type DirectoryService struct {
	log  logger.Logger
	repo repository.SessionRepository
}

// NewDirectoryService creates a new DirectoryService
func NewDirectoryService(log logger.Logger, repo repository.SessionRepository) *DirectoryService {
	return &DirectoryService{log: log.With("component", "directory"), repo: repo}
}

// FindActiveSession returns the WAITING or IN_PROGRESS session of a tournament round.
// found is false when the round has no active session. Callers outside the
// session get Forbidden instead of its ID.
func (d *DirectoryService) FindActiveSession(ctx context.Context, caller models.Identity, tournamentID string, roundNumber int) (string, bool, error) {
	if roundNumber < 1 {
		return "", false, errors.Validation("round_number must be at least 1").WithField("round_number")
	}
	sessionID, err := d.repo.FindActiveSession(ctx, tournamentID, roundNumber)
	if stderrors.Is(err, repository.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, storageError(err, "session")
	}

	access, _, err := d.ResolveAccess(ctx, sessionID, caller)
	if err != nil {
		return "", false, err
	}
	if err := RequireMember(access); err != nil {
		d.log.Debug("Active session lookup denied", "tournament_id", tournamentID, "round", roundNumber, "player_id", caller.PlayerID)
		return "", false, err
	}
	return sessionID, true, nil
}

// ListSessions returns the sessions of a tournament visible to caller, newest
// first. The organizer sees every session; players see the ones they play in.
func (d *DirectoryService) ListSessions(ctx context.Context, caller models.Identity, tournamentID string) ([]models.RoundSession, error) {
	sessions, err := d.repo.ListSessions(ctx, tournamentID)
	if err != nil {
		return nil, storageError(err, "tournament")
	}

	visible := make([]models.RoundSession, 0, len(sessions))
	for _, s := range sessions {
		if canOrganize(caller, s.OrganizerID) {
			visible = append(visible, s)
			continue
		}
		if caller.PlayerID == "" {
			continue
		}
		full, err := d.repo.GetSession(ctx, s.SessionID)
		if err != nil {
			return nil, storageError(err, "session")
		}
		if _, ok := full.FindParticipant(caller.PlayerID); ok {
			visible = append(visible, s)
		}
	}
	if hidden := len(sessions) - len(visible); hidden > 0 {
		d.log.Debug("Sessions hidden from caller", "tournament_id", tournamentID, "player_id", caller.PlayerID, "hidden", hidden)
	}
	return visible, nil
}

// ResolveAccess reports how the caller relates to a session. The session is
// returned as well so callers can serve it without a second read.
func (d *DirectoryService) ResolveAccess(ctx context.Context, sessionID string, caller models.Identity) (*models.Access, *models.RoundSession, error) {
	session, err := d.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, storageError(err, "session")
	}

	_, isParticipant := session.FindParticipant(caller.PlayerID)
	access := &models.Access{
		IsParticipant: caller.PlayerID != "" && isParticipant,
		IsOrganizer:   canOrganize(caller, session.OrganizerID),
	}
	return access, session, nil
}

// RequireMember rejects callers that are neither participant nor organizer
func RequireMember(access *models.Access) error {
	if access == nil || (!access.IsParticipant && !access.IsOrganizer) {
		return errors.Forbidden("caller is not part of this session")
	}
	return nil
}

// canOrganize reports whether caller acts as organizer of a tournament.
// Admins organize every tournament.
func canOrganize(caller models.Identity, organizerID string) bool {
	if caller.Role == models.RoleAdmin {
		return true
	}
	return caller.PlayerID != "" && caller.PlayerID == organizerID
}
