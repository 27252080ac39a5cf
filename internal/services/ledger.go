package services

import (
	"context"
	"time"

	"github.com/abrezinsky/discround/internal/errors"
	"github.com/abrezinsky/discround/internal/models"
	"github.com/abrezinsky/discround/internal/repository"
)

// Bounds of a single score entry
const (
	MaxStrokes = 99
	MaxOBCount = 99
)

// ScoreLedger validates per-hole score batches and writes them atomically
type ScoreLedger struct {
	repo repository.LedgerRepository
	now  func() time.Time
}

// NewScoreLedger creates a new ScoreLedger. now stamps updated_at and, when a
// batch fills the scorecard, completed_at; nil means time.Now.
func NewScoreLedger(repo repository.LedgerRepository, now func() time.Time) *ScoreLedger {
	if now == nil {
		now = time.Now
	}
	return &ScoreLedger{repo: repo, now: now}
}

// Record validates a batch for one hole and upserts it in a single transaction.
// The session must already be IN_PROGRESS; nothing is written if any entry fails.
func (l *ScoreLedger) Record(ctx context.Context, session *models.RoundSession, holes []models.Hole, holeNumber int, entries []models.ScoreEntry) (repository.ScoreOutcome, error) {
	records, err := BuildScoreRecords(session, holes, holeNumber, entries)
	if err != nil {
		return repository.ScoreOutcome{}, err
	}

	out, err := l.repo.UpsertScores(ctx, session.SessionID, records, l.now())
	if err != nil {
		return out, storageError(err, "session")
	}
	return out, nil
}

// Scores returns every record of a session ordered by participation and hole
func (l *ScoreLedger) Scores(ctx context.Context, sessionID string) ([]models.ScoreRecord, error) {
	records, err := l.repo.ListScores(ctx, sessionID)
	if err != nil {
		return nil, storageError(err, "session")
	}
	return records, nil
}

// BuildScoreRecords checks a submission against the session's frozen holes and
// roster and converts it into ledger records.
func BuildScoreRecords(session *models.RoundSession, holes []models.Hole, holeNumber int, entries []models.ScoreEntry) ([]models.ScoreRecord, error) {
	if !hasHole(holes, holeNumber) {
		return nil, errors.Validationf("hole %d is not part of this round", holeNumber).WithField("hole_number")
	}
	if err := ValidateScoreEntries(entries); err != nil {
		return nil, err
	}

	records := make([]models.ScoreRecord, 0, len(entries))
	for _, e := range entries {
		p, ok := session.FindParticipant(e.PlayerID)
		if !ok {
			return nil, errors.UnknownParticipant(e.PlayerID)
		}
		records = append(records, models.ScoreRecord{
			ParticipationID: p.ParticipationID,
			HoleNumber:      holeNumber,
			Strokes:         e.Strokes,
			OBCount:         e.OBCount,
		})
	}
	return records, nil
}

// ValidateScoreEntries checks the values of a batch without looking at the session
func ValidateScoreEntries(entries []models.ScoreEntry) error {
	if len(entries) == 0 {
		return errors.Validation("at least one score entry is required").WithField("entries")
	}

	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.PlayerID == "" {
			return errors.Validation("player_id is required").WithField("player_id")
		}
		if e.Strokes < 1 || e.Strokes > MaxStrokes {
			return errors.Validationf("strokes must be between 1 and %d for player %s", MaxStrokes, e.PlayerID).
				WithField("strokes").WithPlayer(e.PlayerID)
		}
		if e.OBCount < 0 || e.OBCount > MaxOBCount {
			return errors.Validationf("ob_count must be between 0 and %d for player %s", MaxOBCount, e.PlayerID).
				WithField("ob_count").WithPlayer(e.PlayerID)
		}
		if seen[e.PlayerID] {
			return errors.Validationf("player %s appears more than once", e.PlayerID).
				WithField("player_id").WithPlayer(e.PlayerID)
		}
		seen[e.PlayerID] = true
	}
	return nil
}

// validateHoles checks a course layout before it is frozen into a session
func validateHoles(holes []models.Hole) error {
	if len(holes) == 0 {
		return errors.Validation("course has no holes").WithField("course_id")
	}
	seen := make(map[int]bool, len(holes))
	for _, h := range holes {
		if h.HoleNumber < 1 {
			return errors.Validationf("hole number %d is invalid", h.HoleNumber).WithField("hole_number")
		}
		if seen[h.HoleNumber] {
			return errors.Validationf("hole %d is listed twice", h.HoleNumber).WithField("hole_number")
		}
		if h.Par < 1 {
			return errors.Validationf("hole %d has par %d", h.HoleNumber, h.Par).WithField("par")
		}
		seen[h.HoleNumber] = true
	}
	return nil
}

func hasHole(holes []models.Hole, holeNumber int) bool {
	for _, h := range holes {
		if h.HoleNumber == holeNumber {
			return true
		}
	}
	return false
}
