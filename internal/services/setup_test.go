package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/abrezinsky/discround/internal/errors"
	"github.com/abrezinsky/discround/internal/logger"
	"github.com/abrezinsky/discround/internal/models"
	"github.com/abrezinsky/discround/internal/repository"
	"github.com/abrezinsky/discround/internal/services"
	"github.com/abrezinsky/discround/internal/testutil"
)

var (
	organizer = models.Identity{PlayerID: testutil.OrganizerID, Role: models.RoleOrganizer}
	admin     = models.Identity{PlayerID: "root", Role: models.RoleAdmin}
)

// recordingBroadcaster captures change notifications
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (b *recordingBroadcaster) SessionChanged(sessionID, event string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBroadcaster) count(event string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e == event {
			n++
		}
	}
	return n
}

// setupSessionService creates a SessionService over a seeded in-memory repository
func setupSessionService(t *testing.T, pars []int, playerIDs ...string) (*services.SessionService, *repository.Repository) {
	t.Helper()
	repo := testutil.NewTestRepository(t)
	testutil.SeedCatalog(t, repo, pars, playerIDs...)
	svc := services.NewSessionService(logger.Discard(), repo, services.NewLocalCatalog(repo), nil)
	return svc, repo
}

func createRequest(round int, playerIDs ...string) services.CreateSessionRequest {
	return services.CreateSessionRequest{
		TournamentID: testutil.TournamentID,
		RoundNumber:  round,
		CourseID:     testutil.CourseID,
		PlayerIDs:    playerIDs,
	}
}

// createSession opens round 1 for the given players
func createSession(t *testing.T, svc *services.SessionService, playerIDs ...string) *models.RoundSession {
	t.Helper()
	session, err := svc.Create(context.Background(), organizer, createRequest(1, playerIDs...))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return session
}

// startSession creates round 1 and readies every player
func startSession(t *testing.T, svc *services.SessionService, playerIDs ...string) *models.RoundSession {
	t.Helper()
	session := createSession(t, svc, playerIDs...)
	for _, id := range playerIDs {
		if _, err := svc.MarkReady(context.Background(), session.SessionID, id); err != nil {
			t.Fatalf("MarkReady(%s) failed: %v", id, err)
		}
	}
	return session
}

func submit(t *testing.T, svc *services.SessionService, sessionID string, hole int, entries ...models.ScoreEntry) *services.ScoreResult {
	t.Helper()
	result, err := svc.SubmitScores(context.Background(), sessionID, hole, entries)
	if err != nil {
		t.Fatalf("SubmitScores(hole %d) failed: %v", hole, err)
	}
	return result
}

func entry(playerID string, strokes, ob int) models.ScoreEntry {
	return models.ScoreEntry{PlayerID: playerID, Strokes: strokes, OBCount: ob}
}

func assertKind(t *testing.T, err error, want errors.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := errors.KindOf(err); got != want {
		t.Fatalf("expected %s error, got %s (%v)", want, got, err)
	}
}
