package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abrezinsky/discround/internal/auth"
	"github.com/abrezinsky/discround/internal/handlers"
	"github.com/abrezinsky/discround/internal/logger"
	"github.com/abrezinsky/discround/internal/models"
	"github.com/abrezinsky/discround/internal/repository"
	"github.com/abrezinsky/discround/internal/services"
	"github.com/abrezinsky/discround/internal/testutil"
	"github.com/abrezinsky/discround/internal/websocket"
)

const (
	testSecret  = "handler-secret"
	testBaseURL = "http://rounds.test"
)

var (
	organizer = models.Identity{PlayerID: testutil.OrganizerID, Role: models.RoleOrganizer}
	anonymous = models.Identity{}
)

func player(id string) models.Identity {
	return models.Identity{PlayerID: id, Role: models.RolePlayer}
}

type testServer struct {
	router   http.Handler
	verifier *auth.Verifier
	repo     *repository.Repository
	hub      *websocket.Hub
}

// setupServer wires the full handler stack over a seeded in-memory repository
func setupServer(t *testing.T, pars []int, playerIDs ...string) *testServer {
	t.Helper()
	repo := testutil.NewTestRepository(t)
	testutil.SeedCatalog(t, repo, pars, playerIDs...)

	log := logger.Discard()
	sessions := services.NewSessionService(log, repo, services.NewLocalCatalog(repo), nil)
	directory := services.NewDirectoryService(log, repo)
	standings := services.NewStandingsService(log, repo)

	hub := websocket.New(log, sessions)
	hub.Start()
	t.Cleanup(hub.Stop)
	sessions.SetBroadcaster(hub)

	verifier := auth.New(testSecret)
	h := handlers.New(sessions, directory, standings, verifier, hub, log, handlers.Options{
		BaseURL: testBaseURL,
		Ping:    repo.Ping,
	})

	return &testServer{router: h.Router(), verifier: verifier, repo: repo, hub: hub}
}

func (s *testServer) token(t *testing.T, id models.Identity) string {
	t.Helper()
	token, err := s.verifier.IssueToken(id.PlayerID, id.Role, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	return token
}

// do sends a request as id; an empty identity sends no token
func (s *testServer) do(t *testing.T, id models.Identity, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id.PlayerID != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(t, id))
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(target); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

// assertAPIError checks the status, code and optional field/player of an error body
func assertAPIError(t *testing.T, rec *httptest.ResponseRecorder, status int, code, field, playerID string) {
	t.Helper()
	assertStatus(t, rec, status)
	var body handlers.APIError
	decode(t, rec, &body)
	if body.Code != code {
		t.Errorf("expected code %s, got %s (%s)", code, body.Code, body.Message)
	}
	if body.Field != field {
		t.Errorf("expected field %q, got %q", field, body.Field)
	}
	if body.PlayerID != playerID {
		t.Errorf("expected player_id %q, got %q", playerID, body.PlayerID)
	}
}

func roundsPath() string {
	return "/api/tournaments/" + testutil.TournamentID + "/rounds"
}

// createRound opens round 1 as the organizer
func (s *testServer) createRound(t *testing.T, playerIDs ...string) handlers.SessionResponse {
	t.Helper()
	rec := s.do(t, organizer, http.MethodPost, roundsPath(), handlers.CreateRoundRequest{
		RoundNumber: 1,
		CourseID:    testutil.CourseID,
		PlayerIDs:   playerIDs,
	})
	assertStatus(t, rec, http.StatusCreated)
	var resp handlers.SessionResponse
	decode(t, rec, &resp)
	return resp
}

// startRound opens round 1 and readies every player
func (s *testServer) startRound(t *testing.T, playerIDs ...string) string {
	t.Helper()
	sessionID := s.createRound(t, playerIDs...).SessionID
	for _, id := range playerIDs {
		rec := s.do(t, player(id), http.MethodPost, "/api/sessions/"+sessionID+"/ready", nil)
		assertStatus(t, rec, http.StatusOK)
	}
	return sessionID
}

func scoresBody(entries ...models.ScoreEntry) handlers.SubmitScoresRequest {
	return handlers.SubmitScoresRequest{Scores: entries}
}

func score(playerID string, strokes, ob int) models.ScoreEntry {
	return models.ScoreEntry{PlayerID: playerID, Strokes: strokes, OBCount: ob}
}

func httpRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

func serve(s *testServer, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}
