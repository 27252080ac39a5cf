package repository

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/abrezinsky/discround/internal/models"
)

// newTestRepo creates a new in-memory repository for testing.
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func twoHoles() []models.Hole {
	distance := 95
	return []models.Hole{
		{HoleNumber: 1, Par: 3, Distance: &distance},
		{HoleNumber: 2, Par: 4},
	}
}

func newSession(id string, round int, playerIDs ...string) *models.RoundSession {
	s := &models.RoundSession{
		SessionID:    id,
		TournamentID: "spring-open",
		RoundNumber:  round,
		CourseID:     "maple-hill",
		OrganizerID:  "org-1",
		Status:       models.StatusWaiting,
		CreatedAt:    time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	for _, p := range playerIDs {
		s.Participants = append(s.Participants, models.Participant{PlayerID: p, PlayerName: "Player " + p})
	}
	return s
}

// createStarted stores a session and readies every participant
func createStarted(t *testing.T, repo *Repository, id string, playerIDs ...string) *models.RoundSession {
	t.Helper()
	ctx := context.Background()
	s := newSession(id, 1, playerIDs...)
	if err := repo.CreateSession(ctx, s, twoHoles()); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	for _, p := range s.Participants {
		if _, err := repo.MarkReady(ctx, id, p.ParticipationID, time.Now()); err != nil {
			t.Fatalf("MarkReady failed: %v", err)
		}
	}
	return s
}

// ==================== Catalog Tests ====================

func TestPlayers_UpsertAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, p := range []models.Player{
		{PlayerID: "a", Name: "Ann"},
		{PlayerID: "b", Name: "Ben", Image: "ben.png"},
	} {
		if err := repo.UpsertPlayer(ctx, p); err != nil {
			t.Fatalf("UpsertPlayer failed: %v", err)
		}
	}
	if err := repo.UpsertPlayer(ctx, models.Player{PlayerID: "a", Name: "Anna"}); err != nil {
		t.Fatalf("UpsertPlayer update failed: %v", err)
	}

	players, err := repo.GetPlayers(ctx, []string{"a", "b", "zed"})
	if err != nil {
		t.Fatalf("GetPlayers failed: %v", err)
	}
	if len(players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(players))
	}
	byID := map[string]models.Player{}
	for _, p := range players {
		byID[p.PlayerID] = p
	}
	if byID["a"].Name != "Anna" {
		t.Errorf("expected updated name Anna, got %q", byID["a"].Name)
	}
	if byID["b"].Image != "ben.png" {
		t.Errorf("expected image ben.png, got %q", byID["b"].Image)
	}

	empty, err := repo.GetPlayers(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("expected no players for empty input, got %d (%v)", len(empty), err)
	}
}

func TestTournament_UpsertAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.GetTournament(ctx, "spring-open"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	tournament := models.Tournament{TournamentID: "spring-open", Name: "Spring Open", OrganizerID: "org-1", Status: "ongoing"}
	if err := repo.UpsertTournament(ctx, tournament); err != nil {
		t.Fatalf("UpsertTournament failed: %v", err)
	}
	tournament.OrganizerID = "org-2"
	if err := repo.UpsertTournament(ctx, tournament); err != nil {
		t.Fatalf("UpsertTournament update failed: %v", err)
	}

	got, err := repo.GetTournament(ctx, "spring-open")
	if err != nil {
		t.Fatalf("GetTournament failed: %v", err)
	}
	if *got != tournament {
		t.Errorf("got %+v, want %+v", *got, tournament)
	}
}

func TestCourse_UpsertReplacesHoles(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.GetCourse(ctx, "maple-hill"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	holes := twoHoles()
	course := models.Course{CourseID: "maple-hill", Name: "Maple Hill", Holes: []models.Hole{holes[1], holes[0]}}
	if err := repo.UpsertCourse(ctx, course); err != nil {
		t.Fatalf("UpsertCourse failed: %v", err)
	}

	got, err := repo.GetCourse(ctx, "maple-hill")
	if err != nil {
		t.Fatalf("GetCourse failed: %v", err)
	}
	if len(got.Holes) != 2 || got.Holes[0].HoleNumber != 1 {
		t.Fatalf("expected holes ordered by number, got %+v", got.Holes)
	}
	if got.Holes[0].Distance == nil || *got.Holes[0].Distance != 95 || got.Holes[1].Distance != nil {
		t.Errorf("distance not preserved: %+v", got.Holes)
	}

	course.Holes = []models.Hole{{HoleNumber: 1, Par: 5}}
	if err := repo.UpsertCourse(ctx, course); err != nil {
		t.Fatalf("UpsertCourse replace failed: %v", err)
	}
	got, _ = repo.GetCourse(ctx, "maple-hill")
	if len(got.Holes) != 1 || got.Holes[0].Par != 5 {
		t.Errorf("expected replaced hole list, got %+v", got.Holes)
	}
}

func TestCourse_RejectsZeroPar(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.UpsertCourse(ctx, models.Course{CourseID: "bad", Holes: []models.Hole{{HoleNumber: 1, Par: 0}}})
	if err == nil {
		t.Fatal("expected CHECK constraint failure for par 0")
	}
	if _, err := repo.GetCourse(ctx, "bad"); err != ErrNotFound {
		t.Errorf("expected failed upsert to roll back, got %v", err)
	}
}

// ==================== Session Tests ====================

func TestCreateSession_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	s := newSession("s1", 1, "a", "b")
	s.Participants[1].PlayerImage = "b.png"
	if err := repo.CreateSession(ctx, s, twoHoles()); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if s.Participants[0].ParticipationID == 0 || s.Participants[1].ParticipationID <= s.Participants[0].ParticipationID {
		t.Errorf("expected increasing participation IDs, got %+v", s.Participants)
	}

	got, err := repo.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.TournamentID != s.TournamentID || got.RoundNumber != 1 || got.CourseID != s.CourseID || got.OrganizerID != "org-1" {
		t.Errorf("unexpected session fields: %+v", got)
	}
	if got.Status != models.StatusWaiting {
		t.Errorf("expected WAITING, got %s", got.Status)
	}
	if !got.CreatedAt.Equal(s.CreatedAt) {
		t.Errorf("expected created_at %v, got %v", s.CreatedAt, got.CreatedAt)
	}
	if got.StartedAt != nil || got.CompletedAt != nil || got.CompletedBy != "" {
		t.Errorf("expected no lifecycle stamps yet, got %+v", got)
	}
	if len(got.Participants) != 2 || got.Participants[1].PlayerImage != "b.png" || got.Participants[0].IsReady {
		t.Errorf("unexpected participants: %+v", got.Participants)
	}

	holes, err := repo.GetSessionHoles(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSessionHoles failed: %v", err)
	}
	if len(holes) != 2 || holes[1].Par != 4 {
		t.Errorf("unexpected holes: %+v", holes)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	if _, err := repo.GetSession(context.Background(), "missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateSession_OneActivePerRound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := createStarted(t, repo, "s1", "a")

	if err := repo.CreateSession(ctx, newSession("s2", 1, "a"), twoHoles()); err != ErrConflict {
		t.Fatalf("expected ErrConflict for a second active session, got %v", err)
	}
	if _, err := repo.GetSession(ctx, "s2"); err != ErrNotFound {
		t.Errorf("expected rejected session to leave nothing behind, got %v", err)
	}

	if err := repo.CreateSession(ctx, newSession("s3", 2, "a"), twoHoles()); err != nil {
		t.Fatalf("other rounds must not conflict: %v", err)
	}

	ok, err := repo.CompleteSession(ctx, first.SessionID, models.CompletedByOrganizer, time.Now())
	if err != nil || !ok {
		t.Fatalf("CompleteSession failed: ok=%v err=%v", ok, err)
	}
	if err := repo.CreateSession(ctx, newSession("s4", 1, "a"), twoHoles()); err != nil {
		t.Fatalf("expected a new session once the old one completed: %v", err)
	}
}

func TestCreateSession_DuplicatePlayerRollsBack(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.CreateSession(ctx, newSession("s1", 1, "a", "a"), twoHoles()); err != ErrConflict {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if _, err := repo.GetSession(ctx, "s1"); err != ErrNotFound {
		t.Errorf("expected rollback, got %v", err)
	}
	if holes, _ := repo.GetSessionHoles(ctx, "s1"); len(holes) != 0 {
		t.Errorf("expected no frozen holes after rollback, got %d", len(holes))
	}
}

func TestFindActiveSession(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.FindActiveSession(ctx, "spring-open", 1); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	createStarted(t, repo, "s1", "a")

	id, err := repo.FindActiveSession(ctx, "spring-open", 1)
	if err != nil || id != "s1" {
		t.Errorf("expected s1, got %q (%v)", id, err)
	}

	repo.CompleteSession(ctx, "s1", models.CompletedByAuto, time.Now())
	if _, err := repo.FindActiveSession(ctx, "spring-open", 1); err != ErrNotFound {
		t.Errorf("expected completed session to be inactive, got %v", err)
	}
}

func TestListSessions_NewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i, id := range []string{"s1", "s2", "s3"} {
		s := newSession(id, i+1, "a")
		s.CreatedAt = s.CreatedAt.Add(time.Duration(i) * time.Hour)
		if err := repo.CreateSession(ctx, s, twoHoles()); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}
	}

	sessions, err := repo.ListSessions(ctx, "spring-open")
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(sessions))
	}
	for i, want := range []string{"s3", "s2", "s1"} {
		if sessions[i].SessionID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, sessions[i].SessionID)
		}
	}
}

func TestMarkReady_StartsOnLastPlayer(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	s := newSession("s1", 1, "a", "b")
	if err := repo.CreateSession(ctx, s, twoHoles()); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	out, err := repo.MarkReady(ctx, "s1", s.Participants[0].ParticipationID, time.Now())
	if err != nil {
		t.Fatalf("MarkReady failed: %v", err)
	}
	if out.AllReady || out.Started {
		t.Errorf("expected gate still closed, got %+v", out)
	}

	out, err = repo.MarkReady(ctx, "s1", s.Participants[1].ParticipationID, time.Now())
	if err != nil {
		t.Fatalf("MarkReady failed: %v", err)
	}
	if !out.AllReady || !out.Started {
		t.Errorf("expected the last ready to start the session, got %+v", out)
	}

	// A repeat write sees everyone ready but performs no second transition
	out, err = repo.MarkReady(ctx, "s1", s.Participants[1].ParticipationID, time.Now())
	if err != nil {
		t.Fatalf("MarkReady repeat failed: %v", err)
	}
	if !out.AllReady || out.Started {
		t.Errorf("expected no second transition, got %+v", out)
	}

	got, _ := repo.GetSession(ctx, "s1")
	if got.Status != models.StatusInProgress || got.StartedAt == nil {
		t.Errorf("expected IN_PROGRESS with started_at, got %s %v", got.Status, got.StartedAt)
	}
}

func TestMarkReady_UnknownParticipation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	other := newSession("s2", 2, "b")
	repo.CreateSession(ctx, newSession("s1", 1, "a"), twoHoles())
	repo.CreateSession(ctx, other, twoHoles())

	if _, err := repo.MarkReady(ctx, "s1", other.Participants[0].ParticipationID, time.Now()); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for a participation in another session, got %v", err)
	}
}

func TestCompleteSession_OnlyFromInProgress(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	repo.CreateSession(ctx, newSession("s1", 1, "a"), twoHoles())

	ok, err := repo.CompleteSession(ctx, "s1", models.CompletedByOrganizer, time.Now())
	if err != nil || ok {
		t.Errorf("expected WAITING session to refuse completion, ok=%v err=%v", ok, err)
	}

	createStarted(t, repo, "s2", "a")
	ok, err = repo.CompleteSession(ctx, "s2", models.CompletedByOrganizer, time.Now())
	if err != nil || !ok {
		t.Fatalf("expected completion, ok=%v err=%v", ok, err)
	}
	got, _ := repo.GetSession(ctx, "s2")
	if got.CompletedBy != models.CompletedByOrganizer || got.CompletedAt == nil {
		t.Errorf("expected completion stamps, got %+v", got)
	}

	ok, _ = repo.CompleteSession(ctx, "s2", models.CompletedByOrganizer, time.Now())
	if ok {
		t.Error("expected COMPLETED session to stay put")
	}
}

// ==================== Ledger Tests ====================

func TestUpsertScores_OverwritesAndCompletes(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s := createStarted(t, repo, "s1", "a", "b")
	a, b := s.Participants[0].ParticipationID, s.Participants[1].ParticipationID

	out, err := repo.UpsertScores(ctx, "s1", []models.ScoreRecord{
		{ParticipationID: a, HoleNumber: 1, Strokes: 5, OBCount: 1},
		{ParticipationID: b, HoleNumber: 1, Strokes: 3},
	}, time.Now())
	if err != nil {
		t.Fatalf("UpsertScores failed: %v", err)
	}
	if out.AllScored || out.Completed {
		t.Errorf("expected round to continue, got %+v", out)
	}

	out, err = repo.UpsertScores(ctx, "s1", []models.ScoreRecord{
		{ParticipationID: a, HoleNumber: 1, Strokes: 3},
	}, time.Now())
	if err != nil {
		t.Fatalf("UpsertScores overwrite failed: %v", err)
	}

	records, err := repo.ListScores(ctx, "s1")
	if err != nil {
		t.Fatalf("ListScores failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records after overwrite, got %d", len(records))
	}
	if records[0].ParticipationID != a || records[0].Strokes != 3 || records[0].OBCount != 0 {
		t.Errorf("expected overwritten record first, got %+v", records[0])
	}

	out, err = repo.UpsertScores(ctx, "s1", []models.ScoreRecord{
		{ParticipationID: a, HoleNumber: 2, Strokes: 4},
		{ParticipationID: b, HoleNumber: 2, Strokes: 4},
	}, time.Now())
	if err != nil {
		t.Fatalf("UpsertScores failed: %v", err)
	}
	if !out.AllScored || !out.Completed {
		t.Errorf("expected the final hole to complete the session, got %+v", out)
	}

	got, _ := repo.GetSession(ctx, "s1")
	if got.Status != models.StatusCompleted || got.CompletedBy != models.CompletedByAuto {
		t.Errorf("expected auto completion, got %s by %q", got.Status, got.CompletedBy)
	}
}

func TestUpsertScores_DoesNotCompleteWaitingSession(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s := newSession("s1", 1, "a")
	repo.CreateSession(ctx, s, []models.Hole{{HoleNumber: 1, Par: 3}})

	out, err := repo.UpsertScores(ctx, "s1", []models.ScoreRecord{
		{ParticipationID: s.Participants[0].ParticipationID, HoleNumber: 1, Strokes: 3},
	}, time.Now())
	if err != nil {
		t.Fatalf("UpsertScores failed: %v", err)
	}
	if !out.AllScored || out.Completed {
		t.Errorf("expected full card without a transition, got %+v", out)
	}
}

func TestUpsertScores_BatchIsAtomic(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s := createStarted(t, repo, "s1", "a", "b")

	_, err := repo.UpsertScores(ctx, "s1", []models.ScoreRecord{
		{ParticipationID: s.Participants[0].ParticipationID, HoleNumber: 1, Strokes: 3},
		{ParticipationID: s.Participants[1].ParticipationID, HoleNumber: 1, Strokes: 0},
	}, time.Now())
	if err == nil {
		t.Fatal("expected CHECK constraint failure for strokes 0")
	}

	records, _ := repo.ListScores(ctx, "s1")
	if len(records) != 0 {
		t.Errorf("expected no records after a failed batch, got %d", len(records))
	}
}

func TestUpsertScores_ValueBounds(t *testing.T) {
	tests := []struct {
		name    string
		strokes int
		ob      int
		wantErr bool
	}{
		{"at caps", 99, 99, false},
		{"strokes over cap", 100, 0, true},
		{"ob over cap", 3, 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newTestRepo(t)
			s := createStarted(t, repo, "s1", "a")

			_, err := repo.UpsertScores(context.Background(), "s1", []models.ScoreRecord{
				{ParticipationID: s.Participants[0].ParticipationID, HoleNumber: 1, Strokes: tt.strokes, OBCount: tt.ob},
			}, time.Now())
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestListScores_Ordering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s := createStarted(t, repo, "s1", "a", "b")
	a, b := s.Participants[0].ParticipationID, s.Participants[1].ParticipationID

	repo.UpsertScores(ctx, "s1", []models.ScoreRecord{
		{ParticipationID: b, HoleNumber: 2, Strokes: 4},
		{ParticipationID: a, HoleNumber: 2, Strokes: 4},
	}, time.Now())
	repo.UpsertScores(ctx, "s1", []models.ScoreRecord{
		{ParticipationID: b, HoleNumber: 1, Strokes: 3},
	}, time.Now())

	records, err := repo.ListScores(ctx, "s1")
	if err != nil {
		t.Fatalf("ListScores failed: %v", err)
	}
	want := [][2]int64{{a, 2}, {b, 1}, {b, 2}}
	if len(records) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(records))
	}
	for i, w := range want {
		if records[i].ParticipationID != w[0] || int64(records[i].HoleNumber) != w[1] {
			t.Errorf("record %d = (%d, %d), want (%d, %d)", i, records[i].ParticipationID, records[i].HoleNumber, w[0], w[1])
		}
	}
}

func TestFormatTime_SortsLexically(t *testing.T) {
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	prev := formatTime(base)
	for i := 1; i < 50; i++ {
		next := formatTime(base.Add(time.Duration(i*i) * time.Microsecond))
		if next <= prev {
			t.Fatalf("timestamps out of order: %s then %s", prev, next)
		}
		prev = next
	}

	parsed := parseTime(sql.NullString{String: formatTime(base), Valid: true})
	if parsed == nil || !parsed.Equal(base) {
		t.Errorf("round trip failed: %v", parsed)
	}
	if parseTime(sql.NullString{String: "garbage", Valid: true}) != nil {
		t.Error("expected nil for unparsable time")
	}
}

func TestNewRepository_BadPath(t *testing.T) {
	_, err := New(fmt.Sprintf("file:%s/missing/dir/db.sqlite?mode=rw", t.TempDir()))
	if err == nil {
		t.Error("expected error opening a database in a missing directory")
	}
}

func TestPing(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}
