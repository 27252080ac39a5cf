package services_test

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/abrezinsky/discround/internal/logger"
	"github.com/abrezinsky/discround/internal/services"
	"github.com/abrezinsky/discround/internal/testutil"
	"github.com/abrezinsky/discround/pkg/catalog"
)

const seedJSON = `{
	"tournaments": [{"tournament_id": "fall-classic", "name": "Fall Classic", "organizer_id": "org-9", "status": "ongoing"}],
	"courses": [{"course_id": "oak-park", "name": "Oak Park", "holes": [
		{"hole_number": 2, "par": 4, "distance": 120},
		{"hole_number": 1, "par": 3}
	]}],
	"players": [{"player_id": "x", "name": "Xia"}, {"player_id": "y", "name": "Yuri", "image": "y.png"}]
}`

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing seed: %v", err)
	}
	return path
}

func TestImportCatalog(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()

	seed, err := services.LoadCatalogSeed(writeSeed(t, seedJSON))
	if err != nil {
		t.Fatalf("LoadCatalogSeed failed: %v", err)
	}
	if err := services.ImportCatalog(ctx, logger.Discard(), repo, seed); err != nil {
		t.Fatalf("ImportCatalog failed: %v", err)
	}

	local := services.NewLocalCatalog(repo)

	tournament, err := local.Tournament(ctx, "fall-classic")
	if err != nil {
		t.Fatalf("Tournament failed: %v", err)
	}
	if tournament.OrganizerID != "org-9" {
		t.Errorf("expected organizer org-9, got %q", tournament.OrganizerID)
	}

	holes, err := local.CourseHoles(ctx, "oak-park")
	if err != nil {
		t.Fatalf("CourseHoles failed: %v", err)
	}
	if len(holes) != 2 || holes[0].HoleNumber != 1 || holes[1].Distance == nil || *holes[1].Distance != 120 {
		t.Errorf("unexpected holes: %+v", holes)
	}

	players, err := local.Players(ctx, []string{"y", "nobody"})
	if err != nil {
		t.Fatalf("Players failed: %v", err)
	}
	if len(players) != 1 || players[0].Image != "y.png" {
		t.Errorf("unexpected players: %+v", players)
	}

	// Importing twice is an update, not a duplicate
	if err := services.ImportCatalog(ctx, logger.Discard(), repo, seed); err != nil {
		t.Fatalf("second ImportCatalog failed: %v", err)
	}
}

func TestImportCatalog_Rejects(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()

	tests := []struct {
		name string
		json string
	}{
		{"missing organizer", `{"tournaments": [{"tournament_id": "t"}]}`},
		{"zero par", `{"courses": [{"course_id": "c", "holes": [{"hole_number": 1, "par": 0}]}]}`},
		{"duplicate hole", `{"courses": [{"course_id": "c", "holes": [{"hole_number": 1, "par": 3}, {"hole_number": 1, "par": 3}]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seed, err := services.LoadCatalogSeed(writeSeed(t, tt.json))
			if err != nil {
				t.Fatalf("LoadCatalogSeed failed: %v", err)
			}
			if err := services.ImportCatalog(ctx, logger.Discard(), repo, seed); err == nil {
				t.Error("expected import to fail")
			}
		})
	}
}

func TestLoadCatalogSeed_Errors(t *testing.T) {
	if _, err := services.LoadCatalogSeed(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := services.LoadCatalogSeed(writeSeed(t, "{not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestLocalCatalog_NotFound(t *testing.T) {
	local := services.NewLocalCatalog(testutil.NewTestRepository(t))
	ctx := context.Background()

	if _, err := local.Tournament(ctx, "nope"); !stderrors.Is(err, services.ErrCatalogNotFound) {
		t.Errorf("expected ErrCatalogNotFound, got %v", err)
	}
	if _, err := local.CourseHoles(ctx, "nope"); !stderrors.Is(err, services.ErrCatalogNotFound) {
		t.Errorf("expected ErrCatalogNotFound, got %v", err)
	}
}

func TestRemoteCatalog(t *testing.T) {
	client := catalog.NewMockClient(catalog.WithTournament(catalog.Tournament{
		TournamentID: "42",
		OrganizerID:  "7",
		Status:       "ongoing",
	}))
	remote := services.NewRemoteCatalog(client)
	ctx := context.Background()

	tournament, err := remote.Tournament(ctx, "42")
	if err != nil {
		t.Fatalf("Tournament failed: %v", err)
	}
	if tournament.TournamentID != "42" || tournament.OrganizerID != "7" {
		t.Errorf("unexpected tournament: %+v", tournament)
	}

	holes, err := remote.CourseHoles(ctx, "maple-hill")
	if err != nil {
		t.Fatalf("CourseHoles failed: %v", err)
	}
	if len(holes) != 9 || holes[8].HoleNumber != 9 || holes[8].Par != 3 {
		t.Errorf("unexpected holes: %+v", holes)
	}

	players, err := remote.Players(ctx, []string{"p2"})
	if err != nil {
		t.Fatalf("Players failed: %v", err)
	}
	if len(players) != 1 || players[0].PlayerID != "p2" || players[0].Name != "Sarah 2" {
		t.Errorf("unexpected players: %+v", players)
	}

	if _, err := remote.Tournament(ctx, "missing"); !stderrors.Is(err, services.ErrCatalogNotFound) {
		t.Errorf("expected ErrCatalogNotFound, got %v", err)
	}
	if _, err := remote.CourseHoles(ctx, "missing"); !stderrors.Is(err, services.ErrCatalogNotFound) {
		t.Errorf("expected ErrCatalogNotFound, got %v", err)
	}
}

func TestRemoteCatalog_Errors(t *testing.T) {
	boom := stderrors.New("catalog down")
	remote := services.NewRemoteCatalog(catalog.NewMockClient(catalog.WithPlayersError(boom)))

	if _, err := remote.Players(context.Background(), []string{"p1"}); !stderrors.Is(err, boom) {
		t.Errorf("expected catalog error to pass through, got %v", err)
	}
}
