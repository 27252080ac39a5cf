package testutil

import (
	"context"
	"testing"

	"github.com/abrezinsky/discround/internal/models"
	"github.com/abrezinsky/discround/internal/repository"
)

// Fixture IDs seeded by SeedCatalog
const (
	TournamentID = "spring-open"
	CourseID     = "maple-hill"
	OrganizerID  = "org-1"
)

// NewTestRepository creates a new in-memory repository for testing.
// Each call creates a fresh database with all migrations applied.
func NewTestRepository(t *testing.T) *repository.Repository {
	t.Helper()

	repo, err := repository.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}

	t.Cleanup(func() {
		repo.Close()
	})

	return repo
}

// SeedCatalog stores a tournament organized by OrganizerID, a course with the
// given pars (hole numbers 1..n) and one catalog player per ID.
func SeedCatalog(t *testing.T, repo *repository.Repository, pars []int, playerIDs ...string) {
	t.Helper()
	ctx := context.Background()

	if err := repo.UpsertTournament(ctx, models.Tournament{
		TournamentID: TournamentID,
		Name:         "Spring Open",
		OrganizerID:  OrganizerID,
		Status:       "ongoing",
	}); err != nil {
		t.Fatalf("UpsertTournament failed: %v", err)
	}

	course := models.Course{CourseID: CourseID, Name: "Maple Hill"}
	for i, par := range pars {
		course.Holes = append(course.Holes, models.Hole{HoleNumber: i + 1, Par: par})
	}
	if err := repo.UpsertCourse(ctx, course); err != nil {
		t.Fatalf("UpsertCourse failed: %v", err)
	}

	for _, id := range playerIDs {
		if err := repo.UpsertPlayer(ctx, models.Player{PlayerID: id, Name: "Player " + id}); err != nil {
			t.Fatalf("UpsertPlayer failed: %v", err)
		}
	}
}
