package services

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/abrezinsky/discround/internal/logger"
	"github.com/abrezinsky/discround/internal/models"
	"github.com/abrezinsky/discround/internal/repository"
	"github.com/abrezinsky/discround/pkg/catalog"
)

// LocalCatalog serves catalog lookups from the local SQLite catalog tables
type LocalCatalog struct {
	repo repository.CatalogRepository
}

// NewLocalCatalog creates a Catalog backed by the repository
func NewLocalCatalog(repo repository.CatalogRepository) *LocalCatalog {
	return &LocalCatalog{repo: repo}
}

// Tournament returns a tournament by ID
func (c *LocalCatalog) Tournament(ctx context.Context, tournamentID string) (*models.Tournament, error) {
	t, err := c.repo.GetTournament(ctx, tournamentID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, ErrCatalogNotFound
	}
	return t, err
}

// CourseHoles returns the hole list of a course ordered by hole number
func (c *LocalCatalog) CourseHoles(ctx context.Context, courseID string) ([]models.Hole, error) {
	course, err := c.repo.GetCourse(ctx, courseID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, ErrCatalogNotFound
	}
	if err != nil {
		return nil, err
	}
	return course.Holes, nil
}

// Players returns the known players among playerIDs
func (c *LocalCatalog) Players(ctx context.Context, playerIDs []string) ([]models.Player, error) {
	return c.repo.GetPlayers(ctx, playerIDs)
}

// RemoteCatalog serves catalog lookups from a remote catalog service
type RemoteCatalog struct {
	client catalog.Client
}

// NewRemoteCatalog creates a Catalog backed by a catalog client
func NewRemoteCatalog(client catalog.Client) *RemoteCatalog {
	return &RemoteCatalog{client: client}
}

// Tournament returns a tournament by ID
func (c *RemoteCatalog) Tournament(ctx context.Context, tournamentID string) (*models.Tournament, error) {
	t, err := c.client.FetchTournament(ctx, tournamentID)
	if err != nil {
		return nil, remoteError(err)
	}
	return &models.Tournament{
		TournamentID: t.TournamentID.String(),
		Name:         t.Name,
		OrganizerID:  t.OrganizerID.String(),
		Status:       t.Status,
	}, nil
}

// CourseHoles returns the hole list of a course
func (c *RemoteCatalog) CourseHoles(ctx context.Context, courseID string) ([]models.Hole, error) {
	holes, err := c.client.FetchCourseHoles(ctx, courseID)
	if err != nil {
		return nil, remoteError(err)
	}
	out := make([]models.Hole, len(holes))
	for i, h := range holes {
		out[i] = models.Hole{HoleNumber: h.Number, Par: h.Par, Distance: h.Distance}
	}
	return out, nil
}

// Players returns the known players among playerIDs
func (c *RemoteCatalog) Players(ctx context.Context, playerIDs []string) ([]models.Player, error) {
	players, err := c.client.FetchPlayers(ctx, playerIDs)
	if err != nil {
		return nil, remoteError(err)
	}
	out := make([]models.Player, len(players))
	for i, p := range players {
		out[i] = models.Player{PlayerID: p.PlayerID.String(), Name: p.Name, Image: p.Image}
	}
	return out, nil
}

func remoteError(err error) error {
	if stderrors.Is(err, catalog.ErrNotFound) {
		return ErrCatalogNotFound
	}
	return err
}

// CatalogSeed is the JSON document used to populate the local catalog
type CatalogSeed struct {
	Tournaments []models.Tournament `json:"tournaments"`
	Courses     []models.Course     `json:"courses"`
	Players     []models.Player     `json:"players"`
}

// LoadCatalogSeed reads a catalog seed file
func LoadCatalogSeed(path string) (*CatalogSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog seed: %w", err)
	}
	var seed CatalogSeed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parsing catalog seed %s: %w", path, err)
	}
	return &seed, nil
}

// ImportCatalog upserts every seed entry into the local catalog
func ImportCatalog(ctx context.Context, log logger.Logger, repo repository.CatalogRepository, seed *CatalogSeed) error {
	for _, t := range seed.Tournaments {
		if t.TournamentID == "" || t.OrganizerID == "" {
			return fmt.Errorf("tournament %q: id and organizer_id are required", t.TournamentID)
		}
		if err := repo.UpsertTournament(ctx, t); err != nil {
			return fmt.Errorf("importing tournament %s: %w", t.TournamentID, err)
		}
	}
	for _, c := range seed.Courses {
		if err := validateHoles(c.Holes); err != nil {
			return fmt.Errorf("course %s: %w", c.CourseID, err)
		}
		if err := repo.UpsertCourse(ctx, c); err != nil {
			return fmt.Errorf("importing course %s: %w", c.CourseID, err)
		}
	}
	for _, p := range seed.Players {
		if err := repo.UpsertPlayer(ctx, p); err != nil {
			return fmt.Errorf("importing player %s: %w", p.PlayerID, err)
		}
	}

	log.Info("Catalog imported",
		"tournaments", len(seed.Tournaments),
		"courses", len(seed.Courses),
		"players", len(seed.Players))
	return nil
}
