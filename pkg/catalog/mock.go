package catalog

import (
	"context"
	"fmt"
	"sync"
)

// MockClient is a mock catalog client for testing
type MockClient struct {
	mu            sync.Mutex
	tournaments   map[string]Tournament
	courses       map[string][]Hole
	players       []Player
	baseURL       string
	tournamentErr error
	holesErr      error
	playersErr    error
	calls         int
}

// MockOption configures the mock client
type MockOption func(*MockClient)

// WithTournament adds a tournament
func WithTournament(t Tournament) MockOption {
	return func(m *MockClient) {
		m.tournaments[t.TournamentID.String()] = t
	}
}

// WithCourse sets the hole list for a course
func WithCourse(courseID string, holes []Hole) MockOption {
	return func(m *MockClient) {
		m.courses[courseID] = holes
	}
}

// WithPlayers sets the players to return
func WithPlayers(players []Player) MockOption {
	return func(m *MockClient) {
		m.players = players
	}
}

// WithTournamentError sets an error to return from FetchTournament
func WithTournamentError(err error) MockOption {
	return func(m *MockClient) {
		m.tournamentErr = err
	}
}

// WithHolesError sets an error to return from FetchCourseHoles
func WithHolesError(err error) MockOption {
	return func(m *MockClient) {
		m.holesErr = err
	}
}

// WithPlayersError sets an error to return from FetchPlayers
func WithPlayersError(err error) MockOption {
	return func(m *MockClient) {
		m.playersErr = err
	}
}

// WithBaseURL sets the base URL
func WithBaseURL(url string) MockOption {
	return func(m *MockClient) {
		m.baseURL = url
	}
}

// NewMockClient creates a new mock catalog client seeded with the default
// tournament, course and players
func NewMockClient(opts ...MockOption) *MockClient {
	m := &MockClient{
		baseURL:     "http://mock-catalog.local",
		tournaments: map[string]Tournament{},
		courses:     map[string][]Hole{},
		players:     DefaultMockPlayers(),
	}
	t := DefaultMockTournament()
	m.tournaments[t.TournamentID.String()] = t
	m.courses["maple-hill"] = DefaultMockHoles()

	for _, opt := range opts {
		opt(m)
	}
	return m
}

// BaseURL returns the configured base URL
func (m *MockClient) BaseURL() string {
	return m.baseURL
}

// Calls returns how many fetches were made (for testing)
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockClient) count() {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
}

// FetchTournament returns the configured tournament or error
func (m *MockClient) FetchTournament(ctx context.Context, tournamentID string) (*Tournament, error) {
	m.count()
	if m.tournamentErr != nil {
		return nil, m.tournamentErr
	}
	t, ok := m.tournaments[tournamentID]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

// FetchCourseHoles returns the configured holes or error
func (m *MockClient) FetchCourseHoles(ctx context.Context, courseID string) ([]Hole, error) {
	m.count()
	if m.holesErr != nil {
		return nil, m.holesErr
	}
	holes, ok := m.courses[courseID]
	if !ok {
		return nil, ErrNotFound
	}
	return holes, nil
}

// FetchPlayers returns the configured players matching playerIDs, or error
func (m *MockClient) FetchPlayers(ctx context.Context, playerIDs []string) ([]Player, error) {
	m.count()
	if m.playersErr != nil {
		return nil, m.playersErr
	}
	wanted := make(map[string]bool, len(playerIDs))
	for _, id := range playerIDs {
		wanted[id] = true
	}
	var out []Player
	for _, p := range m.players {
		if wanted[p.PlayerID.String()] {
			out = append(out, p)
		}
	}
	return out, nil
}

// DefaultMockTournament returns the sample tournament, organized by "org-1"
func DefaultMockTournament() Tournament {
	return Tournament{
		TournamentID: "spring-open",
		Name:         "Spring Open",
		OrganizerID:  "org-1",
		Status:       "active",
	}
}

// DefaultMockHoles returns a nine hole par-27 layout
func DefaultMockHoles() []Hole {
	return GenerateMockHoles(9, 3)
}

// GenerateMockHoles generates n holes numbered from 1, all with the same par
func GenerateMockHoles(n, par int) []Hole {
	holes := make([]Hole, n)
	for i := 0; i < n; i++ {
		distance := 60 + 10*i
		holes[i] = Hole{Number: i + 1, Par: par, Distance: &distance}
	}
	return holes
}

// DefaultMockPlayers returns a set of sample players for testing
func DefaultMockPlayers() []Player {
	return GenerateMockPlayers(6)
}

// GenerateMockPlayers generates n players with IDs p1..pn
func GenerateMockPlayers(n int) []Player {
	names := []string{"Alex", "Sarah", "Mike", "Emma", "James", "Olivia", "Noah", "Sophia", "Liam", "Ava"}

	players := make([]Player, n)
	for i := 0; i < n; i++ {
		players[i] = Player{
			PlayerID: FlexString(fmt.Sprintf("p%d", i+1)),
			Name:     fmt.Sprintf("%s %d", names[i%len(names)], i+1),
		}
	}
	return players
}

// Ensure MockClient implements Client
var _ Client = (*MockClient)(nil)
