// Package catalog provides a client for a remote tournament and course catalog.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/abrezinsky/discround/internal/logger"
)

// ErrNotFound is returned when the catalog has no entry for the requested ID
var ErrNotFound = errors.New("catalog: not found")

// FlexString is a string type that can be unmarshaled from either a string or a number.
// Catalog backends disagree on whether player and organizer IDs are numeric.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler for FlexString
func (f *FlexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}

	return fmt.Errorf("FlexString: cannot unmarshal %s", string(data))
}

// String returns the string value
func (f FlexString) String() string {
	return string(f)
}

// Tournament is a tournament as served by the catalog
type Tournament struct {
	TournamentID FlexString `json:"id"`
	Name         string     `json:"name"`
	OrganizerID  FlexString `json:"organizer_id"`
	Status       string     `json:"status"`
}

// Hole is a course hole as served by the catalog
type Hole struct {
	Number   int  `json:"number"`
	Par      int  `json:"par"`
	Distance *int `json:"distance"`
}

// HoleListResponse is the response from the course holes endpoint
type HoleListResponse struct {
	CourseID FlexString `json:"course_id"`
	Holes    []Hole     `json:"holes"`
}

// Player is a registered player as served by the catalog
type Player struct {
	PlayerID FlexString `json:"id"`
	Name     string     `json:"name"`
	Image    string     `json:"image"`
}

// PlayerListResponse is the response from the players endpoint
type PlayerListResponse struct {
	Players []Player `json:"players"`
}

// Client defines the interface for catalog operations
type Client interface {
	// FetchTournament retrieves one tournament
	FetchTournament(ctx context.Context, tournamentID string) (*Tournament, error)
	// FetchCourseHoles retrieves the hole list of a course
	FetchCourseHoles(ctx context.Context, courseID string) ([]Hole, error)
	// FetchPlayers retrieves the given players; unknown IDs are omitted
	FetchPlayers(ctx context.Context, playerIDs []string) ([]Player, error)
	// BaseURL returns the configured catalog base URL
	BaseURL() string
}

// HTTPClient is a real HTTP client for the catalog
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
	token      string
}

// NewHTTPClient creates a new catalog HTTP client
func NewHTTPClient(baseURL string, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// NewHTTPClientWithHTTPClient creates a new catalog client with a custom http.Client
func NewHTTPClientWithHTTPClient(baseURL string, httpClient *http.Client, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		log:        log,
	}
}

// BaseURL returns the configured catalog base URL
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// SetToken configures a bearer token sent with every request
func (c *HTTPClient) SetToken(token string) {
	c.token = token
}

// doGet executes a GET request against the catalog and decodes the JSON body into response.
// A 404 is reported as ErrNotFound.
func (c *HTTPClient) doGet(ctx context.Context, path string, query url.Values, response interface{}) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	c.log.Debug("Catalog request", "method", "GET", "url", reqURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to catalog: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debug("Catalog response", "status", resp.StatusCode, "bytes", len(body))

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, response); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// FetchTournament retrieves one tournament
func (c *HTTPClient) FetchTournament(ctx context.Context, tournamentID string) (*Tournament, error) {
	var t Tournament
	if err := c.doGet(ctx, "/tournaments/"+url.PathEscape(tournamentID), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// FetchCourseHoles retrieves the hole list of a course
func (c *HTTPClient) FetchCourseHoles(ctx context.Context, courseID string) ([]Hole, error) {
	var response HoleListResponse
	if err := c.doGet(ctx, "/courses/"+url.PathEscape(courseID)+"/holes", nil, &response); err != nil {
		return nil, err
	}
	return response.Holes, nil
}

// FetchPlayers retrieves the given players; unknown IDs are omitted
func (c *HTTPClient) FetchPlayers(ctx context.Context, playerIDs []string) ([]Player, error) {
	if len(playerIDs) == 0 {
		return []Player{}, nil
	}

	query := url.Values{}
	query.Set("ids", strings.Join(playerIDs, ","))

	var response PlayerListResponse
	if err := c.doGet(ctx, "/players", query, &response); err != nil {
		return nil, err
	}
	return response.Players, nil
}

// Ensure HTTPClient implements Client
var _ Client = (*HTTPClient)(nil)
