package handlers

import "github.com/abrezinsky/discround/internal/models"

// SessionResponse is a session together with the caller's access to it
type SessionResponse struct {
	*models.RoundSession
	Access  models.Access `json:"access"`
	JoinURL string        `json:"join_url,omitempty"`
}

// ActiveRoundResponse is the response for the active session lookup
type ActiveRoundResponse struct {
	Active    bool    `json:"active"`
	SessionID *string `json:"session_id"`
}

// SessionListResponse is the response for listing a tournament's sessions
type SessionListResponse struct {
	TournamentID string                `json:"tournament_id"`
	Sessions     []models.RoundSession `json:"sessions"`
}

// ScoresResponse is the response for the score ledger of a session
type ScoresResponse struct {
	SessionID string               `json:"session_id"`
	Scores    []models.ScoreRecord `json:"scores"`
}

// HealthResponse is the response for /healthz
type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
