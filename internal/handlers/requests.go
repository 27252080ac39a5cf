package handlers

import "github.com/abrezinsky/discround/internal/models"

// CreateRoundRequest represents a request to open a round session
type CreateRoundRequest struct {
	RoundNumber int      `json:"round_number"`
	CourseID    string   `json:"course_id"`
	PlayerIDs   []string `json:"player_ids"`
}

// SubmitScoresRequest represents one hole's scores for a batch of players
type SubmitScoresRequest struct {
	Scores []models.ScoreEntry `json:"scores"`
}
