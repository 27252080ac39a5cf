package models

import "time"

// SessionStatus is the lifecycle state of a round session
type SessionStatus string

const (
	StatusWaiting    SessionStatus = "WAITING"
	StatusInProgress SessionStatus = "IN_PROGRESS"
	StatusCompleted  SessionStatus = "COMPLETED"
)

// Active reports whether the session still blocks a new session for its round
func (s SessionStatus) Active() bool {
	return s == StatusWaiting || s == StatusInProgress
}

// Role is the caller role supplied by the identity collaborator
type Role string

const (
	RolePlayer    Role = "player"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

// CompletedBy records how a session reached COMPLETED
const (
	CompletedByAuto      = "auto"
	CompletedByOrganizer = "organizer"
)

// Hole is a course hole, frozen into a session when it is created
type Hole struct {
	HoleNumber int  `json:"hole_number"`
	Par        int  `json:"par"`
	Distance   *int `json:"distance,omitempty"`
}

// Participant is a player's membership in one round session
type Participant struct {
	ParticipationID int64  `json:"participation_id"`
	PlayerID        string `json:"player_id"`
	PlayerName      string `json:"player_name"`
	PlayerImage     string `json:"player_image,omitempty"`
	IsReady         bool   `json:"is_ready"`
}

// ScoreRecord is one participant's result on one hole
type ScoreRecord struct {
	ParticipationID int64 `json:"participation_id"`
	HoleNumber      int   `json:"hole_number"`
	Strokes         int   `json:"strokes"`
	OBCount         int   `json:"ob_count"`
}

// ScoreEntry is one player's line in a per-hole score submission
type ScoreEntry struct {
	PlayerID string `json:"player_id"`
	Strokes  int    `json:"strokes"`
	OBCount  int    `json:"ob_count"`
}

// RoundSession is one played instance of one round of one tournament
type RoundSession struct {
	SessionID    string        `json:"session_id"`
	TournamentID string        `json:"tournament_id"`
	RoundNumber  int           `json:"round_number"`
	CourseID     string        `json:"course_id"`
	OrganizerID  string        `json:"organizer_id"`
	Status       SessionStatus `json:"status"`
	Participants []Participant `json:"participants"`
	CreatedAt    time.Time     `json:"created_at"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
	CompletedBy  string        `json:"completed_by,omitempty"`
}

// AllReady reports whether the ready-gate is satisfied
func (s *RoundSession) AllReady() bool {
	if len(s.Participants) == 0 {
		return false
	}
	for _, p := range s.Participants {
		if !p.IsReady {
			return false
		}
	}
	return true
}

// FindParticipant returns the participant for playerID, if registered
func (s *RoundSession) FindParticipant(playerID string) (Participant, bool) {
	for _, p := range s.Participants {
		if p.PlayerID == playerID {
			return p, true
		}
	}
	return Participant{}, false
}

// HoleResult is the display breakdown of one hole inside a standing
type HoleResult struct {
	HoleNumber    int `json:"hole_number"`
	Par           int `json:"par"`
	Strokes       int `json:"strokes"`
	OBCount       int `json:"ob_count"`
	RelativeToPar int `json:"relative_to_par"`
}

// Standing is a derived leaderboard row
type Standing struct {
	Rank               int          `json:"rank"`
	ParticipationID    int64        `json:"participation_id"`
	PlayerID           string       `json:"player_id"`
	PlayerName         string       `json:"player_name"`
	PlayerImage        string       `json:"player_image,omitempty"`
	TotalScore         int          `json:"total_score"`
	ScoreRelativeToPar int          `json:"score_relative_to_par"`
	TotalStrokes       int          `json:"total_strokes"`
	TotalOB            int          `json:"total_ob"`
	HolesPlayed        int          `json:"holes_played"`
	Holes              []HoleResult `json:"holes"`
}

// Tournament is the catalog view of a tournament
type Tournament struct {
	TournamentID string `json:"tournament_id"`
	Name         string `json:"name"`
	OrganizerID  string `json:"organizer_id"`
	Status       string `json:"status"`
}

// Course is the catalog view of a course and its holes
type Course struct {
	CourseID string `json:"course_id"`
	Name     string `json:"name"`
	Holes    []Hole `json:"holes"`
}

// Player is the catalog view of a registered player
type Player struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Image    string `json:"image,omitempty"`
}

// Identity is the verified caller supplied by the identity collaborator
type Identity struct {
	PlayerID string
	Role     Role
}

// Access is the caller's relationship to a session
type Access struct {
	IsParticipant bool `json:"is_participant"`
	IsOrganizer   bool `json:"is_organizer"`
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Payload   interface{} `json:"payload"`
}
