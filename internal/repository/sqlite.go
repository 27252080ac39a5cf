package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/abrezinsky/discround/internal/models"
)

// Repository provides data access methods
type Repository struct {
	db *sql.DB
}

// New creates a new Repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite works best with single connection
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db}

	// Run migrations
	if err := repo.migrate(); err != nil {
		return nil, err
	}

	return repo, nil
}

// NewWithDB wraps an existing connection without running migrations
func NewWithDB(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// migrate runs database migrations
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS players (
			player_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			image TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS tournaments (
			tournament_id TEXT PRIMARY KEY,
			name TEXT,
			organizer_id TEXT NOT NULL,
			status TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS courses (
			course_id TEXT PRIMARY KEY,
			name TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS course_holes (
			course_id TEXT NOT NULL,
			hole_number INTEGER NOT NULL,
			par INTEGER NOT NULL CHECK (par >= 1),
			distance INTEGER,
			PRIMARY KEY (course_id, hole_number),
			FOREIGN KEY (course_id) REFERENCES courses(course_id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS round_sessions (
			session_id TEXT PRIMARY KEY,
			tournament_id TEXT NOT NULL,
			round_number INTEGER NOT NULL,
			course_id TEXT NOT NULL,
			organizer_id TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TEXT NOT NULL,
			started_at TEXT,
			completed_at TEXT,
			completed_by TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS session_holes (
			session_id TEXT NOT NULL,
			hole_number INTEGER NOT NULL,
			par INTEGER NOT NULL,
			distance INTEGER,
			PRIMARY KEY (session_id, hole_number),
			FOREIGN KEY (session_id) REFERENCES round_sessions(session_id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS participants (
			participation_id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			player_id TEXT NOT NULL,
			player_name TEXT NOT NULL,
			player_image TEXT,
			is_ready BOOLEAN NOT NULL DEFAULT 0,
			UNIQUE (session_id, player_id),
			FOREIGN KEY (session_id) REFERENCES round_sessions(session_id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS score_records (
			participation_id INTEGER NOT NULL,
			hole_number INTEGER NOT NULL,
			strokes INTEGER NOT NULL CHECK (strokes BETWEEN 1 AND 99),
			ob_count INTEGER NOT NULL DEFAULT 0 CHECK (ob_count BETWEEN 0 AND 99),
			updated_at TEXT NOT NULL,
			PRIMARY KEY (participation_id, hole_number),
			FOREIGN KEY (participation_id) REFERENCES participants(participation_id) ON DELETE CASCADE
		)`,
		// At most one WAITING or IN_PROGRESS session per tournament round
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_round_sessions_active
			ON round_sessions(tournament_id, round_number) WHERE status != 'COMPLETED'`,
		`CREATE INDEX IF NOT EXISTS idx_round_sessions_tournament ON round_sessions(tournament_id)`,
		`CREATE INDEX IF NOT EXISTS idx_participants_session ON participants(session_id)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return err
		}
	}
	return nil
}

// isUniqueViolation reports whether err is a SQLite uniqueness failure
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// timeLayout is fixed-width so stored timestamps sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// ==================== Catalog Methods ====================

// UpsertPlayer creates or updates a player in the local catalog
func (r *Repository) UpsertPlayer(ctx context.Context, player models.Player) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO players (player_id, name, image) VALUES (?, ?, ?)
		ON CONFLICT(player_id) DO UPDATE SET name = excluded.name, image = excluded.image
	`, player.PlayerID, player.Name, player.Image)
	return err
}

// GetPlayers returns the catalog entries for the given IDs; unknown IDs are omitted
func (r *Repository) GetPlayers(ctx context.Context, playerIDs []string) ([]models.Player, error) {
	if len(playerIDs) == 0 {
		return []models.Player{}, nil
	}

	args := make([]interface{}, len(playerIDs))
	for i, id := range playerIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT player_id, name, image FROM players WHERE player_id IN (`+placeholders(len(playerIDs))+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := []models.Player{}
	for rows.Next() {
		var p models.Player
		var image sql.NullString
		if err := rows.Scan(&p.PlayerID, &p.Name, &image); err != nil {
			return nil, err
		}
		p.Image = image.String
		players = append(players, p)
	}
	return players, rows.Err()
}

// UpsertTournament creates or updates a tournament in the local catalog
func (r *Repository) UpsertTournament(ctx context.Context, t models.Tournament) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tournaments (tournament_id, name, organizer_id, status) VALUES (?, ?, ?, ?)
		ON CONFLICT(tournament_id) DO UPDATE SET
			name = excluded.name, organizer_id = excluded.organizer_id, status = excluded.status
	`, t.TournamentID, t.Name, t.OrganizerID, t.Status)
	return err
}

// GetTournament retrieves a tournament by ID
func (r *Repository) GetTournament(ctx context.Context, tournamentID string) (*models.Tournament, error) {
	var t models.Tournament
	var name, status sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT tournament_id, name, organizer_id, status FROM tournaments WHERE tournament_id = ?`,
		tournamentID).Scan(&t.TournamentID, &name, &t.OrganizerID, &status)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	t.Name = name.String
	t.Status = status.String
	return &t, nil
}

// UpsertCourse replaces a course and its hole list
func (r *Repository) UpsertCourse(ctx context.Context, course models.Course) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO courses (course_id, name) VALUES (?, ?)
		ON CONFLICT(course_id) DO UPDATE SET name = excluded.name
	`, course.CourseID, course.Name); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM course_holes WHERE course_id = ?`, course.CourseID); err != nil {
		return err
	}

	for _, h := range course.Holes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO course_holes (course_id, hole_number, par, distance) VALUES (?, ?, ?, ?)`,
			course.CourseID, h.HoleNumber, h.Par, h.Distance); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetCourse retrieves a course with its holes ordered by hole number
func (r *Repository) GetCourse(ctx context.Context, courseID string) (*models.Course, error) {
	var c models.Course
	var name sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT course_id, name FROM courses WHERE course_id = ?`, courseID).
		Scan(&c.CourseID, &name)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Name = name.String

	rows, err := r.db.QueryContext(ctx,
		`SELECT hole_number, par, distance FROM course_holes WHERE course_id = ? ORDER BY hole_number`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	c.Holes, err = scanHoles(rows)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanHoles(rows *sql.Rows) ([]models.Hole, error) {
	holes := []models.Hole{}
	for rows.Next() {
		var h models.Hole
		var distance sql.NullInt64
		if err := rows.Scan(&h.HoleNumber, &h.Par, &distance); err != nil {
			return nil, err
		}
		if distance.Valid {
			d := int(distance.Int64)
			h.Distance = &d
		}
		holes = append(holes, h)
	}
	return holes, rows.Err()
}

// ==================== Session Methods ====================

// CreateSession stores a session, its frozen hole list and its participants in
// one transaction. Participation IDs are written back into session.Participants.
// Returns ErrConflict if an active session already exists for the round.
func (r *Repository) CreateSession(ctx context.Context, session *models.RoundSession, holes []models.Hole) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO round_sessions (session_id, tournament_id, round_number, course_id, organizer_id, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, session.SessionID, session.TournamentID, session.RoundNumber, session.CourseID, session.OrganizerID,
		string(session.Status), formatTime(session.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}

	for _, h := range holes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO session_holes (session_id, hole_number, par, distance) VALUES (?, ?, ?, ?)`,
			session.SessionID, h.HoleNumber, h.Par, h.Distance); err != nil {
			return err
		}
	}

	for i := range session.Participants {
		p := &session.Participants[i]
		result, err := tx.ExecContext(ctx, `
			INSERT INTO participants (session_id, player_id, player_name, player_image, is_ready)
			VALUES (?, ?, ?, ?, ?)
		`, session.SessionID, p.PlayerID, p.PlayerName, p.PlayerImage, p.IsReady)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrConflict
			}
			return err
		}
		if p.ParticipationID, err = result.LastInsertId(); err != nil {
			return err
		}
	}

	return tx.Commit()
}

const sessionColumns = `session_id, tournament_id, round_number, course_id, organizer_id, status,
	created_at, started_at, completed_at, completed_by`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*models.RoundSession, error) {
	var s models.RoundSession
	var status, createdAt string
	var startedAt, completedAt, completedBy sql.NullString
	if err := row.Scan(&s.SessionID, &s.TournamentID, &s.RoundNumber, &s.CourseID, &s.OrganizerID, &status,
		&createdAt, &startedAt, &completedAt, &completedBy); err != nil {
		return nil, err
	}
	s.Status = models.SessionStatus(status)
	if t := parseTime(sql.NullString{String: createdAt, Valid: true}); t != nil {
		s.CreatedAt = *t
	}
	s.StartedAt = parseTime(startedAt)
	s.CompletedAt = parseTime(completedAt)
	s.CompletedBy = completedBy.String
	return &s, nil
}

// GetSession retrieves a session with its participants ordered by participation ID
func (r *Repository) GetSession(ctx context.Context, sessionID string) (*models.RoundSession, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM round_sessions WHERE session_id = ?`, sessionID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	s.Participants, err = r.listParticipants(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *Repository) listParticipants(ctx context.Context, sessionID string) ([]models.Participant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT participation_id, player_id, player_name, player_image, is_ready
		FROM participants WHERE session_id = ? ORDER BY participation_id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := []models.Participant{}
	for rows.Next() {
		var p models.Participant
		var image sql.NullString
		if err := rows.Scan(&p.ParticipationID, &p.PlayerID, &p.PlayerName, &image, &p.IsReady); err != nil {
			return nil, err
		}
		p.PlayerImage = image.String
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// ListSessions returns all sessions of a tournament, newest first, without participants
func (r *Repository) ListSessions(ctx context.Context, tournamentID string) ([]models.RoundSession, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM round_sessions WHERE tournament_id = ?
		ORDER BY created_at DESC, round_number DESC`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []models.RoundSession{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// FindActiveSession returns the ID of the non-completed session for a round
func (r *Repository) FindActiveSession(ctx context.Context, tournamentID string, roundNumber int) (string, error) {
	var sessionID string
	err := r.db.QueryRowContext(ctx, `
		SELECT session_id FROM round_sessions
		WHERE tournament_id = ? AND round_number = ? AND status != ?
	`, tournamentID, roundNumber, string(models.StatusCompleted)).Scan(&sessionID)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return sessionID, err
}

// GetSessionHoles returns the hole list frozen into the session at creation
func (r *Repository) GetSessionHoles(ctx context.Context, sessionID string) ([]models.Hole, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT hole_number, par, distance FROM session_holes WHERE session_id = ? ORDER BY hole_number`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHoles(rows)
}

// MarkReady sets a participant ready and, if that makes everyone ready,
// moves the session from WAITING to IN_PROGRESS in the same transaction.
// Started is true only for the call that performed the transition.
func (r *Repository) MarkReady(ctx context.Context, sessionID string, participationID int64, at time.Time) (ReadyOutcome, error) {
	var out ReadyOutcome

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return out, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE participants SET is_ready = 1 WHERE participation_id = ? AND session_id = ?`,
		participationID, sessionID)
	if err != nil {
		return out, err
	}
	if n, err := result.RowsAffected(); err != nil {
		return out, err
	} else if n == 0 {
		return out, ErrNotFound
	}

	var total, ready int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(is_ready), 0) FROM participants WHERE session_id = ?`,
		sessionID).Scan(&total, &ready); err != nil {
		return out, err
	}
	out.AllReady = total > 0 && total == ready

	if out.AllReady {
		result, err := tx.ExecContext(ctx, `
			UPDATE round_sessions SET status = ?, started_at = ?
			WHERE session_id = ? AND status = ?
		`, string(models.StatusInProgress), formatTime(at), sessionID, string(models.StatusWaiting))
		if err != nil {
			return out, err
		}
		n, err := result.RowsAffected()
		if err != nil {
			return out, err
		}
		out.Started = n == 1
	}

	return out, tx.Commit()
}

// CompleteSession moves an IN_PROGRESS session to COMPLETED.
// Returns false if the session was not IN_PROGRESS.
func (r *Repository) CompleteSession(ctx context.Context, sessionID, completedBy string, at time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE round_sessions SET status = ?, completed_at = ?, completed_by = ?
		WHERE session_id = ? AND status = ?
	`, string(models.StatusCompleted), formatTime(at), completedBy, sessionID, string(models.StatusInProgress))
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n == 1, err
}

// ==================== Ledger Methods ====================

// UpsertScores writes a batch of score records atomically, overwriting any
// existing record for the same (participation, hole). After the writes it
// re-reads the ledger inside the transaction and, if every participant has a
// record for every frozen hole, completes the session.
func (r *Repository) UpsertScores(ctx context.Context, sessionID string, records []models.ScoreRecord, at time.Time) (ScoreOutcome, error) {
	var out ScoreOutcome

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return out, err
	}
	defer tx.Rollback()

	stamp := formatTime(at)
	for _, rec := range records {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO score_records (participation_id, hole_number, strokes, ob_count, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(participation_id, hole_number) DO UPDATE SET
				strokes = excluded.strokes, ob_count = excluded.ob_count, updated_at = excluded.updated_at
		`, rec.ParticipationID, rec.HoleNumber, rec.Strokes, rec.OBCount, stamp); err != nil {
			return out, err
		}
	}

	var expected, scored int
	if err := tx.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM participants WHERE session_id = ?) *
			(SELECT COUNT(*) FROM session_holes WHERE session_id = ?),
			(SELECT COUNT(*) FROM score_records sr
				JOIN participants p ON p.participation_id = sr.participation_id
				JOIN session_holes h ON h.session_id = p.session_id AND h.hole_number = sr.hole_number
				WHERE p.session_id = ?)
	`, sessionID, sessionID, sessionID).Scan(&expected, &scored); err != nil {
		return out, err
	}
	out.AllScored = expected > 0 && scored == expected

	if out.AllScored {
		result, err := tx.ExecContext(ctx, `
			UPDATE round_sessions SET status = ?, completed_at = ?, completed_by = ?
			WHERE session_id = ? AND status = ?
		`, string(models.StatusCompleted), stamp, models.CompletedByAuto, sessionID, string(models.StatusInProgress))
		if err != nil {
			return out, err
		}
		n, err := result.RowsAffected()
		if err != nil {
			return out, err
		}
		out.Completed = n == 1
	}

	return out, tx.Commit()
}

// ListScores returns every score record of a session
func (r *Repository) ListScores(ctx context.Context, sessionID string) ([]models.ScoreRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT sr.participation_id, sr.hole_number, sr.strokes, sr.ob_count
		FROM score_records sr
		JOIN participants p ON p.participation_id = sr.participation_id
		WHERE p.session_id = ?
		ORDER BY sr.participation_id, sr.hole_number
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []models.ScoreRecord{}
	for rows.Next() {
		var rec models.ScoreRecord
		if err := rows.Scan(&rec.ParticipationID, &rec.HoleNumber, &rec.Strokes, &rec.OBCount); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
