package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/discround/internal/auth"
	"github.com/abrezinsky/discround/internal/models"
	"github.com/abrezinsky/discround/internal/services"
)

// caller returns the identity attached by the auth middleware
func caller(r *http.Request) models.Identity {
	id, _ := auth.FromContext(r.Context())
	return id
}

// memberAccess resolves the caller's access and rejects strangers
func (h *Handlers) memberAccess(r *http.Request, sessionID string) (*models.Access, *models.RoundSession, error) {
	access, session, err := h.Directory.ResolveAccess(r.Context(), sessionID, caller(r))
	if err != nil {
		return nil, nil, err
	}
	if err := services.RequireMember(access); err != nil {
		return nil, nil, err
	}
	return access, session, nil
}

// ==================== Tournament Rounds ====================

func (h *Handlers) handleCreateRound(w http.ResponseWriter, r *http.Request) {
	var req CreateRoundRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	session, err := h.Sessions.Create(r.Context(), caller(r), services.CreateSessionRequest{
		TournamentID: chi.URLParam(r, "tournamentID"),
		RoundNumber:  req.RoundNumber,
		CourseID:     req.CourseID,
		PlayerIDs:    req.PlayerIDs,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	resp := SessionResponse{RoundSession: session, Access: models.Access{IsOrganizer: true}}
	if _, ok := session.FindParticipant(caller(r).PlayerID); ok {
		resp.Access.IsParticipant = true
	}
	if h.opts.BaseURL != "" {
		resp.JoinURL = services.JoinURL(h.opts.BaseURL, session.SessionID)
	}
	respondCreated(w, resp)
}

func (h *Handlers) handleListRounds(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")
	sessions, err := h.Directory.ListSessions(r.Context(), caller(r), tournamentID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, SessionListResponse{TournamentID: tournamentID, Sessions: sessions})
}

func (h *Handlers) handleFindActiveRound(w http.ResponseWriter, r *http.Request) {
	roundNumber, err := parseIntParam(r, "roundNumber")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	sessionID, found, err := h.Directory.FindActiveSession(r.Context(), caller(r), chi.URLParam(r, "tournamentID"), roundNumber)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	resp := ActiveRoundResponse{Active: found}
	if found {
		resp.SessionID = &sessionID
	}
	respondOK(w, resp)
}

// ==================== Sessions ====================

func (h *Handlers) handleGetSession(w http.ResponseWriter, r *http.Request) {
	access, session, err := h.memberAccess(r, chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	resp := SessionResponse{RoundSession: session, Access: *access}
	if h.opts.BaseURL != "" {
		resp.JoinURL = services.JoinURL(h.opts.BaseURL, session.SessionID)
	}
	respondOK(w, resp)
}

func (h *Handlers) handleMarkReady(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, _, err := h.memberAccess(r, sessionID); err != nil {
		h.respondError(w, r, err)
		return
	}

	result, err := h.Sessions.MarkReady(r.Context(), sessionID, caller(r).PlayerID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, result)
}

func (h *Handlers) handleSubmitScores(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	holeNumber, err := parseIntParam(r, "holeNumber")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req SubmitScoresRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	if _, _, err := h.memberAccess(r, sessionID); err != nil {
		h.respondError(w, r, err)
		return
	}

	result, err := h.Sessions.SubmitScores(r.Context(), sessionID, holeNumber, req.Scores)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, result)
}

func (h *Handlers) handleGetScores(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, _, err := h.memberAccess(r, sessionID); err != nil {
		h.respondError(w, r, err)
		return
	}

	scores, err := h.Sessions.GetScores(r.Context(), sessionID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, ScoresResponse{SessionID: sessionID, Scores: scores})
}

func (h *Handlers) handlePlayData(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, _, err := h.memberAccess(r, sessionID); err != nil {
		h.respondError(w, r, err)
		return
	}

	data, err := h.Standings.PlayData(r.Context(), sessionID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	respondOK(w, data)
}

func (h *Handlers) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, _, err := h.memberAccess(r, sessionID); err != nil {
		h.respondError(w, r, err)
		return
	}

	board, err := h.Standings.Leaderboard(r.Context(), sessionID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	respondOK(w, board)
}

func (h *Handlers) handleFinalStandings(w http.ResponseWriter, r *http.Request) {
	board, err := h.Standings.FinalStandings(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, board)
}

func (h *Handlers) handleForceComplete(w http.ResponseWriter, r *http.Request) {
	session, err := h.Sessions.ForceComplete(r.Context(), chi.URLParam(r, "sessionID"), caller(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, session)
}

func (h *Handlers) handleSessionQR(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, _, err := h.memberAccess(r, sessionID); err != nil {
		h.respondError(w, r, err)
		return
	}

	png, err := services.JoinQRCode(h.opts.BaseURL, sessionID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(png)
}

// ==================== Notifications & Health ====================

func (h *Handlers) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		h.respondError(w, r, BadRequest("Missing session parameter"))
		return
	}
	if _, _, err := h.memberAccess(r, sessionID); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.Hub.ServeWs(w, r, sessionID)
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.opts.Ping != nil {
		if err := h.opts.Ping(r.Context()); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Error: err.Error()})
			return
		}
	}
	respondOK(w, HealthResponse{Status: "ok"})
}
