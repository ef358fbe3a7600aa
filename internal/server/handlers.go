package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"issuesolver/internal/auth"
	"issuesolver/internal/github"
	"issuesolver/internal/models"
	"issuesolver/internal/services"
)

type createIssueRequest struct {
	SessionID string `json:"session_id"`
	IssueURL  string `json:"issue_url"`
	Language  string `json:"language"`
}

type issueActionRequest struct {
	IssueID string `json:"issue_id"`
	Action  string `json:"action"`
	GitDiff string `json:"git_diff"`
}

type createSessionRequest struct {
	Title string             `json:"title"`
	Mode  models.SessionMode `json:"mode"`
}

type translateRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

const (
	actionSolution = "solution"
	actionPR       = "pr"
	actionDiscard  = "discard"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateIssue(w http.ResponseWriter, r *http.Request) {
	var req createIssueRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		writeJSONError(w, http.StatusBadRequest, "validation", "session_id is required")
		return
	}
	ref, err := github.ParseIssueURL(req.IssueURL)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation", err.Error())
		return
	}

	ctx, cancel := s.workContext(r)
	defer cancel()
	issue, err := s.Solver.CreateAndAnalyze(ctx, userID(r), req.SessionID, ref.URL(), req.Language)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, map[string]interface{}{"issue": issue})
}

func (s *Server) handleIssueAction(w http.ResponseWriter, r *http.Request) {
	var req issueActionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.IssueID) == "" {
		writeJSONError(w, http.StatusBadRequest, "validation", "issue_id is required")
		return
	}

	ctx, cancel := s.workContext(r)
	defer cancel()

	var (
		issue   *models.IssueSolution
		err     error
		message string
	)
	switch req.Action {
	case actionSolution:
		issue, err = s.Solver.RequestSolutionPlan(ctx, userID(r), req.IssueID)
		message = "Solution plan generated"
	case actionPR:
		issue, err = s.Solver.GeneratePullRequest(ctx, userID(r), req.IssueID, req.GitDiff)
		message = "Pull request generated"
	case actionDiscard:
		issue, err = s.Solver.Discard(ctx, userID(r), req.IssueID)
		message = "Issue discarded"
	default:
		writeJSONError(w, http.StatusBadRequest, "validation", "action must be one of solution, pr, discard")
		return
	}
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"issue": issue, "message": message})
}

func (s *Server) handleListIssues(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	issues, err := s.Solver.ListActive(r.Context(), userID(r), sessionID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"issues": issues})
}

func (s *Server) handleGetIssue(w http.ResponseWriter, r *http.Request) {
	issue, err := s.Solver.Get(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"issue": issue})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	session, err := s.Sessions.Create(r.Context(), userID(r), req.Title, req.Mode)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, map[string]interface{}{"session": session})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.Sessions.List(r.Context(), userID(r))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"sessions": sessions})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), userID(r), r.PathValue("id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := s.workContext(r)
	defer cancel()
	text, err := s.Translator.Translate(ctx, userID(r), req.Text, req.Language)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]string{"text": text})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	groups, err := s.Models.ListModelGroups()
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"groups": groups})
}

func userID(r *http.Request) string {
	id, _ := auth.UserFromContext(r.Context())
	return id
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<20)).Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation", "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	KeySource string `json:"key_source,omitempty"`
}

// writeServiceError maps service errors onto HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var (
		fetchErr   *services.FetchError
		gatewayErr *services.GatewayError
	)
	switch {
	case errors.Is(err, services.ErrValidation):
		writeJSONError(w, http.StatusBadRequest, "validation", err.Error())
	case errors.Is(err, services.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, services.ErrIssueClosed):
		writeJSONError(w, http.StatusConflict, "issue_closed", err.Error())
	case errors.Is(err, services.ErrStepConflict):
		writeJSONError(w, http.StatusConflict, "step_conflict", err.Error())
	case errors.As(err, &gatewayErr):
		// The code and key_source fields carry the distinction; the status
		// stays 500 for clients written against the original surface.
		writeJSONStatus(w, http.StatusInternalServerError, errorResponse{
			Error:     gatewayErr.Err.Error(),
			Code:      string(gatewayErr.Kind),
			KeySource: string(gatewayErr.KeySource),
		})
	case errors.As(err, &fetchErr):
		writeJSONError(w, http.StatusInternalServerError, "fetch_failed", fetchErr.Error())
	default:
		s.Logger.Error("request failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func writeJSONError(w http.ResponseWriter, status int, code, msg string) {
	writeJSONStatus(w, status, errorResponse{Error: msg, Code: code})
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
