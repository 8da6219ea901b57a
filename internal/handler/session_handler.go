package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prepdesk/prepdesk-backend/internal/middleware"
	"github.com/prepdesk/prepdesk-backend/internal/model"
	"github.com/prepdesk/prepdesk-backend/internal/response"
	"github.com/prepdesk/prepdesk-backend/internal/service"
	"github.com/prepdesk/prepdesk-backend/internal/validator"
)

// SessionHandler exposes the exam session operations over REST. Every
// mutation returns the full refreshed snapshot so the client never has to
// patch state locally.
type SessionHandler struct {
	sessionService *service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// sessionIdentity pulls the exam ID and candidate ID for the request, or
// writes the failure response and reports false.
func sessionIdentity(c *gin.Context) (string, int, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return "", 0, false
	}
	examID := c.Param("exam_id")
	if examID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return "", 0, false
	}
	return examID, claims.CandidateID, true
}

// failSession maps session service errors onto response codes.
func failSession(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExamNotAvailable):
		response.Fail(c, http.StatusNotFound, response.ErrExamNotAvailable)
	case errors.Is(err, service.ErrSessionSubmitted):
		response.Fail(c, http.StatusConflict, response.ErrSessionSubmitted)
	case errors.Is(err, service.ErrLanguageNotSupported):
		response.Fail(c, http.StatusBadRequest, response.ErrLanguageUnsupported)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// GetState godoc
// GET /api/v1/exams/:exam_id/session
// Returns the session snapshot, starting the attempt on first contact.
func (h *SessionHandler) GetState(c *gin.Context) {
	examID, candidateID, ok := sessionIdentity(c)
	if !ok {
		return
	}

	state, err := h.sessionService.State(c.Request.Context(), examID, candidateID)
	if err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": state})
}

// GetStats godoc
// GET /api/v1/exams/:exam_id/session/stats
// Returns the palette counts.
func (h *SessionHandler) GetStats(c *gin.Context) {
	examID, candidateID, ok := sessionIdentity(c)
	if !ok {
		return
	}

	stats, err := h.sessionService.Stats(c.Request.Context(), examID, candidateID)
	if err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"stats": stats})
}

// Navigate godoc
// POST /api/v1/exams/:exam_id/session/navigate
func (h *SessionHandler) Navigate(c *gin.Context) {
	examID, candidateID, ok := sessionIdentity(c)
	if !ok {
		return
	}

	var req model.NavigateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.sessionService.Navigate(c.Request.Context(), examID, candidateID, &req)
	if err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": state})
}

// Next godoc
// POST /api/v1/exams/:exam_id/session/next
func (h *SessionHandler) Next(c *gin.Context) {
	examID, candidateID, ok := sessionIdentity(c)
	if !ok {
		return
	}

	state, err := h.sessionService.Next(c.Request.Context(), examID, candidateID)
	if err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": state})
}

// Previous godoc
// POST /api/v1/exams/:exam_id/session/previous
func (h *SessionHandler) Previous(c *gin.Context) {
	examID, candidateID, ok := sessionIdentity(c)
	if !ok {
		return
	}

	state, err := h.sessionService.Previous(c.Request.Context(), examID, candidateID)
	if err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": state})
}

// SaveAnswer godoc
// POST /api/v1/exams/:exam_id/session/answer
func (h *SessionHandler) SaveAnswer(c *gin.Context) {
	examID, candidateID, ok := sessionIdentity(c)
	if !ok {
		return
	}

	var req model.SaveAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.sessionService.SaveAnswer(c.Request.Context(), examID, candidateID, &req)
	if err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": state})
}

// SaveAndNavigate godoc
// POST /api/v1/exams/:exam_id/session/save-and-navigate
// Commits the answer and moves in a single state transition.
func (h *SessionHandler) SaveAndNavigate(c *gin.Context) {
	examID, candidateID, ok := sessionIdentity(c)
	if !ok {
		return
	}

	var req model.SaveAndNavigateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.sessionService.SaveAndNavigate(c.Request.Context(), examID, candidateID, &req)
	if err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": state})
}

// MarkAndNavigate godoc
// POST /api/v1/exams/:exam_id/session/mark-and-navigate
func (h *SessionHandler) MarkAndNavigate(c *gin.Context) {
	examID, candidateID, ok := sessionIdentity(c)
	if !ok {
		return
	}

	var req model.MarkAndNavigateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.sessionService.MarkAndNavigate(c.Request.Context(), examID, candidateID, &req)
	if err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": state})
}

// ClearResponse godoc
// POST /api/v1/exams/:exam_id/session/clear-response
func (h *SessionHandler) ClearResponse(c *gin.Context) {
	examID, candidateID, ok := sessionIdentity(c)
	if !ok {
		return
	}

	var req model.QuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.sessionService.ClearResponse(c.Request.Context(), examID, candidateID, req.QuestionID)
	if err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": state})
}

// ToggleMark godoc
// POST /api/v1/exams/:exam_id/session/mark-for-review
func (h *SessionHandler) ToggleMark(c *gin.Context) {
	examID, candidateID, ok := sessionIdentity(c)
	if !ok {
		return
	}

	var req model.QuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.sessionService.ToggleMarkForReview(c.Request.Context(), examID, candidateID, req.QuestionID)
	if err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": state})
}

// Heartbeat godoc
// POST /api/v1/exams/:exam_id/session/heartbeat
// Syncs the client countdown and per-question time.
func (h *SessionHandler) Heartbeat(c *gin.Context) {
	examID, candidateID, ok := sessionIdentity(c)
	if !ok {
		return
	}

	var req model.HeartbeatRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.sessionService.Heartbeat(c.Request.Context(), examID, candidateID, req.RemainingSeconds, req.QuestionID, req.TimeTakenSeconds)
	if err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": state})
}

// Pause godoc
// POST /api/v1/exams/:exam_id/session/pause
func (h *SessionHandler) Pause(c *gin.Context) {
	examID, candidateID, ok := sessionIdentity(c)
	if !ok {
		return
	}

	var req model.PauseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.sessionService.Pause(c.Request.Context(), examID, candidateID, req.RemainingSeconds)
	if err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": state})
}

// Resume godoc
// POST /api/v1/exams/:exam_id/session/resume
func (h *SessionHandler) Resume(c *gin.Context) {
	examID, candidateID, ok := sessionIdentity(c)
	if !ok {
		return
	}

	state, err := h.sessionService.Resume(c.Request.Context(), examID, candidateID)
	if err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": state})
}

// SetLanguage godoc
// POST /api/v1/exams/:exam_id/session/language
func (h *SessionHandler) SetLanguage(c *gin.Context) {
	examID, candidateID, ok := sessionIdentity(c)
	if !ok {
		return
	}

	var req model.SetLanguageRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.sessionService.SetLanguage(c.Request.Context(), examID, candidateID, req.Language)
	if err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": state})
}

// Submit godoc
// POST /api/v1/exams/:exam_id/session/submit
// Finalizes the attempt and enqueues it for durable persistence.
func (h *SessionHandler) Submit(c *gin.Context) {
	examID, candidateID, ok := sessionIdentity(c)
	if !ok {
		return
	}

	stats, err := h.sessionService.Submit(c.Request.Context(), examID, candidateID)
	if err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"stats": stats})
}
