package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/prepdesk/prepdesk-backend/internal/middleware"
	"github.com/prepdesk/prepdesk-backend/internal/model"
	"github.com/prepdesk/prepdesk-backend/internal/service"
	ws "github.com/prepdesk/prepdesk-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams exam session operations over one WebSocket connection.
// Every mutation is answered with the full refreshed snapshot, mirroring
// the REST surface, so clients can mix the two transports freely.
type WSHandler struct {
	sessionService *service.SessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.SessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/exams/:exam_id/session
// Upgrades to WebSocket for low-latency session operations.
func (h *WSHandler) SessionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	examID := c.Param("exam_id")
	if examID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid exam ID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	candidateID := claims.CandidateID

	wsLog := h.log.With().
		Int("candidate_id", candidateID).
		Str("exam_id", examID).
		Logger()

	// Push the current snapshot immediately so a reconnecting client
	// resynchronizes before sending anything.
	if !h.pushState(context.Background(), conn, examID, candidateID) {
		return
	}

	wsLog.Info().Msg("Candidate connected")

	for {
		var msg ws.Request
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		if msg.Action == ws.ActionPing {
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			continue
		}

		if msg.Action == ws.ActionSubmit {
			h.handleSubmit(conn, wsLog, examID, candidateID)
			continue
		}

		h.handleMutation(conn, wsLog, examID, candidateID, &msg)
	}
}

// handleMutation dispatches one session operation and answers with the
// refreshed snapshot.
func (h *WSHandler) handleMutation(conn *websocket.Conn, wsLog zerolog.Logger, examID string, candidateID int, msg *ws.Request) {
	ctx := context.Background()

	var (
		state model.ExamSessionState
		err   error
	)

	switch msg.Action {
	case ws.ActionNavigate:
		state, err = h.sessionService.Navigate(ctx, examID, candidateID, &model.NavigateRequest{
			QuestionIndex: msg.QuestionIndex,
			SectionIndex:  msg.SectionIndex,
		})
	case ws.ActionSaveAnswer:
		state, err = h.sessionService.SaveAnswer(ctx, examID, candidateID, &model.SaveAnswerRequest{
			QuestionID: msg.QuestionID,
			Answer:     msg.Answer,
		})
	case ws.ActionSaveAndNavigate:
		state, err = h.sessionService.SaveAndNavigate(ctx, examID, candidateID, &model.SaveAndNavigateRequest{
			QuestionID:    msg.QuestionID,
			Answer:        msg.Answer,
			MarkForReview: msg.MarkForReview,
			NextIndex:     msg.NextIndex,
		})
	case ws.ActionMarkAndNavigate:
		state, err = h.sessionService.MarkAndNavigate(ctx, examID, candidateID, &model.MarkAndNavigateRequest{
			QuestionID: msg.QuestionID,
			Answer:     msg.Answer,
			NextIndex:  msg.NextIndex,
		})
	case ws.ActionClearResponse:
		state, err = h.sessionService.ClearResponse(ctx, examID, candidateID, msg.QuestionID)
	case ws.ActionMarkForReview:
		state, err = h.sessionService.ToggleMarkForReview(ctx, examID, candidateID, msg.QuestionID)
	case ws.ActionHeartbeat:
		state, err = h.sessionService.Heartbeat(ctx, examID, candidateID, msg.RemainingSeconds, msg.QuestionID, msg.TimeTakenSeconds)
	case ws.ActionPause:
		state, err = h.sessionService.Pause(ctx, examID, candidateID, msg.RemainingSeconds)
	case ws.ActionResume:
		state, err = h.sessionService.Resume(ctx, examID, candidateID)
	case ws.ActionSetLanguage:
		state, err = h.sessionService.SetLanguage(ctx, examID, candidateID, msg.Language)
	default:
		wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
		ws.WriteError(conn, "unknown action: "+string(msg.Action))
		return
	}

	if err != nil {
		wsLog.Warn().Err(err).Str("action", string(msg.Action)).Msg("Operation rejected")
		ws.WriteError(conn, err.Error())
		return
	}

	stats, err := h.sessionService.Stats(ctx, examID, candidateID)
	if err != nil {
		ws.WriteError(conn, err.Error())
		return
	}

	ws.WriteTyped(conn, ws.StateResponse{
		Event: ws.EventState,
		State: state,
		Stats: stats,
	})
}

// handleSubmit finalizes the attempt over the stream.
func (h *WSHandler) handleSubmit(conn *websocket.Conn, wsLog zerolog.Logger, examID string, candidateID int) {
	stats, err := h.sessionService.Submit(context.Background(), examID, candidateID)
	if err != nil {
		wsLog.Warn().Err(err).Msg("Submit rejected")
		ws.WriteError(conn, err.Error())
		return
	}

	wsLog.Info().
		Int("answered", stats.Answered+stats.AnsweredAndMarked).
		Int("total", stats.Total).
		Msg("Attempt submitted over stream")

	ws.WriteTyped(conn, ws.SubmittedResponse{
		Event: ws.EventSubmitted,
		Stats: stats,
	})
}

// pushState writes the current snapshot; false means the stream is unusable.
func (h *WSHandler) pushState(ctx context.Context, conn *websocket.Conn, examID string, candidateID int) bool {
	state, err := h.sessionService.State(ctx, examID, candidateID)
	if err != nil {
		ws.WriteError(conn, err.Error())
		return false
	}
	stats, err := h.sessionService.Stats(ctx, examID, candidateID)
	if err != nil {
		ws.WriteError(conn, err.Error())
		return false
	}
	ws.WriteTyped(conn, ws.StateResponse{Event: ws.EventState, State: state, Stats: stats})
	return true
}
