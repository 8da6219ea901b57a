package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prepdesk/prepdesk-backend/internal/questionset"
	"github.com/prepdesk/prepdesk-backend/internal/repository"
	"github.com/prepdesk/prepdesk-backend/internal/response"
)

// QuestionSetHandler serves shared passage/puzzle content through the
// process-wide resolver cache.
type QuestionSetHandler struct {
	resolver *questionset.Resolver
}

// NewQuestionSetHandler creates a new QuestionSetHandler.
func NewQuestionSetHandler(resolver *questionset.Resolver) *QuestionSetHandler {
	return &QuestionSetHandler{resolver: resolver}
}

// Get godoc
// GET /api/v1/question-sets/:set_id
// Returns the shared content for a question cluster. Repeated requests for
// the same set hit the in-process cache without a fetch.
func (h *QuestionSetHandler) Get(c *gin.Context) {
	setID := c.Param("set_id")
	if setID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	set, status, err := h.resolver.Resolve(c.Request.Context(), setID, nil)
	if err != nil {
		if errors.Is(err, repository.ErrQuestionSetNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrQuestionSetMissing)
			return
		}
		response.Fail(c, http.StatusBadGateway, response.ErrQuestionSetMissing)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"status":       status,
		"question_set": set,
	})
}
