package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prepstack/satprep-backend/internal/model"
	"github.com/prepstack/satprep-backend/internal/response"
	"github.com/prepstack/satprep-backend/internal/service"
	"github.com/prepstack/satprep-backend/internal/validator"
)

// QuizHandler serves the untimed daily-quiz flow: the client fetches a
// paper's sanitized questions, collects answers locally and validates them in
// one round trip.
type QuizHandler struct {
	paperService   *service.PaperService
	gradingService *service.GradingService
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(paperService *service.PaperService, gradingService *service.GradingService) *QuizHandler {
	return &QuizHandler{paperService: paperService, gradingService: gradingService}
}

// GetQuestions godoc
// GET /api/v1/quiz/:paper_id/questions
// Returns a quiz paper's questions without answer keys.
func (h *QuizHandler) GetQuestions(c *gin.Context) {
	paperID, err := uuid.Parse(c.Param("paper_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	// Same gate as the session path: drafts and archived papers stay hidden.
	if _, err := h.paperService.GetPaper(c.Request.Context(), paperID); err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrPaperNotAvailable)
		return
	}

	questions, err := h.paperService.QuestionsForPaper(c.Request.Context(), paperID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrPaperNotAvailable)
		return
	}

	sanitized := make([]model.SanitizedQuestion, 0, len(questions))
	for i := range questions {
		sanitized = append(sanitized, questions[i].Sanitize())
	}

	response.Success(c, http.StatusOK, gin.H{"questions": sanitized})
}

// ValidateAnswers godoc
// POST /api/v1/quiz/validate
// Grades a batch of quiz answers and returns per-question results.
func (h *QuizHandler) ValidateAnswers(c *gin.Context) {
	var req model.ValidateAnswersRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	results, err := h.gradingService.ValidateAnswers(c.Request.Context(), req.UserAnswers)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}
