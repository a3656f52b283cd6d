package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prepstack/satprep-backend/internal/middleware"
	"github.com/prepstack/satprep-backend/internal/model"
	"github.com/prepstack/satprep-backend/internal/response"
	"github.com/prepstack/satprep-backend/internal/service"
	"github.com/prepstack/satprep-backend/internal/session"
	"github.com/prepstack/satprep-backend/internal/validator"
)

// TestSessionHandler exposes the timed test session over REST. Every route is
// scoped to the authenticated student and a paper id; the session itself
// lives server-side in TestSessionService.
type TestSessionHandler struct {
	sessionService *service.TestSessionService
}

// NewTestSessionHandler creates a new TestSessionHandler.
func NewTestSessionHandler(sessionService *service.TestSessionService) *TestSessionHandler {
	return &TestSessionHandler{sessionService: sessionService}
}

func sessionIdentity(c *gin.Context) (int, uuid.UUID, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return 0, uuid.Nil, false
	}
	paperID, err := uuid.Parse(c.Param("paper_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, uuid.Nil, false
	}
	return claims.StudentID, paperID, true
}

// failSessionError translates engine and service errors into API errors.
func failSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoActiveSession):
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveSession)
	case errors.Is(err, service.ErrPaperNotAvailable):
		response.Fail(c, http.StatusNotFound, response.ErrPaperNotAvailable)
	case errors.Is(err, session.ErrNoQuestions):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrNoQuestions)
	case errors.Is(err, session.ErrNotActive):
		response.Fail(c, http.StatusConflict, response.ErrSessionNotActive)
	case errors.Is(err, session.ErrTerminal):
		response.Fail(c, http.StatusConflict, response.ErrSessionTerminal)
	case errors.Is(err, session.ErrSubmitInFlight):
		response.Fail(c, http.StatusConflict, response.ErrSubmitInFlight)
	case errors.Is(err, session.ErrIndexOutOfRange):
		response.Fail(c, http.StatusBadRequest, response.ErrQuestionOutOfRange)
	case errors.Is(err, session.ErrUnknownOption):
		response.Fail(c, http.StatusBadRequest, response.ErrUnknownOption)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// Start godoc
// POST /api/v1/tests/:paper_id/session
// Begins or resumes a test session and returns its snapshot plus questions.
func (h *TestSessionHandler) Start(c *gin.Context) {
	studentID, paperID, ok := sessionIdentity(c)
	if !ok {
		return
	}

	engine, err := h.sessionService.Start(c.Request.Context(), studentID, paperID)
	if err != nil {
		failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"snapshot":  engine.Snapshot(),
		"questions": service.SanitizedQuestions(engine.Questions()),
	})
}

// GetState godoc
// GET /api/v1/tests/:paper_id/session
// Returns the current session snapshot.
func (h *TestSessionHandler) GetState(c *gin.Context) {
	studentID, paperID, ok := sessionIdentity(c)
	if !ok {
		return
	}

	snap, err := h.sessionService.Snapshot(studentID, paperID)
	if err != nil {
		failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"snapshot": snap})
}

// GetQuestions godoc
// GET /api/v1/tests/:paper_id/session/questions
// Returns the session's question sequence without answer keys.
func (h *TestSessionHandler) GetQuestions(c *gin.Context) {
	studentID, paperID, ok := sessionIdentity(c)
	if !ok {
		return
	}

	questions, err := h.sessionService.Questions(studentID, paperID)
	if err != nil {
		failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": service.SanitizedQuestions(questions)})
}

// SelectAnswer godoc
// POST /api/v1/tests/:paper_id/session/answer
// Records the selected option text for a question.
func (h *TestSessionHandler) SelectAnswer(c *gin.Context) {
	studentID, paperID, ok := sessionIdentity(c)
	if !ok {
		return
	}

	var req model.SelectAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.sessionService.SelectAnswer(studentID, paperID, req.QuestionIndex, req.Answer); err != nil {
		failSessionError(c, err)
		return
	}

	snap, err := h.sessionService.Snapshot(studentID, paperID)
	if err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"snapshot": snap})
}

// GoTo godoc
// POST /api/v1/tests/:paper_id/session/goto
// Jumps to a question by index.
func (h *TestSessionHandler) GoTo(c *gin.Context) {
	studentID, paperID, ok := sessionIdentity(c)
	if !ok {
		return
	}

	var req model.GoToRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.sessionService.GoTo(studentID, paperID, req.QuestionIndex); err != nil {
		failSessionError(c, err)
		return
	}

	snap, err := h.sessionService.Snapshot(studentID, paperID)
	if err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"snapshot": snap})
}

// Next godoc
// POST /api/v1/tests/:paper_id/session/next
// Advances one question; a no-op on the last question.
func (h *TestSessionHandler) Next(c *gin.Context) {
	h.step(c, h.sessionService.Next)
}

// Previous godoc
// POST /api/v1/tests/:paper_id/session/previous
// Steps back one question; a no-op on the first question.
func (h *TestSessionHandler) Previous(c *gin.Context) {
	h.step(c, h.sessionService.Previous)
}

func (h *TestSessionHandler) step(c *gin.Context, move func(int, uuid.UUID) error) {
	studentID, paperID, ok := sessionIdentity(c)
	if !ok {
		return
	}

	if err := move(studentID, paperID); err != nil {
		failSessionError(c, err)
		return
	}

	snap, err := h.sessionService.Snapshot(studentID, paperID)
	if err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"snapshot": snap})
}

// Submit godoc
// POST /api/v1/tests/:paper_id/session/submit
// Grades the session and returns per-question results. On grading failure
// the session state is preserved and the request can be retried.
func (h *TestSessionHandler) Submit(c *gin.Context) {
	studentID, paperID, ok := sessionIdentity(c)
	if !ok {
		return
	}

	result, err := h.sessionService.Submit(c.Request.Context(), studentID, paperID)
	if err != nil {
		if errors.Is(err, service.ErrNoActiveSession) ||
			errors.Is(err, session.ErrTerminal) ||
			errors.Is(err, session.ErrSubmitInFlight) {
			failSessionError(c, err)
			return
		}
		response.Fail(c, http.StatusBadGateway, response.ErrSubmissionFailed)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// Background godoc
// POST /api/v1/tests/:paper_id/session/background
// Checkpoints the session when the app leaves the foreground.
func (h *TestSessionHandler) Background(c *gin.Context) {
	studentID, paperID, ok := sessionIdentity(c)
	if !ok {
		return
	}

	if err := h.sessionService.Backgrounded(c.Request.Context(), studentID, paperID); err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// Foreground godoc
// POST /api/v1/tests/:paper_id/session/foreground
// Reconciles the countdown after the app returns to the foreground.
func (h *TestSessionHandler) Foreground(c *gin.Context) {
	studentID, paperID, ok := sessionIdentity(c)
	if !ok {
		return
	}

	if err := h.sessionService.Foregrounded(c.Request.Context(), studentID, paperID); err != nil {
		failSessionError(c, err)
		return
	}

	snap, err := h.sessionService.Snapshot(studentID, paperID)
	if err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"snapshot": snap})
}

// Abandon godoc
// DELETE /api/v1/tests/:paper_id/session
// Discards the session and its checkpoint.
func (h *TestSessionHandler) Abandon(c *gin.Context) {
	studentID, paperID, ok := sessionIdentity(c)
	if !ok {
		return
	}

	if err := h.sessionService.Abandon(c.Request.Context(), studentID, paperID); err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}
