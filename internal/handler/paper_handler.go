package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prepstack/satprep-backend/internal/model"
	"github.com/prepstack/satprep-backend/internal/response"
	"github.com/prepstack/satprep-backend/internal/service"
)

// PaperHandler handles the question paper catalog endpoints.
type PaperHandler struct {
	paperService *service.PaperService
}

// NewPaperHandler creates a new PaperHandler.
func NewPaperHandler(paperService *service.PaperService) *PaperHandler {
	return &PaperHandler{paperService: paperService}
}

// List godoc
// GET /api/v1/papers?type=FULL_TEST|DAILY_QUIZ
// Returns the published paper catalog.
func (h *PaperHandler) List(c *gin.Context) {
	var paperType *model.PaperType
	if raw := c.Query("type"); raw != "" {
		t := model.PaperType(raw)
		if t != model.PaperTypeFullTest && t != model.PaperTypeDailyQuiz {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
			return
		}
		paperType = &t
	}

	papers, err := h.paperService.ListPapers(c.Request.Context(), paperType)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"papers": papers})
}

// Get godoc
// GET /api/v1/papers/:id
// Returns one published paper.
func (h *PaperHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	paper, err := h.paperService.GetPaper(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrPaperNotAvailable)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}
