package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abengolea/heartlink-sub000/internal/application/study/dto"
	"github.com/abengolea/heartlink-sub000/internal/application/study/usecases"
	subdto "github.com/abengolea/heartlink-sub000/internal/application/subscription/dto"
	"github.com/abengolea/heartlink-sub000/internal/shared/constants"
	apperrors "github.com/abengolea/heartlink-sub000/internal/shared/errors"
	"github.com/abengolea/heartlink-sub000/internal/shared/logger"
	"github.com/abengolea/heartlink-sub000/internal/shared/utils"
)

var _ = subdto.DenialBody{}

type createStudyUseCase interface {
	Execute(ctx context.Context, cmd usecases.CreateStudyCommand) (*dto.StudyDTO, error)
}

type listStudiesUseCase interface {
	Execute(ctx context.Context, userID string) ([]*dto.StudyDTO, error)
}

// StudyHandler serves the subscription gated study endpoints. Routes must
// be mounted behind the subscription gate.
type StudyHandler struct {
	createUseCase createStudyUseCase
	listUseCase   listStudiesUseCase
	logger        logger.Interface
}

func NewStudyHandler(createUC createStudyUseCase, listUC listStudiesUseCase, logger logger.Interface) *StudyHandler {
	return &StudyHandler{
		createUseCase: createUC,
		listUseCase:   listUC,
		logger:        logger,
	}
}

// CreateStudyRequest carries the metadata of an uploaded study
type CreateStudyRequest struct {
	PatientName string `json:"patient_name" binding:"required,max=200"`
	StudyType   string `json:"study_type" binding:"omitempty,max=100"`
	FileURL     string `json:"file_url" binding:"required,url,max=2048"`
	Notes       string `json:"notes" binding:"max=20000"`
}

// CreateStudy records an uploaded study
// @Summary Upload study
// @Description Records study metadata. Requires an active subscription or one inside its grace period; the response carries subscription_warning during the grace period.
// @Tags Studies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateStudyRequest true "Study"
// @Success 201 {object} utils.APIResponse{data=dto.StudyDTO}
// @Failure 400 {object} utils.APIResponse
// @Failure 402 {object} subdto.DenialBody
// @Router /studies [post]
func (h *StudyHandler) CreateStudy(c *gin.Context) {
	userID := c.GetString(constants.ContextKeyUserID)
	if userID == "" {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	var req CreateStudyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for create study", "user_id", userID, "error", err)
		utils.ErrorResponseWithError(c, apperrors.NewValidationError("invalid request body", err.Error()))
		return
	}

	result, err := h.createUseCase.Execute(c.Request.Context(), usecases.CreateStudyCommand{
		UserID:      userID,
		PatientName: req.PatientName,
		StudyType:   req.StudyType,
		FileURL:     req.FileURL,
		Notes:       req.Notes,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.GatedResponse(c, http.StatusCreated, "Study uploaded", result)
}

// ListStudies lists the caller's studies
// @Summary List studies
// @Tags Studies
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.APIResponse{data=[]dto.StudyDTO}
// @Failure 402 {object} subdto.DenialBody
// @Router /studies [get]
func (h *StudyHandler) ListStudies(c *gin.Context) {
	userID := c.GetString(constants.ContextKeyUserID)
	if userID == "" {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	studies, err := h.listUseCase.Execute(c.Request.Context(), userID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.GatedResponse(c, http.StatusOK, "", studies)
}
