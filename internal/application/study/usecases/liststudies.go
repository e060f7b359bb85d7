package usecases

import (
	"context"

	"github.com/abengolea/heartlink-sub000/internal/application/study/dto"
	"github.com/abengolea/heartlink-sub000/internal/domain/study"
	apperrors "github.com/abengolea/heartlink-sub000/internal/shared/errors"
	"github.com/abengolea/heartlink-sub000/internal/shared/logger"
)

type ListStudiesUseCase struct {
	studyRepo study.Repository
	renderer  NotesRenderer
	logger    logger.Interface
}

func NewListStudiesUseCase(studyRepo study.Repository, renderer NotesRenderer, logger logger.Interface) *ListStudiesUseCase {
	return &ListStudiesUseCase{
		studyRepo: studyRepo,
		renderer:  renderer,
		logger:    logger,
	}
}

func (uc *ListStudiesUseCase) Execute(ctx context.Context, userID string) ([]*dto.StudyDTO, error) {
	studies, err := uc.studyRepo.ListByUserID(ctx, userID)
	if err != nil {
		uc.logger.Errorw("failed to list studies", "user_id", userID, "error", err)
		return nil, apperrors.NewInternalError("failed to list studies")
	}

	result := make([]*dto.StudyDTO, 0, len(studies))
	for _, s := range studies {
		notesHTML, err := renderNotes(uc.renderer, s.Notes())
		if err != nil {
			// stored notes stay readable as source
			uc.logger.Warnw("failed to render study notes", "study_id", s.ID(), "error", err)
			notesHTML = ""
		}
		result = append(result, dto.ToStudyDTO(s, notesHTML))
	}
	return result, nil
}
