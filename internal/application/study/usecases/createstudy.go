package usecases

import (
	"context"
	"time"

	"github.com/abengolea/heartlink-sub000/internal/application/study/dto"
	"github.com/abengolea/heartlink-sub000/internal/domain/study"
	"github.com/abengolea/heartlink-sub000/internal/shared/biztime"
	apperrors "github.com/abengolea/heartlink-sub000/internal/shared/errors"
	"github.com/abengolea/heartlink-sub000/internal/shared/logger"
)

type CreateStudyCommand struct {
	UserID      string
	PatientName string
	StudyType   string
	FileURL     string
	Notes       string
}

// CreateStudyUseCase records the metadata of an uploaded study. Callers must
// pass the access gate first; this use case does not check the subscription.
type CreateStudyUseCase struct {
	studyRepo study.Repository
	renderer  NotesRenderer
	now       func() time.Time
	logger    logger.Interface
}

func NewCreateStudyUseCase(
	studyRepo study.Repository,
	renderer NotesRenderer,
	logger logger.Interface,
) *CreateStudyUseCase {
	return &CreateStudyUseCase{
		studyRepo: studyRepo,
		renderer:  renderer,
		now:       biztime.NowUTC,
		logger:    logger,
	}
}

func (uc *CreateStudyUseCase) Execute(ctx context.Context, cmd CreateStudyCommand) (*dto.StudyDTO, error) {
	// render before any write so a bad document leaves nothing behind
	notesHTML, err := renderNotes(uc.renderer, cmd.Notes)
	if err != nil {
		uc.logger.Warnw("failed to render study notes", "user_id", cmd.UserID, "error", err)
		return nil, apperrors.NewValidationError("invalid notes", err.Error())
	}

	s, err := study.NewStudy(cmd.UserID, cmd.PatientName, cmd.StudyType, cmd.FileURL, cmd.Notes, uc.now())
	if err != nil {
		return nil, apperrors.NewValidationError("invalid study", err.Error())
	}

	if err := uc.studyRepo.Create(ctx, s); err != nil {
		uc.logger.Errorw("failed to create study", "user_id", cmd.UserID, "error", err)
		return nil, apperrors.NewInternalError("failed to create study")
	}

	uc.logger.Infow("study created",
		"study_id", s.ID(),
		"user_id", s.UserID(),
		"study_type", s.StudyType(),
	)

	return dto.ToStudyDTO(s, notesHTML), nil
}

func renderNotes(renderer NotesRenderer, notes string) (string, error) {
	if renderer == nil || notes == "" {
		return "", nil
	}
	return renderer.ToHTMLSanitized(notes)
}
