package mappers

import (
	"github.com/abengolea/heartlink-sub000/internal/domain/study"
	"github.com/abengolea/heartlink-sub000/internal/infrastructure/persistence/models"
)

func StudyToModel(s *study.Study) *models.StudyModel {
	return &models.StudyModel{
		ID:          s.ID(),
		UserID:      s.UserID(),
		PatientName: s.PatientName(),
		StudyType:   s.StudyType(),
		FileURL:     s.FileURL(),
		Notes:       s.Notes(),
		CreatedAt:   s.CreatedAt(),
	}
}

func StudyToDomain(model *models.StudyModel) *study.Study {
	return study.ReconstructStudy(
		model.ID,
		model.UserID,
		model.PatientName,
		model.StudyType,
		model.FileURL,
		model.Notes,
		model.CreatedAt.UTC(),
	)
}
