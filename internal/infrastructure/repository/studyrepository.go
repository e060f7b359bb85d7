package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/abengolea/heartlink-sub000/internal/domain/study"
	"github.com/abengolea/heartlink-sub000/internal/infrastructure/persistence/mappers"
	"github.com/abengolea/heartlink-sub000/internal/infrastructure/persistence/models"
	"github.com/abengolea/heartlink-sub000/internal/shared/logger"
)

const maxStudiesPerList = 200

type StudyRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewStudyRepository(db *gorm.DB, logger logger.Interface) study.Repository {
	return &StudyRepositoryImpl{db: db, logger: logger}
}

func (r *StudyRepositoryImpl) Create(ctx context.Context, s *study.Study) error {
	if err := r.db.WithContext(ctx).Create(mappers.StudyToModel(s)).Error; err != nil {
		r.logger.Errorw("failed to create study", "study_id", s.ID(), "error", err)
		return fmt.Errorf("failed to create study: %w", err)
	}
	return nil
}

func (r *StudyRepositoryImpl) ListByUserID(ctx context.Context, userID string) ([]*study.Study, error) {
	var rows []*models.StudyModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(maxStudiesPerList).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list studies: %w", err)
	}

	result := make([]*study.Study, 0, len(rows))
	for _, row := range rows {
		result = append(result, mappers.StudyToDomain(row))
	}
	return result, nil
}
