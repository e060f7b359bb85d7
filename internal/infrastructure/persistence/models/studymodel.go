package models

import (
	"time"

	"github.com/abengolea/heartlink-sub000/internal/shared/constants"
)

type StudyModel struct {
	ID          string    `gorm:"primaryKey;size:50"`
	UserID      string    `gorm:"not null;size:64;index:idx_study_user_created,priority:1"`
	PatientName string    `gorm:"not null;size:200"`
	StudyType   string    `gorm:"size:50"`
	FileURL     string    `gorm:"not null;size:1024"`
	Notes       string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"index:idx_study_user_created,priority:2"`
}

func (StudyModel) TableName() string {
	return constants.TableStudies
}
