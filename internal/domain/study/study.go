// Package study models the metadata of an uploaded cardiology study. Creating
// a study is the protected mutation guarded by subscription access.
package study

import (
	"fmt"
	"time"

	"github.com/abengolea/heartlink-sub000/internal/shared/id"
)

type Study struct {
	id          string
	userID      string
	patientName string
	studyType   string
	fileURL     string
	notes       string
	createdAt   time.Time
}

func NewStudy(userID, patientName, studyType, fileURL, notes string, now time.Time) (*Study, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if patientName == "" {
		return nil, fmt.Errorf("patient name is required")
	}
	if fileURL == "" {
		return nil, fmt.Errorf("file URL is required")
	}

	studyID, err := id.NewStudyID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate study ID: %w", err)
	}

	return &Study{
		id:          studyID,
		userID:      userID,
		patientName: patientName,
		studyType:   studyType,
		fileURL:     fileURL,
		notes:       notes,
		createdAt:   now,
	}, nil
}

func ReconstructStudy(id, userID, patientName, studyType, fileURL, notes string, createdAt time.Time) *Study {
	return &Study{
		id:          id,
		userID:      userID,
		patientName: patientName,
		studyType:   studyType,
		fileURL:     fileURL,
		notes:       notes,
		createdAt:   createdAt,
	}
}

func (s *Study) ID() string {
	return s.id
}

func (s *Study) UserID() string {
	return s.userID
}

func (s *Study) PatientName() string {
	return s.patientName
}

func (s *Study) StudyType() string {
	return s.studyType
}

func (s *Study) FileURL() string {
	return s.fileURL
}

func (s *Study) Notes() string {
	return s.notes
}

func (s *Study) CreatedAt() time.Time {
	return s.createdAt
}
