package dto

import (
	"time"

	"github.com/abengolea/heartlink-sub000/internal/domain/study"
)

type StudyDTO struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	PatientName string    `json:"patient_name"`
	StudyType   string    `json:"study_type,omitempty"`
	FileURL     string    `json:"file_url"`
	Notes       string    `json:"notes,omitempty"`
	NotesHTML   string    `json:"notes_html,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToStudyDTO converts a study; notesHTML is the rendered form of its notes.
func ToStudyDTO(s *study.Study, notesHTML string) *StudyDTO {
	if s == nil {
		return nil
	}
	return &StudyDTO{
		ID:          s.ID(),
		UserID:      s.UserID(),
		PatientName: s.PatientName(),
		StudyType:   s.StudyType(),
		FileURL:     s.FileURL(),
		Notes:       s.Notes(),
		NotesHTML:   notesHTML,
		CreatedAt:   s.CreatedAt(),
	}
}
