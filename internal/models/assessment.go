package models

import (
	"sort"
	"time"

	"gorm.io/gorm"
)

type AssessmentStatus string

const (
	StatusDraft    AssessmentStatus = "Draft"
	StatusActive   AssessmentStatus = "Active"
	StatusArchived AssessmentStatus = "Archived"
)

// Assessment is an ordered sequence of sections. The definition is consumed by
// the engine and never mutated by it; sections are stored as a jsonb document.
type Assessment struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	JobID       *uint            `json:"job_id,omitempty" gorm:"index"`
	Title       string           `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description string           `json:"description" gorm:"type:text" validate:"max=2000"`
	Status      AssessmentStatus `json:"status" gorm:"default:Draft;index" validate:"omitempty,oneof=Draft Active Archived"`
	Sections    []Section        `json:"sections" gorm:"type:jsonb;serializer:json" validate:"dive"`

	// Metadata
	CreatedBy string         `json:"created_by" gorm:"index;size:255"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Version int `json:"version" gorm:"default:1"`
}

type Section struct {
	ID          string     `json:"id" validate:"required,max=100"`
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description,omitempty" validate:"max=2000"`
	Questions   []Question `json:"questions" validate:"dive"`
}

func (Assessment) TableName() string {
	return "assessments"
}

// QuestionsByOrder returns pointers to every question of the assessment sorted
// by the global order field.
func (a *Assessment) QuestionsByOrder() []*Question {
	var out []*Question
	for si := range a.Sections {
		for qi := range a.Sections[si].Questions {
			out = append(out, &a.Sections[si].Questions[qi])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Question looks a question up by id across all sections.
func (a *Assessment) Question(id string) (*Question, bool) {
	for si := range a.Sections {
		for qi := range a.Sections[si].Questions {
			if a.Sections[si].Questions[qi].ID == id {
				return &a.Sections[si].Questions[qi], true
			}
		}
	}
	return nil, false
}

// SectionIndexOf returns the index of the section holding the question, or -1.
func (a *Assessment) SectionIndexOf(questionID string) int {
	for si := range a.Sections {
		for _, q := range a.Sections[si].Questions {
			if q.ID == questionID {
				return si
			}
		}
	}
	return -1
}

func (a *Assessment) QuestionCount() int {
	n := 0
	for _, s := range a.Sections {
		n += len(s.Questions)
	}
	return n
}
