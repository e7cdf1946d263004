package engine

import (
	"math"

	"github.com/SAP-F-2025/recruit-assessment-service/internal/models"
)

// SectionProgress summarises one section for the rendering surface.
type SectionProgress struct {
	SectionID  string `json:"section_id"`
	Answered   int    `json:"answered"`
	Visible    int    `json:"visible"`
	Percentage int    `json:"percentage"`
	Complete   bool   `json:"complete"`
}

type Progress struct {
	Percentage int               `json:"percentage"`
	CanSubmit  bool              `json:"can_submit"`
	Sections   []SectionProgress `json:"sections"`
}

// SectionCompletionPercentage is round(answered visible / visible * 100). A
// section without visible questions reports 0.
func SectionCompletionPercentage(section *models.Section, responses models.Responses, states ConditionalState) int {
	answered, visible := countSection(section, responses, states)
	return percentage(answered, visible)
}

// AssessmentCompletionPercentage applies the same ratio over all sections.
func AssessmentCompletionPercentage(assessment *models.Assessment, responses models.Responses, states ConditionalState) int {
	answered, visible := 0, 0
	for si := range assessment.Sections {
		a, v := countSection(&assessment.Sections[si], responses, states)
		answered += a
		visible += v
	}
	return percentage(answered, visible)
}

// IsSectionComplete is true when every visible, effectively required question
// of the section has an answer. An empty section is complete.
func IsSectionComplete(section *models.Section, responses models.Responses, states ConditionalState) bool {
	for _, q := range section.Questions {
		st, known := states[q.ID]
		if known && !st.Visible {
			continue
		}
		required := q.StaticallyRequired()
		if known {
			required = st.Required
		}
		if required && !IsAnswered(responses[q.ID]) {
			return false
		}
	}
	return true
}

// CanSubmit reports whether a full validation pass yields no errors.
func CanSubmit(assessment *models.Assessment, responses models.Responses, states ConditionalState) bool {
	return !ValidateAll(assessment, responses, states).HasErrors()
}

func BuildProgress(assessment *models.Assessment, responses models.Responses, states ConditionalState) Progress {
	p := Progress{
		Percentage: AssessmentCompletionPercentage(assessment, responses, states),
		CanSubmit:  CanSubmit(assessment, responses, states),
		Sections:   make([]SectionProgress, 0, len(assessment.Sections)),
	}
	for si := range assessment.Sections {
		section := &assessment.Sections[si]
		answered, visible := countSection(section, responses, states)
		p.Sections = append(p.Sections, SectionProgress{
			SectionID:  section.ID,
			Answered:   answered,
			Visible:    visible,
			Percentage: percentage(answered, visible),
			Complete:   IsSectionComplete(section, responses, states),
		})
	}
	return p
}

func countSection(section *models.Section, responses models.Responses, states ConditionalState) (answered, visible int) {
	for _, q := range section.Questions {
		if !states.IsVisible(q.ID) {
			continue
		}
		visible++
		if IsAnswered(responses[q.ID]) {
			answered++
		}
	}
	return answered, visible
}

func percentage(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
