package service

import (
	"github.com/jinzhu/copier"
	"github.com/lshigami/examhall/internal/dto"
	"github.com/lshigami/examhall/internal/grading"
	"github.com/lshigami/examhall/internal/model"
	"github.com/lshigami/examhall/internal/policy"
)

// buildTestView renders t for a viewer with visibility vis. answers are the
// viewer's latest submitted answers; they are shown only when vis.Answers is
// set, and verdicts only when vis.Correctness is set too.
func buildTestView(t *model.Test, vis policy.Visibility, answers []model.Answer) dto.TestViewDTO {
	view := dto.TestViewDTO{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Duration:    t.Duration,
		MaxAttempts: t.MaxAttempts,
		StartTime:   t.StartTime,
		EndTime:     t.EndTime,
		IsActive:    t.IsActive,
		Status:      string(t.Status),
		IsPublished: t.IsPublished,
		Questions:   make([]dto.QuestionViewDTO, 0, len(t.Questions)),
		CreatedAt:   t.CreatedAt,
	}

	byQuestion := make(map[uint][]model.Answer)
	if vis.Answers {
		for _, a := range answers {
			byQuestion[a.QuestionID] = append(byQuestion[a.QuestionID], a)
		}
	}
	showVerdicts := vis.Answers && vis.Correctness && answers != nil

	for i := range t.Questions {
		q := &t.Questions[i]
		qv := dto.QuestionViewDTO{
			ID:       q.ID,
			Text:     q.Text,
			Type:     string(q.Type),
			Order:    q.Order,
			Required: q.Required,
		}
		given := byQuestion[q.ID]
		selected := make(map[uint]bool, len(given))
		for _, a := range given {
			if a.OptionID != nil {
				selected[*a.OptionID] = true
			}
		}

		for _, o := range q.Options {
			ov := dto.OptionViewDTO{ID: o.ID, Text: o.Text}
			if vis.Correctness {
				ov.IsCorrect = boolPtr(o.IsCorrect)
			}
			if vis.Answers && answers != nil {
				ov.IsSelected = boolPtr(selected[o.ID])
			}
			qv.Options = append(qv.Options, ov)
		}

		if !q.Type.HasOptions() {
			qv.StudentAnswer = freeFormAnswer(given)
		}
		if showVerdicts {
			qv.IsCorrect = boolPtr(grading.IsCorrect(q, given))
		}
		view.Questions = append(view.Questions, qv)
	}
	return view
}

func freeFormAnswer(given []model.Answer) *string {
	for _, a := range given {
		if a.CodeAnswer != nil {
			return a.CodeAnswer
		}
		if a.TextAnswer != nil {
			return a.TextAnswer
		}
	}
	return nil
}

func attemptDTO(a *model.TestAttempt, showScore bool) dto.AttemptDTO {
	var resp dto.AttemptDTO
	copier.Copy(&resp, a)
	if !showScore {
		resp.Score = nil
	}
	return resp
}

func summaryDTO(s grading.Summary) *dto.ScoreSummaryDTO {
	return &dto.ScoreSummaryDTO{
		CorrectCount:   s.CorrectCount,
		TotalQuestions: s.TotalQuestions,
		Percentage:     s.Percentage,
	}
}

func boolPtr(b bool) *bool { return &b }
