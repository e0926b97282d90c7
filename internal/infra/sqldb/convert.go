package sqldb

import (
	"nf-quiz-service/internal/domain"
	"nf-quiz-service/internal/infra/sqldb/schema"
)

func toQuizItem(r schema.QuizItem) domain.QuizItem {
	opts := make([]string, len(r.Options))
	copy(opts, r.Options)
	return domain.QuizItem{
		ID:            r.ID,
		Question:      r.Question,
		Options:       opts,
		CorrectAnswer: r.CorrectAnswer,
		Level:         domain.Level(r.Level),
		Concept:       r.Concept,
		Explanation:   r.Explanation,
	}
}

func quizItemRow(item domain.QuizItem) schema.QuizItem {
	return schema.QuizItem{
		ID:            item.ID,
		Question:      item.Question,
		Options:       item.Options,
		CorrectAnswer: item.CorrectAnswer,
		Level:         string(item.Level),
		Concept:       item.Concept,
		Explanation:   item.Explanation,
	}
}

func toModule(r schema.Module) domain.Module {
	return domain.Module{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Level:       domain.Level(r.Level),
		Concept:     r.Concept,
		ResourceURL: r.ResourceURL,
	}
}

func toAttempt(r schema.Attempt) domain.Attempt {
	a := domain.Attempt{
		ID:           r.ID,
		StudentID:    r.StudentID,
		Scope:        r.Scope,
		StartedAt:    r.StartedAt,
		ItemsTotal:   r.ItemsTotal,
		ItemsCorrect: r.ItemsCorrect,
		ScorePct:     r.ScorePct,
	}
	if r.FinishedAt != nil {
		t := *r.FinishedAt
		a.FinishedAt = &t
	}
	return a
}

func toMastery(r schema.Mastery) domain.MasteryRecord {
	return domain.MasteryRecord{StudentID: r.StudentID, Concept: r.Concept, Mastered: r.Mastered, UpdatedAt: r.UpdatedAt}
}

func toRecommendation(r schema.Recommendation) domain.Recommendation {
	return domain.Recommendation{
		ID:        r.ID,
		StudentID: r.StudentID,
		Concept:   r.Concept,
		Action:    r.Action,
		ModuleID:  r.ModuleID,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
	}
}

func recommendationRow(rec domain.Recommendation) schema.Recommendation {
	status := rec.Status
	if status == "" {
		status = domain.RecommendationPending
	}
	return schema.Recommendation{
		ID:        rec.ID,
		StudentID: rec.StudentID,
		Concept:   rec.Concept,
		Action:    rec.Action,
		ModuleID:  rec.ModuleID,
		Status:    status,
		CreatedAt: rec.CreatedAt,
	}
}

func toStudent(r schema.Student) domain.Account {
	return domain.Account{ID: r.ID, Name: r.Name, Email: r.Email, PasswordHash: r.PasswordHash, Role: domain.RoleStudent, CreatedAt: r.CreatedAt}
}

func toLecturer(r schema.Lecturer) domain.Account {
	return domain.Account{ID: r.ID, Name: r.Name, Email: r.Email, PasswordHash: r.PasswordHash, Role: domain.RoleLecturer, CreatedAt: r.CreatedAt}
}
