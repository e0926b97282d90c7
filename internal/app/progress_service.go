package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nf-quiz-service/internal/domain"
	"nf-quiz-service/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProgressStore persists module check scores and course feedback.
type ProgressStore interface {
	// UpsertModuleProgress must return domain.ErrModuleNotFound for unknown modules.
	UpsertModuleProgress(ctx context.Context, p domain.ModuleProgress) error
	InsertFeedback(ctx context.Context, f domain.Feedback) error
	ListFeedback(ctx context.Context) ([]domain.Feedback, error)
}

// ModuleScore is the payload of a finished module check.
type ModuleScore struct {
	Score *int `json:"score" validate:"required,min=0,max=3"`
}

// FeedbackInput is the payload of a course rating.
type FeedbackInput struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

type ProgressService struct {
	store ProgressStore
	log   *zap.Logger
	now   func() time.Time
	newID func() string
}

func NewProgressService(store ProgressStore, log *zap.Logger) *ProgressService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProgressService{
		store: store,
		log:   log,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// RecordModuleScore overwrites the student's score on a module.
func (s *ProgressService) RecordModuleScore(ctx context.Context, studentID string, moduleID int64, in ModuleScore) (domain.ModuleProgress, error) {
	if err := validator.ValidateStruct(in); err != nil {
		return domain.ModuleProgress{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	p := domain.ModuleProgress{
		StudentID:   studentID,
		ModuleID:    moduleID,
		Score:       *in.Score,
		CompletedAt: s.now().UTC(),
	}
	if err := s.store.UpsertModuleProgress(ctx, p); err != nil {
		return domain.ModuleProgress{}, err
	}
	s.log.Info("module score recorded", zap.String("student_id", studentID), zap.Int64("module_id", moduleID), zap.Int("score", p.Score))
	return p, nil
}

func (s *ProgressService) SubmitFeedback(ctx context.Context, studentID string, in FeedbackInput) (domain.Feedback, error) {
	in.Comment = strings.TrimSpace(in.Comment)
	if err := validator.ValidateStruct(in); err != nil {
		return domain.Feedback{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	f := domain.Feedback{
		ID:        s.newID(),
		StudentID: studentID,
		Rating:    in.Rating,
		Comment:   in.Comment,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.InsertFeedback(ctx, f); err != nil {
		return domain.Feedback{}, err
	}
	s.log.Info("feedback received", zap.String("student_id", studentID), zap.Int("rating", f.Rating))
	return f, nil
}

// FeedbackReport lists every entry with the average rating, 0 when there is none.
func (s *ProgressService) FeedbackReport(ctx context.Context) (domain.FeedbackReport, error) {
	entries, err := s.store.ListFeedback(ctx)
	if err != nil {
		return domain.FeedbackReport{}, err
	}
	report := domain.FeedbackReport{Count: len(entries), Entries: entries}
	if len(entries) > 0 {
		total := 0
		for _, f := range entries {
			total += f.Rating
		}
		report.AvgRating = float64(total) / float64(len(entries))
	}
	return report, nil
}
