package app

import (
	"context"
	"fmt"
	"sort"

	"nf-quiz-service/internal/domain"

	"go.uber.org/zap"
)

// DashboardStore is the read side used by student and lecturer views.
type DashboardStore interface {
	AccountByID(ctx context.Context, role domain.Role, id string) (domain.Account, error)
	AttemptsForStudent(ctx context.Context, studentID string) ([]domain.Attempt, error)
	MasteryForStudent(ctx context.Context, studentID string) ([]domain.MasteryRecord, error)
	RecommendationsForStudent(ctx context.Context, studentID string) ([]domain.Recommendation, error)
	ModuleProgressForStudent(ctx context.Context, studentID string) ([]domain.ModuleProgress, error)
	CompleteRecommendation(ctx context.Context, studentID, recID string) (domain.Recommendation, error)
	AttemptReview(ctx context.Context, studentID, attemptID string) (domain.AttemptReview, error)
	ListModules(ctx context.Context) ([]domain.Module, error)
	ConceptOverview(ctx context.Context) ([]domain.ConceptOverview, error)
	Rankings(ctx context.Context) ([]domain.RankingRow, error)
	ItemTimings(ctx context.Context) ([]domain.ItemTiming, error)
	DeleteStudent(ctx context.Context, id string) error
}

// Item analytics only rank items with enough responses to be meaningful.
const (
	timingMinResponses = 5
	timingTopN         = 5
)

type DashboardService struct {
	store    DashboardStore
	concepts []string
	log      *zap.Logger
}

func NewDashboardService(store DashboardStore, concepts []string, log *zap.Logger) *DashboardService {
	if log == nil {
		log = zap.NewNop()
	}
	return &DashboardService{store: store, concepts: concepts, log: log}
}

// StudentDashboard gathers attempts, mastery, recommendations and module scores of one student.
func (s *DashboardService) StudentDashboard(ctx context.Context, studentID string) (domain.StudentDashboard, error) {
	student, err := s.store.AccountByID(ctx, domain.RoleStudent, studentID)
	if err != nil {
		return domain.StudentDashboard{}, err
	}
	attempts, err := s.store.AttemptsForStudent(ctx, studentID)
	if err != nil {
		return domain.StudentDashboard{}, err
	}
	mastery, err := s.store.MasteryForStudent(ctx, studentID)
	if err != nil {
		return domain.StudentDashboard{}, err
	}
	recs, err := s.store.RecommendationsForStudent(ctx, studentID)
	if err != nil {
		return domain.StudentDashboard{}, err
	}
	progress, err := s.store.ModuleProgressForStudent(ctx, studentID)
	if err != nil {
		return domain.StudentDashboard{}, err
	}
	s.sortMastery(mastery)
	return domain.StudentDashboard{
		Student:         student,
		Attempts:        attempts,
		Mastery:         mastery,
		Recommendations: recs,
		ModuleProgress:  progress,
	}, nil
}

func (s *DashboardService) ReviewAttempt(ctx context.Context, studentID, attemptID string) (domain.AttemptReview, error) {
	return s.store.AttemptReview(ctx, studentID, attemptID)
}

// CompleteRecommendation marks the student's own recommendation Done.
func (s *DashboardService) CompleteRecommendation(ctx context.Context, studentID, recID string) (domain.Recommendation, error) {
	rec, err := s.store.CompleteRecommendation(ctx, studentID, recID)
	if err != nil {
		return domain.Recommendation{}, err
	}
	s.log.Info("recommendation completed", zap.String("recommendation_id", recID), zap.String("student_id", studentID))
	return rec, nil
}

func (s *DashboardService) Modules(ctx context.Context) ([]domain.Module, error) {
	return s.store.ListModules(ctx)
}

// Overview returns class-wide concept stats in teaching order.
func (s *DashboardService) Overview(ctx context.Context) ([]domain.ConceptOverview, error) {
	rows, err := s.store.ConceptOverview(ctx)
	if err != nil {
		return nil, err
	}
	rank := s.conceptRank()
	sort.SliceStable(rows, func(i, j int) bool {
		return lessConcept(rank, rows[i].Concept, rows[j].Concept)
	})
	return rows, nil
}

func (s *DashboardService) Rankings(ctx context.Context) ([]domain.RankingRow, error) {
	return s.store.Rankings(ctx)
}

// ItemTimings reports every item plus the slowest and fastest well-sampled ones.
func (s *DashboardService) ItemTimings(ctx context.Context) (domain.ItemTimingReport, error) {
	items, err := s.store.ItemTimings(ctx)
	if err != nil {
		return domain.ItemTimingReport{}, err
	}
	var sampled []domain.ItemTiming
	for _, it := range items {
		if it.Responses >= timingMinResponses {
			sampled = append(sampled, it)
		}
	}

	slowest := append([]domain.ItemTiming(nil), sampled...)
	sort.SliceStable(slowest, func(i, j int) bool { return slowest[i].AvgSeconds > slowest[j].AvgSeconds })
	fastest := append([]domain.ItemTiming(nil), sampled...)
	sort.SliceStable(fastest, func(i, j int) bool { return fastest[i].AvgSeconds < fastest[j].AvgSeconds })

	return domain.ItemTimingReport{
		Items:   items,
		Slowest: head(slowest, timingTopN),
		Fastest: head(fastest, timingTopN),
	}, nil
}

// DeleteStudent removes a student and everything recorded for them.
func (s *DashboardService) DeleteStudent(ctx context.Context, studentID string) error {
	if err := s.store.DeleteStudent(ctx, studentID); err != nil {
		return fmt.Errorf("delete student %s: %w", studentID, err)
	}
	s.log.Info("student deleted", zap.String("student_id", studentID))
	return nil
}

func (s *DashboardService) sortMastery(records []domain.MasteryRecord) {
	rank := s.conceptRank()
	sort.SliceStable(records, func(i, j int) bool {
		return lessConcept(rank, records[i].Concept, records[j].Concept)
	})
}

func (s *DashboardService) conceptRank() map[string]int {
	rank := make(map[string]int, len(s.concepts))
	for i, c := range s.concepts {
		rank[c] = i
	}
	return rank
}

func lessConcept(rank map[string]int, a, b string) bool {
	ra, aok := rank[a]
	rb, bok := rank[b]
	switch {
	case aok && bok:
		return ra < rb
	case aok != bok:
		return aok
	default:
		return a < b
	}
}

func head(items []domain.ItemTiming, n int) []domain.ItemTiming {
	if len(items) > n {
		return items[:n]
	}
	if items == nil {
		return []domain.ItemTiming{}
	}
	return items
}
