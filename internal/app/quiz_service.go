package app

import (
	"context"
	"fmt"
	"time"

	"nf-quiz-service/internal/domain"
	"nf-quiz-service/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BankProvider returns the whole question bank, usually through a cache.
type BankProvider interface {
	Bank(ctx context.Context) ([]domain.QuizItem, error)
}

// AttemptStore persists attempts and runs gradings in one transaction.
type AttemptStore interface {
	CreateAttempt(ctx context.Context, attempt domain.Attempt, itemIDs []string) error
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx GradingTx) error) error
}

// GradingTx is the transactional view used while grading one submission.
type GradingTx interface {
	AttemptForStudent(ctx context.Context, attemptID, studentID string) (domain.Attempt, error)
	AttemptItems(ctx context.Context, attemptID string) ([]domain.QuizItem, error)
	// FinalizeAttempt must return domain.ErrAlreadyGraded when the attempt already has a finish time.
	FinalizeAttempt(ctx context.Context, attemptID string, finishedAt time.Time, itemsCorrect int, scorePct float64) error
	InsertResponses(ctx context.Context, responses []domain.Response) error
	StudentConceptStats(ctx context.Context, studentID string, concepts []string) ([]domain.ConceptStats, error)
	UpsertMastery(ctx context.Context, records []domain.MasteryRecord) error
	// ModuleForConcept returns nil without error when no module covers the concept.
	ModuleForConcept(ctx context.Context, concept string) (*domain.Module, error)
	InsertRecommendations(ctx context.Context, recs []domain.Recommendation) error
	StudentMastery(ctx context.Context, studentID string) ([]domain.MasteryRecord, error)
}

// Recorder receives quiz events for metrics.
type Recorder interface {
	QuizStarted(scope string, items int)
	AttemptGraded(scorePct float64, passed bool)
	MasteryEvaluated(concept string, mastered bool)
	RecommendationIssued(concept string)
}

type nopRecorder struct{}

func (nopRecorder) QuizStarted(string, int)       {}
func (nopRecorder) AttemptGraded(float64, bool)   {}
func (nopRecorder) MasteryEvaluated(string, bool) {}
func (nopRecorder) RecommendationIssued(string)   {}

// QuizConfig holds the assembly and scoring rules.
type QuizConfig struct {
	Strata         domain.Strata
	PassThreshold  float64
	Concepts       []string
	MasteryScope   string
	Mastery        MasteryRule
	Recommendation RecommendationRule
}

// DefaultConcepts is the teaching order of the four tracked concepts.
var DefaultConcepts = []string{
	"Functional Dependency",
	"Atomic Values",
	"Partial Dependency",
	"Transitive Dependency",
}

func DefaultQuizConfig() QuizConfig {
	return QuizConfig{
		Strata:         DefaultStrata,
		PassThreshold:  70,
		Concepts:       DefaultConcepts,
		MasteryScope:   MasteryScopeCumulative,
		Mastery:        DefaultMasteryRule,
		Recommendation: DefaultRecommendationRule,
	}
}

// Validate rejects rules under which a concept can never be mastered. Per-attempt
// evaluation only sees one quiz, so each level must contribute MinResponses items.
func (c QuizConfig) Validate() error {
	if c.MasteryScope != MasteryScopeAttempt {
		return nil
	}
	for _, st := range c.Strata.Merged() {
		if st.Count < c.Mastery.MinResponses {
			return fmt.Errorf("mastery scope %q needs %d items per level, level %s draws %d",
				c.MasteryScope, c.Mastery.MinResponses, st.Level, st.Count)
		}
	}
	return nil
}

// QuizService contains the quiz use cases: start an attempt and grade it.
type QuizService struct {
	bank      BankProvider
	store     AttemptStore
	assembler *Assembler
	cfg       QuizConfig
	log       *zap.Logger
	metrics   Recorder
	now       func() time.Time
	newID     func() string
}

// Option customizes a QuizService.
type Option func(*QuizService)

// WithAssembler swaps the assembler, e.g. for a seeded one in tests.
func WithAssembler(a *Assembler) Option {
	return func(s *QuizService) { s.assembler = a }
}

// WithClock is used for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *QuizService) { s.now = now }
}

func WithRecorder(r Recorder) Option {
	return func(s *QuizService) {
		if r != nil {
			s.metrics = r
		}
	}
}

func NewQuizService(bank BankProvider, store AttemptStore, cfg QuizConfig, log *zap.Logger, opts ...Option) *QuizService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &QuizService{
		bank:      bank,
		store:     store,
		assembler: NewAssembler(),
		cfg:       cfg,
		log:       log,
		metrics:   nopRecorder{},
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config exposes the active rules, e.g. for the pass threshold shown to clients.
func (s *QuizService) Config() QuizConfig {
	return s.cfg
}

// StartQuiz draws a quiz for the student and records a started attempt.
func (s *QuizService) StartQuiz(ctx context.Context, studentID string, scope domain.Scope) (domain.QuizPaper, error) {
	bank, err := s.bank.Bank(ctx)
	if err != nil {
		return domain.QuizPaper{}, fmt.Errorf("load bank: %w", err)
	}

	items, err := s.assembler.Assemble(bank, scope, s.cfg.Strata)
	if err != nil {
		s.log.Warn("quiz assembly failed", zap.String("student_id", studentID), zap.String("scope", scope.Label()), zap.Error(err))
		return domain.QuizPaper{}, err
	}

	attempt := domain.Attempt{
		ID:         s.newID(),
		StudentID:  studentID,
		Scope:      scope.Label(),
		StartedAt:  s.now().UTC(),
		ItemsTotal: len(items),
	}
	ids := make([]string, len(items))
	presented := make([]domain.PresentedItem, len(items))
	for i, item := range items {
		ids[i] = item.ID
		opts := make([]string, len(item.Options))
		copy(opts, item.Options)
		presented[i] = domain.PresentedItem{ID: item.ID, Question: item.Question, Options: opts}
	}

	if err := s.store.CreateAttempt(ctx, attempt, ids); err != nil {
		return domain.QuizPaper{}, fmt.Errorf("create attempt: %w", err)
	}
	s.metrics.QuizStarted(attempt.Scope, len(items))
	s.log.Info("quiz started", zap.String("attempt_id", attempt.ID), zap.String("student_id", studentID), zap.Int("items", len(items)))

	return domain.QuizPaper{AttemptID: attempt.ID, Scope: attempt.Scope, Items: presented}, nil
}

// SubmitAnswers grades an attempt, updates mastery and issues recommendations atomically.
func (s *QuizService) SubmitAnswers(ctx context.Context, studentID string, sub domain.Submission) (domain.GradeResult, error) {
	if err := validator.ValidateStruct(sub); err != nil {
		return domain.GradeResult{}, fmt.Errorf("%w: %v", domain.ErrInvalidSubmission, err)
	}

	var result domain.GradeResult
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx GradingTx) error {
		attempt, err := tx.AttemptForStudent(ctx, sub.AttemptID, studentID)
		if err != nil {
			return err
		}
		if attempt.Graded() {
			return domain.ErrAlreadyGraded
		}

		attemptItems, err := tx.AttemptItems(ctx, attempt.ID)
		if err != nil {
			return fmt.Errorf("load attempt items: %w", err)
		}
		items := make(map[string]domain.QuizItem, len(attemptItems))
		for _, item := range attemptItems {
			items[item.ID] = item
		}
		if err := checkAnswers(items, sub.Answers); err != nil {
			return err
		}

		responses, details, correct := gradeAnswers(attempt, items, sub.Answers)
		pct := ScorePercent(correct, attempt.ItemsTotal)
		finishedAt := s.now().UTC()

		if err := tx.FinalizeAttempt(ctx, attempt.ID, finishedAt, correct, pct); err != nil {
			return err
		}
		if err := tx.InsertResponses(ctx, responses); err != nil {
			return fmt.Errorf("insert responses: %w", err)
		}

		stats := aggregateByConcept(responses, items, s.cfg.Concepts)
		if s.cfg.MasteryScope == MasteryScopeCumulative {
			concepts := make([]string, len(stats))
			for i, st := range stats {
				concepts[i] = st.Concept
			}
			stats, err = tx.StudentConceptStats(ctx, studentID, concepts)
			if err != nil {
				return fmt.Errorf("cumulative stats: %w", err)
			}
			sortConcepts(stats, s.cfg.Concepts)
		}

		outcomes, records := s.evaluateMastery(studentID, stats, finishedAt)
		if err := tx.UpsertMastery(ctx, records); err != nil {
			return fmt.Errorf("upsert mastery: %w", err)
		}

		recs, err := s.recommend(ctx, tx, studentID, stats, finishedAt)
		if err != nil {
			return err
		}
		if err := tx.InsertRecommendations(ctx, recs); err != nil {
			return fmt.Errorf("insert recommendations: %w", err)
		}

		mastery, err := tx.StudentMastery(ctx, studentID)
		if err != nil {
			return fmt.Errorf("load mastery: %w", err)
		}

		result = domain.GradeResult{
			AttemptID:       attempt.ID,
			ScorePct:        pct,
			ItemsCorrect:    correct,
			ItemsTotal:      attempt.ItemsTotal,
			Passed:          pct >= s.cfg.PassThreshold,
			Details:         details,
			Mastery:         outcomes,
			Recommendations: recs,
			NextStep:        nextStep(recs, mastery, s.cfg.Concepts),
		}
		return nil
	})
	if err != nil {
		s.log.Warn("grading failed", zap.String("attempt_id", sub.AttemptID), zap.String("student_id", studentID), zap.Error(err))
		return domain.GradeResult{}, err
	}

	s.metrics.AttemptGraded(result.ScorePct, result.Passed)
	for _, o := range result.Mastery {
		s.metrics.MasteryEvaluated(o.Concept, o.Mastered)
	}
	for _, r := range result.Recommendations {
		s.metrics.RecommendationIssued(r.Concept)
	}
	s.log.Info("attempt graded",
		zap.String("attempt_id", result.AttemptID),
		zap.String("student_id", studentID),
		zap.Int("items_total", result.ItemsTotal),
		zap.Int("items_correct", result.ItemsCorrect),
		zap.Float64("score_pct", result.ScorePct),
	)
	return result, nil
}

func (s *QuizService) evaluateMastery(studentID string, stats []domain.ConceptStats, at time.Time) ([]domain.ConceptOutcome, []domain.MasteryRecord) {
	outcomes := make([]domain.ConceptOutcome, 0, len(stats))
	records := make([]domain.MasteryRecord, 0, len(stats))
	for _, st := range stats {
		mastered := s.cfg.Mastery.Mastered(st)
		outcomes = append(outcomes, domain.ConceptOutcome{
			Concept:    st.Concept,
			Count:      st.Count,
			Accuracy:   st.Accuracy(),
			AvgSeconds: st.AvgSeconds(),
			Mastered:   mastered,
		})
		records = append(records, domain.MasteryRecord{
			StudentID: studentID,
			Concept:   st.Concept,
			Mastered:  mastered,
			UpdatedAt: at,
		})
	}
	return outcomes, records
}

func (s *QuizService) recommend(ctx context.Context, tx GradingTx, studentID string, stats []domain.ConceptStats, at time.Time) ([]domain.Recommendation, error) {
	recs := make([]domain.Recommendation, 0, len(stats))
	for _, st := range stats {
		if !s.cfg.Recommendation.Needed(st) {
			continue
		}
		module, err := tx.ModuleForConcept(ctx, st.Concept)
		if err != nil {
			return nil, fmt.Errorf("module for %q: %w", st.Concept, err)
		}
		rec := domain.Recommendation{
			ID:        s.newID(),
			StudentID: studentID,
			Concept:   st.Concept,
			Action:    SuggestedAction(st.Concept),
			Status:    domain.RecommendationPending,
			CreatedAt: at,
		}
		if module != nil {
			id := module.ID
			rec.ModuleID = &id
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
