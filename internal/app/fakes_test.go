package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"nf-quiz-service/internal/domain"
)

// memStore is a transactional in-memory AttemptStore: RunInTx works on a copy that is only
// swapped in when fn succeeds.
type memStore struct {
	mu    sync.Mutex
	state *memState
	// failOn makes the named GradingTx step fail, to exercise rollbacks.
	failOn string
}

type memState struct {
	items           map[string]domain.QuizItem
	modules         []domain.Module
	attempts        map[string]domain.Attempt
	attemptItems    map[string][]string
	responses       []domain.Response
	mastery         map[string]domain.MasteryRecord
	recommendations []domain.Recommendation
}

func newMemStore(bank []domain.QuizItem, modules []domain.Module) *memStore {
	st := &memState{
		items:        make(map[string]domain.QuizItem, len(bank)),
		modules:      modules,
		attempts:     make(map[string]domain.Attempt),
		attemptItems: make(map[string][]string),
		mastery:      make(map[string]domain.MasteryRecord),
	}
	for _, it := range bank {
		st.items[it.ID] = it
	}
	return &memStore{state: st}
}

func (s *memState) clone() *memState {
	cp := &memState{
		items:           s.items,
		modules:         s.modules,
		attempts:        make(map[string]domain.Attempt, len(s.attempts)),
		attemptItems:    s.attemptItems,
		responses:       append([]domain.Response(nil), s.responses...),
		mastery:         make(map[string]domain.MasteryRecord, len(s.mastery)),
		recommendations: append([]domain.Recommendation(nil), s.recommendations...),
	}
	for k, v := range s.attempts {
		cp.attempts[k] = v
	}
	for k, v := range s.mastery {
		cp.mastery[k] = v
	}
	return cp
}

func (m *memStore) Bank(context.Context) ([]domain.QuizItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.QuizItem, 0, len(m.state.items))
	for _, it := range m.state.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) CreateAttempt(_ context.Context, attempt domain.Attempt, itemIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.attempts[attempt.ID] = attempt
	m.state.attemptItems[attempt.ID] = append([]string(nil), itemIDs...)
	return nil
}

func (m *memStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx GradingTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	work := m.state.clone()
	if err := fn(ctx, &memTx{st: work, failOn: m.failOn}); err != nil {
		return err
	}
	m.state = work
	return nil
}

func (m *memStore) attempt(id string) domain.Attempt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.attempts[id]
}

func (m *memStore) snapshot() *memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

type memTx struct {
	st     *memState
	failOn string
}

type errStep string

func (e errStep) Error() string { return "forced failure in " + string(e) }

func (t *memTx) fail(step string) error {
	if t.failOn == step {
		return errStep(step)
	}
	return nil
}

func (t *memTx) AttemptForStudent(_ context.Context, attemptID, studentID string) (domain.Attempt, error) {
	a, ok := t.st.attempts[attemptID]
	if !ok || a.StudentID != studentID {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return a, nil
}

func (t *memTx) AttemptItems(_ context.Context, attemptID string) ([]domain.QuizItem, error) {
	ids := t.st.attemptItems[attemptID]
	out := make([]domain.QuizItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.st.items[id])
	}
	return out, nil
}

func (t *memTx) FinalizeAttempt(_ context.Context, attemptID string, finishedAt time.Time, itemsCorrect int, scorePct float64) error {
	a := t.st.attempts[attemptID]
	if a.FinishedAt != nil {
		return domain.ErrAlreadyGraded
	}
	a.FinishedAt = &finishedAt
	a.ItemsCorrect = itemsCorrect
	a.ScorePct = scorePct
	t.st.attempts[attemptID] = a
	return nil
}

func (t *memTx) InsertResponses(_ context.Context, responses []domain.Response) error {
	if err := t.fail("responses"); err != nil {
		return err
	}
	t.st.responses = append(t.st.responses, responses...)
	return nil
}

func (t *memTx) StudentConceptStats(_ context.Context, studentID string, concepts []string) ([]domain.ConceptStats, error) {
	wanted := make(map[string]bool, len(concepts))
	for _, c := range concepts {
		wanted[c] = true
	}
	byConcept := make(map[string]*domain.ConceptStats)
	for _, r := range t.st.responses {
		if r.StudentID != studentID || t.st.attempts[r.AttemptID].FinishedAt == nil {
			continue
		}
		c := t.st.items[r.ItemID].Concept
		if !wanted[c] {
			continue
		}
		s, ok := byConcept[c]
		if !ok {
			s = &domain.ConceptStats{Concept: c}
			byConcept[c] = s
		}
		s.Count++
		if r.Correct {
			s.Correct++
		}
		s.TotalSeconds += r.ResponseTime
	}
	out := make([]domain.ConceptStats, 0, len(byConcept))
	for _, s := range byConcept {
		out = append(out, *s)
	}
	return out, nil
}

func (t *memTx) UpsertMastery(_ context.Context, records []domain.MasteryRecord) error {
	for _, r := range records {
		t.st.mastery[r.StudentID+"|"+r.Concept] = r
	}
	return nil
}

func (t *memTx) ModuleForConcept(_ context.Context, concept string) (*domain.Module, error) {
	for _, m := range t.st.modules {
		if m.Concept == concept {
			mod := m
			return &mod, nil
		}
	}
	return nil, nil
}

func (t *memTx) InsertRecommendations(_ context.Context, recs []domain.Recommendation) error {
	if err := t.fail("recommendations"); err != nil {
		return err
	}
	t.st.recommendations = append(t.st.recommendations, recs...)
	return nil
}

func (t *memTx) StudentMastery(_ context.Context, studentID string) ([]domain.MasteryRecord, error) {
	var out []domain.MasteryRecord
	for _, r := range t.st.mastery {
		if r.StudentID == studentID {
			out = append(out, r)
		}
	}
	return out, nil
}

type recordingMetrics struct {
	started, graded, recommendations int
}

func (r *recordingMetrics) QuizStarted(string, int)       { r.started++ }
func (r *recordingMetrics) AttemptGraded(float64, bool)   { r.graded++ }
func (r *recordingMetrics) MasteryEvaluated(string, bool) {}
func (r *recordingMetrics) RecommendationIssued(string)   { r.recommendations++ }

// testBank builds the 30-item bank: 12 FD, 12 1NF, 3 2NF, 3 3NF.
func testBank() []domain.QuizItem {
	var bank []domain.QuizItem
	add := func(level domain.Level, concept string, n int) {
		for i := 1; i <= n; i++ {
			id := string(level) + "-" + string(rune('a'+i-1))
			bank = append(bank, domain.QuizItem{
				ID:            id,
				Question:      "Question " + id,
				Options:       []string{"right", "wrong-1", "wrong-2", "wrong-3"},
				CorrectAnswer: "right",
				Level:         level,
				Concept:       concept,
				Explanation:   "Because " + id,
			})
		}
	}
	add(domain.LevelFD, "Functional Dependency", 12)
	add(domain.Level1NF, "Atomic Values", 12)
	add(domain.Level2NF, "Partial Dependency", 3)
	add(domain.Level3NF, "Transitive Dependency", 3)
	return bank
}

func testModules() []domain.Module {
	return []domain.Module{
		{ID: 1, Title: "Functional Dependencies 101", Level: domain.LevelFD, Concept: "Functional Dependency"},
		{ID: 2, Title: "Atomicity and 1NF", Level: domain.Level1NF, Concept: "Atomic Values"},
		{ID: 3, Title: "Partial Dependencies and 2NF", Level: domain.Level2NF, Concept: "Partial Dependency"},
	}
}
