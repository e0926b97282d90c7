package app

import (
	"math/rand"
	"sync"
	"time"

	"nf-quiz-service/internal/domain"
)

// DefaultStrata is the 10-item quiz: 3 FD, 3 1NF, 2 2NF, 2 3NF.
var DefaultStrata = domain.Strata{
	{Level: domain.LevelFD, Count: 3},
	{Level: domain.Level1NF, Count: 3},
	{Level: domain.Level2NF, Count: 2},
	{Level: domain.Level3NF, Count: 2},
}

// Assembler draws stratified random quizzes from a bank.
type Assembler struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewAssembler() *Assembler {
	return NewAssemblerWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewAssemblerWithSource is used by tests for reproducible draws.
func NewAssemblerWithSource(src rand.Source) *Assembler {
	return &Assembler{rnd: rand.New(src)}
}

// Assemble samples strata from the scoped bank without replacement and shuffles the result.
// Levels absent from a concept scope are skipped; levels present but too small fail.
// Strata repeating a level are merged first so no item can be drawn twice.
func (a *Assembler) Assemble(bank []domain.QuizItem, scope domain.Scope, strata domain.Strata) ([]domain.QuizItem, error) {
	strata = strata.Merged()
	byLevel := make(map[domain.Level][]domain.QuizItem)
	seen := make(map[string]struct{}, len(bank))
	for _, item := range bank {
		if _, dup := seen[item.ID]; dup {
			continue
		}
		if !scope.Includes(item.Concept) {
			continue
		}
		seen[item.ID] = struct{}{}
		byLevel[item.Level] = append(byLevel[item.Level], item)
	}

	plan := make(domain.Strata, 0, len(strata))
	for _, st := range strata {
		available := len(byLevel[st.Level])
		if available == 0 && len(scope.Concepts) > 0 {
			continue
		}
		if available < st.Count {
			return nil, &domain.InsufficientBankError{Level: st.Level, Required: st.Count, Available: available}
		}
		plan = append(plan, st)
	}
	if len(plan) == 0 {
		if len(strata) == 0 {
			return nil, &domain.InsufficientBankError{}
		}
		return nil, &domain.InsufficientBankError{Level: strata[0].Level, Required: strata[0].Count}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	picked := make([]domain.QuizItem, 0, plan.Total())
	for _, st := range plan {
		picked = append(picked, a.sampleLocked(byLevel[st.Level], st.Count)...)
	}
	a.rnd.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})
	return picked, nil
}

// sampleLocked runs a partial Fisher-Yates over a copy of pool.
func (a *Assembler) sampleLocked(pool []domain.QuizItem, n int) []domain.QuizItem {
	cp := make([]domain.QuizItem, len(pool))
	copy(cp, pool)
	for i := 0; i < n; i++ {
		j := i + a.rnd.Intn(len(cp)-i)
		cp[i], cp[j] = cp[j], cp[i]
	}
	return cp[:n]
}
