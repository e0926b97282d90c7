package bankfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nf-quiz-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDoc = `
items:
  - id: fd-01
    question: "In R(A, B), A -> B means?"
    options: ["A determines B", "B determines A", "A and B are keys", "None"]
    correct_answer: "A determines B"
    level: FD
    concept: Functional Dependency
    explanation: Each A value maps to exactly one B value.
modules:
  - title: Functional Dependencies
    description: Determinants and closures
    level: FD
    concept: Functional Dependency
    resource_url: https://example.edu/fd
`

func TestParseValid(t *testing.T) {
	f, err := Parse(strings.NewReader(validDoc))
	require.NoError(t, err)
	require.Len(t, f.Items, 1)
	assert.Equal(t, "A determines B", f.Items[0].CorrectAnswer)
	assert.Equal(t, domain.LevelFD, f.Items[0].Level)
	require.Len(t, f.Modules, 1)
	assert.Equal(t, "https://example.edu/fd", f.Modules[0].ResourceURL)
}

func TestParseRejectsBadItems(t *testing.T) {
	doc := `
items:
  - id: x1
    question: q
    options: [a, b, c]
    correct_answer: z
    level: 4NF
    concept: ""
  - id: x1
    question: ""
    options: [a, b, c, d]
    correct_answer: a
    level: 1NF
    concept: Atomic Values
`
	_, err := Parse(strings.NewReader(doc))
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{"needs 4 options", "not one of the options", "4NF", "missing concept", "duplicate id", "missing question"} {
		assert.Contains(t, msg, want)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse(strings.NewReader("items:\n  - id: a\n    answer: nope\n"))
	assert.Error(t, err)
}

func TestLoaderReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validDoc), 0o600))

	items, err := NewLoader(path).LoadBank(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = NewLoader(filepath.Join(t.TempDir(), "missing.yaml")).LoadBank(context.Background())
	assert.Error(t, err)
}

func TestShippedBankFile(t *testing.T) {
	f, err := Load(filepath.Join("..", "..", "..", "config", "bank.yaml"))
	require.NoError(t, err)

	counts := make(map[domain.Level]int)
	for _, item := range f.Items {
		counts[item.Level]++
	}
	assert.Equal(t, map[domain.Level]int{
		domain.LevelFD:  12,
		domain.Level1NF: 12,
		domain.Level2NF: 3,
		domain.Level3NF: 3,
	}, counts)
	assert.Len(t, f.Modules, 4)
}
