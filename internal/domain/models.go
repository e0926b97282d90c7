package domain

import (
	"fmt"
	"strings"
	"time"
)

// Level is the normal-form classification of a quiz item.
type Level string

const (
	LevelFD  Level = "FD"
	Level1NF Level = "1NF"
	Level2NF Level = "2NF"
	Level3NF Level = "3NF"
)

// Levels lists every level in teaching order.
var Levels = []Level{LevelFD, Level1NF, Level2NF, Level3NF}

// ParseLevel validates a raw level label.
func ParseLevel(raw string) (Level, error) {
	for _, l := range Levels {
		if string(l) == strings.TrimSpace(raw) {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown normal-form level %q", raw)
}

// QuizItem is one multiple-choice question of the bank. Items are immutable once seeded.
type QuizItem struct {
	ID            string   `json:"id" yaml:"id"`
	Question      string   `json:"question" yaml:"question"`
	Options       []string `json:"options" yaml:"options"`
	CorrectAnswer string   `json:"correctAnswer" yaml:"correct_answer"`
	Level         Level    `json:"level" yaml:"level"`
	Concept       string   `json:"concept" yaml:"concept"`
	Explanation   string   `json:"explanation" yaml:"explanation"`
}

// Stratum asks for Count items of one level.
type Stratum struct {
	Level Level `json:"level" mapstructure:"level" validate:"required,oneof=FD 1NF 2NF 3NF"`
	Count int   `json:"count" mapstructure:"count" validate:"min=1"`
}

// Strata is the stratification target of a quiz.
type Strata []Stratum

// Total is the number of items a quiz built from s contains.
func (s Strata) Total() int {
	total := 0
	for _, st := range s {
		total += st.Count
	}
	return total
}

// Merged folds strata that name the same level into one, keeping first-seen order.
func (s Strata) Merged() Strata {
	out := make(Strata, 0, len(s))
	index := make(map[Level]int, len(s))
	for _, st := range s {
		if i, ok := index[st.Level]; ok {
			out[i].Count += st.Count
			continue
		}
		index[st.Level] = len(out)
		out = append(out, st)
	}
	return out
}

// Scope restricts a quiz to a subset of concepts. The zero value means the full bank.
type Scope struct {
	Concepts []string `json:"scope"`
}

// Label is the human readable scope stored on the attempt.
func (s Scope) Label() string {
	if len(s.Concepts) == 0 {
		return "all"
	}
	return strings.Join(s.Concepts, ", ")
}

// Includes reports whether concept belongs to the scope.
func (s Scope) Includes(concept string) bool {
	if len(s.Concepts) == 0 {
		return true
	}
	for _, c := range s.Concepts {
		if c == concept {
			return true
		}
	}
	return false
}

// Attempt is one quiz sitting of a student.
type Attempt struct {
	ID           string     `json:"id"`
	StudentID    string     `json:"studentId"`
	Scope        string     `json:"scope"`
	StartedAt    time.Time  `json:"startedAt"`
	FinishedAt   *time.Time `json:"finishedAt,omitempty"`
	ItemsTotal   int        `json:"itemsTotal"`
	ItemsCorrect int        `json:"itemsCorrect"`
	ScorePct     float64    `json:"scorePct"`
}

// Graded reports whether the attempt reached its terminal state.
func (a Attempt) Graded() bool {
	return a.FinishedAt != nil
}

// Response is the graded answer to one item of an attempt.
type Response struct {
	AttemptID    string  `json:"attemptId"`
	StudentID    string  `json:"studentId"`
	ItemID       string  `json:"itemId"`
	Answer       string  `json:"answer"`
	Correct      bool    `json:"correct"`
	ResponseTime float64 `json:"responseTime"`
}

// MasteryRecord holds the latest mastery evaluation of a concept for a student.
type MasteryRecord struct {
	StudentID string    `json:"studentId"`
	Concept   string    `json:"concept"`
	Mastered  bool      `json:"mastered"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Recommendation statuses.
const (
	RecommendationPending = "Pending"
	RecommendationDone    = "Done"
)

// Recommendation is an append-only remedial suggestion.
type Recommendation struct {
	ID        string    `json:"id"`
	StudentID string    `json:"studentId"`
	Concept   string    `json:"concept"`
	Action    string    `json:"suggestedAction"`
	ModuleID  *int64    `json:"moduleId,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Module is a learning module a recommendation can point to.
type Module struct {
	ID          int64  `json:"id" yaml:"-"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Level       Level  `json:"level" yaml:"level"`
	Concept     string `json:"concept" yaml:"concept"`
	ResourceURL string `json:"resourceUrl" yaml:"resource_url"`
}

// MaxModuleScore is the top score of a module check.
const MaxModuleScore = 3

// ModuleProgress is a student's latest result on a module check, 0..MaxModuleScore.
// Resubmitting overwrites score and completion time.
type ModuleProgress struct {
	StudentID   string    `json:"studentId"`
	ModuleID    int64     `json:"moduleId"`
	Score       int       `json:"score"`
	CompletedAt time.Time `json:"completedAt"`
}

// Feedback is a student's rating of the course, 1..5, with an optional comment.
type Feedback struct {
	ID        string    `json:"id"`
	StudentID string    `json:"studentId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// Role separates students from lecturers.
type Role string

const (
	RoleStudent  Role = "student"
	RoleLecturer Role = "lecturer"
)

// Account is a student or lecturer login.
type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ConceptStats aggregates responses of one concept.
type ConceptStats struct {
	Concept      string  `json:"concept"`
	Count        int     `json:"count"`
	Correct      int     `json:"correct"`
	TotalSeconds float64 `json:"totalSeconds"`
}

// Accuracy is the percentage of correct responses, 0 when there are none.
func (s ConceptStats) Accuracy() float64 {
	if s.Count == 0 {
		return 0
	}
	return 100 * float64(s.Correct) / float64(s.Count)
}

// AvgSeconds is the mean response time, 0 when there are no responses.
func (s ConceptStats) AvgSeconds() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.TotalSeconds / float64(s.Count)
}
