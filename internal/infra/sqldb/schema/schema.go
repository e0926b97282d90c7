// Package schema declares the bun row models shared by the store and its migrations.
package schema

import (
	"time"

	"github.com/uptrace/bun"
)

type Student struct {
	bun.BaseModel `bun:"table:students,alias:s"`

	ID           string    `bun:"id,pk"`
	Name         string    `bun:"name,notnull"`
	Email        string    `bun:"email,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type Lecturer struct {
	bun.BaseModel `bun:"table:lecturers,alias:l"`

	ID           string    `bun:"id,pk"`
	Name         string    `bun:"name,notnull"`
	Email        string    `bun:"email,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type QuizItem struct {
	bun.BaseModel `bun:"table:quiz_items,alias:qi"`

	ID            string   `bun:"id,pk"`
	Question      string   `bun:"question,notnull"`
	Options       []string `bun:"options,notnull"`
	CorrectAnswer string   `bun:"correct_answer,notnull"`
	Level         string   `bun:"nf_level,notnull"`
	Concept       string   `bun:"concept_tag,notnull"`
	Explanation   string   `bun:"explanation,notnull,default:''"`
}

type Module struct {
	bun.BaseModel `bun:"table:modules,alias:m"`

	ID          int64  `bun:"id,pk,autoincrement"`
	Title       string `bun:"title,notnull,unique"`
	Description string `bun:"description,notnull,default:''"`
	Level       string `bun:"nf_level,notnull"`
	Concept     string `bun:"concept_tag,notnull"`
	ResourceURL string `bun:"resource_url,notnull,default:''"`
}

type Attempt struct {
	bun.BaseModel `bun:"table:attempts,alias:a"`

	ID           string     `bun:"id,pk"`
	StudentID    string     `bun:"student_id,notnull"`
	Scope        string     `bun:"scope,notnull"`
	StartedAt    time.Time  `bun:"started_at,notnull"`
	FinishedAt   *time.Time `bun:"finished_at"`
	ItemsTotal   int        `bun:"items_total,notnull"`
	ItemsCorrect int        `bun:"items_correct,notnull,default:0"`
	ScorePct     float64    `bun:"score_pct,notnull,default:0"`
}

type AttemptItem struct {
	bun.BaseModel `bun:"table:attempt_items,alias:ai"`

	AttemptID string `bun:"attempt_id,pk"`
	ItemID    string `bun:"item_id,pk"`
	Position  int    `bun:"position,notnull"`
}

type Response struct {
	bun.BaseModel `bun:"table:responses,alias:r"`

	ID           int64   `bun:"id,pk,autoincrement"`
	AttemptID    string  `bun:"attempt_id,notnull,unique:responses_attempt_item"`
	StudentID    string  `bun:"student_id,notnull"`
	ItemID       string  `bun:"item_id,notnull,unique:responses_attempt_item"`
	Answer       string  `bun:"answer,notnull"`
	Correct      bool    `bun:"correct,notnull"`
	ResponseTime float64 `bun:"response_time_s,notnull"`
}

type Mastery struct {
	bun.BaseModel `bun:"table:mastery,alias:ms"`

	StudentID string    `bun:"student_id,pk"`
	Concept   string    `bun:"concept_tag,pk"`
	Mastered  bool      `bun:"mastered,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

type Recommendation struct {
	bun.BaseModel `bun:"table:recommendations,alias:rec"`

	ID        string    `bun:"id,pk"`
	StudentID string    `bun:"student_id,notnull"`
	Concept   string    `bun:"concept_tag,notnull"`
	Action    string    `bun:"suggested_action,notnull"`
	ModuleID  *int64    `bun:"module_id"`
	Status    string    `bun:"status,notnull,default:'Pending'"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

type ModuleProgress struct {
	bun.BaseModel `bun:"table:module_progress,alias:mp"`

	StudentID   string    `bun:"student_id,pk"`
	ModuleID    int64     `bun:"module_id,pk"`
	Score       int       `bun:"score,notnull"`
	CompletedAt time.Time `bun:"completed_at,notnull"`
}

type Feedback struct {
	bun.BaseModel `bun:"table:feedback,alias:fb"`

	ID        string    `bun:"id,pk"`
	StudentID string    `bun:"student_id,notnull"`
	Rating    int       `bun:"rating,notnull"`
	Comment   string    `bun:"comment,notnull,default:''"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}
