package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"nf-quiz-service/internal/app"
	"nf-quiz-service/internal/domain"
	"nf-quiz-service/internal/infra/sqldb/schema"

	"github.com/uptrace/bun"
)

// Store implements the persistence ports of the app layer on top of bun.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for migrations and health checks.
func (s *Store) DB() *bun.DB {
	return s.db
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// LoadBank returns every quiz item ordered by level and id.
func (s *Store) LoadBank(ctx context.Context) ([]domain.QuizItem, error) {
	var rows []schema.QuizItem
	if err := s.db.NewSelect().Model(&rows).OrderExpr("qi.nf_level ASC, qi.id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("load bank: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrItemNotFound
	}
	items := make([]domain.QuizItem, len(rows))
	for i, r := range rows {
		items[i] = toQuizItem(r)
	}
	return items, nil
}

// CreateAttempt stores a started attempt with its ordered items.
func (s *Store) CreateAttempt(ctx context.Context, attempt domain.Attempt, itemIDs []string) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := schema.Attempt{
			ID:         attempt.ID,
			StudentID:  attempt.StudentID,
			Scope:      attempt.Scope,
			StartedAt:  attempt.StartedAt,
			ItemsTotal: attempt.ItemsTotal,
		}
		if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
			return fmt.Errorf("insert attempt: %w", err)
		}
		if len(itemIDs) == 0 {
			return nil
		}
		items := make([]schema.AttemptItem, len(itemIDs))
		for i, id := range itemIDs {
			items[i] = schema.AttemptItem{AttemptID: attempt.ID, ItemID: id, Position: i + 1}
		}
		if _, err := tx.NewInsert().Model(&items).Exec(ctx); err != nil {
			return fmt.Errorf("insert attempt items: %w", err)
		}
		return nil
	})
}

// RunInTx runs fn in one database transaction; any error rolls everything back.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx app.GradingTx) error) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &gradingTx{db: tx})
	})
}

// CreateAccount inserts a student or lecturer, rejecting an email already in use for that role.
func (s *Store) CreateAccount(ctx context.Context, acc domain.Account) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var model interface{}
		switch acc.Role {
		case domain.RoleStudent:
			model = &schema.Student{ID: acc.ID, Name: acc.Name, Email: acc.Email, PasswordHash: acc.PasswordHash, CreatedAt: acc.CreatedAt}
		case domain.RoleLecturer:
			model = &schema.Lecturer{ID: acc.ID, Name: acc.Name, Email: acc.Email, PasswordHash: acc.PasswordHash, CreatedAt: acc.CreatedAt}
		default:
			return fmt.Errorf("unknown role %q", acc.Role)
		}
		exists, err := tx.NewSelect().Model(model).Where("email = ?", acc.Email).Exists(ctx)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if exists {
			return domain.ErrEmailTaken
		}
		if _, err := tx.NewInsert().Model(model).Exec(ctx); err != nil {
			return fmt.Errorf("insert account: %w", err)
		}
		return nil
	})
}

func (s *Store) AccountByEmail(ctx context.Context, role domain.Role, email string) (domain.Account, error) {
	return s.account(ctx, role, "email = ?", strings.TrimSpace(email))
}

func (s *Store) AccountByID(ctx context.Context, role domain.Role, id string) (domain.Account, error) {
	return s.account(ctx, role, "id = ?", id)
}

func (s *Store) account(ctx context.Context, role domain.Role, where string, arg interface{}) (domain.Account, error) {
	switch role {
	case domain.RoleStudent:
		var row schema.Student
		if err := s.db.NewSelect().Model(&row).Where(where, arg).Scan(ctx); err != nil {
			return domain.Account{}, notFound(err, domain.ErrAccountNotFound)
		}
		return toStudent(row), nil
	case domain.RoleLecturer:
		var row schema.Lecturer
		if err := s.db.NewSelect().Model(&row).Where(where, arg).Scan(ctx); err != nil {
			return domain.Account{}, notFound(err, domain.ErrAccountNotFound)
		}
		return toLecturer(row), nil
	default:
		return domain.Account{}, domain.ErrAccountNotFound
	}
}

// DeleteStudent removes a student; foreign keys cascade to every row the student owns.
func (s *Store) DeleteStudent(ctx context.Context, id string) error {
	res, err := s.db.NewDelete().Model((*schema.Student)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (s *Store) ListModules(ctx context.Context) ([]domain.Module, error) {
	var rows []schema.Module
	if err := s.db.NewSelect().Model(&rows).OrderExpr("m.id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	out := make([]domain.Module, len(rows))
	for i, r := range rows {
		out[i] = toModule(r)
	}
	return out, nil
}

func notFound(err, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return err
}
