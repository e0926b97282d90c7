package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"nf-quiz-service/internal/domain"

	"github.com/jackc/pgx/v4/pgxpool"
)

// BankLoader reads the question bank straight from Postgres over a pgx pool.
// It is the read path for the bank cache when the store runs on Postgres.
type BankLoader struct {
	pool *pgxpool.Pool
}

func NewBankLoader(pool *pgxpool.Pool) *BankLoader {
	return &BankLoader{pool: pool}
}

const selectBankSQL = `SELECT id, question, options, correct_answer, nf_level, concept_tag, explanation
FROM quiz_items ORDER BY nf_level, id`

func (l *BankLoader) LoadBank(ctx context.Context) ([]domain.QuizItem, error) {
	rows, err := l.pool.Query(ctx, selectBankSQL)
	if err != nil {
		return nil, fmt.Errorf("load bank: %w", err)
	}
	defer rows.Close()

	var items []domain.QuizItem
	for rows.Next() {
		var (
			item    domain.QuizItem
			rawOpts []byte
			level   string
		)
		if err := rows.Scan(&item.ID, &item.Question, &rawOpts, &item.CorrectAnswer, &level, &item.Concept, &item.Explanation); err != nil {
			return nil, fmt.Errorf("scan quiz item: %w", err)
		}
		if err := json.Unmarshal(rawOpts, &item.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options of %s: %w", item.ID, err)
		}
		item.Level = domain.Level(level)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bank: %w", err)
	}
	if len(items) == 0 {
		return nil, domain.ErrItemNotFound
	}
	return items, nil
}

// Connect opens a pgx pool for url.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}
