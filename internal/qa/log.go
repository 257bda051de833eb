package qa

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/manualview/internal/db"
)

// Entry is one row of the question log.
type Entry struct {
	ID           string    `json:"id"`
	Question     string    `json:"question"`
	Answer       string    `json:"answer,omitempty"`
	Error        string    `json:"error,omitempty"`
	Provider     string    `json:"provider"`
	ContextChars int       `json:"context_chars"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	CreatedAt    time.Time `json:"created_at"`
}

// Log persists asked questions.
type Log struct {
	db *db.DB
}

// NewLog creates a question log.
func NewLog(database *db.DB) *Log {
	return &Log{db: database}
}

// Record stores entry and returns its id.
func (l *Log) Record(ctx context.Context, e Entry) (string, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO qa_log (id, question, answer, error, provider, context_chars, input_tokens, output_tokens, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Question, e.Answer, e.Error, e.Provider, e.ContextChars, e.InputTokens, e.OutputTokens, e.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("inserting qa log entry: %w", err)
	}
	return e.ID, nil
}

// Recent returns up to limit entries, newest first.
func (l *Log) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, question, answer, error, provider, context_chars, input_tokens, output_tokens, created_at
		 FROM qa_log ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing qa log: %w", err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Question, &e.Answer, &e.Error, &e.Provider,
			&e.ContextChars, &e.InputTokens, &e.OutputTokens, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning qa log entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
