// Package qa answers free-form questions about the manual library with a
// language model.
package qa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ziadkadry99/manualview/internal/export"
	"github.com/ziadkadry99/manualview/internal/llm"
	"github.com/ziadkadry99/manualview/internal/manual"
	"github.com/ziadkadry99/manualview/internal/search"
)

// DefaultMaxKnowledgeChars bounds the knowledge document sent with each
// question.
const DefaultMaxKnowledgeChars = 150000

const systemPrompt = `You are a helpful assistant knowledgeable about the technical manuals provided below in JSON format. Answer the user's question based *only* on the information contained within this JSON data. If the answer cannot be found in the provided data, say "I cannot find information about that in the provided manuals."`

const passagePrompt = `You are a helpful assistant knowledgeable about the technical manuals excerpted below. Answer the user's question based *only* on these excerpts. If the answer cannot be found in them, say "I cannot find information about that in the provided manuals."`

var (
	// ErrNoProvider is returned when no language model is configured.
	ErrNoProvider = errors.New("no language model configured")
	// ErrEmptyQuestion is returned for blank questions.
	ErrEmptyQuestion = errors.New("question is empty")
)

// Library supplies every manual in the collection.
type Library interface {
	All(ctx context.Context) ([]*manual.Manual, error)
}

// Options configures an Engine.
type Options struct {
	Provider llm.Provider
	Model    string
	// Index switches context building to semantic retrieval when set.
	Index             *search.Index
	Passages          int
	MaxKnowledgeChars int
	MaxTokens         int
	Log               *Log
	Logger            *slog.Logger
}

// Answer is the result of one question.
type Answer struct {
	ID           string           `json:"id,omitempty"`
	Question     string           `json:"question"`
	Answer       string           `json:"answer"`
	Sources      []search.Passage `json:"sources,omitempty"`
	Truncated    bool             `json:"truncated,omitempty"`
	InputTokens  int              `json:"input_tokens,omitempty"`
	OutputTokens int              `json:"output_tokens,omitempty"`
}

// Engine builds context from the library and queries the provider.
type Engine struct {
	library  Library
	provider llm.Provider
	model    string
	index    *search.Index
	passages int
	maxChars int
	maxTok   int
	log      *Log
	logger   *slog.Logger
}

// NewEngine creates a question answering engine over library.
func NewEngine(library Library, opts Options) *Engine {
	e := &Engine{
		library:  library,
		provider: opts.Provider,
		model:    opts.Model,
		index:    opts.Index,
		passages: opts.Passages,
		maxChars: opts.MaxKnowledgeChars,
		maxTok:   opts.MaxTokens,
		log:      opts.Log,
		logger:   opts.Logger,
	}
	if e.passages <= 0 {
		e.passages = 8
	}
	if e.maxChars <= 0 {
		e.maxChars = DefaultMaxKnowledgeChars
	}
	if e.maxTok <= 0 {
		e.maxTok = 1024
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Enabled reports whether a provider is configured.
func (e *Engine) Enabled() bool {
	return e.provider != nil
}

// Ask answers question from the library's content.
func (e *Engine) Ask(ctx context.Context, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if e.provider == nil {
		return nil, ErrNoProvider
	}

	ans := &Answer{Question: question}
	system, knowledge, err := e.buildContext(ctx, question, ans)
	if err != nil {
		return nil, err
	}

	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Model: e.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system + "\n\n" + knowledge},
			{Role: llm.RoleUser, Content: question},
		},
		MaxTokens:   e.maxTok,
		Temperature: 0.2,
	})
	if err != nil {
		e.record(ctx, Entry{Question: question, Error: err.Error(), Provider: e.provider.Name(), ContextChars: len(knowledge)})
		return nil, fmt.Errorf("asking %s: %w", e.provider.Name(), err)
	}

	ans.Answer = strings.TrimSpace(resp.Content)
	ans.InputTokens = resp.InputTokens
	ans.OutputTokens = resp.OutputTokens
	ans.ID = e.record(ctx, Entry{
		Question:     question,
		Answer:       ans.Answer,
		Provider:     e.provider.Name(),
		ContextChars: len(knowledge),
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
	})
	return ans, nil
}

func (e *Engine) buildContext(ctx context.Context, question string, ans *Answer) (string, string, error) {
	if e.index != nil && e.index.Count() > 0 {
		passages, err := e.index.Search(ctx, question, e.passages, 0)
		if err != nil {
			return "", "", fmt.Errorf("searching passages: %w", err)
		}
		ans.Sources = passages
		return passagePrompt, search.FormatPassages(passages), nil
	}

	manuals, err := e.library.All(ctx)
	if err != nil {
		return "", "", fmt.Errorf("loading manuals: %w", err)
	}
	knowledge, cut, err := export.KnowledgeText(manuals, e.maxChars)
	if err != nil {
		return "", "", err
	}
	if cut {
		e.logger.WarnContext(ctx, "knowledge truncated", "max_chars", e.maxChars)
	}
	ans.Truncated = cut
	return systemPrompt, knowledge, nil
}

func (e *Engine) record(ctx context.Context, entry Entry) string {
	if e.log == nil {
		return ""
	}
	id, err := e.log.Record(ctx, entry)
	if err != nil {
		e.logger.WarnContext(ctx, "recording question failed", "error", err)
		return ""
	}
	return id
}
