package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/recallhq/recall-go-sdk/core"
)

// Manager orchestrates hybrid retrieval and recording over one store.
//
// Retrieval runs the lexical and semantic rankers concurrently against
// the same corpus, joins them, blends their normalized scores, and
// trims the merged set to the caller's token budget. Recording persists
// conversation turns and summaries, routing summary writes through the
// duplicate guard.
type Manager struct {
	store    Store
	embedder Embedder
	cfg      core.Config
	logger   *log.Logger

	keyword  *KeywordRanker
	semantic *SemanticRanker
	guard    *DuplicateGuard
}

// NewManager builds a Manager. A nil logger falls back to the package
// default.
func NewManager(store Store, embedder Embedder, cfg core.Config, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	m := &Manager{
		store:    store,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger,
		keyword:  NewKeywordRanker(store, cfg.Keywords),
		semantic: NewSemanticRanker(store, embedder, cfg.CandidateLimit),
	}
	m.guard = NewDuplicateGuard(store, embedder, logger)
	if cfg.DistanceThreshold > 0 {
		m.guard.DistanceThreshold = cfg.DistanceThreshold
	}
	if cfg.SimilarityThreshold > 0 {
		m.guard.SimilarityThreshold = cfg.SimilarityThreshold
	}
	return m
}

// Store returns the manager's backing store.
func (m *Manager) Store() Store {
	return m.store
}

// Guard returns the manager's duplicate guard.
func (m *Manager) Guard() *DuplicateGuard {
	return m.guard
}

// Search runs hybrid retrieval for the query under the token budget.
// Both rankers run concurrently and must complete before their lists
// are combined; either ranker's infrastructure failure propagates.
// A budget of 0 falls back to the configured context budget.
func (m *Manager) Search(ctx context.Context, query string, budget int) ([]SearchResult, error) {
	if budget <= 0 {
		budget = m.cfg.ContextBudget
	}

	type ranked struct {
		results []SearchResult
		err     error
	}
	keywordCh := make(chan ranked, 1)
	semanticCh := make(chan ranked, 1)

	go func() {
		results, err := m.keyword.Rank(ctx, query, budget)
		keywordCh <- ranked{results, err}
	}()
	go func() {
		results, err := m.semantic.Rank(ctx, query, budget)
		semanticCh <- ranked{results, err}
	}()

	lexical := <-keywordCh
	vector := <-semanticCh
	if lexical.err != nil {
		return nil, fmt.Errorf("keyword ranker: %w", lexical.err)
	}
	if vector.err != nil {
		return nil, fmt.Errorf("semantic ranker: %w", vector.err)
	}

	combined := Combine(lexical.results, vector.results, m.cfg.BlendWeight)
	trimmed := Trim(combined, budget)

	m.logger.Debug("hybrid search",
		"query_len", len(query),
		"keyword", len(lexical.results),
		"semantic", len(vector.results),
		"combined", len(combined),
		"returned", len(trimmed))
	return trimmed, nil
}

// Retrieve runs Search and formats the result set into a prompt block
// ready for injection. An empty result formats to an empty string.
func (m *Manager) Retrieve(ctx context.Context, query string, budget int) (string, error) {
	results, err := m.Search(ctx, query, budget)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString("=== RELEVANT MEMORIES ===\n")
	for i, r := range results {
		line := strings.TrimSpace(r.Entry.Content)
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, r.Entry.Kind, line)
	}
	return b.String(), nil
}

// RecordExchange persists one user/assistant exchange as two
// conversation-turn entries. Inserts are idempotent on content.
func (m *Manager) RecordExchange(ctx context.Context, userMessage, assistantMessage string) error {
	if strings.TrimSpace(userMessage) != "" {
		if _, err := m.Insert(ctx, &Entry{
			Kind:    KindConversationTurn,
			Content: userMessage,
			Role:    string(core.RoleUser),
		}); err != nil {
			return fmt.Errorf("record user turn: %w", err)
		}
	}
	if strings.TrimSpace(assistantMessage) != "" {
		if _, err := m.Insert(ctx, &Entry{
			Kind:    KindConversationTurn,
			Content: assistantMessage,
			Role:    string(core.RoleAssistant),
		}); err != nil {
			return fmt.Errorf("record assistant turn: %w", err)
		}
	}
	return nil
}

// Insert embeds and persists one entry. Tokens are estimated when not
// precomputed; the entry's embedding is always derived here so stored
// vectors stay consistent with the configured embedder.
func (m *Manager) Insert(ctx context.Context, e *Entry) (*Entry, error) {
	if strings.TrimSpace(e.Content) == "" {
		return nil, fmt.Errorf("entry content must not be empty")
	}
	if e.Tokens == 0 {
		e.Tokens = EstimateTokens(e.Content)
	}
	if len(e.Embedding) == 0 {
		vector, err := m.embedder.Embed(ctx, e.Content)
		if err != nil {
			return nil, fmt.Errorf("embed content: %w", err)
		}
		e.Embedding = vector
	}
	return m.store.Insert(ctx, e)
}

// Remember stores a new memory of the given kind. Conversation-summary
// writes pass through the duplicate guard first: when near-duplicates
// exist the write is withheld and the matches are returned so the
// caller can update one of them instead.
func (m *Manager) Remember(ctx context.Context, content string, kind Kind, pinned bool) (*Entry, []Duplicate, error) {
	if kind == "" {
		kind = KindConversationSummary
	}
	if kind == KindConversationSummary {
		if dups := m.guard.Check(ctx, content); len(dups) > 0 {
			m.logger.Info("summary write blocked by duplicate guard", "matches", len(dups))
			return nil, dups, nil
		}
	}
	entry, err := m.Insert(ctx, &Entry{Kind: kind, Content: content, Pinned: pinned})
	if err != nil {
		return nil, nil, err
	}
	return entry, nil, nil
}

// Forget removes one entry by metadata identity.
func (m *Manager) Forget(ctx context.Context, id string) error {
	return m.store.Delete(ctx, id)
}
