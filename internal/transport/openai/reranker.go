package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/parley-ai/recall/internal/domain"
	"github.com/parley-ai/recall/internal/domain/search/result"
)

const rerankSystemPrompt = `You rank meeting transcript fragments by relevance to a query.
Reply with ONLY a JSON array of the fragment numbers in order of decreasing relevance,
e.g. [2,0,1]. Include every number exactly once. No other text.`

// Reranker reorders search results with a chat-completion model. The reply
// must be a permutation of the candidate indexes; anything else is an error
// and the caller keeps the fused order.
type Reranker struct {
	client   *openai.Client
	model    string
	provider string
	logger   *zap.Logger
}

// NewReranker creates an OpenAI-compatible reranking provider.
func NewReranker(cfg *Config) *Reranker {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Reranker{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    cfg.Model,
		provider: cfg.Provider,
		logger:   logger,
	}
}

// Rerank implements the search reranker contract.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []result.Result) ([]result.Result, error) {
	if len(candidates) < 2 {
		return candidates, nil
	}

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: rerankSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildRerankPrompt(query, candidates)},
		},
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("rerank request: %w: %w", domain.ErrProviderError, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty rerank response: %w", domain.ErrProviderError)
	}

	order, err := parseRerankOrder(resp.Choices[0].Message.Content, len(candidates))
	if err != nil {
		return nil, err
	}

	reordered := make([]result.Result, len(candidates))
	for pos, idx := range order {
		reordered[pos] = candidates[idx]
	}
	return reordered, nil
}

// HealthCheck verifies API availability via ListModels.
func (r *Reranker) HealthCheck(ctx context.Context) error {
	if _, err := r.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func buildRerankPrompt(query string, candidates []result.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n\nFragments:\n", query)
	for i := range candidates {
		fmt.Fprintf(&b, "[%d] %s\n", i, candidates[i].Text())
	}
	return b.String()
}

// parseRerankOrder parses the model reply into a permutation of [0, n).
func parseRerankOrder(reply string, n int) ([]int, error) {
	// Models occasionally wrap the array in a code fence despite instructions.
	reply = strings.TrimSpace(reply)
	reply = strings.TrimPrefix(reply, "```json")
	reply = strings.TrimPrefix(reply, "```")
	reply = strings.TrimSuffix(reply, "```")
	reply = strings.TrimSpace(reply)

	var order []int
	if err := json.Unmarshal([]byte(reply), &order); err != nil {
		return nil, fmt.Errorf("malformed rerank reply: %w", err)
	}
	if len(order) != n {
		return nil, fmt.Errorf("rerank reply has %d entries, want %d", len(order), n)
	}

	seen := make([]bool, n)
	for _, idx := range order {
		if idx < 0 || idx >= n || seen[idx] {
			return nil, fmt.Errorf("rerank reply is not a permutation of [0, %d)", n)
		}
		seen[idx] = true
	}
	return order, nil
}
