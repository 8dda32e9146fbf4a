package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/erricrr/hf-togetherai-rpg/internal/turn"
	"github.com/erricrr/hf-togetherai-rpg/pkg/chat"
	"github.com/erricrr/hf-togetherai-rpg/pkg/prompts"
	"github.com/erricrr/hf-togetherai-rpg/pkg/textfilter"
)

const (
	verdictSafe   = "safe"
	verdictUnsafe = "unsafe"
)

var (
	_ turn.SafetyGate = (*GuardGate)(nil)
	_ turn.SafetyGate = (*ProfanityGate)(nil)
	_ turn.SafetyGate = ChainGate(nil)
)

// GuardGate checks text with a guard model such as LlamaGuard.
type GuardGate struct {
	completer Completer
	policy    string
	logger    *slog.Logger
}

// NewGuardGate creates a gate around completer. An empty policy uses the all-ages policy.
func NewGuardGate(completer Completer, policy string, logger *slog.Logger) *GuardGate {
	return &GuardGate{
		completer: completer,
		policy:    policy,
		logger:    logger,
	}
}

// Check asks the guard model for a verdict. Transport errors are returned;
// the orchestrator treats them as unsafe.
func (g *GuardGate) Check(ctx context.Context, text string) (turn.Verdict, error) {
	out, err := g.completer.Complete(ctx, prompts.BuildGuardPrompt(g.policy, text))
	if err != nil {
		return turn.Verdict{}, fmt.Errorf("guard completion failed: %w", err)
	}

	verdict := ParseVerdict(out)
	if !verdict.Safe && g.logger != nil {
		g.logger.Debug("Guard flagged text", "categories", verdict.Categories, "raw", strings.TrimSpace(out))
	}
	return verdict, nil
}

// ParseVerdict reads a guard model reply. Only a reply that is exactly "safe"
// after trimming is safe; anything else, including a malformed reply, is unsafe.
// When the first line is "unsafe", the second line is read as a comma-separated category list.
func ParseVerdict(out string) turn.Verdict {
	trimmed := strings.TrimSpace(out)
	if trimmed == verdictSafe {
		return turn.Verdict{Safe: true}
	}

	lines := strings.Split(trimmed, "\n")
	if strings.TrimSpace(lines[0]) != verdictUnsafe || len(lines) < 2 {
		return turn.Verdict{Safe: false}
	}

	var categories []string
	for _, c := range strings.Split(lines[1], ",") {
		if c = strings.TrimSpace(c); c != "" {
			categories = append(categories, c)
		}
	}
	return turn.Verdict{Safe: false, Categories: categories}
}

// ChatCompleter lets a chat-only LLMService host the guard prompt.
type ChatCompleter struct {
	llm LLMService
}

// NewChatCompleter wraps llm as a Completer using its backend model.
func NewChatCompleter(llm LLMService) *ChatCompleter {
	return &ChatCompleter{llm: llm}
}

// Complete sends prompt as a single user message
func (c *ChatCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.llm.BackendChat(ctx, []chat.ChatMessage{{Role: chat.ChatRoleUser, Content: prompt}})
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// ProfanityGate flags text containing blocked terms without calling a model.
type ProfanityGate struct {
	filter *textfilter.ProfanityFilter
}

// NewProfanityGate creates a local word-list gate
func NewProfanityGate() *ProfanityGate {
	return &ProfanityGate{filter: textfilter.NewProfanityFilter()}
}

// Check never returns an error
func (p *ProfanityGate) Check(ctx context.Context, text string) (turn.Verdict, error) {
	categories := p.filter.Categories(text)
	return turn.Verdict{Safe: len(categories) == 0, Categories: categories}, nil
}

// ChainGate runs gates in order. Text is safe only if every gate says so;
// the first unsafe verdict or error stops the chain.
type ChainGate []turn.SafetyGate

// Check implements turn.SafetyGate
func (c ChainGate) Check(ctx context.Context, text string) (turn.Verdict, error) {
	if len(c) == 0 {
		return turn.Verdict{}, fmt.Errorf("no safety gates configured")
	}
	for _, gate := range c {
		verdict, err := gate.Check(ctx, text)
		if err != nil {
			return turn.Verdict{}, err
		}
		if !verdict.Safe {
			return verdict, nil
		}
	}
	return turn.Verdict{Safe: true}, nil
}
