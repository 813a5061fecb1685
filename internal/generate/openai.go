package generate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/neural-chilli/codesworth/internal/cerrors"
	"github.com/neural-chilli/codesworth/internal/config"
	"github.com/neural-chilli/codesworth/internal/docunit"
	"github.com/neural-chilli/codesworth/internal/protect"
	"github.com/neural-chilli/codesworth/internal/retry"
)

const enhanceSystemPrompt = `You improve auto-generated source documentation.
Rewrite the generated prose to be clearer and more useful to developers.
You MUST keep every line of the form "<!-- PROTECTED: ... -->" and
"<!-- /PROTECTED -->" exactly as-is, in the same order, and you MUST NOT add,
remove, or reorder such lines. Respond with the full document body only.`

// OpenAIGenerator enhances the template generator's output through an
// OpenAI-compatible chat completion API. It is strictly additive: when the
// model's response violates the protected-marker contract or the call fails
// past its retry budget, the template output is used unchanged.
type OpenAIGenerator struct {
	client *openai.Client
	inner  Generator
	model  string
	maxTok int
	temp   float32
	policy retry.Policy
}

// NewOpenAIGenerator wraps inner with LLM enhancement per the config.
func NewOpenAIGenerator(cfg config.LLMConfig, inner Generator) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("llm: api_key is required (or base_url for a local endpoint)")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientCfg),
		inner:  inner,
		model:  cfg.Model,
		maxTok: cfg.MaxTokens,
		temp:   cfg.Temperature,
		policy: retry.NewPolicy(cfg.Retry.Mode, cfg.Retry.Initial, cfg.Retry.Max, cfg.Retry.MaxRetries),
	}, nil
}

// Name implements Generator.
func (g *OpenAIGenerator) Name() string { return "openai" }

// Generate implements Generator.
func (g *OpenAIGenerator) Generate(ctx context.Context, unit *docunit.Unit, gctx Context) (string, error) {
	base, err := g.inner.Generate(ctx, unit, gctx)
	if err != nil {
		return "", err
	}

	var enhanced string
	callErr := g.policy.Do(ctx, func() error {
		resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       g.model,
			MaxTokens:   g.maxTok,
			Temperature: g.temp,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: enhanceSystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: g.userPrompt(unit, gctx, base)},
			},
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("empty completion response")
		}
		enhanced = strings.TrimSpace(resp.Choices[0].Message.Content) + "\n"
		return nil
	})
	if callErr != nil {
		if ctx.Err() != nil {
			return "", cerrors.Wrap(callErr, cerrors.CategoryGenerate, "llm enhancement canceled").
				WithContext("unit", unit.Identity).
				Build()
		}
		slog.Warn("llm enhancement failed, using template output",
			"unit", unit.Identity, "error", callErr)
		return base, nil
	}

	if !sameProtectedLayout(base, enhanced) {
		slog.Warn("llm response broke protected markers, using template output",
			"unit", unit.Identity)
		return base, nil
	}
	return enhanced, nil
}

func (g *OpenAIGenerator) userPrompt(unit *docunit.Unit, gctx Context, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\nUnit: %s (%s, %s)\n", gctx.ProjectName, unit.Identity, unit.Kind, unit.Language)
	if unit.Doc != "" {
		fmt.Fprintf(&b, "Unit doc comment:\n%s\n", unit.Doc)
	}
	b.WriteString("\nGenerated document body to improve:\n\n")
	b.WriteString(body)
	return b.String()
}

// sameProtectedLayout verifies the enhanced body carries exactly the same
// protected placeholders, in the same order, as the base body.
func sameProtectedLayout(base, enhanced string) bool {
	_, baseBlocks, err := protect.Extract(base)
	if err != nil {
		return false
	}
	_, enhancedBlocks, err := protect.Extract(enhanced)
	if err != nil {
		return false
	}
	if len(baseBlocks) != len(enhancedBlocks) {
		return false
	}
	for i := range baseBlocks {
		if baseBlocks[i].ID != enhancedBlocks[i].ID {
			return false
		}
	}
	return true
}
