package questiongen

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/abhisek/codequiz/internal/llm"
	"github.com/abhisek/codequiz/internal/skill"
)

// LLMGenerator implements Generator using an LLM provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
	logger   *slog.Logger
}

// New creates a new LLMGenerator. A nil logger uses slog.Default.
func New(provider llm.Provider, cfg Config, logger *slog.Logger) *LLMGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMGenerator{provider: provider, config: cfg, logger: logger}
}

// questionOutput is the raw LLM response before validation.
type questionOutput struct {
	Prompt      string   `json:"prompt"`
	Code        string   `json:"code"`
	Format      string   `json:"format"`
	Choices     []string `json:"choices"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation"`
	Difficulty  int      `json:"difficulty"`
}

func (g *LLMGenerator) Generate(ctx context.Context, input GenerateInput) (*Question, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeQuestionGen)

	if target, clamped := skill.ClampDifficulty(input.TargetDifficulty); clamped {
		g.logger.Warn("target difficulty out of range, clamped",
			"topic", input.Topic, "difficulty", input.TargetDifficulty, "clamped", target)
		input.TargetDifficulty = target
	}

	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    llm.UserMessage(buildUserMessage(input, g.config)),
		Schema:      QuestionSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	var raw questionOutput
	if err := llm.Decode(resp, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}

	lang := input.Language
	if lang == "" {
		lang = g.config.DefaultLanguage
	}

	difficulty, clamped := skill.ClampDifficulty(raw.Difficulty)
	if clamped {
		g.logger.Warn("generated difficulty out of range, clamped",
			"topic", input.Topic, "difficulty", raw.Difficulty, "clamped", difficulty)
	}

	q := &Question{
		ID:          uuid.NewString(),
		Topic:       input.Topic,
		Language:    lang,
		Prompt:      raw.Prompt,
		Code:        raw.Code,
		Format:      Format(raw.Format),
		Choices:     raw.Choices,
		Answer:      raw.Answer,
		Explanation: raw.Explanation,
		Difficulty:  difficulty,
	}
	if q.Format == FormatFreeText {
		q.Choices = nil
	}

	for _, v := range g.config.Validators {
		if verr := v.Validate(q, input); verr != nil {
			return nil, verr
		}
	}
	return q, nil
}
