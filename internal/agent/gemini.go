package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/haggle-core-poc/server/internal/agent/prompts"
	"github.com/haggle-core-poc/server/internal/negotiation/model"
	logx "github.com/haggle-core-poc/server/pkg/logger"
)

// Config holds everything needed to build the Gemini-backed reply generator.
type Config struct {
	APIKey  string
	BaseURL string
	Model   model.ReplyModelConfig
	Prompt  model.ReplyPromptConfig
}

// GeminiReplier generates seller replies with a Gemini chat model. Each call
// is bounded by the configured timeout so a slow model degrades to the
// fallback string instead of stalling the turn.
type GeminiReplier struct {
	model   *gemini.ChatModel
	prompt  model.ReplyPromptConfig
	timeout time.Duration
}

func NewGeminiReplier(ctx context.Context, cfg Config) (*GeminiReplier, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Model.Model,
		Temperature: &cfg.Model.Temperature,
		MaxTokens:   &cfg.Model.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating reply model")
		return nil, fmt.Errorf("error creating reply model: %w", err)
	}

	timeout, err := time.ParseDuration(cfg.Model.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid REPLY_TIMEOUT %q: %w", cfg.Model.Timeout, err)
	}

	return &GeminiReplier{
		model:   chatModel,
		prompt:  cfg.Prompt,
		timeout: timeout,
	}, nil
}

func (g *GeminiReplier) Reply(ctx context.Context, rec *model.TurnRecord) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	system, err := prompts.RenderReplySystem(ctx, g.prompt)
	if err != nil {
		return "", err
	}

	msgs := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(prompts.BuildReplyUser(g.prompt, rec)),
	}

	out, err := g.model.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}

	logx.Debug().Int("reply_len", len(out.Content)).Msg("seller reply generated")
	return out.Content, nil
}

var _ ReplyGenerator = (*GeminiReplier)(nil)
