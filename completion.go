package relay

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/azure"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
)

// ErrEmptyCompletion means the upstream answered without usable message
// content in its first choice.
var ErrEmptyCompletion = errors.New("completion response carried no message content")

const completionMaxRetries = 2

func newCompletionClient(cfg Config) (*openai.Client, error) {
	opts := []option.RequestOption{
		option.WithMaxRetries(completionMaxRetries),
	}
	if cfg.CompletionTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.CompletionTimeout))
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	case ProviderAzure:
		endpoint := fmt.Sprintf("https://%s.openai.azure.com", cfg.AzureResourceName)
		opts = append(opts,
			azure.WithEndpoint(endpoint, cfg.AzureAPIVersion),
			azure.WithAPIKey(cfg.AzureAPIKey),
		)
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
	}

	if cfg.CompletionBaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.CompletionBaseURL))
	}

	client := openai.NewClient(opts...)
	return &client, nil
}

// complete sends the window upstream and returns the trimmed assistant
// reply. The configured system prompt, when non-empty, occupies the first
// slot; window entries keep their order after it.
func (r *Relay) complete(ctx context.Context, username string, window []Message) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(window)+1)
	if strings.TrimSpace(r.config.SystemPrompt) != "" {
		messages = append(messages, openai.SystemMessage(r.config.SystemPrompt))
	}
	for _, msg := range window {
		switch msg.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	r.logger.Debug("Calling completion API",
		zap.String("Model", r.config.Model),
		zap.Int("Messages", len(messages)),
	)

	resp, err := r.openaiClient.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    r.config.Model,
		User:     openai.String(userToken(username)),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyCompletion
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// userToken is the opaque per-user correlation token sent upstream. It is a
// one-way hash so the real username never leaves the relay.
func userToken(username string) string {
	sum := sha256.Sum256([]byte("tg_" + username))
	return hex.EncodeToString(sum[:])
}
