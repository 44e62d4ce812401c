package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// ErrEmptyCompletion is returned when the model answers with no text.
var ErrEmptyCompletion = errors.New("empty completion")

// Service answers health questions through a prompt -> chat model chain.
type Service struct {
	chain      compose.Runnable[map[string]any, *schema.Message]
	disclaimer string
}

// NewService compiles the answer chain around chatModel. disclaimer is
// appended to completions that lack one.
func NewService(ctx context.Context, chatModel model.BaseChatModel, disclaimer string) (*Service, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chain:      runnable,
		disclaimer: disclaimer,
	}, nil
}

// Answer runs a single completion for query and returns HTML carrying a disclaimer.
func (s *Service) Answer(ctx context.Context, sessionID, query string) (string, error) {
	input := map[string]any{
		"system": SystemPrompt,
		"query":  query,
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return "", ErrEmptyCompletion
	}

	log.Printf("[ai] generated response for session=%s, length=%d", sessionID, len(response.Content))
	return EnsureDisclaimer(response.Content, s.disclaimer), nil
}
